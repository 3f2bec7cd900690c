package utils

import (
	"math/bits"
	"strings"
)

// BitArray is a fixed size membership set indexed by element or facet
// number. Set operations return new arrays and never modify their inputs.
type BitArray struct {
	n     int
	words []uint64
}

func NewBitArray(n int) BitArray {
	return BitArray{n: n, words: make([]uint64, (n+63)/64)}
}

func (b BitArray) Len() int { return b.n }

func (b BitArray) Test(i int) bool {
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

func (b BitArray) Set(i int) {
	b.words[i>>6] |= 1 << (uint(i) & 63)
}

func (b BitArray) Clear(i int) {
	b.words[i>>6] &^= 1 << (uint(i) & 63)
}

// SetTo sets or clears bit i.
func (b BitArray) SetTo(i int, val bool) {
	if val {
		b.Set(i)
	} else {
		b.Clear(i)
	}
}

// NumSet returns the number of set bits.
func (b BitArray) NumSet() (count int) {
	for _, w := range b.words {
		count += bits.OnesCount64(w)
	}
	return
}

// Indices returns the set bit positions in ascending order.
func (b BitArray) Indices() (ind []int) {
	ind = make([]int, 0, b.NumSet())
	for wi, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			ind = append(ind, wi*64+tz)
			w &= w - 1
		}
	}
	return
}

func (b BitArray) Copy() BitArray {
	c := BitArray{n: b.n, words: make([]uint64, len(b.words))}
	copy(c.words, b.words)
	return c
}

func (b BitArray) And(o BitArray) BitArray {
	b.checkLen(o)
	c := b.Copy()
	for i := range c.words {
		c.words[i] &= o.words[i]
	}
	return c
}

func (b BitArray) Or(o BitArray) BitArray {
	b.checkLen(o)
	c := b.Copy()
	for i := range c.words {
		c.words[i] |= o.words[i]
	}
	return c
}

// AndNot returns b & ~o.
func (b BitArray) AndNot(o BitArray) BitArray {
	b.checkLen(o)
	c := b.Copy()
	for i := range c.words {
		c.words[i] &^= o.words[i]
	}
	return c
}

func (b BitArray) Not() BitArray {
	c := b.Copy()
	for i := range c.words {
		c.words[i] = ^c.words[i]
	}
	// keep the padding bits of the last word clear
	if rem := uint(b.n) & 63; rem != 0 {
		c.words[len(c.words)-1] &= (1 << rem) - 1
	}
	return c
}

func (b BitArray) Equal(o BitArray) bool {
	if b.n != o.n {
		return false
	}
	for i := range b.words {
		if b.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

func (b BitArray) String() string {
	var sb strings.Builder
	for i := 0; i < b.n; i++ {
		if b.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (b BitArray) checkLen(o BitArray) {
	if b.n != o.n {
		panic("bit arrays of different length")
	}
}
