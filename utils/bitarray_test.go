package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitArray(t *testing.T) {
	a := NewBitArray(130)
	b := NewBitArray(130)
	for _, i := range []int{0, 3, 64, 129} {
		a.Set(i)
	}
	for _, i := range []int{3, 65, 129} {
		b.Set(i)
	}
	assert.Equal(t, 130, a.Len())
	assert.Equal(t, 4, a.NumSet())
	assert.Equal(t, []int{0, 3, 64, 129}, a.Indices())
	assert.Equal(t, []int{3, 129}, a.And(b).Indices())
	assert.Equal(t, []int{0, 3, 64, 65, 129}, a.Or(b).Indices())
	assert.Equal(t, []int{0, 64}, a.AndNot(b).Indices())
	assert.Equal(t, 126, a.Not().NumSet())
	assert.False(t, a.Not().Test(129))
	// Inputs are untouched by the set operations
	assert.Equal(t, 4, a.NumSet())
	assert.Equal(t, 3, b.NumSet())

	c := a.Copy()
	assert.True(t, c.Equal(a))
	c.Clear(0)
	assert.False(t, c.Equal(a))
	c.SetTo(0, true)
	assert.True(t, c.Equal(a))
	assert.False(t, a.Equal(NewBitArray(129)))
	assert.Equal(t, "1001", func() string {
		d := NewBitArray(4)
		d.Set(0)
		d.Set(3)
		return d.String()
	}())
	assert.Panics(t, func() { a.And(NewBitArray(3)) })
}
