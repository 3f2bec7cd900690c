package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/gocut/types"
)

// Tag selects the side of one level set: negative, positive or the zero
// level (interface).
type Tag uint8

const (
	NEG Tag = iota
	POS
	IF
)

func (t Tag) String() string {
	switch t {
	case NEG:
		return "NEG"
	case POS:
		return "POS"
	case IF:
		return "IF"
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

func (t Tag) valid() bool { return t <= IF }

// Opposite swaps NEG and POS, IF is its own opposite
func (t Tag) Opposite() Tag {
	switch t {
	case NEG:
		return POS
	case POS:
		return NEG
	}
	return t
}

func ParseTag(s string) (Tag, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NEG":
		return NEG, nil
	case "POS":
		return POS, nil
	case "IF":
		return IF, nil
	}
	return 0, fmt.Errorf("%w: unknown domain tag %q", types.ErrInvalidDomainSpec, s)
}

// TagOf classifies a single level set value: IF within eps of zero, else by sign
func TagOf(value, eps float64) Tag {
	switch {
	case math.Abs(value) <= eps:
		return IF
	case value < 0:
		return NEG
	}
	return POS
}

// Spec is an ordered tuple of tags, one per level set. The region it names
// is the intersection of the selected sides.
type Spec []Tag

func NewSpec(tags ...Tag) (Spec, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: empty domain tuple", types.ErrInvalidDomainSpec)
	}
	var nIF int
	for _, t := range tags {
		if !t.valid() {
			return nil, fmt.Errorf("%w: tag %d out of range", types.ErrInvalidDomainSpec, uint8(t))
		}
		if t == IF {
			nIF++
		}
	}
	if nIF > 1 {
		return nil, fmt.Errorf("%w: %v has codimension %d, at most one IF is supported",
			types.ErrInvalidDomainSpec, Spec(tags), nIF)
	}
	return append(Spec(nil), tags...), nil
}

// ParseSpec reads a tuple such as "NEG", "NEG,POS" or "(IF, NEG)"
func ParseSpec(s string) (Spec, error) {
	s = strings.Trim(strings.TrimSpace(s), "()")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	tags := make([]Tag, len(fields))
	for i, f := range fields {
		t, err := ParseTag(f)
		if err != nil {
			return nil, err
		}
		tags[i] = t
	}
	return NewSpec(tags...)
}

func (s Spec) String() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.String()
	}
	if len(s) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Codim is the number of IF entries, 0 for volume regions
func (s Spec) Codim() (n int) {
	for _, t := range s {
		if t == IF {
			n++
		}
	}
	return
}

// IFIndex returns the level set carrying the interface, or -1
func (s Spec) IFIndex() int {
	for i, t := range s {
		if t == IF {
			return i
		}
	}
	return -1
}

func (s Spec) Equal(o Spec) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Matches tests a point given its level set values
func (s Spec) Matches(values []float64, eps float64) bool {
	if len(values) != len(s) {
		return false
	}
	for i, v := range values {
		if TagOf(v, eps) != s[i] {
			return false
		}
	}
	return true
}

// Set is an ordered union of tuples of equal length and equal codimension.
// Duplicates are dropped, first occurrence wins.
type Set struct {
	specs []Spec
}

func NewSet(specs ...Spec) (ds Set, err error) {
	if len(specs) == 0 {
		return ds, fmt.Errorf("%w: empty domain set", types.ErrInvalidDomainSpec)
	}
	for _, s := range specs {
		if _, err = NewSpec(s...); err != nil {
			return
		}
		if len(s) != len(specs[0]) {
			return ds, fmt.Errorf("%w: tuples %v and %v differ in length",
				types.ErrInvalidDomainSpec, specs[0], s)
		}
		if s.Codim() != specs[0].Codim() {
			return ds, fmt.Errorf("%w: tuples %v and %v differ in codimension",
				types.ErrInvalidDomainSpec, specs[0], s)
		}
		if !ds.has(s) {
			ds.specs = append(ds.specs, append(Spec(nil), s...))
		}
	}
	return
}

// MustSet panics on an invalid set, for literals in tests and examples
func MustSet(specs ...Spec) Set {
	ds, err := NewSet(specs...)
	if err != nil {
		panic(err)
	}
	return ds
}

// ParseSet reads tuples separated by '+' or ';', e.g. "(NEG,POS)+(POS,NEG)"
func ParseSet(s string) (Set, error) {
	var specs []Spec
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ';' }) {
		sp, err := ParseSpec(part)
		if err != nil {
			return Set{}, err
		}
		specs = append(specs, sp)
	}
	return NewSet(specs...)
}

func (ds Set) has(s Spec) bool {
	for _, o := range ds.specs {
		if o.Equal(s) {
			return true
		}
	}
	return false
}

// Specs returns the tuples in insertion order
func (ds Set) Specs() []Spec { return ds.specs }

// Size is the number of tuples
func (ds Set) Size() int { return len(ds.specs) }

// Len is the number of level sets each tuple refers to
func (ds Set) Len() int {
	if len(ds.specs) == 0 {
		return 0
	}
	return len(ds.specs[0])
}

func (ds Set) Codim() int {
	if len(ds.specs) == 0 {
		return 0
	}
	return ds.specs[0].Codim()
}

func (ds Set) IsEmpty() bool { return len(ds.specs) == 0 }

// Union is the + of two sets
func (ds Set) Union(o Set) (Set, error) {
	all := append(append([]Spec(nil), ds.specs...), o.specs...)
	return NewSet(all...)
}

// Contains tests whether a point with the given level set values lies in
// any tuple of the set
func (ds Set) Contains(values []float64, eps float64) bool {
	for _, s := range ds.specs {
		if s.Matches(values, eps) {
			return true
		}
	}
	return false
}

// Boundary returns the interface tuples bounding a volume set. Faces shared
// by two tuples of the set are interior to the union and left out.
func (ds Set) Boundary() (Set, error) {
	if ds.Codim() != 0 {
		return Set{}, fmt.Errorf("%w: boundary of the codimension %d set %v",
			types.ErrInvalidDomainSpec, ds.Codim(), ds)
	}
	var bnd []Spec
	for _, s := range ds.specs {
		for i := range s {
			flip := append(Spec(nil), s...)
			flip[i] = flip[i].Opposite()
			if ds.has(flip) {
				continue
			}
			b := append(Spec(nil), s...)
			b[i] = IF
			bnd = append(bnd, b)
		}
	}
	if len(bnd) == 0 {
		return Set{}, nil
	}
	return NewSet(bnd...)
}

// Complement returns all volume tuples not in the set, NEG before POS in
// each position.
func (ds Set) Complement() (Set, error) {
	if ds.Codim() != 0 {
		return Set{}, fmt.Errorf("%w: complement of the codimension %d set %v",
			types.ErrInvalidDomainSpec, ds.Codim(), ds)
	}
	var (
		n    = ds.Len()
		comp []Spec
	)
	for bits := 0; bits < 1<<n; bits++ {
		s := make(Spec, n)
		for i := 0; i < n; i++ {
			if bits&(1<<(n-1-i)) != 0 {
				s[i] = POS
			}
		}
		if !ds.has(s) {
			comp = append(comp, s)
		}
	}
	if len(comp) == 0 {
		return Set{}, nil
	}
	return NewSet(comp...)
}

func (ds Set) String() string {
	parts := make([]string, len(ds.specs))
	for i, s := range ds.specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, "+")
}
