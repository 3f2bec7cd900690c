package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocut/types"
)

func TestTags(t *testing.T) {
	for _, tag := range []Tag{NEG, POS, IF} {
		p, err := ParseTag(tag.String())
		require.NoError(t, err)
		assert.Equal(t, tag, p)
	}
	p, err := ParseTag(" neg ")
	require.NoError(t, err)
	assert.Equal(t, NEG, p)
	_, err = ParseTag("ZERO")
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)

	assert.Equal(t, IF, TagOf(1.e-15, 1.e-14))
	assert.Equal(t, NEG, TagOf(-1.e-3, 1.e-14))
	assert.Equal(t, POS, TagOf(2, 1.e-14))
	assert.Equal(t, POS, NEG.Opposite())
	assert.Equal(t, IF, IF.Opposite())
}

func TestNewSpec(t *testing.T) {
	s, err := NewSpec(NEG, IF)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Codim())
	assert.Equal(t, 1, s.IFIndex())
	assert.Equal(t, "(NEG,IF)", s.String())

	_, err = NewSpec()
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
	_, err = NewSpec(IF, IF)
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
	_, err = NewSpec(Tag(7))
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)

	s, err = ParseSpec("(POS, NEG)")
	require.NoError(t, err)
	assert.Equal(t, Spec{POS, NEG}, s)
	_, err = ParseSpec("IF,IF")
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
}

func TestMatches(t *testing.T) {
	ds, err := ParseSet("(NEG,POS)+(POS,NEG)")
	require.NoError(t, err)
	eps := 1.e-14
	assert.True(t, ds.Contains([]float64{-1, 1}, eps))
	assert.True(t, ds.Contains([]float64{1, -1}, eps))
	assert.False(t, ds.Contains([]float64{-1, -1}, eps))
	assert.False(t, ds.Contains([]float64{0, 1}, eps))
	assert.False(t, ds.Contains([]float64{-1}, eps))

	ifs, err := ParseSet("IF")
	require.NoError(t, err)
	assert.True(t, ifs.Contains([]float64{1.e-16}, eps))
	assert.False(t, ifs.Contains([]float64{1.e-16}, 0))
}

func TestSetUnion(t *testing.T) {
	a := MustSet(Spec{NEG, NEG})
	b := MustSet(Spec{POS, NEG}, Spec{NEG, NEG})
	u, err := a.Union(b)
	require.NoError(t, err)
	assert.Equal(t, []Spec{{NEG, NEG}, {POS, NEG}}, u.Specs())
	assert.Equal(t, 2, u.Len())
	assert.Equal(t, 2, u.Size())
	assert.Equal(t, 0, u.Codim())

	_, err = a.Union(MustSet(Spec{NEG}))
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
	_, err = a.Union(MustSet(Spec{IF, NEG}))
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
	_, err = NewSet()
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
}

func TestBoundaryAndComplement(t *testing.T) {
	// Square as the intersection of four half planes
	inner := MustSet(Spec{NEG, NEG, NEG, NEG})
	bnd, err := inner.Boundary()
	require.NoError(t, err)
	assert.Equal(t, []Spec{
		{IF, NEG, NEG, NEG},
		{NEG, IF, NEG, NEG},
		{NEG, NEG, IF, NEG},
		{NEG, NEG, NEG, IF},
	}, bnd.Specs())
	assert.Equal(t, 1, bnd.Codim())

	// Internal face between (NEG,NEG) and (POS,NEG) disappears
	ds := MustSet(Spec{NEG, NEG}, Spec{POS, NEG})
	bnd, err = ds.Boundary()
	require.NoError(t, err)
	assert.Equal(t, []Spec{{NEG, IF}, {POS, IF}}, bnd.Specs())

	comp, err := ds.Complement()
	require.NoError(t, err)
	assert.Equal(t, []Spec{{NEG, POS}, {POS, POS}}, comp.Specs())

	all, err := ds.Union(comp)
	require.NoError(t, err)
	bnd, err = all.Boundary()
	require.NoError(t, err)
	assert.True(t, bnd.IsEmpty())
	comp, err = all.Complement()
	require.NoError(t, err)
	assert.True(t, comp.IsEmpty())

	_, err = bnd.Boundary()
	assert.NoError(t, err)
	_, err = MustSet(Spec{IF}).Boundary()
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
	_, err = MustSet(Spec{IF}).Complement()
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
}
