package cutinfo

import (
	"fmt"

	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/types"
	"github.com/notargets/gocut/utils"
)

func (ci *CutInfo) check(ds domain.Set) error {
	if ci.elemPatterns == nil {
		return ErrNotUpdated
	}
	if ds.IsEmpty() {
		return fmt.Errorf("%w: empty domain set", types.ErrInvalidDomainSpec)
	}
	if ds.Len() != ci.nLsets {
		return fmt.Errorf("%w: tuples of length %d for %d level sets",
			types.ErrInvalidDomainSpec, ds.Len(), ci.nLsets)
	}
	return nil
}

func (ci *CutInfo) marks(patterns [][]signPattern, ds domain.Set,
	test func(signPattern, domain.Tag) bool) (ba utils.BitArray, err error) {
	if err = ci.check(ds); err != nil {
		return
	}
	ba = utils.NewBitArray(len(patterns))
	for k, p := range patterns {
		if matchAny(p, ds, test) {
			ba.Set(k)
		}
	}
	return
}

// GetElementsWithContribution marks the elements that can have a nonzero
// measure in ds
func (ci *CutInfo) GetElementsWithContribution(ds domain.Set) (utils.BitArray, error) {
	return ci.marks(ci.elemPatterns, ds, signPattern.contributes)
}

// GetElementsOfType marks the elements lying entirely in ds, or cut by the
// interface for IF tuples
func (ci *CutInfo) GetElementsOfType(ds domain.Set) (utils.BitArray, error) {
	return ci.marks(ci.elemPatterns, ds, signPattern.isOfType)
}

func (ci *CutInfo) GetFacetsWithContribution(ds domain.Set) (utils.BitArray, error) {
	return ci.marks(ci.facetPatterns, ds, signPattern.contributes)
}

func (ci *CutInfo) GetFacetsOfType(ds domain.Set) (utils.BitArray, error) {
	return ci.marks(ci.facetPatterns, ds, signPattern.isOfType)
}

// GetCutRatios returns the NEG volume fraction of every element. Only
// available after an update with a single level set.
func (ci *CutInfo) GetCutRatios() ([]float64, error) {
	if ci.elemPatterns == nil {
		return nil, ErrNotUpdated
	}
	if ci.cutRatios == nil {
		return nil, fmt.Errorf("cut ratios need a single level set, have %d", ci.nLsets)
	}
	return ci.cutRatios, nil
}

// DomainTypeOfElement returns the type of element k with respect to each
// level set: IF when cut, otherwise the side it lies on.
func (ci *CutInfo) DomainTypeOfElement(k int) ([]domain.Tag, error) {
	if ci.elemPatterns == nil {
		return nil, ErrNotUpdated
	}
	tags := make([]domain.Tag, ci.nLsets)
	for i, sp := range ci.elemPatterns[k] {
		tags[i] = sp.domainTag()
	}
	return tags, nil
}

// NeighborOptions controls GetFacetsWithNeighborTypes. With UseAnd a facet is
// selected when one side is in a and the other in b; otherwise when one side
// is in a or the other in b. BoundaryA and BoundaryB stand in for the missing
// neighbor of a boundary facet.
type NeighborOptions struct {
	UseAnd    bool
	BoundaryA bool
	BoundaryB bool
}

// GetFacetsWithNeighborTypes selects facets by the marks of the two adjacent
// elements, e.g. the ghost penalty facets between cut elements and their
// neighbors.
func GetFacetsWithNeighborTypes(m *mesh.Mesh, a, b utils.BitArray, opts NeighborOptions) (utils.BitArray, error) {
	if a.Len() != m.NumElements || b.Len() != m.NumElements {
		return utils.BitArray{}, fmt.Errorf("element marks of length %d and %d for %d elements",
			a.Len(), b.Len(), m.NumElements)
	}
	var (
		facets = utils.NewBitArray(m.NumFacets)
		pair   = func(x, y bool) bool {
			if opts.UseAnd {
				return x && y
			}
			return x || y
		}
	)
	for fID, f := range m.Facets {
		var (
			aL, bL = a.Test(f.Owner), b.Test(f.Owner)
			aR, bR = opts.BoundaryA, opts.BoundaryB
		)
		if !f.IsBoundary() {
			aR, bR = a.Test(f.Neighbor), b.Test(f.Neighbor)
		}
		if pair(aL, bR) || pair(aR, bL) {
			facets.Set(fID)
		}
	}
	return facets, nil
}

// GetElementsWithNeighborFacets marks every element adjacent to a marked facet
func GetElementsWithNeighborFacets(m *mesh.Mesh, facets utils.BitArray) (utils.BitArray, error) {
	if facets.Len() != m.NumFacets {
		return utils.BitArray{}, fmt.Errorf("facet marks of length %d for %d facets",
			facets.Len(), m.NumFacets)
	}
	elems := utils.NewBitArray(m.NumElements)
	for _, fID := range facets.Indices() {
		f := m.Facets[fID]
		elems.Set(f.Owner)
		if !f.IsBoundary() {
			elems.Set(f.Neighbor)
		}
	}
	return elems, nil
}
