package cutinfo

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gocut/cutrule"
	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/quadrature"
	"github.com/notargets/gocut/types"
	"github.com/notargets/gocut/utils"
)

var ErrNotUpdated = errors.New("cut info has not been updated")

// CutInfo keeps the sign patterns of every element and facet of a mesh for
// the level sets of the last update. Marks for any domain set are derived
// from the patterns on request. An update recomputes everything, and must
// be repeated whenever a level set changes. Queries must not run
// concurrently with Update.
type CutInfo struct {
	m   *mesh.Mesh
	cfg types.Config
	pm  *utils.PartitionMap // elements
	vpm *utils.PartitionMap // vertices

	nLsets        int
	elemPatterns  [][]signPattern // [element][levelset]
	facetPatterns [][]signPattern // [facet][levelset]
	cutRatios     []float64
}

func NewCutInfo(m *mesh.Mesh, cfg types.Config) (*CutInfo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CutInfo{
		m:   m,
		cfg: cfg,
		pm:  utils.NewPartitionMap(cfg.NumThreads, m.NumElements),
		vpm: utils.NewPartitionMap(cfg.NumThreads, m.NumVertices),
	}, nil
}

func (ci *CutInfo) Mesh() *mesh.Mesh { return ci.m }

// Update classifies all elements and facets for the given level sets. With a
// single level set the NEG volume fraction of every element is computed as
// well.
func (ci *CutInfo) Update(lsets ...levelset.GridFunction) (err error) {
	if len(lsets) == 0 {
		return fmt.Errorf("%w: no level sets", types.ErrInvalidLevelSet)
	}
	for i, g := range lsets {
		if err = g.Validate(ci.m); err != nil {
			return fmt.Errorf("level set %d: %w", i, err)
		}
	}
	vertexValues := func(i int, verts []int) []float64 {
		vals := make([]float64, len(verts))
		for j, v := range verts {
			vals[j] = lsets[i].Values[v]
		}
		return vals
	}
	ratio := func(k int) (float64, error) {
		return ci.negFraction(k, lsets[0])
	}
	return ci.update(len(lsets), vertexValues, ratio)
}

// UpdateSpaceTime classifies with space-time level sets. A vertex counts as
// negative (positive) if it is so at any time of the slab: the time nodes,
// the time quadrature points and the intervals between the sign changes of
// its trace are all sampled.
func (ci *CutInfo) UpdateSpaceTime(lsets ...levelset.SpaceTimeGridFunction) (err error) {
	if len(lsets) == 0 {
		return fmt.Errorf("%w: no level sets", types.ErrInvalidLevelSet)
	}
	for i, g := range lsets {
		if err = g.Validate(ci.m); err != nil {
			return fmt.Errorf("level set %d: %w", i, err)
		}
	}
	samples := make([][][]float64, len(lsets)) // [levelset][vertex][sample]
	for i, g := range lsets {
		nt := len(g.TimeNodes)
		tx, _ := cutrule.TimeRule(nil, 2*(nt-1), ci.cfg.TimeSubdivision)
		samples[i] = make([][]float64, ci.m.NumVertices)
		err = ci.vpm.ParallelRange(func(bn, vMin, vMax int) error {
			for v := vMin; v < vMax; v++ {
				samples[i][v] = g.VertexSamples(v, tx)
			}
			return nil
		})
		if err != nil {
			return
		}
	}
	vertexValues := func(i int, verts []int) (vals []float64) {
		for _, v := range verts {
			vals = append(vals, samples[i][v]...)
		}
		return
	}
	ratio := func(k int) (float64, error) {
		return ci.negFractionSpaceTime(k, lsets[0])
	}
	return ci.update(len(lsets), vertexValues, ratio)
}

func (ci *CutInfo) update(nLsets int, vertexValues func(i int, verts []int) []float64,
	ratio func(k int) (float64, error)) (err error) {
	var (
		m             = ci.m
		eps           = ci.cfg.Epsilon
		elemPatterns  = make([][]signPattern, m.NumElements)
		facetPatterns = make([][]signPattern, m.NumFacets)
		cutRatios     []float64
	)
	if nLsets == 1 {
		cutRatios = make([]float64, m.NumElements)
	}
	err = ci.pm.ParallelRange(func(bn, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			elemPatterns[k] = make([]signPattern, nLsets)
			for i := 0; i < nLsets; i++ {
				elemPatterns[k][i] = patternOf(vertexValues(i, m.EtoV[k]), eps)
			}
			if cutRatios == nil {
				continue
			}
			switch elemPatterns[k][0].domainTag() {
			case domain.NEG:
				cutRatios[k] = 1
			case domain.IF:
				r, err := ratio(k)
				if err != nil {
					return fmt.Errorf("element %d: %w", k, err)
				}
				cutRatios[k] = r
			}
		}
		return nil
	})
	if err != nil {
		return
	}
	fpm := utils.NewPartitionMap(ci.cfg.NumThreads, m.NumFacets)
	err = fpm.ParallelRange(func(bn, fMin, fMax int) error {
		for f := fMin; f < fMax; f++ {
			facetPatterns[f] = make([]signPattern, nLsets)
			for i := 0; i < nLsets; i++ {
				facetPatterns[f][i] = patternOf(vertexValues(i, m.Facets[f].Vertices), eps)
			}
		}
		return nil
	})
	if err != nil {
		return
	}
	ci.nLsets = nLsets
	ci.elemPatterns = elemPatterns
	ci.facetPatterns = facetPatterns
	ci.cutRatios = cutRatios

	var nCut int
	for _, p := range elemPatterns {
		for _, sp := range p {
			if sp.isOfType(domain.IF) {
				nCut++
				break
			}
		}
	}
	ci.cfg.Log().Info("cut info updated",
		"elements", m.NumElements, "facets", m.NumFacets, "levelsets", nLsets, "cut", nCut)
	return
}

// negFraction is the physical NEG measure of a cut element over its measure
func (ci *CutInfo) negFraction(k int, g levelset.GridFunction) (float64, error) {
	var (
		el    = ci.m.Element(k)
		field = g.Element(ci.m, k)
		neg   = domain.MustSet(domain.Spec{domain.NEG})
		order = 2
	)
	rule, err := cutrule.BuildRule(el, []levelset.Field{field}, neg, order, ci.cfg)
	if err != nil {
		return 0, err
	}
	return ci.fraction(k, rule, order, nil)
}

func (ci *CutInfo) negFractionSpaceTime(k int, g levelset.SpaceTimeGridFunction) (float64, error) {
	var (
		el    = ci.m.Element(k)
		field = g.Element(ci.m, k)
		neg   = domain.MustSet(domain.Spec{domain.NEG})
		order = 2
		slab  = levelset.TimeSlab{T0: 0, Dt: 1}
	)
	rule, err := cutrule.BuildSpaceTimeRule(el, []levelset.SpaceTimeField{field}, neg, order, order, ci.cfg)
	if err != nil {
		return 0, err
	}
	return ci.fraction(k, rule, order, &slab)
}

func (ci *CutInfo) fraction(k int, rule quadrature.Rule, order int, slab *levelset.TimeSlab) (float64, error) {
	el := ci.m.Element(k)
	part, err := rule.Map(el, slab)
	if err != nil {
		return 0, err
	}
	whole, err := cutrule.CellRule(el.Type, order).Map(el, nil)
	if err != nil {
		return 0, err
	}
	return floats.Sum(part.Weights) / floats.Sum(whole.Weights), nil
}
