// Package integration sums cut quadrature rules over a whole mesh.
package integration

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gocut/cutinfo"
	"github.com/notargets/gocut/cutrule"
	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/quadrature"
	"github.com/notargets/gocut/types"
	"github.com/notargets/gocut/utils"
)

// Integrand is evaluated at physical points. Space-time integrands receive
// the physical time as the last coordinate.
type Integrand func(x []float64) float64

// Integrate computes the integral of f over the part of the mesh selected by
// ds. Only elements with a possible contribution are visited.
func Integrate(m *mesh.Mesh, lsets []levelset.GridFunction, ds domain.Set, f Integrand,
	order int, cfg types.Config) (sum float64, err error) {
	var ci *cutinfo.CutInfo
	if ci, err = cutinfo.NewCutInfo(m, cfg); err != nil {
		return
	}
	if err = ci.Update(lsets...); err != nil {
		return
	}
	elemRule := func(k int) (quadrature.PhysicalRule, error) {
		el := m.Element(k)
		rule, err := cutrule.BuildRule(el, levelset.ElementFields(m, k, lsets), ds, order, cfg)
		if err != nil {
			return quadrature.PhysicalRule{}, err
		}
		return rule.Map(el, nil)
	}
	return sumElements(ci, ds, f, cfg, elemRule)
}

// IntegrateSpaceTime computes the integral of f over the space-time part of
// the slab selected by ds.
func IntegrateSpaceTime(m *mesh.Mesh, lsets []levelset.SpaceTimeGridFunction, ds domain.Set, f Integrand,
	slab levelset.TimeSlab, spaceOrder, timeOrder int, cfg types.Config) (sum float64, err error) {
	if err = slab.Validate(); err != nil {
		return
	}
	var ci *cutinfo.CutInfo
	if ci, err = cutinfo.NewCutInfo(m, cfg); err != nil {
		return
	}
	if err = ci.UpdateSpaceTime(lsets...); err != nil {
		return
	}
	elemRule := func(k int) (quadrature.PhysicalRule, error) {
		el := m.Element(k)
		rule, err := cutrule.BuildSpaceTimeRule(el, levelset.ElementSpaceTimeFields(m, k, lsets),
			ds, spaceOrder, timeOrder, cfg)
		if err != nil {
			return quadrature.PhysicalRule{}, err
		}
		return rule.Map(el, &slab)
	}
	return sumElements(ci, ds, f, cfg, elemRule)
}

// Measure is the volume, or surface measure for interface tuples, of ds
func Measure(m *mesh.Mesh, lsets []levelset.GridFunction, ds domain.Set, order int, cfg types.Config) (float64, error) {
	return Integrate(m, lsets, ds, func([]float64) float64 { return 1 }, order, cfg)
}

func sumElements(ci *cutinfo.CutInfo, ds domain.Set, f Integrand, cfg types.Config,
	elemRule func(k int) (quadrature.PhysicalRule, error)) (sum float64, err error) {
	var (
		m        = ci.Mesh()
		pm       = utils.NewPartitionMap(cfg.NumThreads, m.NumElements)
		partials = make([]float64, pm.ParallelDegree)
		active   utils.BitArray
	)
	if active, err = ci.GetElementsWithContribution(ds); err != nil {
		return
	}
	err = pm.ParallelRange(func(bn, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			if !active.Test(k) {
				continue
			}
			pr, err := elemRule(k)
			if err != nil {
				return fmt.Errorf("element %d: %w", k, err)
			}
			partials[bn] += pr.Integrate(f)
		}
		return nil
	})
	if err != nil {
		return
	}
	sum = floats.Sum(partials)
	cfg.Log().Debug("integrated", "domain", ds.String(), "elements", active.NumSet(), "value", sum)
	return
}
