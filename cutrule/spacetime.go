package cutrule

import (
	"fmt"
	"sort"

	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/geometry"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/quadrature"
	"github.com/notargets/gocut/types"
)

// BuildSpaceTimeRule returns a rule on el times the reference time interval
// [0,1], with points (xi..., tref). The time interval is split where any
// vertex trace changes sign and into cfg.TimeSubdivision equal parts, and at
// each time point the frozen level sets are handed to the spatial builder.
// Between sign changes the measure of a region bounded by a level set of
// degree q in time with a fixed normal is a polynomial of degree dim*q, so
// every part gets a Gauss rule of order timeOrder + dim*q and integrates
// integrands of degree timeOrder in time exactly. When the gradient changes
// in time the measure is rational and the rule converges with timeOrder and
// cfg.TimeSubdivision. Interface rules integrate the spatial interface
// measure over time.
func BuildSpaceTimeRule(el geometry.Element, fields []levelset.SpaceTimeField, ds domain.Set,
	spaceOrder, timeOrder int, cfg types.Config) (rule quadrature.Rule, err error) {
	if err = validateInputs(el, len(fields), ds, cfg, spaceOrder, timeOrder); err != nil {
		return
	}
	for i, f := range fields {
		if err = f.Validate(el.Type); err != nil {
			return rule, fmt.Errorf("level set %d: %w", i, err)
		}
	}

	var (
		dim    = el.Dim()
		tx, tw = TimeRule(fields, timeOrder+dim*maxDegree(fields), cfg.TimeSubdivision)
		frozen = make([]levelset.Field, len(fields))
	)
	rule.Codim = ds.Codim()
	for q, tref := range tx {
		for i, f := range fields {
			frozen[i] = levelset.RestrictToTime(f, tref)
		}
		vals, snapped := snapFields(frozen, cfg.SnapTolerance)
		spatial := buildSnapped(el.Type, vals, ds, spaceOrder)
		spatial.Snapped = snapped
		for k, p := range spatial.Points {
			pt := make([]float64, dim+1)
			copy(pt, p)
			pt[dim] = tref
			spatial.Points[k] = pt
		}
		spatial.Scale(tw[q])
		rule.Append(spatial)
	}
	if rule.Snapped > 0 {
		cfg.Log().Debug("snapped space-time level set values to zero",
			"count", rule.Snapped, "element", el.Type.String(), "tolerance", cfg.SnapTolerance)
	}
	return
}

// TimeRule returns the reference time points and weights used for the
// given fields: Gauss-Legendre of order timeOrder on every interval between
// consecutive sign change times, each further divided into subdivision equal
// parts.
func TimeRule(fields []levelset.SpaceTimeField, timeOrder, subdivision int) (tx, tw []float64) {
	var roots []float64
	for _, f := range fields {
		roots = append(roots, f.TimeRoots()...)
	}
	breaks := append([]float64{0}, uniqueSorted(roots)...)
	breaks = append(breaks, 1)
	if subdivision < 1 {
		subdivision = 1
	}
	gx, gw := quadrature.GaussLegendre01(quadrature.NumPoints1D(timeOrder))
	for b := 0; b+1 < len(breaks); b++ {
		var (
			t0 = breaks[b]
			dt = (breaks[b+1] - t0) / float64(subdivision)
		)
		for s := 0; s < subdivision; s++ {
			a := t0 + float64(s)*dt
			for q := range gx {
				tx = append(tx, a+dt*gx[q])
				tw = append(tw, dt*gw[q])
			}
		}
	}
	return
}

func maxDegree(fields []levelset.SpaceTimeField) (q int) {
	for _, f := range fields {
		q = max(q, f.Degree())
	}
	return
}

func uniqueSorted(roots []float64) (out []float64) {
	sorted := append([]float64(nil), roots...)
	sort.Float64s(sorted)
	for _, r := range sorted {
		if len(out) == 0 || r-out[len(out)-1] > 1.e-12 {
			out = append(out, r)
		}
	}
	return
}
