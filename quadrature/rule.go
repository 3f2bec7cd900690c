package quadrature

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gocut/geometry"
)

// Rule is a quadrature rule in reference coordinates of one element. For
// space-time rules the last coordinate of every point is the reference time.
// Interface rules (Codim 1) carry the unit normal of the interface in
// reference space for every point.
type Rule struct {
	Points  [][]float64
	Weights []float64
	Normals [][]float64
	Codim   int
	Snapped int
}

func (r Rule) Len() int { return len(r.Weights) }

func (r Rule) IsEmpty() bool { return len(r.Weights) == 0 }

// Sum is the measure of the region, in reference coordinates
func (r Rule) Sum() float64 {
	if len(r.Weights) == 0 {
		return 0
	}
	return floats.Sum(r.Weights)
}

// Integrate applies the rule to f in reference coordinates
func (r Rule) Integrate(f func(p []float64) float64) (sum float64) {
	for q, p := range r.Points {
		sum += r.Weights[q] * f(p)
	}
	return
}

// Append adds the points of o, which must have the same codimension
func (r *Rule) Append(o Rule) {
	r.Points = append(r.Points, o.Points...)
	r.Weights = append(r.Weights, o.Weights...)
	r.Normals = append(r.Normals, o.Normals...)
	r.Snapped += o.Snapped
}

// Scale multiplies all weights by s
func (r *Rule) Scale(s float64) {
	floats.Scale(s, r.Weights)
}

// PhysicalRule holds mapped points and weights, ready for integrating a
// function given in physical coordinates (x..., t for space-time rules).
type PhysicalRule struct {
	Points  [][]float64
	Weights []float64
}

func (pr PhysicalRule) Integrate(f func(x []float64) float64) (sum float64) {
	for q, x := range pr.Points {
		sum += pr.Weights[q] * f(x)
	}
	return
}

// Map transforms the reference rule into physical space on el. When slab is
// non nil the rule is a space-time rule and the trailing reference time is
// mapped through the slab, weights gaining a factor Dt.
func (r Rule) Map(el geometry.Element, slab *geometry.TimeSlab) (pr PhysicalRule, err error) {
	var (
		dim = el.Dim()
		np  = r.Len()
	)
	if r.Codim == 1 && len(r.Normals) != np {
		err = fmt.Errorf("interface rule has %d normals for %d points", len(r.Normals), np)
		return
	}
	pr.Points = make([][]float64, np)
	pr.Weights = make([]float64, np)
	for q, p := range r.Points {
		xi := p[:dim]
		var factor float64
		if r.Codim == 1 {
			if factor, err = el.SurfaceFactor(xi, r.Normals[q][:dim]); err != nil {
				return
			}
		} else {
			factor = el.DetJ(xi)
			if factor < 0 {
				factor = -factor
			}
		}
		x := el.MapPoint(xi)
		w := r.Weights[q] * factor
		if slab != nil {
			x = append(x, slab.Time(p[dim]))
			w *= slab.Dt
		}
		pr.Points[q] = x
		pr.Weights[q] = w
	}
	return
}
