package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gocut/types"
)

// DegenerateTol bounds det(J) relative to the element size, below which an
// element is rejected as degenerate.
const DegenerateTol = 1.e-12

// Element is one mesh cell as seen by the quadrature engine: a reference cell
// type and the physical coordinates of its vertices, ordered as the
// reference vertices.
type Element struct {
	Type     ElementType
	Vertices [][]float64
}

func (el Element) Dim() int { return el.Type.Dim() }

// Validate checks vertex count and coordinate dimension, then the sign of the
// Jacobian determinant at every reference vertex. Zero or negative
// determinants return ErrDegenerateGeometry.
func (el Element) Validate() error {
	var (
		dim  = el.Type.Dim()
		refV = el.Type.ReferenceVertices()
	)
	if len(el.Vertices) != len(refV) {
		return fmt.Errorf("%w: %s element needs %d vertices, have %d",
			types.ErrDegenerateGeometry, el.Type, len(refV), len(el.Vertices))
	}
	for i, v := range el.Vertices {
		if len(v) != dim {
			return fmt.Errorf("%w: vertex %d has %d coordinates, %s needs %d",
				types.ErrDegenerateGeometry, i, len(v), el.Type, dim)
		}
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("%w: vertex %d is not finite", types.ErrDegenerateGeometry, i)
			}
		}
	}
	scale := math.Pow(el.Diameter(), float64(dim))
	for _, xi := range refV {
		det := el.DetJ(xi)
		if !(det > DegenerateTol*scale) {
			return fmt.Errorf("%w: %s element has det(J) = %g at reference point %v",
				types.ErrDegenerateGeometry, el.Type, det, xi)
		}
	}
	return nil
}

// Diameter is the largest vertex to vertex distance
func (el Element) Diameter() (h float64) {
	for i := range el.Vertices {
		for j := i + 1; j < len(el.Vertices); j++ {
			var d2 float64
			for k := range el.Vertices[i] {
				d := el.Vertices[i][k] - el.Vertices[j][k]
				d2 += d * d
			}
			h = math.Max(h, math.Sqrt(d2))
		}
	}
	return
}

// MapPoint maps reference coordinates to physical coordinates
func (el Element) MapPoint(xi []float64) (x []float64) {
	N, _ := el.Type.ShapeFunctions(xi)
	x = make([]float64, el.Dim())
	for i, v := range el.Vertices {
		for k := range x {
			x[k] += N[i] * v[k]
		}
	}
	return
}

// Jacobian returns J[k][m] = dx_k/dxi_m at xi
func (el Element) Jacobian(xi []float64) *mat.Dense {
	var (
		dim   = el.Dim()
		_, dN = el.Type.ShapeFunctions(xi)
		J     = mat.NewDense(dim, dim, nil)
	)
	for i, v := range el.Vertices {
		for k := 0; k < dim; k++ {
			for m := 0; m < dim; m++ {
				J.Set(k, m, J.At(k, m)+v[k]*dN[i][m])
			}
		}
	}
	return J
}

func (el Element) DetJ(xi []float64) float64 {
	return mat.Det(el.Jacobian(xi))
}

// SurfaceFactor converts a reference interface measure with reference unit
// normal n into physical measure: |det J| * |J^-T n| (Nanson's formula).
func (el Element) SurfaceFactor(xi, n []float64) (float64, error) {
	var (
		J    = el.Jacobian(xi)
		det  = mat.Det(J)
		dim  = el.Dim()
		JT   mat.Dense
		g    mat.VecDense
		nVec = mat.NewVecDense(dim, append([]float64(nil), n...))
	)
	JT.CloneFrom(J.T())
	// Solve J^T g = n
	if err := g.SolveVec(&JT, nVec); err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrDegenerateGeometry, err)
	}
	return math.Abs(det) * mat.Norm(&g, 2), nil
}

// TimeSlab is the affine map from reference time [0,1] onto [T0, T0+Dt]
type TimeSlab struct {
	T0, Dt float64
}

func (s TimeSlab) Time(tref float64) float64 { return s.T0 + s.Dt*tref }

func (s TimeSlab) RefTime(t float64) float64 { return (t - s.T0) / s.Dt }

// Next returns the following slab of the same length
func (s TimeSlab) Next() TimeSlab { return TimeSlab{T0: s.T0 + s.Dt, Dt: s.Dt} }

func (s TimeSlab) Validate() error {
	if !(s.Dt > 0) || math.IsInf(s.Dt, 0) || math.IsNaN(s.T0) {
		return fmt.Errorf("%w: time slab [%g, %g+%g]", types.ErrDegenerateGeometry, s.T0, s.T0, s.Dt)
	}
	return nil
}
