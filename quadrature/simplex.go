package quadrature

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type unitKey struct {
	dim, order int
}

type unitRule struct {
	points  [][]float64
	weights []float64
}

var unitRules sync.Map

// NumPoints1D is the number of Gauss points per collapsed direction needed to
// integrate polynomials of the given total degree exactly.
func NumPoints1D(order int) int {
	if order < 0 {
		order = 0
	}
	return order/2 + 1
}

// UnitSimplex returns a rule on the unit simplex of dimension dim, exact for
// polynomials of total degree order. Triangles and tetrahedra use collapsed
// coordinates with Gauss-Jacobi points in the collapsed directions. The
// returned slices are shared and must not be modified.
func UnitSimplex(dim, order int) (points [][]float64, weights []float64) {
	key := unitKey{dim, order}
	if r, ok := unitRules.Load(key); ok {
		ur := r.(*unitRule)
		return ur.points, ur.weights
	}
	ur := newUnitRule(dim, order)
	r, _ := unitRules.LoadOrStore(key, ur)
	ur = r.(*unitRule)
	return ur.points, ur.weights
}

func newUnitRule(dim, order int) *unitRule {
	n := NumPoints1D(order)
	ur := &unitRule{}
	switch dim {
	case 0:
		ur.points = [][]float64{{}}
		ur.weights = []float64{1}
	case 1:
		x, w := jacobi01(0, n)
		for i := range x {
			ur.points = append(ur.points, []float64{x[i]})
			ur.weights = append(ur.weights, w[i])
		}
	case 2:
		var (
			x1, w1 = jacobi01(0, n)
			x2, w2 = jacobi01(1, n)
		)
		for j := range x2 {
			for i := range x1 {
				ur.points = append(ur.points, []float64{x1[i] * (1 - x2[j]), x2[j]})
				ur.weights = append(ur.weights, w1[i]*w2[j])
			}
		}
	case 3:
		var (
			x1, w1 = jacobi01(0, n)
			x2, w2 = jacobi01(1, n)
			x3, w3 = jacobi01(2, n)
		)
		for k := range x3 {
			for j := range x2 {
				for i := range x1 {
					ur.points = append(ur.points, []float64{
						x1[i] * (1 - x2[j]) * (1 - x3[k]),
						x2[j] * (1 - x3[k]),
						x3[k],
					})
					ur.weights = append(ur.weights, w1[i]*w2[j]*w3[k])
				}
			}
		}
	default:
		panic(fmt.Errorf("no simplex rule for dimension %d", dim))
	}
	return ur
}

// SimplexMeasure is the m-dimensional measure of the simplex spanned by
// verts (m+1 points in any embedding dimension). Segments and triangles use
// closed forms, everything else sqrt(det G)/m! with G the Gram matrix of the
// edge vectors.
func SimplexMeasure(verts [][]float64) float64 {
	m := len(verts) - 1
	if m == 0 {
		return 1
	}
	var (
		dim   = len(verts[0])
		edges = make([][]float64, m)
	)
	for i := 0; i < m; i++ {
		edges[i] = make([]float64, dim)
		floats.SubTo(edges[i], verts[i+1], verts[0])
	}
	switch {
	case m == 1:
		return floats.Norm(edges[0], 2)
	case m == 2 && dim == 2:
		return math.Abs(edges[0][0]*edges[1][1]-edges[0][1]*edges[1][0]) / 2
	case m == 2 && dim == 3:
		a, b := edges[0], edges[1]
		return floats.Norm([]float64{
			a[1]*b[2] - a[2]*b[1],
			a[2]*b[0] - a[0]*b[2],
			a[0]*b[1] - a[1]*b[0],
		}, 2) / 2
	case m == 3 && dim == 3:
		a, b, c := edges[0], edges[1], edges[2]
		det := a[0]*(b[1]*c[2]-b[2]*c[1]) -
			a[1]*(b[0]*c[2]-b[2]*c[0]) +
			a[2]*(b[0]*c[1]-b[1]*c[0])
		return math.Abs(det) / 6
	}
	var (
		E = mat.NewDense(m, dim, nil)
		G = mat.NewSymDense(m, nil)
	)
	for i := 0; i < m; i++ {
		E.SetRow(i, edges[i])
	}
	G.SymOuterK(1, E)
	det := mat.Det(G)
	if det <= 0 {
		return 0
	}
	return math.Sqrt(det) / factorial(m)
}

func factorial(m int) float64 {
	fact := 1.
	for i := 2; i <= m; i++ {
		fact *= float64(i)
	}
	return fact
}

// AppendSimplex maps the unit simplex rule of the given order onto the
// simplex spanned by verts and appends it to r. The mapped weights sum to
// the simplex measure. normal is attached to every appended point when r is
// an interface rule.
func (r *Rule) AppendSimplex(verts [][]float64, order int, normal []float64) {
	var (
		m   = len(verts) - 1
		vol = SimplexMeasure(verts)
	)
	if vol == 0 {
		return
	}
	fact := factorial(m)
	pts, wts := UnitSimplex(m, order)
	for q, xi := range pts {
		p := make([]float64, len(verts[0]))
		l0 := 1.
		for i := 0; i < m; i++ {
			l0 -= xi[i]
		}
		for k := range p {
			p[k] = l0 * verts[0][k]
			for i := 0; i < m; i++ {
				p[k] += xi[i] * verts[i+1][k]
			}
		}
		r.Points = append(r.Points, p)
		r.Weights = append(r.Weights, wts[q]*fact*vol)
		if normal != nil {
			r.Normals = append(r.Normals, normal)
		}
	}
}
