package quadrature

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/notargets/gocut/geometry"
)

func TestJacobiGQ(t *testing.T) {
	{ // Legendre nodes against the gonum Gauss-Legendre generator
		for _, n := range []int{1, 2, 3, 5, 8} {
			X, W := JacobiGQ(0, 0, n-1)
			x := make([]float64, n)
			w := make([]float64, n)
			quad.Legendre{}.FixedLocations(x, w, -1, 1)
			sort.Sort(byNode{x, w})
			for i := 0; i < n; i++ {
				assert.InDelta(t, x[i], X[i], 1.e-14)
				assert.InDelta(t, w[i], W[i], 1.e-14)
			}
		}
	}
	{ // Single point rules integrate the weight exactly
		_, W := JacobiGQ(0, 0, 0)
		assert.InDelta(t, 2., W[0], 1.e-15)
		_, W = JacobiGQ(1, 0, 0)
		assert.InDelta(t, 2., W[0], 1.e-15)
		_, W = JacobiGQ(2, 0, 0)
		assert.InDelta(t, 8./3., W[0], 1.e-15)
	}
	{ // Jacobi(1,0) moments: int (1-x) x^k over [-1,1]
		X, W := JacobiGQ(1, 0, 2)
		moment := func(k int) (s float64) {
			for i := range X {
				s += W[i] * math.Pow(X[i], float64(k))
			}
			return
		}
		assert.InDelta(t, 2., moment(0), 1.e-14)
		assert.InDelta(t, -2./3., moment(1), 1.e-14)
		assert.InDelta(t, 2./3., moment(2), 1.e-14)
		assert.InDelta(t, -2./7., moment(5), 1.e-14)
	}
}

func TestJacobiGL(t *testing.T) {
	X := JacobiGL(0, 0, 1)
	assert.Equal(t, []float64{-1, 1}, X)
	X = JacobiGL(0, 0, 2)
	assert.InDeltaSlice(t, []float64{-1, 0, 1}, X, 1.e-15)
	X = JacobiGL(0, 0, 4)
	assert.InDelta(t, -math.Sqrt(3./7.), X[1], 1.e-14)
	assert.InDelta(t, 0, X[2], 1.e-14)
	L := LobattoNodes01(3)
	assert.Equal(t, 0., L[0])
	assert.Equal(t, 1., L[3])
	assert.InDelta(t, 1., L[1]+L[2], 1.e-15)
}

func TestUnitSimplexExactness(t *testing.T) {
	fact := func(n int) float64 {
		f := 1.
		for i := 2; i <= n; i++ {
			f *= float64(i)
		}
		return f
	}
	// int over the unit simplex of x^a y^b z^c = a! b! c! / (a+b+c+d)!
	for order := 0; order <= 6; order++ {
		pts, wts := UnitSimplex(1, order)
		for a := 0; a <= order; a++ {
			var s float64
			for q, p := range pts {
				s += wts[q] * math.Pow(p[0], float64(a))
			}
			assert.InDelta(t, 1./float64(a+1), s, 1.e-14, "order %d", order)
		}
		pts, wts = UnitSimplex(2, order)
		for a := 0; a <= order; a++ {
			for b := 0; a+b <= order; b++ {
				var s float64
				for q, p := range pts {
					s += wts[q] * math.Pow(p[0], float64(a)) * math.Pow(p[1], float64(b))
				}
				assert.InDelta(t, fact(a)*fact(b)/fact(a+b+2), s, 1.e-14)
			}
		}
		pts, wts = UnitSimplex(3, order)
		for a := 0; a <= order; a++ {
			for b := 0; a+b <= order; b++ {
				for c := 0; a+b+c <= order; c++ {
					var s float64
					for q, p := range pts {
						s += wts[q] * math.Pow(p[0], float64(a)) *
							math.Pow(p[1], float64(b)) * math.Pow(p[2], float64(c))
					}
					assert.InDelta(t, fact(a)*fact(b)*fact(c)/fact(a+b+c+3), s, 1.e-14)
				}
			}
		}
	}
	p1, _ := UnitSimplex(2, 4)
	p2, _ := UnitSimplex(2, 4)
	assert.Same(t, &p1[0], &p2[0])
}

func TestSimplexMeasure(t *testing.T) {
	assert.InDelta(t, 0.5, SimplexMeasure([][]float64{{0, 0}, {1, 0}, {0, 1}}), 1.e-15)
	// Segment embedded in 2D
	assert.InDelta(t, math.Sqrt2, SimplexMeasure([][]float64{{0, 1}, {1, 0}}), 1.e-15)
	// Triangle embedded in 3D
	assert.InDelta(t, math.Sqrt(3)/2,
		SimplexMeasure([][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}), 1.e-15)
	assert.Equal(t, 0., SimplexMeasure([][]float64{{0, 0}, {1, 1}, {2, 2}}))
}

func TestAppendSimplexAndMap(t *testing.T) {
	var r Rule
	r.AppendSimplex([][]float64{{0, 0}, {1, 0}, {1, 1}}, 2, nil)
	r.AppendSimplex([][]float64{{0, 0}, {0, 1}, {1, 1}}, 2, nil)
	assert.InDelta(t, 1., r.Sum(), 1.e-15)
	assert.InDelta(t, 1./3., r.Integrate(func(p []float64) float64 { return p[0] * p[0] }), 1.e-15)

	el := geometry.Element{Type: geometry.Quad, Vertices: [][]float64{{0, 0}, {2, 0}, {2, 3}, {0, 3}}}
	pr, err := r.Map(el, nil)
	require.NoError(t, err)
	assert.InDelta(t, 6., pr.Integrate(func([]float64) float64 { return 1 }), 1.e-14)
	assert.InDelta(t, 8., pr.Integrate(func(x []float64) float64 { return x[0] * x[0] }), 1.e-13)

	// Interface: the reference diagonal x = y
	var ir = Rule{Codim: 1}
	n := []float64{math.Sqrt2 / 2, -math.Sqrt2 / 2}
	ir.AppendSimplex([][]float64{{0, 0}, {1, 1}}, 1, n)
	assert.InDelta(t, math.Sqrt2, ir.Sum(), 1.e-15)
	pr, err = ir.Map(el, nil)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(13), pr.Integrate(func([]float64) float64 { return 1 }), 1.e-14)

	// Space-time weights gain dt
	st := Rule{Points: [][]float64{{0.5, 0.5, 0.5}}, Weights: []float64{1}}
	pr, err = st.Map(el, &geometry.TimeSlab{T0: 1, Dt: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.5, 1.25}, pr.Points[0])
	assert.InDelta(t, 3., pr.Weights[0], 1.e-15)

	_, err = Rule{Codim: 1, Points: [][]float64{{0, 0}}, Weights: []float64{1}}.Map(el, nil)
	assert.Error(t, err)
}

type byNode struct{ x, w []float64 }

func (b byNode) Len() int           { return len(b.x) }
func (b byNode) Less(i, j int) bool { return b.x[i] < b.x[j] }
func (b byNode) Swap(i, j int) {
	b.x[i], b.x[j] = b.x[j], b.x[i]
	b.w[i], b.w[j] = b.w[j], b.w[i]
}
