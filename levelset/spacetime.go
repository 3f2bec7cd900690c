package levelset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gocut/geometry"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/quadrature"
	"github.com/notargets/gocut/types"
)

type TimeSlab = geometry.TimeSlab

// SpaceTimeFunc is a level set in physical space and physical time
type SpaceTimeFunc func(x []float64, t float64) float64

// SpaceTimeField is the tensor product nodal representation of a level set on
// one element times a time slab: Values[timeNode][spatialNode]. TimeNodes are
// reference times in [0,1], 0 and 1 always included.
type SpaceTimeField struct {
	TimeNodes []float64
	Values    [][]float64
}

// TimeNodes returns the Gauss-Lobatto nodes used for a given order in time.
// Order 0 uses the linear pair of end points.
func TimeNodes(timeOrder int) []float64 {
	if timeOrder < 1 {
		timeOrder = 1
	}
	return quadrature.LobattoNodes01(timeOrder)
}

// InterpolateSpaceTime samples f at every element vertex and time node,
// passing the physical time of the slab to f.
func InterpolateSpaceTime(f SpaceTimeFunc, el geometry.Element, slab TimeSlab, timeOrder int) (st SpaceTimeField, err error) {
	if err = el.Validate(); err != nil {
		return
	}
	if err = slab.Validate(); err != nil {
		return
	}
	st.TimeNodes = TimeNodes(timeOrder)
	st.Values = make([][]float64, len(st.TimeNodes))
	for j, tref := range st.TimeNodes {
		t := slab.Time(tref)
		st.Values[j] = make([]float64, len(el.Vertices))
		for i, x := range el.Vertices {
			st.Values[j][i] = f(x, t)
		}
		if err = checkFinite(st.Values[j]); err != nil {
			return
		}
	}
	return
}

func (st SpaceTimeField) Validate(et geometry.ElementType) error {
	if err := validateTimeNodes(st.TimeNodes, len(st.Values)); err != nil {
		return err
	}
	for _, v := range st.Values {
		if err := (Field{Values: v}).Validate(et); err != nil {
			return err
		}
	}
	return nil
}

func validateTimeNodes(nodes []float64, nValues int) error {
	if len(nodes) < 2 || nodes[0] != 0 || nodes[len(nodes)-1] != 1 {
		return fmt.Errorf("%w: time nodes %v must start at 0 and end at 1",
			types.ErrInvalidLevelSet, nodes)
	}
	if !sort.Float64sAreSorted(nodes) {
		return fmt.Errorf("%w: time nodes %v are not increasing", types.ErrInvalidLevelSet, nodes)
	}
	if nValues != len(nodes) {
		return fmt.Errorf("%w: %d time levels for %d time nodes",
			types.ErrInvalidLevelSet, nValues, len(nodes))
	}
	return nil
}

// lagrangeWeights returns the Lagrange basis values at tref and, when tref
// coincides with a node, the index of that node.
func lagrangeWeights(nodes []float64, tref float64) (l []float64, node int) {
	for j, tj := range nodes {
		if tj == tref {
			return nil, j
		}
	}
	l = make([]float64, len(nodes))
	for j, tj := range nodes {
		l[j] = 1
		for m, tm := range nodes {
			if m != j {
				l[j] *= (tref - tm) / (tj - tm)
			}
		}
	}
	return l, -1
}

func restrict(nodes []float64, values [][]float64, tref float64) []float64 {
	l, node := lagrangeWeights(nodes, tref)
	if node >= 0 {
		return append([]float64(nil), values[node]...)
	}
	out := make([]float64, len(values[0]))
	for j, lj := range l {
		for i, v := range values[j] {
			out[i] += lj * v
		}
	}
	return out
}

// RestrictToTime freezes the field at reference time tref. At a time node the
// stored values are copied unchanged.
func RestrictToTime(st SpaceTimeField, tref float64) Field {
	return Field{Values: restrict(st.TimeNodes, st.Values, tref)}
}

// Degree is the polynomial degree in time
func (st SpaceTimeField) Degree() int { return len(st.TimeNodes) - 1 }

// MaxAbs over all time levels
func (st SpaceTimeField) MaxAbs() (m float64) {
	for _, v := range st.Values {
		m = math.Max(m, Field{Values: v}.MaxAbs())
	}
	return
}

// TimeRoots returns the sorted reference times in (0,1) at which the time
// trace of some vertex changes sign.
func (st SpaceTimeField) TimeRoots() []float64 {
	var roots []float64
	for i := range st.Values[0] {
		trace := make([]float64, len(st.TimeNodes))
		for j := range st.TimeNodes {
			trace[j] = st.Values[j][i]
		}
		roots = append(roots, traceRoots(st.TimeNodes, trace)...)
	}
	return uniqueRoots(roots)
}

const rootTol = 1.e-12

func traceRoots(nodes, trace []float64) (roots []float64) {
	if len(nodes) == 2 {
		v0, v1 := trace[0], trace[1]
		if (v0 < 0 && v1 > 0) || (v0 > 0 && v1 < 0) {
			roots = append(roots, v0/(v0-v1))
		}
		return
	}
	coeffs := monomialCoefficients(nodes, trace)
	var cmax float64
	for _, c := range coeffs {
		cmax = math.Max(cmax, math.Abs(c))
	}
	if cmax == 0 {
		return
	}
	deg := len(coeffs) - 1
	for deg > 0 && math.Abs(coeffs[deg]) <= 1.e-14*cmax {
		deg--
	}
	if deg == 0 {
		return
	}
	if deg == 1 {
		roots = append(roots, -coeffs[0]/coeffs[1])
	} else {
		// Companion matrix of the monic polynomial
		C := mat.NewDense(deg, deg, nil)
		for i := 1; i < deg; i++ {
			C.Set(i, i-1, 1)
		}
		for i := 0; i < deg; i++ {
			C.Set(i, deg-1, -coeffs[i]/coeffs[deg])
		}
		var eig mat.Eigen
		if !eig.Factorize(C, mat.EigenNone) {
			panic("companion matrix eigenvalue decomposition failed")
		}
		for _, z := range eig.Values(nil) {
			if math.Abs(imag(z)) <= 1.e-10*(1+math.Abs(real(z))) {
				roots = append(roots, real(z))
			}
		}
	}
	var inside []float64
	for _, r := range roots {
		if r > rootTol && r < 1-rootTol {
			inside = append(inside, r)
		}
	}
	return inside
}

// monomialCoefficients solves the Vandermonde system for the interpolant of
// trace through nodes, returning c with p(t) = sum c[m] t^m.
func monomialCoefficients(nodes, trace []float64) []float64 {
	n := len(nodes)
	V := mat.NewDense(n, n, nil)
	for j, t := range nodes {
		p := 1.
		for m := 0; m < n; m++ {
			V.Set(j, m, p)
			p *= t
		}
	}
	var c mat.VecDense
	if err := c.SolveVec(V, mat.NewVecDense(n, append([]float64(nil), trace...))); err != nil {
		panic(fmt.Errorf("time node Vandermonde matrix is singular: %v", err))
	}
	return c.RawVector().Data
}

func uniqueRoots(roots []float64) (out []float64) {
	sort.Float64s(roots)
	for _, r := range roots {
		if len(out) == 0 || r-out[len(out)-1] > rootTol {
			out = append(out, r)
		}
	}
	return
}

// SpaceTimeGridFunction is the mesh wide space-time level set:
// Values[timeNode][meshVertex].
type SpaceTimeGridFunction struct {
	TimeNodes []float64
	Values    [][]float64
}

// SpaceTimeInterpolateToP1 samples f at every mesh vertex and time node
func SpaceTimeInterpolateToP1(f SpaceTimeFunc, m *mesh.Mesh, slab TimeSlab, timeOrder int) (st SpaceTimeGridFunction) {
	st.TimeNodes = TimeNodes(timeOrder)
	st.Values = make([][]float64, len(st.TimeNodes))
	for j, tref := range st.TimeNodes {
		t := slab.Time(tref)
		st.Values[j] = make([]float64, m.NumVertices)
		for i, x := range m.Vertices {
			st.Values[j][i] = f(x, t)
		}
	}
	return
}

func (st SpaceTimeGridFunction) Validate(m *mesh.Mesh) error {
	if err := validateTimeNodes(st.TimeNodes, len(st.Values)); err != nil {
		return err
	}
	for _, v := range st.Values {
		if err := (GridFunction{Values: v}).Validate(m); err != nil {
			return err
		}
	}
	return nil
}

// RestrictGFInTime freezes the grid function at reference time tref. Passing
// tref = 1 yields the exact nodal values that seed the next slab at tref = 0.
func RestrictGFInTime(st SpaceTimeGridFunction, tref float64) GridFunction {
	return GridFunction{Values: restrict(st.TimeNodes, st.Values, tref)}
}

// VertexTrace returns the nodal values of vertex v at every time node
func (st SpaceTimeGridFunction) VertexTrace(v int) []float64 {
	trace := make([]float64, len(st.TimeNodes))
	for j := range st.TimeNodes {
		trace[j] = st.Values[j][v]
	}
	return trace
}

// VertexSamples evaluates vertex v at the time nodes, at times, and at every
// sign change of its trace together with the midpoints between consecutive
// sign changes. A sign taken only between two samples is always seen.
func (st SpaceTimeGridFunction) VertexSamples(v int, times []float64) []float64 {
	var (
		trace  = st.VertexTrace(v)
		roots  = uniqueRoots(traceRoots(st.TimeNodes, trace))
		breaks = append(append([]float64{0}, roots...), 1)
		out    = append([]float64(nil), trace...)
		at     = func(tref float64) float64 {
			l, node := lagrangeWeights(st.TimeNodes, tref)
			if node >= 0 {
				return trace[node]
			}
			var sum float64
			for j, lj := range l {
				sum += lj * trace[j]
			}
			return sum
		}
	)
	for _, tref := range times {
		out = append(out, at(tref))
	}
	for _, r := range roots {
		out = append(out, at(r))
	}
	for b := 0; b+1 < len(breaks); b++ {
		out = append(out, at(0.5*(breaks[b]+breaks[b+1])))
	}
	return out
}

// Element extracts the space-time field of element k
func (st SpaceTimeGridFunction) Element(m *mesh.Mesh, k int) SpaceTimeField {
	vals := make([][]float64, len(st.Values))
	for j, v := range st.Values {
		vals[j] = GridFunction{Values: v}.Element(m, k).Values
	}
	return SpaceTimeField{TimeNodes: st.TimeNodes, Values: vals}
}

// ElementSpaceTimeFields extracts element k from every grid function, in order
func ElementSpaceTimeFields(m *mesh.Mesh, k int, lsets []SpaceTimeGridFunction) (fields []SpaceTimeField) {
	fields = make([]SpaceTimeField, len(lsets))
	for i, g := range lsets {
		fields[i] = g.Element(m, k)
	}
	return
}
