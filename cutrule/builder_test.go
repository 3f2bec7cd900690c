package cutrule

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/geometry"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/quadrature"
	"github.com/notargets/gocut/types"
)

var (
	negSet = domain.MustSet(domain.Spec{domain.NEG})
	posSet = domain.MustSet(domain.Spec{domain.POS})
	ifSet  = domain.MustSet(domain.Spec{domain.IF})
)

func refElement(et geometry.ElementType) geometry.Element {
	return geometry.Element{Type: et, Vertices: et.ReferenceVertices()}
}

// integrateMesh sums the mapped rule of every element of m
func integrateMesh(t *testing.T, m *mesh.Mesh, lsets []levelset.Func, ds domain.Set, order int,
	f func(x []float64) float64) (sum float64) {
	cfg := types.DefaultConfig()
	for k := 0; k < m.NumElements; k++ {
		el := m.Element(k)
		fields := make([]levelset.Field, len(lsets))
		for i, ls := range lsets {
			var err error
			fields[i], err = levelset.Interpolate(ls, el)
			require.NoError(t, err)
		}
		rule, err := BuildRule(el, fields, ds, order, cfg)
		require.NoError(t, err)
		pr, err := rule.Map(el, nil)
		require.NoError(t, err)
		sum += pr.Integrate(f)
	}
	return
}

func one([]float64) float64 { return 1 }

func TestDiagonalCutOnUnitSquare(t *testing.T) {
	var (
		phi    = levelset.Plane([]float64{-2, -2}, 1)
		square = refElement(geometry.Quad)
		cfg    = types.DefaultConfig()
	)
	field, err := levelset.Interpolate(phi, square)
	require.NoError(t, err)
	for order := 0; order <= 6; order++ {
		tol := 5.e-16 * float64((order+1)*(order+1))
		neg, err := BuildRule(square, []levelset.Field{field}, negSet, order, cfg)
		require.NoError(t, err)
		assert.InDelta(t, 7./8., neg.Sum(), tol, "order %d", order)
		assert.Equal(t, 0, neg.Codim)
		pos, err := BuildRule(square, []levelset.Field{field}, posSet, order, cfg)
		require.NoError(t, err)
		assert.InDelta(t, 1./8., pos.Sum(), tol, "order %d", order)
		itf, err := BuildRule(square, []levelset.Field{field}, ifSet, order, cfg)
		require.NoError(t, err)
		assert.InDelta(t, 1/math.Sqrt2, itf.Sum(), tol, "order %d", order)
		assert.Equal(t, 1, itf.Codim)
		require.Len(t, itf.Normals, itf.Len())
		for _, n := range itf.Normals {
			assert.InDeltaSlice(t, []float64{-1 / math.Sqrt2, -1 / math.Sqrt2}, n, 1.e-15)
		}
	}
	// Same values on a triangle mesh of the square
	m, err := mesh.NewStructured2D(1, 1, true, nil)
	require.NoError(t, err)
	lsets := []levelset.Func{phi}
	assert.InDelta(t, 7./8., integrateMesh(t, m, lsets, negSet, 2, one), 2.e-15)
	assert.InDelta(t, 1./8., integrateMesh(t, m, lsets, posSet, 2, one), 2.e-15)
	assert.InDelta(t, 1/math.Sqrt2, integrateMesh(t, m, lsets, ifSet, 2, one), 2.e-15)
}

func TestHalfPlanes(t *testing.T) {
	{ // Square, x = 0.3 on a 4x4 mesh, polynomial integrand
		m, err := mesh.NewStructured2D(4, 4, false, nil)
		require.NoError(t, err)
		lsets := []levelset.Func{levelset.Plane([]float64{1, 0}, -0.3)}
		sq := func(x []float64) float64 { return x[0] * x[0] * x[1] }
		assert.InDelta(t, 0.3, integrateMesh(t, m, lsets, negSet, 1, one), 1.e-14)
		assert.InDelta(t, 0.7, integrateMesh(t, m, lsets, posSet, 1, one), 1.e-14)
		assert.InDelta(t, 1., integrateMesh(t, m, lsets, ifSet, 1, one), 1.e-14)
		assert.InDelta(t, 0.009/2, integrateMesh(t, m, lsets, negSet, 3, sq), 1.e-14)
		assert.InDelta(t, 0.3/2, integrateMesh(t, m, lsets, ifSet, 3, func(x []float64) float64 {
			return x[0] * x[1]
		}), 1.e-14)
	}
	{ // Cube, z = 0.6 on hexes and on Kuhn tets
		for _, split := range []bool{false, true} {
			m, err := mesh.NewStructured3D(2, 2, 2, split, nil)
			require.NoError(t, err)
			lsets := []levelset.Func{levelset.Plane([]float64{0, 0, 1}, -0.6)}
			assert.InDelta(t, 0.6, integrateMesh(t, m, lsets, negSet, 1, one), 1.e-14)
			assert.InDelta(t, 0.4, integrateMesh(t, m, lsets, posSet, 1, one), 1.e-14)
			assert.InDelta(t, 1., integrateMesh(t, m, lsets, ifSet, 1, one), 1.e-14)
		}
	}
	{ // Corner of the cube, x+y+z < 0.5
		hex := refElement(geometry.Hex)
		f, err := levelset.Interpolate(levelset.Plane([]float64{1, 1, 1}, -0.5), hex)
		require.NoError(t, err)
		cfg := types.DefaultConfig()
		neg, err := BuildRule(hex, []levelset.Field{f}, negSet, 0, cfg)
		require.NoError(t, err)
		assert.InDelta(t, 1./48., neg.Sum(), 1.e-15)
		itf, err := BuildRule(hex, []levelset.Field{f}, ifSet, 0, cfg)
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt(3)/8, itf.Sum(), 1.e-15)
	}
	{ // Segment
		line := geometry.Element{Type: geometry.Line, Vertices: [][]float64{{1}, {3}}}
		f, err := levelset.Interpolate(levelset.Plane([]float64{1}, -1.5), line)
		require.NoError(t, err)
		cfg := types.DefaultConfig()
		neg, err := BuildRule(line, []levelset.Field{f}, negSet, 2, cfg)
		require.NoError(t, err)
		pr, err := neg.Map(line, nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, pr.Integrate(one), 1.e-15)
		itf, err := BuildRule(line, []levelset.Field{f}, ifSet, 2, cfg)
		require.NoError(t, err)
		require.Equal(t, 1, itf.Len())
		pr, err = itf.Map(line, nil)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, pr.Points[0][0], 1.e-15)
		assert.InDelta(t, 1., pr.Weights[0], 1.e-15)
	}
}

func TestInterfaceOnSharedFaces(t *testing.T) {
	cfg := types.DefaultConfig()
	{ // Interface along the Kuhn diagonal is counted once
		sq := refElement(geometry.Quad)
		f, err := levelset.Interpolate(levelset.Plane([]float64{1, -1}, 0), sq)
		require.NoError(t, err)
		itf, err := BuildRule(sq, []levelset.Field{f}, ifSet, 1, cfg)
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt2, itf.Sum(), 1.e-15)
	}
	{ // Interface on a mesh facet belongs to the negative element only
		m, err := mesh.NewStructured2D(2, 1, false, nil)
		require.NoError(t, err)
		lsets := []levelset.Func{levelset.Plane([]float64{1, 0}, -0.5)}
		assert.InDelta(t, 1., integrateMesh(t, m, lsets, ifSet, 1, one), 1.e-15)
		assert.InDelta(t, 0.5, integrateMesh(t, m, lsets, negSet, 1, one), 1.e-15)
	}
	{ // A level set vanishing on the whole cell is negative
		tri := refElement(geometry.Triangle)
		zero := []levelset.Field{levelset.NewField(0, 0, 0)}
		neg, err := BuildRule(tri, zero, negSet, 1, cfg)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, neg.Sum(), 1.e-15)
		pos, err := BuildRule(tri, zero, posSet, 1, cfg)
		require.NoError(t, err)
		assert.True(t, pos.IsEmpty())
		itf, err := BuildRule(tri, zero, ifSet, 1, cfg)
		require.NoError(t, err)
		assert.True(t, itf.IsEmpty())
	}
}

// Random nodal values, zeros included, must split every cell into NEG and
// POS parts adding up to the cell measure.
func TestPartitionOfUnity(t *testing.T) {
	var (
		rng = rand.New(rand.NewSource(7))
		cfg = types.DefaultConfig()
	)
	for _, et := range []geometry.ElementType{geometry.Line, geometry.Triangle, geometry.Quad,
		geometry.Tet, geometry.Hex} {
		el := refElement(et)
		for trial := 0; trial < 200; trial++ {
			vals := make([]float64, et.NumVertices())
			for i := range vals {
				switch rng.Intn(4) {
				case 0:
					vals[i] = 0
				default:
					vals[i] = rng.Float64()*2 - 1
				}
			}
			fields := []levelset.Field{levelset.NewField(vals...)}
			neg, err := BuildRule(el, fields, negSet, 1, cfg)
			require.NoError(t, err)
			pos, err := BuildRule(el, fields, posSet, 1, cfg)
			require.NoError(t, err)
			assert.InDelta(t, et.ReferenceMeasure(), neg.Sum()+pos.Sum(), 1.e-14,
				"%s %v", et, vals)
			both, err := BuildRule(el, fields, domain.MustSet(domain.Spec{domain.NEG}, domain.Spec{domain.POS}), 1, cfg)
			require.NoError(t, err)
			assert.InDelta(t, et.ReferenceMeasure(), both.Sum(), 1.e-14)
		}
	}
}

func TestUnionLaw(t *testing.T) {
	var (
		sq  = refElement(geometry.Quad)
		cfg = types.DefaultConfig()
	)
	f1, err := levelset.Interpolate(levelset.Sphere([]float64{0.2, 0.3}, 0.5), sq)
	require.NoError(t, err)
	f2, err := levelset.Interpolate(levelset.Plane([]float64{1, -0.5}, -0.2), sq)
	require.NoError(t, err)
	fields := []levelset.Field{f1, f2}
	a := domain.MustSet(domain.Spec{domain.NEG, domain.POS})
	b := domain.MustSet(domain.Spec{domain.POS, domain.NEG}, domain.Spec{domain.POS, domain.POS})
	u, err := a.Union(b)
	require.NoError(t, err)
	ra, err := BuildRule(sq, fields, a, 3, cfg)
	require.NoError(t, err)
	rb, err := BuildRule(sq, fields, b, 3, cfg)
	require.NoError(t, err)
	ru, err := BuildRule(sq, fields, u, 3, cfg)
	require.NoError(t, err)
	g := func(p []float64) float64 { return 1 + p[0]*p[1] - p[1]*p[1] }
	assert.InDelta(t, ra.Integrate(g)+rb.Integrate(g), ru.Integrate(g), 1.e-15)

	var cat quadrature.Rule
	cat.Append(ra)
	cat.Append(rb)
	assert.True(t, cmp.Equal(cat.Points, ru.Points))
	assert.True(t, cmp.Equal(cat.Weights, ru.Weights))
}

func TestDeterminism(t *testing.T) {
	var (
		hex = refElement(geometry.Hex)
		cfg = types.DefaultConfig()
	)
	f, err := levelset.Interpolate(levelset.Sphere([]float64{0.1, 0.2, 0.3}, 0.7), hex)
	require.NoError(t, err)
	for _, ds := range []domain.Set{negSet, posSet, ifSet} {
		r1, err := BuildRule(hex, []levelset.Field{f}, ds, 4, cfg)
		require.NoError(t, err)
		r2, err := BuildRule(hex, []levelset.Field{f}, ds, 4, cfg)
		require.NoError(t, err)
		if diff := cmp.Diff(r1, r2); diff != "" {
			t.Errorf("rules differ (-first +second):\n%s", diff)
		}
	}
}

func TestMultiLevelSetSquare(t *testing.T) {
	// [-0.55,0.55]^2 as the intersection of four half planes on [-1,1]^2
	m, err := mesh.NewStructured2D(8, 8, true, mesh.BoxMapping([]float64{-1, -1}, []float64{1, 1}))
	require.NoError(t, err)
	lsets := []levelset.Func{
		levelset.Plane([]float64{1, 0}, -0.55),
		levelset.Plane([]float64{-1, 0}, -0.55),
		levelset.Plane([]float64{0, 1}, -0.55),
		levelset.Plane([]float64{0, -1}, -0.55),
	}
	inner := domain.MustSet(domain.Spec{domain.NEG, domain.NEG, domain.NEG, domain.NEG})
	assert.InDelta(t, 1.21, integrateMesh(t, m, lsets, inner, 1, one), 1.e-13)
	bnd, err := inner.Boundary()
	require.NoError(t, err)
	for _, s := range bnd.Specs() {
		assert.InDelta(t, 1.1, integrateMesh(t, m, lsets, domain.MustSet(s), 1, one), 1.e-13, "%v", s)
	}
	assert.InDelta(t, 4.4, integrateMesh(t, m, lsets, bnd, 1, one), 1.e-13)
	outer, err := inner.Complement()
	require.NoError(t, err)
	assert.InDelta(t, 4-1.21, integrateMesh(t, m, lsets, outer, 1, one), 1.e-13)
}

func TestSnapping(t *testing.T) {
	var (
		buf = &bytes.Buffer{}
		cfg = types.DefaultConfig()
		tri = refElement(geometry.Triangle)
	)
	cfg.Logger = slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fields := []levelset.Field{levelset.NewField(1.e-17, -1, -1)}
	neg, err := BuildRule(tri, fields, negSet, 1, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, neg.Snapped)
	assert.InDelta(t, 0.5, neg.Sum(), 1.e-15)
	assert.Contains(t, buf.String(), "snapped")
	pos, err := BuildRule(tri, fields, posSet, 1, cfg)
	require.NoError(t, err)
	assert.True(t, pos.IsEmpty())

	cfg.SnapTolerance = 0
	pos, err = BuildRule(tri, fields, posSet, 1, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, pos.Snapped)
	assert.False(t, pos.IsEmpty())
}

func TestBuildRuleErrors(t *testing.T) {
	var (
		cfg = types.DefaultConfig()
		tri = refElement(geometry.Triangle)
		ok  = []levelset.Field{levelset.NewField(1, -1, 0.5)}
	)
	_, err := BuildRule(tri, append(ok, ok[0]), negSet, 1, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
	_, err = BuildRule(tri, ok, domain.Set{}, 1, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidDomainSpec)
	_, err = BuildRule(tri, []levelset.Field{levelset.NewField(1, -1)}, negSet, 1, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidLevelSet)
	_, err = BuildRule(tri, []levelset.Field{levelset.NewField(1, math.NaN(), 0)}, negSet, 1, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidLevelSet)
	flat := geometry.Element{Type: geometry.Triangle, Vertices: [][]float64{{0, 0}, {1, 0}, {2, 0}}}
	_, err = BuildRule(flat, ok, negSet, 1, cfg)
	assert.ErrorIs(t, err, types.ErrDegenerateGeometry)
	bad := cfg
	bad.Epsilon = -1
	_, err = BuildRule(tri, ok, negSet, 1, bad)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
	_, err = BuildRule(tri, ok, negSet, -1, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}
