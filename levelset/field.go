package levelset

import (
	"fmt"
	"math"

	"github.com/notargets/gocut/geometry"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/types"
)

// Func is a level set function in physical coordinates
type Func func(x []float64) float64

// Field holds the order one nodal values of a level set on one element, one
// value per vertex of the reference cell.
type Field struct {
	Values []float64
}

func NewField(values ...float64) Field { return Field{Values: values} }

// Validate checks the node count against the cell and rejects non-finite values
func (f Field) Validate(et geometry.ElementType) error {
	if len(f.Values) != et.NumVertices() {
		return fmt.Errorf("%w: %d nodal values for a %s with %d vertices",
			types.ErrInvalidLevelSet, len(f.Values), et, et.NumVertices())
	}
	return checkFinite(f.Values)
}

func (f Field) MaxAbs() (m float64) {
	for _, v := range f.Values {
		m = math.Max(m, math.Abs(v))
	}
	return
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: nodal value %d is %v", types.ErrInvalidLevelSet, i, v)
		}
	}
	return nil
}

// Interpolate samples f at the vertices of el
func Interpolate(f Func, el geometry.Element) (Field, error) {
	if err := el.Validate(); err != nil {
		return Field{}, err
	}
	vals := make([]float64, len(el.Vertices))
	for i, x := range el.Vertices {
		vals[i] = f(x)
	}
	return Field{Values: vals}, checkFinite(vals)
}

// GridFunction is a mesh wide order one level set, one value per mesh vertex
type GridFunction struct {
	Values []float64
}

// InterpolateToP1 samples f at every mesh vertex
func InterpolateToP1(f Func, m *mesh.Mesh) GridFunction {
	vals := make([]float64, m.NumVertices)
	for i, x := range m.Vertices {
		vals[i] = f(x)
	}
	return GridFunction{Values: vals}
}

func (g GridFunction) Validate(m *mesh.Mesh) error {
	if len(g.Values) != m.NumVertices {
		return fmt.Errorf("%w: %d values for a mesh with %d vertices",
			types.ErrInvalidLevelSet, len(g.Values), m.NumVertices)
	}
	return checkFinite(g.Values)
}

// Element extracts the nodal values of element k
func (g GridFunction) Element(m *mesh.Mesh, k int) Field {
	verts := m.EtoV[k]
	vals := make([]float64, len(verts))
	for i, v := range verts {
		vals[i] = g.Values[v]
	}
	return Field{Values: vals}
}

// ElementFields extracts element k from every grid function, in order
func ElementFields(m *mesh.Mesh, k int, lsets []GridFunction) (fields []Field) {
	fields = make([]Field, len(lsets))
	for i, g := range lsets {
		fields[i] = g.Element(m, k)
	}
	return
}
