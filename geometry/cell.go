package geometry

import "fmt"

// ElementType enumerates the reference cells understood by the engine
type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
	Tet
	Hex
)

func (e ElementType) String() string {
	return [...]string{"Line", "Triangle", "Quad", "Tet", "Hex"}[e]
}

func (e ElementType) Dim() int {
	switch e {
	case Line:
		return 1
	case Triangle, Quad:
		return 2
	case Tet, Hex:
		return 3
	}
	panic(fmt.Errorf("unknown element type %d", e))
}

func (e ElementType) IsSimplex() bool {
	return e == Line || e == Triangle || e == Tet
}

func (e ElementType) NumVertices() int {
	return len(e.ReferenceVertices())
}

// ReferenceVertices returns the vertex coordinates of the reference cell.
// Simplices use the unit simplex, tensor cells the unit square/cube with the
// bottom face counter-clockwise followed by the top face.
func (e ElementType) ReferenceVertices() [][]float64 {
	switch e {
	case Line:
		return [][]float64{{0}, {1}}
	case Triangle:
		return [][]float64{{0, 0}, {1, 0}, {0, 1}}
	case Quad:
		return [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	case Tet:
		return [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	case Hex:
		return [][]float64{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		}
	}
	panic(fmt.Errorf("unknown element type %d", e))
}

// ReferenceMeasure is the length/area/volume of the reference cell
func (e ElementType) ReferenceMeasure() float64 {
	switch e {
	case Triangle:
		return 0.5
	case Tet:
		return 1. / 6.
	}
	return 1
}

// Facets returns the local vertex indices of each facet
func (e ElementType) Facets() [][]int {
	switch e {
	case Line:
		return [][]int{{0}, {1}}
	case Triangle:
		return [][]int{{0, 1}, {1, 2}, {2, 0}}
	case Quad:
		return [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	case Tet:
		return [][]int{
			{0, 2, 1}, // Face 0
			{0, 1, 3}, // Face 1
			{1, 2, 3}, // Face 2
			{0, 3, 2}, // Face 3
		}
	case Hex:
		return [][]int{
			{0, 3, 2, 1}, // Face 0 (bottom)
			{4, 5, 6, 7}, // Face 1 (top)
			{0, 1, 5, 4}, // Face 2
			{1, 2, 6, 5}, // Face 3
			{2, 3, 7, 6}, // Face 4
			{3, 0, 4, 7}, // Face 5
		}
	}
	panic(fmt.Errorf("unknown element type %d", e))
}

// KuhnSimplices decomposes the reference cell into simplices sharing the
// cell's own vertices. Simplices return themselves; tensor cells are split
// along the main diagonal, one simplex per permutation of the axes (2 for a
// quad, 6 for a hex). Each entry lists local vertex indices.
func (e ElementType) KuhnSimplices() [][]int {
	var (
		refV = e.ReferenceVertices()
		dim  = e.Dim()
	)
	if e.IsSimplex() {
		s := make([]int, len(refV))
		for i := range s {
			s[i] = i
		}
		return [][]int{s}
	}
	lookup := func(p []float64) int {
		for i, v := range refV {
			match := true
			for d := range v {
				if v[d] != p[d] {
					match = false
					break
				}
			}
			if match {
				return i
			}
		}
		panic("vertex not found in reference cell")
	}
	var simplices [][]int
	for _, perm := range permutations(dim) {
		p := make([]float64, dim)
		s := []int{lookup(p)}
		for _, axis := range perm {
			p[axis] = 1
			s = append(s, lookup(p))
		}
		simplices = append(simplices, s)
	}
	return simplices
}

func permutations(n int) (perms [][]int) {
	var rec func(prefix []int, used []bool)
	rec = func(prefix []int, used []bool) {
		if len(prefix) == n {
			perms = append(perms, append([]int(nil), prefix...))
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			rec(append(prefix, i), used)
			used[i] = false
		}
	}
	rec(nil, make([]bool, n))
	return
}

// ShapeFunctions evaluates the order one nodal basis of the cell and its
// reference gradients at xi. dN[i][k] is dN_i/dxi_k.
func (e ElementType) ShapeFunctions(xi []float64) (N []float64, dN [][]float64) {
	var (
		refV = e.ReferenceVertices()
		dim  = e.Dim()
	)
	N = make([]float64, len(refV))
	dN = make([][]float64, len(refV))
	for i := range dN {
		dN[i] = make([]float64, dim)
	}
	if e.IsSimplex() {
		N[0] = 1
		for k := 0; k < dim; k++ {
			N[0] -= xi[k]
			N[k+1] = xi[k]
			dN[0][k] = -1
			dN[k+1][k] = 1
		}
		return
	}
	for i, v := range refV {
		N[i] = 1
		for k := 0; k < dim; k++ {
			N[i] *= linear1D(v[k], xi[k])
		}
		for k := 0; k < dim; k++ {
			g := 1.
			for m := 0; m < dim; m++ {
				if m == k {
					if v[m] == 0 {
						g = -g
					}
				} else {
					g *= linear1D(v[m], xi[m])
				}
			}
			dN[i][k] = g
		}
	}
	return
}

func linear1D(node, x float64) float64 {
	if node == 1 {
		return x
	}
	return 1 - x
}

// ParseElementType accepts the names printed by String, case sensitive
func ParseElementType(name string) (ElementType, error) {
	for _, e := range []ElementType{Line, Triangle, Quad, Tet, Hex} {
		if e.String() == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown element type %q", name)
}
