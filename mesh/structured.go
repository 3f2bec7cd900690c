package mesh

import (
	"fmt"

	"github.com/notargets/gocut/geometry"
)

// Mapping transforms unit box coordinates into physical coordinates
type Mapping func(x []float64) []float64

// BoxMapping maps the unit box onto [lo, hi] per direction
func BoxMapping(lo, hi []float64) Mapping {
	return func(x []float64) []float64 {
		y := make([]float64, len(x))
		for i := range x {
			y[i] = lo[i] + (hi[i]-lo[i])*x[i]
		}
		return y
	}
}

// NewStructured1D divides [0,1] into n segments
func NewStructured1D(n int, mapping Mapping) (*Mesh, error) {
	if n < 1 {
		return nil, fmt.Errorf("structured mesh needs n >= 1, have %d", n)
	}
	var (
		verts = make([][]float64, n+1)
		etov  = make([][]int, n)
		ets   = make([]geometry.ElementType, n)
	)
	for i := 0; i <= n; i++ {
		verts[i] = applyMapping(mapping, []float64{float64(i) / float64(n)})
	}
	for i := 0; i < n; i++ {
		etov[i] = []int{i, i + 1}
		ets[i] = geometry.Line
	}
	return NewMesh(1, verts, etov, ets)
}

// NewStructured2D divides the unit square into nx by ny quads, each split
// into two triangles along its main diagonal when split is set.
func NewStructured2D(nx, ny int, split bool, mapping Mapping) (*Mesh, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("structured mesh needs nx, ny >= 1, have %d, %d", nx, ny)
	}
	var (
		verts [][]float64
		etov  [][]int
		ets   []geometry.ElementType
		vid   = func(i, j int) int { return i + j*(nx+1) }
	)
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			verts = append(verts, applyMapping(mapping,
				[]float64{float64(i) / float64(nx), float64(j) / float64(ny)}))
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			quad := []int{vid(i, j), vid(i+1, j), vid(i+1, j+1), vid(i, j+1)}
			if !split {
				etov = append(etov, quad)
				ets = append(ets, geometry.Quad)
				continue
			}
			for _, s := range geometry.Quad.KuhnSimplices() {
				etov = append(etov, pick(quad, s))
				ets = append(ets, geometry.Triangle)
			}
		}
	}
	return NewMesh(2, verts, etov, ets)
}

// NewStructured3D divides the unit cube into nx by ny by nz hexes, each split
// into six Kuhn tetrahedra when split is set. The Kuhn split is conforming
// across neighboring cells.
func NewStructured3D(nx, ny, nz int, split bool, mapping Mapping) (*Mesh, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("structured mesh needs nx, ny, nz >= 1, have %d, %d, %d", nx, ny, nz)
	}
	var (
		verts [][]float64
		etov  [][]int
		ets   []geometry.ElementType
		vid   = func(i, j, k int) int { return i + j*(nx+1) + k*(nx+1)*(ny+1) }
	)
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				verts = append(verts, applyMapping(mapping, []float64{
					float64(i) / float64(nx), float64(j) / float64(ny), float64(k) / float64(nz)}))
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				hex := []int{
					vid(i, j, k), vid(i+1, j, k), vid(i+1, j+1, k), vid(i, j+1, k),
					vid(i, j, k+1), vid(i+1, j, k+1), vid(i+1, j+1, k+1), vid(i, j+1, k+1),
				}
				if !split {
					etov = append(etov, hex)
					ets = append(ets, geometry.Hex)
					continue
				}
				for _, s := range geometry.Hex.KuhnSimplices() {
					etov = append(etov, pick(hex, s))
					ets = append(ets, geometry.Tet)
				}
			}
		}
	}
	return NewMesh(3, verts, etov, ets)
}

func pick(verts, local []int) (sel []int) {
	sel = make([]int, len(local))
	for i, l := range local {
		sel[i] = verts[l]
	}
	return
}

func applyMapping(mapping Mapping, x []float64) []float64 {
	if mapping == nil {
		return x
	}
	return mapping(x)
}
