package mesh

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/james-bowman/sparse"

	"github.com/notargets/gocut/geometry"
	"github.com/notargets/gocut/utils"
)

// Facet is a codimension one entity shared by at most two elements
type Facet struct {
	Vertices      []int // Vertex indices in the owner's local order
	Owner         int   // Element that first produced the facet
	OwnerLocal    int   // Local facet ID within the owner
	Neighbor      int   // Second element, -1 on the boundary
	NeighborLocal int
}

func (f Facet) IsBoundary() bool { return f.Neighbor < 0 }

// Mesh holds vertices, element connectivity and the facet pairs derived from it
type Mesh struct {
	Dim int

	// Geometry
	Vertices [][]float64 // Vertex coordinates [nvertices][Dim]

	// Element data
	EtoV         [][]int                // Element to vertex connectivity
	ElementTypes []geometry.ElementType // Element type for each element
	ElementTags  []int                  // Physical group/tag for each element

	// Connectivity (built by BuildConnectivity)
	EToE [][]int // Element to element connectivity [nelems][nfacets_per_elem]
	EToF [][]int // Element to global facet ID [nelems][nfacets_per_elem]

	// Facet data
	Facets   []Facet
	FacetMap map[string]int // Map from sorted vertex string to facet ID

	NumElements int
	NumVertices int
	NumFacets   int
}

// NewMesh checks element orientation, flipping inverted elements, and builds
// the connectivity. The connectivity passed in is copied, never reordered.
func NewMesh(dim int, vertices [][]float64, etov [][]int, elTypes []geometry.ElementType) (m *Mesh, err error) {
	if len(etov) != len(elTypes) {
		return nil, fmt.Errorf("%d elements but %d element types", len(etov), len(elTypes))
	}
	own := make([][]int, len(etov))
	for k, verts := range etov {
		own[k] = append([]int(nil), verts...)
	}
	etov = own
	m = &Mesh{
		Dim:          dim,
		Vertices:     vertices,
		EtoV:         etov,
		ElementTypes: elTypes,
		ElementTags:  make([]int, len(etov)),
		NumElements:  len(etov),
		NumVertices:  len(vertices),
	}
	for k := range etov {
		et := elTypes[k]
		if et.Dim() != dim {
			return nil, fmt.Errorf("element %d is a %s, mesh dimension is %d", k, et, dim)
		}
		if len(etov[k]) != et.NumVertices() {
			return nil, fmt.Errorf("element %d: %s needs %d vertices, have %d",
				k, et, et.NumVertices(), len(etov[k]))
		}
		for _, v := range etov[k] {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("element %d references vertex %d of %d", k, v, len(vertices))
			}
		}
		m.orient(k)
		if err = m.Element(k).Validate(); err != nil {
			return nil, fmt.Errorf("element %d: %w", k, err)
		}
	}
	m.BuildConnectivity()
	return
}

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".msh":
		return ReadGmsh22(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// orient reorders the vertices of element k so that det(J) > 0
func (m *Mesh) orient(k int) {
	var (
		et = m.ElementTypes[k]
		el = m.Element(k)
		xi = make([]float64, et.Dim())
	)
	for i := range xi {
		xi[i] = 0.25
	}
	if el.DetJ(xi) >= 0 {
		return
	}
	v := m.EtoV[k]
	switch et {
	case geometry.Line:
		v[0], v[1] = v[1], v[0]
	case geometry.Triangle, geometry.Tet:
		v[1], v[2] = v[2], v[1]
	case geometry.Quad:
		v[1], v[3] = v[3], v[1]
	case geometry.Hex:
		for i := 0; i < 4; i++ {
			v[i], v[i+4] = v[i+4], v[i]
		}
	}
}

// BuildConnectivity builds element-to-element and facet connectivity
func (m *Mesh) BuildConnectivity() {
	m.EToE = make([][]int, m.NumElements)
	m.EToF = make([][]int, m.NumElements)
	m.Facets = nil
	m.FacetMap = make(map[string]int)

	for elemID := 0; elemID < m.NumElements; elemID++ {
		facetVertices := GetElementFacets(m.ElementTypes[elemID], m.EtoV[elemID])

		m.EToE[elemID] = make([]int, len(facetVertices))
		m.EToF[elemID] = make([]int, len(facetVertices))

		for i := range m.EToE[elemID] {
			m.EToE[elemID][i] = -1
			m.EToF[elemID][i] = -1
		}

		for localID, fv := range facetVertices {
			key := facetKey(fv)

			if facetID, exists := m.FacetMap[key]; exists {
				// Interior facet, second visit
				f := &m.Facets[facetID]
				f.Neighbor = elemID
				f.NeighborLocal = localID

				m.EToE[elemID][localID] = f.Owner
				m.EToE[f.Owner][f.OwnerLocal] = elemID
				m.EToF[elemID][localID] = facetID
			} else {
				facetID := len(m.Facets)
				m.Facets = append(m.Facets, Facet{
					Vertices:   fv,
					Owner:      elemID,
					OwnerLocal: localID,
					Neighbor:   -1,
				})
				m.FacetMap[key] = facetID
				m.EToF[elemID][localID] = facetID
			}
		}
	}

	m.NumFacets = len(m.Facets)
}

func facetKey(fv []int) string {
	sorted := make([]int, len(fv))
	copy(sorted, fv)
	sort.Ints(sorted)
	return fmt.Sprintf("%v", sorted)
}

// GetElementFacets returns the facet vertices for each element type
func GetElementFacets(elemType geometry.ElementType, vertices []int) (facets [][]int) {
	local := elemType.Facets()
	facets = make([][]int, len(local))
	for i, lf := range local {
		facets[i] = make([]int, len(lf))
		for j, lv := range lf {
			facets[i][j] = vertices[lv]
		}
	}
	return
}

// Element returns the geometry of element k
func (m *Mesh) Element(k int) geometry.Element {
	verts := make([][]float64, len(m.EtoV[k]))
	for i, v := range m.EtoV[k] {
		verts[i] = m.Vertices[v]
	}
	return geometry.Element{Type: m.ElementTypes[k], Vertices: verts}
}

// BoundaryFacets returns the IDs of facets with a single element
func (m *Mesh) BoundaryFacets() (bf []int) {
	for i, f := range m.Facets {
		if f.IsBoundary() {
			bf = append(bf, i)
		}
	}
	return
}

// Incidence returns the element by vertex incidence matrix
func (m *Mesh) Incidence() *sparse.CSR {
	dok := sparse.NewDOK(m.NumElements, m.NumVertices)
	for k, verts := range m.EtoV {
		for _, v := range verts {
			dok.Set(k, v, 1)
		}
	}
	return dok.ToCSR()
}

// ActiveVertices marks every vertex touched by a marked element
func (m *Mesh) ActiveVertices(marks utils.BitArray) (active utils.BitArray, err error) {
	if marks.Len() != m.NumElements {
		return active, fmt.Errorf("%d element marks for %d elements", marks.Len(), m.NumElements)
	}
	inc := m.Incidence().RawMatrix()
	active = utils.NewBitArray(m.NumVertices)
	for _, k := range marks.Indices() {
		for p := inc.Indptr[k]; p < inc.Indptr[k+1]; p++ {
			active.Set(inc.Ind[p])
		}
	}
	return
}

// PrintStatistics writes mesh statistics to w, element types in order
func (m *Mesh) PrintStatistics(w io.Writer) {
	fmt.Fprintf(w, "Mesh Statistics:\n")
	fmt.Fprintf(w, "  Dimension: %d\n", m.Dim)
	fmt.Fprintf(w, "  Vertices: %d\n", m.NumVertices)
	fmt.Fprintf(w, "  Elements: %d\n", m.NumElements)
	fmt.Fprintf(w, "  Facets: %d\n", m.NumFacets)

	typeCounts := make(map[geometry.ElementType]int)
	for _, t := range m.ElementTypes {
		typeCounts[t]++
	}
	kinds := make([]geometry.ElementType, 0, len(typeCounts))
	for t := range typeCounts {
		kinds = append(kinds, t)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	fmt.Fprintf(w, "  Element types:\n")
	for _, t := range kinds {
		fmt.Fprintf(w, "    %s: %d\n", t, typeCounts[t])
	}
	fmt.Fprintf(w, "  Boundary facets: %d\n", len(m.BoundaryFacets()))
}
