package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/gocut/geometry"
)

// gmshElementType2_2 maps the first order Gmsh 2.2 element types to ours
var gmshElementType2_2 = map[int]geometry.ElementType{
	1: geometry.Line,
	2: geometry.Triangle,
	3: geometry.Quad,
	4: geometry.Tet,
	5: geometry.Hex,
}

type gmshElement struct {
	elType geometry.ElementType
	tag    int
	nodes  []int
}

// ReadGmsh22 reads an ASCII Gmsh 2.2 file. Only elements of the highest
// dimension present are kept, lower dimensional (boundary) entities are
// dropped. Gmsh node numbering is compacted to 0 based indices.
func ReadGmsh22(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadGmsh22From(file)
}

func ReadGmsh22From(r io.Reader) (*Mesh, error) {
	var (
		nodeIDs  = make(map[int]int)
		coords   [][]float64
		elements []gmshElement
	)
	scanner := bufio.NewScanner(r)

	// Increase scanner buffer for large files
	const maxScanTokenSize = 1024 * 1024 * 10 // 10MB
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "$MeshFormat":
			if err := readMeshFormat(scanner); err != nil {
				return nil, err
			}
		case "$Nodes":
			var err error
			if coords, err = readNodes(scanner, nodeIDs); err != nil {
				return nil, err
			}
		case "$Elements":
			var err error
			if elements, err = readElements(scanner); err != nil {
				return nil, err
			}
		case "$PhysicalNames", "$Periodic", "$NodeData", "$ElementData", "$ElementNodeData":
			if err := skipSection(scanner, "$End"+line[1:]); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %v", err)
	}

	dim := 0
	for _, e := range elements {
		if d := e.elType.Dim(); d > dim {
			dim = d
		}
	}
	if dim == 0 {
		return nil, fmt.Errorf("no supported elements found")
	}

	var (
		verts = make([][]float64, len(coords))
		etov  [][]int
		ets   []geometry.ElementType
		tags  []int
	)
	for i, c := range coords {
		verts[i] = c[:dim]
	}
	for _, e := range elements {
		if e.elType.Dim() != dim {
			continue
		}
		ev := make([]int, len(e.nodes))
		for i, id := range e.nodes {
			idx, ok := nodeIDs[id]
			if !ok {
				return nil, fmt.Errorf("element references unknown node %d", id)
			}
			ev[i] = idx
		}
		etov = append(etov, ev)
		ets = append(ets, e.elType)
		tags = append(tags, e.tag)
	}
	m, err := NewMesh(dim, verts, etov, ets)
	if err != nil {
		return nil, err
	}
	m.ElementTags = tags
	return m, nil
}

// readMeshFormat reads the MeshFormat section
func readMeshFormat(scanner *bufio.Scanner) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in MeshFormat")
	}

	parts := strings.Fields(scanner.Text())
	if len(parts) < 3 {
		return fmt.Errorf("invalid MeshFormat line")
	}
	if !strings.HasPrefix(parts[0], "2") {
		return fmt.Errorf("unsupported Gmsh version: %s", parts[0])
	}
	if parts[1] != "0" {
		return fmt.Errorf("binary Gmsh files are not supported")
	}
	return skipSection(scanner, "$EndMeshFormat")
}

// readNodes reads the Nodes section
func readNodes(scanner *bufio.Scanner, nodeIDs map[int]int) (coords [][]float64, err error) {
	if !scanner.Scan() {
		return nil, fmt.Errorf("unexpected EOF in Nodes")
	}

	numNodes, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, fmt.Errorf("invalid number of nodes: %v", err)
	}

	coords = make([][]float64, 0, numNodes)
	for i := 0; i < numNodes; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected EOF in Nodes at node %d", i)
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			return nil, fmt.Errorf("invalid node entry at line %d", i+1)
		}

		nodeID, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid node ID: %v", err)
		}

		c := make([]float64, 3)
		for j := 0; j < 3; j++ {
			c[j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid coordinate: %v", err)
			}
		}
		nodeIDs[nodeID] = len(coords)
		coords = append(coords, c)
	}

	return coords, skipSection(scanner, "$EndNodes")
}

// readElements reads the Elements section, skipping unsupported types
func readElements(scanner *bufio.Scanner) (elements []gmshElement, err error) {
	if !scanner.Scan() {
		return nil, fmt.Errorf("unexpected EOF in Elements")
	}

	numElems, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, fmt.Errorf("invalid number of elements: %v", err)
	}

	for i := 0; i < numElems; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected EOF in Elements at element %d", i)
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return nil, fmt.Errorf("invalid element entry at line %d", i+1)
		}

		gmshType, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid element type: %v", err)
		}
		numTags, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid number of tags: %v", err)
		}

		elType, ok := gmshElementType2_2[gmshType]
		if !ok {
			continue
		}

		var tag int
		if numTags > 0 && len(fields) > 3 {
			if tag, err = strconv.Atoi(fields[3]); err != nil {
				return nil, fmt.Errorf("invalid tag: %v", err)
			}
		}

		startIdx := 3 + numTags
		nv := elType.NumVertices()
		if len(fields)-startIdx != nv {
			return nil, fmt.Errorf("element type %v expects %d nodes, got %d",
				elType, nv, len(fields)-startIdx)
		}
		nodes := make([]int, nv)
		for j := 0; j < nv; j++ {
			if nodes[j], err = strconv.Atoi(fields[startIdx+j]); err != nil {
				return nil, fmt.Errorf("invalid node ID: %v", err)
			}
		}
		elements = append(elements, gmshElement{elType: elType, tag: tag, nodes: nodes})
	}

	return elements, skipSection(scanner, "$EndElements")
}

func skipSection(scanner *bufio.Scanner, endMarker string) error {
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == endMarker {
			return nil
		}
	}
	return fmt.Errorf("missing %s", endMarker)
}
