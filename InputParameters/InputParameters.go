package InputParameters

import (
	"fmt"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/types"
)

// Parameters obtained from the YAML input file
type CutParameters struct {
	Title           string               `yaml:"Title"`
	Mesh            MeshParameters       `yaml:"Mesh"`
	LevelSets       []LevelSetParameters `yaml:"LevelSets"`
	Domains         []string             `yaml:"Domains"` // e.g. "NEG", "IF", "(NEG,POS)+(POS,NEG)"
	Exact           []float64            `yaml:"Exact"`   // Optional reference value per domain
	Order           int                  `yaml:"Order"`
	TimeOrder       int                  `yaml:"TimeOrder"`
	Refinements     int                  `yaml:"Refinements"`
	FinalTime       float64              `yaml:"FinalTime"`
	NumSlabs        int                  `yaml:"NumSlabs"` // Slabs on the coarsest mesh, doubled per refinement
	Epsilon         float64              `yaml:"Epsilon"`
	SnapTolerance   float64              `yaml:"SnapTolerance"`
	TimeSubdivision int                  `yaml:"TimeSubdivision"`
	NumThreads      int                  `yaml:"NumThreads"`
}

type MeshParameters struct {
	File  string    `yaml:"File"` // Gmsh 2.2 file, replaces the structured mesh
	Dim   int       `yaml:"Dim"`
	N     int       `yaml:"N"`     // Cells per direction on the coarsest level
	Split bool      `yaml:"Split"` // Split quads and hexes into simplices
	Lo    []float64 `yaml:"Lo"`
	Hi    []float64 `yaml:"Hi"`
}

type LevelSetParameters struct {
	Shape    string    `yaml:"Shape"` // Plane or Sphere
	Center   []float64 `yaml:"Center"`
	Radius   float64   `yaml:"Radius"`
	Gradient []float64 `yaml:"Gradient"`
	Offset   float64   `yaml:"Offset"`
	Velocity []float64 `yaml:"Velocity"`
}

// Parse fills in the defaults and overlays the file, so a value given in the
// file, zero included, always wins.
func (ip *CutParameters) Parse(data []byte) error {
	ip.setDefaults()
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	return ip.Validate()
}

func (ip *CutParameters) setDefaults() {
	ip.Order = 2
	ip.TimeOrder = 1
	ip.Refinements = 1
	ip.NumSlabs = 1
	ip.FinalTime = 1
	ip.Mesh.N = 8
	ip.Mesh.Dim = 2
}

func (ip *CutParameters) Validate() error {
	if len(ip.LevelSets) == 0 {
		return fmt.Errorf("%w: no level sets", types.ErrInvalidConfig)
	}
	if len(ip.Domains) == 0 {
		return fmt.Errorf("%w: no domains", types.ErrInvalidConfig)
	}
	if len(ip.Exact) != 0 && len(ip.Exact) != len(ip.Domains) {
		return fmt.Errorf("%w: %d exact values for %d domains", types.ErrInvalidConfig,
			len(ip.Exact), len(ip.Domains))
	}
	if ip.Mesh.Dim < 1 || ip.Mesh.Dim > 3 {
		return fmt.Errorf("%w: mesh dimension %d", types.ErrInvalidConfig, ip.Mesh.Dim)
	}
	if (ip.Mesh.Lo == nil) != (ip.Mesh.Hi == nil) ||
		(ip.Mesh.Lo != nil && (len(ip.Mesh.Lo) != ip.Mesh.Dim || len(ip.Mesh.Hi) != ip.Mesh.Dim)) {
		return fmt.Errorf("%w: mesh bounds must both have %d coordinates", types.ErrInvalidConfig, ip.Mesh.Dim)
	}
	if ip.Mesh.File != "" && ip.Refinements > 1 {
		return fmt.Errorf("%w: refinement is only available for structured meshes", types.ErrInvalidConfig)
	}
	if ip.Order < 0 || ip.TimeOrder < 0 {
		return fmt.Errorf("%w: orders must be >= 0, have %d and %d", types.ErrInvalidConfig,
			ip.Order, ip.TimeOrder)
	}
	if ip.Refinements < 1 || ip.NumSlabs < 1 {
		return fmt.Errorf("%w: refinements and slabs must be >= 1, have %d and %d", types.ErrInvalidConfig,
			ip.Refinements, ip.NumSlabs)
	}
	if ip.Mesh.File == "" && ip.Mesh.N < 1 {
		return fmt.Errorf("%w: %d cells per direction", types.ErrInvalidConfig, ip.Mesh.N)
	}
	if ip.FinalTime <= 0 {
		return fmt.Errorf("%w: final time %g", types.ErrInvalidConfig, ip.FinalTime)
	}
	if _, err := ip.DomainSets(); err != nil {
		return err
	}
	_, err := ip.LevelSetFuncs()
	return err
}

// ToConfig overlays the tolerances given in the file onto the defaults
func (ip *CutParameters) ToConfig() (cfg types.Config, err error) {
	cfg = types.DefaultConfig()
	if ip.Epsilon != 0 {
		cfg.Epsilon = ip.Epsilon
	}
	if ip.SnapTolerance != 0 {
		cfg.SnapTolerance = ip.SnapTolerance
	}
	if ip.TimeSubdivision != 0 {
		cfg.TimeSubdivision = ip.TimeSubdivision
	}
	if ip.NumThreads != 0 {
		cfg.NumThreads = ip.NumThreads
	}
	err = cfg.Validate()
	return
}

func (ip *CutParameters) DomainSets() (sets []domain.Set, err error) {
	sets = make([]domain.Set, len(ip.Domains))
	for i, s := range ip.Domains {
		if sets[i], err = domain.ParseSet(s); err != nil {
			return nil, fmt.Errorf("domain %q: %w", s, err)
		}
		if sets[i].Len() != len(ip.LevelSets) {
			return nil, fmt.Errorf("%w: domain %q has tuples of length %d for %d level sets",
				types.ErrInvalidDomainSpec, s, sets[i].Len(), len(ip.LevelSets))
		}
	}
	return
}

// LevelSetFuncs returns the level sets as functions of space and time.
// Level sets without a velocity are steady.
func (ip *CutParameters) LevelSetFuncs() (fs []levelset.SpaceTimeFunc, err error) {
	fs = make([]levelset.SpaceTimeFunc, len(ip.LevelSets))
	for i, lp := range ip.LevelSets {
		var f levelset.Func
		switch strings.ToLower(lp.Shape) {
		case "plane":
			if len(lp.Gradient) != ip.Mesh.Dim {
				return nil, fmt.Errorf("%w: level set %d: plane gradient needs %d components",
					types.ErrInvalidLevelSet, i, ip.Mesh.Dim)
			}
			f = levelset.Plane(lp.Gradient, lp.Offset)
		case "sphere":
			if len(lp.Center) != ip.Mesh.Dim || lp.Radius <= 0 {
				return nil, fmt.Errorf("%w: level set %d: sphere needs a %d component center and a positive radius",
					types.ErrInvalidLevelSet, i, ip.Mesh.Dim)
			}
			f = levelset.Sphere(lp.Center, lp.Radius)
		default:
			return nil, fmt.Errorf("%w: level set %d: unknown shape %q", types.ErrInvalidLevelSet, i, lp.Shape)
		}
		switch len(lp.Velocity) {
		case 0:
			fs[i] = levelset.Steady(f)
		case ip.Mesh.Dim:
			fs[i] = levelset.Translate(f, lp.Velocity)
		default:
			return nil, fmt.Errorf("%w: level set %d: velocity needs %d components",
				types.ErrInvalidLevelSet, i, ip.Mesh.Dim)
		}
	}
	return
}

// IsMoving reports whether any level set has a velocity
func (ip *CutParameters) IsMoving() bool {
	for _, lp := range ip.LevelSets {
		if len(lp.Velocity) != 0 {
			return true
		}
	}
	return false
}

// BuildMesh returns the mesh of refinement level, each level halving the
// cell size of the structured mesh.
func (ip *CutParameters) BuildMesh(level int) (*mesh.Mesh, error) {
	if ip.Mesh.File != "" {
		return mesh.ReadMeshFile(ip.Mesh.File)
	}
	var (
		n       = ip.Mesh.N << level
		mapping mesh.Mapping
	)
	if ip.Mesh.Lo != nil {
		mapping = mesh.BoxMapping(ip.Mesh.Lo, ip.Mesh.Hi)
	}
	switch ip.Mesh.Dim {
	case 1:
		return mesh.NewStructured1D(n, mapping)
	case 2:
		return mesh.NewStructured2D(n, n, ip.Mesh.Split, mapping)
	default:
		return mesh.NewStructured3D(n, n, n, ip.Mesh.Split, mapping)
	}
}

func (ip *CutParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	if ip.Mesh.File != "" {
		fmt.Printf("[%s]\t\t= Mesh File\n", ip.Mesh.File)
	} else {
		fmt.Printf("[%dD, N=%d, Split=%v]\t= Structured Mesh\n", ip.Mesh.Dim, ip.Mesh.N, ip.Mesh.Split)
	}
	for i, lp := range ip.LevelSets {
		fmt.Printf("LevelSets[%d] = %+v\n", i, lp)
	}
	fmt.Printf("%v\t\t= Domains\n", ip.Domains)
	fmt.Printf("[%d]\t\t\t\t= Quadrature Order\n", ip.Order)
	fmt.Printf("[%d]\t\t\t\t= Time Order\n", ip.TimeOrder)
	fmt.Printf("[%d]\t\t\t\t= Refinements\n", ip.Refinements)
	if ip.IsMoving() {
		fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
		fmt.Printf("[%d]\t\t\t\t= Slabs\n", ip.NumSlabs)
	}
}
