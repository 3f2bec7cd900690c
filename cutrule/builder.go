package cutrule

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/geometry"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/quadrature"
	"github.com/notargets/gocut/types"
)

// BuildRule returns a quadrature rule in reference coordinates of el for the
// region ds of the level sets given by fields. The cell is split into Kuhn
// simplices on which every level set is linear. Each simplex is clipped by
// the level sets in tuple order; for an IF entry the zero level of that level
// set replaces the current pieces, which are then clipped by the remaining
// level sets. The rule integrates polynomials of degree order exactly on the
// resulting piecewise linear region. An empty region gives an empty rule.
func BuildRule(el geometry.Element, fields []levelset.Field, ds domain.Set, order int, cfg types.Config) (rule quadrature.Rule, err error) {
	if err = validateInputs(el, len(fields), ds, cfg, order); err != nil {
		return
	}
	for i, f := range fields {
		if err = f.Validate(el.Type); err != nil {
			return rule, fmt.Errorf("level set %d: %w", i, err)
		}
	}
	vals, snapped := snapFields(fields, cfg.SnapTolerance)
	if snapped > 0 {
		cfg.Log().Debug("snapped level set values to zero",
			"count", snapped, "element", el.Type.String(), "tolerance", cfg.SnapTolerance)
	}
	rule = buildSnapped(el.Type, vals, ds, order)
	rule.Snapped = snapped
	return
}

func validateInputs(el geometry.Element, nFields int, ds domain.Set, cfg types.Config, orders ...int) (err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	for _, o := range orders {
		if o < 0 {
			return fmt.Errorf("%w: negative quadrature order %d", types.ErrInvalidConfig, o)
		}
	}
	if ds.IsEmpty() {
		return fmt.Errorf("%w: empty domain set", types.ErrInvalidDomainSpec)
	}
	if ds.Len() != nFields {
		return fmt.Errorf("%w: tuples of length %d for %d level sets",
			types.ErrInvalidDomainSpec, ds.Len(), nFields)
	}
	return el.Validate()
}

// snapFields copies the nodal values, setting values within tol times the
// largest magnitude of their level set to zero.
func snapFields(fields []levelset.Field, tol float64) (vals [][]float64, snapped int) {
	vals = make([][]float64, len(fields))
	for i, f := range fields {
		vals[i] = append([]float64(nil), f.Values...)
		thresh := tol * f.MaxAbs()
		for j, v := range vals[i] {
			if v != 0 && math.Abs(v) <= thresh {
				vals[i][j] = 0
				snapped++
			}
		}
	}
	return
}

type coverage uint8

const (
	none coverage = iota
	partial
	whole
)

// cellCoverage decides from the nodal signs alone whether a tuple misses the
// cell, covers it entirely or needs the clipping path.
func cellCoverage(vals [][]float64, spec domain.Spec) coverage {
	result := whole
	for i, tag := range spec {
		neg, zero, pos := signs(vals[i])
		switch tag {
		case domain.NEG:
			if len(pos) == 0 {
				continue
			}
			if len(neg) == 0 {
				return none
			}
		case domain.POS:
			if len(pos) == 0 {
				return none
			}
			if len(neg) == 0 {
				continue
			}
		case domain.IF:
			if len(zero) == 0 && (len(neg) == 0 || len(pos) == 0) {
				return none
			}
		}
		result = partial
	}
	return result
}

func buildSnapped(et geometry.ElementType, vals [][]float64, ds domain.Set, order int) (rule quadrature.Rule) {
	rule.Codim = ds.Codim()
	for _, spec := range ds.Specs() {
		switch cellCoverage(vals, spec) {
		case none:
			continue
		case whole:
			rule.Append(CellRule(et, order))
			continue
		}
		for _, kuhn := range et.KuhnSimplices() {
			appendKuhn(&rule, et, kuhn, vals, spec, order)
		}
	}
	return
}

func appendKuhn(rule *quadrature.Rule, et geometry.ElementType, kuhn []int, vals [][]float64, spec domain.Spec, order int) {
	var (
		refV   = et.ReferenceVertices()
		parent = make([][]float64, len(vals))
		coords = make([][]float64, len(kuhn))
		pieces = []piece{identityPiece(len(kuhn))}
		normal []float64
	)
	for k, v := range kuhn {
		coords[k] = refV[v]
	}
	for i := range vals {
		parent[i] = make([]float64, len(kuhn))
		for k, v := range kuhn {
			parent[i][k] = vals[i][v]
		}
	}
	for i, tag := range spec {
		var next []piece
		for _, p := range pieces {
			pv := p.values(parent[i])
			switch tag {
			case domain.NEG:
				next = append(next, clipNeg(p, pv)...)
			case domain.POS:
				next = append(next, clipPos(p, pv)...)
			case domain.IF:
				next = append(next, zeroSet(p, pv)...)
			}
		}
		if tag == domain.IF && len(next) > 0 {
			normal = linearGradient(coords, parent[i])
		}
		pieces = next
		if len(pieces) == 0 {
			return
		}
	}
	for _, p := range pieces {
		rule.AppendSimplex(toReference(p, coords), order, normal)
	}
}

func toReference(p piece, coords [][]float64) (verts [][]float64) {
	verts = make([][]float64, len(p))
	for i, lam := range p {
		verts[i] = make([]float64, len(coords[0]))
		for j, l := range lam {
			if l == 0 {
				continue
			}
			for k := range verts[i] {
				verts[i][k] += l * coords[j][k]
			}
		}
	}
	return
}

// linearGradient returns the unit gradient of the linear interpolant of
// values on the simplex with vertices coords.
func linearGradient(coords [][]float64, values []float64) []float64 {
	var (
		d  = len(coords[0])
		E  = mat.NewDense(d, d, nil)
		dv = mat.NewVecDense(d, nil)
		g  mat.VecDense
	)
	for i := 0; i < d; i++ {
		for k := 0; k < d; k++ {
			E.Set(i, k, coords[i+1][k]-coords[0][k])
		}
		dv.SetVec(i, values[i+1]-values[0])
	}
	if err := g.SolveVec(E, dv); err != nil {
		panic(fmt.Errorf("singular Kuhn simplex: %v", err))
	}
	n := g.RawVector().Data
	norm := floats.Norm(n, 2)
	if norm == 0 {
		panic("interface normal of a level set with zero gradient")
	}
	floats.Scale(1/norm, n)
	return n
}

// CellRule is the rule for the whole reference cell: tensor Gauss-Legendre
// on quads and hexes, collapsed Gauss-Jacobi on simplices.
func CellRule(et geometry.ElementType, order int) (rule quadrature.Rule) {
	if et.IsSimplex() {
		rule.AppendSimplex(et.ReferenceVertices(), order, nil)
		return
	}
	var (
		x, w = quadrature.GaussLegendre01(quadrature.NumPoints1D(order))
		dim  = et.Dim()
		n    = len(x)
		idx  = make([]int, dim)
	)
	for {
		p := make([]float64, dim)
		wt := 1.
		for k := 0; k < dim; k++ {
			p[k] = x[idx[k]]
			wt *= w[idx[k]]
		}
		rule.Points = append(rule.Points, p)
		rule.Weights = append(rule.Weights, wt)
		k := 0
		for ; k < dim; k++ {
			idx[k]++
			if idx[k] < n {
				break
			}
			idx[k] = 0
		}
		if k == dim {
			return
		}
	}
}
