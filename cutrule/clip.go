package cutrule

import (
	"fmt"
)

// piece is a simplex inside a Kuhn simplex. Each vertex is stored by its
// barycentric coordinates with respect to the Kuhn simplex, so the value of
// any level set that is linear there is lam . parentValues.
type piece [][]float64

func identityPiece(nVerts int) piece {
	p := make(piece, nVerts)
	for i := range p {
		p[i] = make([]float64, nVerts)
		p[i][i] = 1
	}
	return p
}

func (p piece) values(parent []float64) []float64 {
	vals := make([]float64, len(p))
	for i, lam := range p {
		for j, l := range lam {
			vals[i] += l * parent[j]
		}
	}
	return vals
}

// signs splits vertex indices into negative, zero and positive
func signs(vals []float64) (neg, zero, pos []int) {
	for i, v := range vals {
		switch {
		case v < 0:
			neg = append(neg, i)
		case v > 0:
			pos = append(pos, i)
		default:
			zero = append(zero, i)
		}
	}
	return
}

// cut returns the point on edge (a,b) where the linear level set vanishes
func (p piece) cut(vals []float64, a, b int) []float64 {
	t := vals[a] / (vals[a] - vals[b])
	lam := make([]float64, len(p[a]))
	for j := range lam {
		lam[j] = p[a][j] + t*(p[b][j]-p[a][j])
	}
	return lam
}

// clipNeg returns the part of p where the level set is <= 0. Zero valued
// pieces belong to the negative side.
func clipNeg(p piece, vals []float64) []piece {
	neg, zero, pos := signs(vals)
	switch {
	case len(pos) == 0:
		return []piece{p}
	case len(neg) == 0:
		return nil
	}
	return clipCases(p, vals, neg, zero, pos)
}

// clipPos returns the part of p where the level set is > 0
func clipPos(p piece, vals []float64) []piece {
	neg, zero, pos := signs(vals)
	switch {
	case len(pos) == 0:
		return nil
	case len(neg) == 0:
		return []piece{p}
	}
	flipped := make([]float64, len(vals))
	for i, v := range vals {
		flipped[i] = -v
	}
	// neg and pos swap roles on the flipped values
	return clipCases(p, flipped, pos, zero, neg)
}

// clipCases handles a simplex with at least one vertex of each strict sign,
// returning the negative part as simplices.
func clipCases(p piece, vals []float64, neg, zero, pos []int) []piece {
	var (
		nk, nz, np = len(neg), len(zero), len(pos)
		c          = func(a, b int) []float64 { return p.cut(vals, a, b) }
	)
	switch len(p) {
	case 2: // segment, (1,0,1)
		return []piece{{p[neg[0]], c(neg[0], pos[0])}}
	case 3: // triangle
		switch {
		case nk == 1 && np == 2:
			n := neg[0]
			return []piece{{p[n], c(n, pos[0]), c(n, pos[1])}}
		case nk == 2 && np == 1:
			var (
				n1, n2 = neg[0], neg[1]
				c1, c2 = c(n1, pos[0]), c(n2, pos[0])
			)
			// quad (n1,n2,c2,c1)
			return []piece{
				{p[n1], p[n2], c2},
				{p[n1], c2, c1},
			}
		case nk == 1 && nz == 1:
			n := neg[0]
			return []piece{{p[n], p[zero[0]], c(n, pos[0])}}
		}
	case 4: // tetrahedron
		switch {
		case nk == 1 && np == 3:
			n := neg[0]
			return []piece{{p[n], c(n, pos[0]), c(n, pos[1]), c(n, pos[2])}}
		case nk == 3 && np == 1:
			var (
				q = pos[0]
				A = [3][]float64{p[neg[0]], p[neg[1]], p[neg[2]]}
				B = [3][]float64{c(neg[0], q), c(neg[1], q), c(neg[2], q)}
			)
			return wedge(A, B)
		case nk == 2 && np == 2:
			var (
				a, b = neg[0], neg[1]
				A    = [3][]float64{p[a], c(a, pos[0]), c(a, pos[1])}
				B    = [3][]float64{p[b], c(b, pos[0]), c(b, pos[1])}
			)
			return wedge(A, B)
		case nk == 1 && nz == 1 && np == 2:
			n := neg[0]
			return []piece{{p[n], p[zero[0]], c(n, pos[0]), c(n, pos[1])}}
		case nk == 2 && nz == 1 && np == 1:
			var (
				n1, n2 = neg[0], neg[1]
				z      = p[zero[0]]
				c1, c2 = c(n1, pos[0]), c(n2, pos[0])
			)
			// pyramid with apex z over quad (n1,n2,c2,c1)
			return []piece{
				{z, p[n1], p[n2], c2},
				{z, p[n1], c2, c1},
			}
		case nk == 1 && nz == 2 && np == 1:
			n := neg[0]
			return []piece{{p[n], p[zero[0]], p[zero[1]], c(n, pos[0])}}
		}
	}
	panic(fmt.Errorf("unhandled cut configuration: %d vertices, signs (%d,%d,%d)",
		len(p), nk, nz, np))
}

// wedge splits the prism with triangles A and B and lateral edges Ai-Bi
func wedge(A, B [3][]float64) []piece {
	return []piece{
		{A[0], A[1], A[2], B[2]},
		{A[0], A[1], B[1], B[2]},
		{A[0], B[0], B[1], B[2]},
	}
}

// zeroSet returns the zero level of the linear level set inside p as
// simplices of one dimension less. A zero face of p is only reported when p
// lies on the negative side of it, so a face shared by two simplices is
// counted once.
func zeroSet(p piece, vals []float64) []piece {
	var (
		neg, zero, pos = signs(vals)
		nk, nz, np     = len(neg), len(zero), len(pos)
		m              = len(p) - 1
		c              = func(a, b int) []float64 { return p.cut(vals, a, b) }
	)
	if np == 0 || nk == 0 {
		if nk == 1 && np == 0 && nz == m {
			face := make(piece, 0, m)
			for _, z := range zero {
				face = append(face, p[z])
			}
			return []piece{face}
		}
		return nil
	}
	switch len(p) {
	case 2:
		return []piece{{c(neg[0], pos[0])}}
	case 3:
		switch {
		case nk == 1 && np == 2:
			return []piece{{c(neg[0], pos[0]), c(neg[0], pos[1])}}
		case nk == 2 && np == 1:
			return []piece{{c(neg[0], pos[0]), c(neg[1], pos[0])}}
		case nz == 1:
			return []piece{{p[zero[0]], c(neg[0], pos[0])}}
		}
	case 4:
		switch {
		case nk == 1 && np == 3:
			n := neg[0]
			return []piece{{c(n, pos[0]), c(n, pos[1]), c(n, pos[2])}}
		case nk == 3 && np == 1:
			q := pos[0]
			return []piece{{c(neg[0], q), c(neg[1], q), c(neg[2], q)}}
		case nk == 2 && np == 2:
			var (
				a, b   = neg[0], neg[1]
				ac, ad = c(a, pos[0]), c(a, pos[1])
				bc, bd = c(b, pos[0]), c(b, pos[1])
			)
			// quad (ac,ad,bd,bc)
			return []piece{{ac, ad, bd}, {ac, bd, bc}}
		case nz == 1 && nk == 1:
			n := neg[0]
			return []piece{{p[zero[0]], c(n, pos[0]), c(n, pos[1])}}
		case nz == 1 && np == 1:
			q := pos[0]
			return []piece{{p[zero[0]], c(neg[0], q), c(neg[1], q)}}
		case nz == 2:
			return []piece{{p[zero[0]], p[zero[1]], c(neg[0], pos[0])}}
		}
	}
	panic(fmt.Errorf("unhandled interface configuration: %d vertices, signs (%d,%d,%d)",
		len(p), nk, nz, np))
}
