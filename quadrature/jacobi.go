package quadrature

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGQ computes the N+1 point Gauss quadrature for the Jacobi weight
// (1-x)^alpha (1+x)^beta on [-1,1] using the Golub-Welsch eigenvalue method.
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	var (
		fac        float64
		h1, d0, d1 []float64
		VVr        *mat.Dense
	)
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{gamma0(alpha, beta)}
		return
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: diag(-1/2*(alpha^2-beta^2)./(h1+2)./h1)
	d0 = make([]float64, N+1)
	fac = -.5 * (alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	// Handle division by zero
	eps := 1.e-16
	if alpha+beta < 10*eps {
		d0[0] = 0.
	}

	// 1st upper diagonal
	var ip1 float64
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 = float64(i + 1)
		val := h1[i]
		d1[i] = 2. / (val + 2.)
		d1[i] *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((val + 1.) * (val + 3.)))
	}

	JJ := symTriDiagonal(d0, d1)

	var eig mat.EigenSym
	ok := eig.Factorize(JJ, true)
	if !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	VVr = mat.NewDense(len(X), len(X), nil)
	eig.VectorsTo(VVr)
	g0 := gamma0(alpha, beta)
	W = make([]float64, len(X))
	for i, v := range VVr.RawRowView(0) {
		W[i] = v * v * g0
	}
	return
}

// JacobiGL returns the N+1 Gauss-Lobatto nodes for the Jacobi weight,
// endpoints included.
func JacobiGL(alpha, beta float64, N int) (X []float64) {
	X = make([]float64, N+1)
	X[0] = -1
	X[N] = 1
	if N == 1 {
		return
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
	copy(X[1:N], xint)
	return
}

func symTriDiagonal(d0, d1 []float64) *mat.SymDense {
	var (
		n  = len(d0)
		JJ = mat.NewSymDense(n, nil)
	)
	for i := 0; i < n; i++ {
		JJ.SetSym(i, i, d0[i])
		if i < n-1 {
			JJ.SetSym(i, i+1, d1[i])
		}
	}
	return JJ
}

// gamma0 is the integral of the Jacobi weight over [-1,1]
func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

// GaussLegendre01 returns the n point Gauss-Legendre rule mapped to [0,1]
func GaussLegendre01(n int) (X, W []float64) {
	return jacobi01(0, n)
}

// LobattoNodes01 returns n+1 Gauss-Lobatto nodes on [0,1], 0 and 1 included
func LobattoNodes01(n int) (X []float64) {
	if n < 1 {
		return []float64{0, 1}
	}
	X = JacobiGL(0, 0, n)
	for i := range X {
		X[i] = 0.5 * (1 + X[i])
	}
	// Endpoints exact, interior symmetric
	X[0], X[n] = 0, 1
	return
}

// jacobi01 maps the n point Gauss-Jacobi rule for (1-x)^alpha onto [0,1],
// weight (1-xi)^alpha.
func jacobi01(alpha float64, n int) (X, W []float64) {
	x, w := JacobiGQ(alpha, 0, n-1)
	scale := 1. / math.Pow(2, alpha+1)
	X = make([]float64, n)
	W = make([]float64, n)
	for i := range x {
		X[i] = 0.5 * (1 + x[i])
		W[i] = w[i] * scale
	}
	return
}
