package linalg

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/qsim/rtdft/errs"
)

// CholeskySymmetric factors a real SPD n x n matrix a = L*L^T, returning
// L row-major. Fails with not-positive-definite if a is not SPD.
func CholeskySymmetric(n int, a []float64) ([]float64, error) {
	sym := mat.NewSymDense(n, append([]float64(nil), a...))
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, errs.NotPositiveDefinitef("cholesky: matrix is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			out[i*n+j] = l.At(i, j)
		}
	}
	return out, nil
}

// CholeskyHermitian factors an n x n Hermitian positive-definite matrix
// a = L*L^H, row-major. gonum's mat package has no complex Cholesky, so
// this is the textbook in-place algorithm (Golub & Van Loan, Algorithm
// 4.2.1) applied over complex128 directly — the one piece of dense
// algebra in this package not delegated to gonum, because no library in
// the retrieval pack or its ecosystem offers a complex Hermitian
// Cholesky factorization.
func CholeskyHermitian(n int, a []complex128) ([]complex128, error) {
	if len(a) != n*n {
		return nil, errs.ShapeMismatchf("cholesky: matrix data length %d != n*n=%d", len(a), n*n)
	}
	l := make([]complex128, n*n)
	for j := 0; j < n; j++ {
		var diagSum float64
		for k := 0; k < j; k++ {
			v := l[j*n+k]
			diagSum += real(v)*real(v) + imag(v)*imag(v)
		}
		d := real(a[j*n+j]) - diagSum
		if d <= 0 || math.IsNaN(d) {
			return nil, errs.NotPositiveDefinitef("cholesky: non-positive pivot %g at column %d", d, j)
		}
		ljj := math.Sqrt(d)
		l[j*n+j] = complex(ljj, 0)

		for i := j + 1; i < n; i++ {
			var s complex128
			for k := 0; k < j; k++ {
				s += l[i*n+k] * cmplx.Conj(l[j*n+k])
			}
			l[i*n+j] = (a[i*n+j] - s) / complex(ljj, 0)
		}
	}
	return l, nil
}
