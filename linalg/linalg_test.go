package linalg

import (
	"math"
	"testing"
)

func TestDiagonalizeHermitianIdentity(t *testing.T) {
	n := 4
	h := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		h[i*n+i] = 1
	}
	es, err := DiagonalizeHermitian(n, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range es.Values {
		if math.Abs(v-1) > 1e-9 {
			t.Fatalf("expected all eigenvalues 1, got %v", es.Values)
		}
	}
}

func TestDiagonalizeHermitianReproducible(t *testing.T) {
	n := 3
	h := []complex128{
		2, complex(0, 1), 0,
		complex(0, -1), 2, 0,
		0, 0, 3,
	}
	a, err := DiagonalizeHermitian(n, h)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DiagonalizeHermitian(n, h)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Values {
		if math.Abs(a.Values[i]-b.Values[i]) > 1e-10 {
			t.Fatalf("eigenvalues not reproducible: %v vs %v", a.Values, b.Values)
		}
	}
}

func TestCholeskySymmetric(t *testing.T) {
	n := 2
	a := []float64{4, 2, 2, 3}
	l, err := CholeskySymmetric(n, a)
	if err != nil {
		t.Fatal(err)
	}
	// Reconstruct L*L^T and compare to a.
	got := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s float64
			for k := 0; k < n; k++ {
				s += l[i*n+k] * l[j*n+k]
			}
			got[i*n+j] = s
		}
	}
	for i := range a {
		if math.Abs(got[i]-a[i]) > 1e-9 {
			t.Fatalf("L*L^T mismatch: got %v want %v", got, a)
		}
	}
}

func TestCholeskyNotPositiveDefinite(t *testing.T) {
	a := []float64{1, 2, 2, 1}
	if _, err := CholeskySymmetric(2, a); err == nil {
		t.Fatal("expected not-positive-definite error")
	}
}

func TestCholeskyHermitian(t *testing.T) {
	n := 2
	a := []complex128{3, complex(0, 1), complex(0, -1), 2}
	l, err := CholeskyHermitian(n, a)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s complex128
			for k := 0; k < n; k++ {
				s += l[i*n+k] * cconjTest(l[j*n+k])
			}
			got[i*n+j] = s
		}
	}
	for i := range a {
		d := got[i] - a[i]
		if math.Hypot(real(d), imag(d)) > 1e-9 {
			t.Fatalf("L*L^H mismatch at %d: got %v want %v", i, got[i], a[i])
		}
	}
}

func cconjTest(v complex128) complex128 { return complex(real(v), -imag(v)) }
