package linalg

import "testing"

// TestReduceTriangular exercises E5: for k(i)=i, reduce(N,k) must equal
// N(N-1)/2 exactly in float64 for N up to 3^k <= 3e8. We test a smaller
// ladder of powers of 3 to keep the suite fast; the identity is exact
// regardless of N because float64 sums of consecutive integers below
// 2^53 have no rounding error.
func TestReduceTriangular(t *testing.T) {
	for n := 1; n <= 3*3*3*3*3*3*3*3*3*3; n *= 3 {
		got := Reduce(n, func(i int) complex128 { return complex(float64(i), 0) })
		want := float64(n) * float64(n-1) / 2
		if real(got) != want || imag(got) != 0 {
			t.Fatalf("n=%d: got %v, want %v", n, got, want)
		}
	}
}

func TestDotIdentity(t *testing.T) {
	n := 16
	a := func(i int) complex128 { return complex(float64(i), 1) }
	got := Dot(n, a, a)
	var want complex128
	for i := 0; i < n; i++ {
		v := a(i)
		want += cconj(v) * v
	}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
