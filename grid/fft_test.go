package grid

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/qsim/rtdft/cell"
)

func TestFFT3RoundTrip(t *testing.T) {
	c, err := cell.Cubic(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReal(c, [3]int{8, 6, 4}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFFT3(r)

	data := make([]complex128, r.Size())
	orig := make([]complex128, r.Size())
	for i := range data {
		v := complex(rand.Float64()*2-1, rand.Float64()*2-1)
		data[i] = v
		orig[i] = v
	}

	if err := f.Forward(data); err != nil {
		t.Fatal(err)
	}
	if err := f.Inverse(data); err != nil {
		t.Fatal(err)
	}

	var maxErr float64
	for i := range data {
		d := data[i] - orig[i]
		e := math.Hypot(real(d), imag(d))
		if e > maxErr {
			maxErr = e
		}
	}
	if maxErr > 1e-10 {
		t.Fatalf("round trip error %g exceeds tolerance", maxErr)
	}
}

func TestFFT3ShapeMismatch(t *testing.T) {
	c, err := cell.Cubic(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReal(c, [3]int{4, 4, 4}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFFT3(r)

	if err := f.Forward(make([]complex128, 10)); err == nil {
		t.Fatal("expected shape-mismatch error")
	}
}
