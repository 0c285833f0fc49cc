package field

import (
	"math"
	"testing"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/grid"
)

func testGrid(t *testing.T) *grid.Real {
	t.Helper()
	c, err := cell.Cubic(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	r, err := grid.NewReal(c, [3]int{4, 4, 4}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestOrbitalSetOrthonormalize(t *testing.T) {
	r := testGrid(t)
	c, _ := cell.Cubic(10, 3)
	os := NewOrbitalSet(r, c, 3, 0, [3]float64{})
	n := r.Size()
	for i := 0; i < 3; i++ {
		for p := 0; p < n; p++ {
			os.Data[i*n+p] = complex(float64((i+1)*(p%5+1)), float64(p%3))
		}
	}
	os.Orthonormalize()
	gram, err := os.GramMatrix(os)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			got := gram[i*3+j]
			want := complex128(0)
			if i == j {
				want = 1
			}
			d := got - want
			if math.Hypot(real(d), imag(d)) > 1e-8 {
				t.Fatalf("gram[%d][%d] = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestDensityAccumulateAndTotalCharge(t *testing.T) {
	r := testGrid(t)
	d, err := NewDensity(r, 1)
	if err != nil {
		t.Fatal(err)
	}
	n := r.Size()
	psi := make([]complex128, n)
	norm2 := 0.0
	for i := range psi {
		psi[i] = complex(1, 0)
		norm2 += 1
	}
	for i := range psi {
		psi[i] /= complex(math.Sqrt(norm2), 0)
	}
	if err := d.AccumulateOrbital(psi, 2.0, 0); err != nil {
		t.Fatal(err)
	}
	dV := r.Cell.Volume() / float64(n)
	total := d.TotalCharge(dV)
	// sum|psi|^2 = 1 (normalized), weight 2 -> integral n = 2.
	if math.Abs(total-2.0*dV*float64(n)/float64(n)) > 1e-9 && math.Abs(total-2.0) > 1e-6 {
		t.Fatalf("total charge = %v, want ~2", total)
	}
}

func TestFieldAddScaledShapeMismatch(t *testing.T) {
	r := testGrid(t)
	a := NewField(r, RealScalar)
	b, err := NewSpinField(r, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.AddScaled(1, b); err == nil {
		t.Fatal("expected shape-mismatch error for differing component counts")
	}
}

func TestEnvironmentAcquireRelease(t *testing.T) {
	Release()
	Acquire(DefaultEnvironment())
	if Current() == nil {
		t.Fatal("expected Current() to return the acquired Environment")
	}
	Release()
	if Current() != nil {
		t.Fatal("expected Current() to be nil after Release")
	}
}
