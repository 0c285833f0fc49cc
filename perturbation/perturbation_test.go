package perturbation

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
)

func testGrid(t *testing.T) *grid.Real {
	t.Helper()
	c, err := cell.Cubic(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	r, err := grid.NewReal(c, [3]int{4, 4, 4}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNoneHasNoCapabilities(t *testing.T) {
	var p None
	if p.HasUniformElectricField() || p.HasVectorPotential() || p.HasPotential() {
		t.Fatal("None must have every capability false")
	}
}

func TestKickApplyPreservesNorm(t *testing.T) {
	r := testGrid(t)
	c, _ := cell.Cubic(10, 0)
	phi := field.NewOrbitalSet(r, c, 1, 0, [3]float64{})
	for i := range phi.Data {
		phi.Data[i] = complex(1, 0)
	}
	before, err := phi.OverlapDiagonal(phi)
	if err != nil {
		t.Fatal(err)
	}

	k := Kick{K: [3]float64{0.3, -0.1, 0.2}}
	k.Apply(phi)

	after, err := phi.OverlapDiagonal(phi)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(real(before[0])-real(after[0])) > 1e-9 {
		t.Fatalf("kick changed orbital norm: %v -> %v", before[0], after[0])
	}
}

func TestKickApplyMultipliesByPhase(t *testing.T) {
	r := testGrid(t)
	c, _ := cell.Cubic(10, 0)
	phi := field.NewOrbitalSet(r, c, 1, 0, [3]float64{})
	phi.Data[0] = complex(1, 0)

	k := Kick{K: [3]float64{1, 0, 0}}
	k.Apply(phi)

	pos := r.CartesianAt(0, 0, 0)
	want := cmplx.Exp(complex(0, k.K[0]*pos[0]))
	if d := cmplx.Abs(phi.Data[0] - want); d > 1e-9 {
		t.Fatalf("kick phase mismatch: got %v want %v", phi.Data[0], want)
	}
}

func TestLaserEnvelopeShapes(t *testing.T) {
	l := Laser{Amplitude: [3]float64{1, 0, 0}, Frequency: 1, T0: 0, Width: 2, Shape: EnvelopeGaussian}
	if v := l.envelope(0); math.Abs(v-1) > 1e-9 {
		t.Fatalf("gaussian envelope should peak at t0, got %v", v)
	}
	if v := l.envelope(100); v > 1e-6 {
		t.Fatalf("gaussian envelope should decay far from t0, got %v", v)
	}

	sin := Laser{Width: 2, Shape: EnvelopeSin}
	if v := sin.envelope(-1); v != 0 {
		t.Fatalf("sin envelope before window should be zero, got %v", v)
	}
	if v := sin.envelope(1); v <= 0 {
		t.Fatalf("sin envelope inside window should be positive, got %v", v)
	}
}

func TestLaserVectorPotentialCapabilities(t *testing.T) {
	l := Laser{}
	if !l.HasUniformElectricField() || !l.HasVectorPotential() || l.HasPotential() {
		t.Fatal("laser capability set is wrong")
	}
}

func TestIXSAddPotentialMatchesFormula(t *testing.T) {
	r := testGrid(t)
	v := field.NewField(r, field.RealScalar)

	p := IXS{Amplitude: 2, Q: [3]float64{0.5, 0, 0}, TDelay: 1, TWidth: 0.5}
	if !p.HasPotential() || p.HasUniformElectricField() || p.HasVectorPotential() {
		t.Fatal("ixs capability set is wrong")
	}

	p.AddPotential(1.2, v)

	prefactor := p.Amplitude / math.Sqrt(2*math.Pi) / p.TWidth
	arg := (1.2 - p.TDelay) / (2 * p.TWidth)
	amp := prefactor * math.Exp(arg*arg)
	pos := r.CartesianAt(0, 0, 0)
	want := complex(amp, 0) * cmplx.Exp(complex(0, p.Q[0]*pos[0]))
	if d := cmplx.Abs(v.Data[0] - want); d > 1e-9 {
		t.Fatalf("ixs potential mismatch at origin: got %v want %v", v.Data[0], want)
	}
}
