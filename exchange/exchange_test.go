package exchange

import (
	"math"
	"testing"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
	"github.com/qsim/rtdft/poisson"
)

func setup(t *testing.T) (*grid.Real, *poisson.Solver) {
	t.Helper()
	c, err := cell.Cubic(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	r, err := grid.NewReal(c, [3]int{6, 6, 6}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	ps, err := poisson.NewSolver(r, 0)
	if err != nil {
		t.Fatal(err)
	}
	return r, ps
}

func randomOrbitals(r *grid.Real, c *cell.Cell, nStates int) *field.OrbitalSet {
	os := field.NewOrbitalSet(r, c, nStates, 0, [3]float64{})
	for i := range os.Data {
		os.Data[i] = complex(float64((i*7+3)%11)*0.1, float64((i*5+1)%7)*0.1)
	}
	os.Orthonormalize()
	return os
}

func TestDirectExchangeDisabledWhenZeroCoefficient(t *testing.T) {
	r, ps := setup(t)
	c, _ := cell.Cubic(10, 3)
	op := NewOperator(ps, 0, false)
	phi := randomOrbitals(r, c, 2)
	out, err := op.Direct(phi, -0.5)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range out.Data {
		if v != 0 {
			t.Fatal("expected zero output when exchange is disabled")
		}
	}
}

func TestUpdateProducesNegativeEnergy(t *testing.T) {
	r, ps := setup(t)
	c, _ := cell.Cubic(10, 3)
	phi := randomOrbitals(r, c, 2)

	op := NewOperator(ps, 1.0, false)
	op.HFOrbitals = phi
	op.HFOcc = []float64{2, 2}

	energy, err := op.Update(phi, op.HFOcc)
	if err != nil {
		t.Fatal(err)
	}
	if energy >= 0 {
		t.Fatalf("exact exchange self-energy should be negative, got %v", energy)
	}
}

func TestACEMatchesDirectOnSameOrbitals(t *testing.T) {
	r, ps := setup(t)
	c, _ := cell.Cubic(10, 3)
	phi := randomOrbitals(r, c, 2)

	op := NewOperator(ps, 1.0, true)
	op.HFOrbitals = phi
	op.HFOcc = []float64{2, 2}

	if _, err := op.Update(phi, op.HFOcc); err != nil {
		t.Fatal(err)
	}

	direct, err := op.Direct(phi, -0.5)
	if err != nil {
		t.Fatal(err)
	}
	ace, err := op.applyACE(phi)
	if err != nil {
		t.Fatal(err)
	}

	var maxDiff float64
	for i := range direct.Data {
		d := direct.Data[i] - ace.Data[i]
		if v := math.Hypot(real(d), imag(d)); v > maxDiff {
			maxDiff = v
		}
	}
	if maxDiff > 1e-6 {
		t.Fatalf("ACE-compressed exchange diverges from direct evaluation by %v", maxDiff)
	}
}
