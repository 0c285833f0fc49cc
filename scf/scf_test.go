package scf

import (
	"math"
	"testing"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
	"github.com/qsim/rtdft/hamiltonian"
	"github.com/qsim/rtdft/ion"
	"github.com/qsim/rtdft/perturbation"
	"github.com/qsim/rtdft/poisson"
	"github.com/qsim/rtdft/xc"
)

func TestOccupationsSumToElectronCount(t *testing.T) {
	eigs := [][]float64{{-1.0, -0.5, 0.2, 0.8}}
	occ, mu, err := Occupations(eigs, []float64{2}, 3.0, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, f := range occ[0] {
		sum += f
	}
	if math.Abs(sum-3.0) > 1e-6 {
		t.Fatalf("occupations sum to %v, want 3.0 (mu=%v)", sum, mu)
	}
	for i := 1; i < len(occ[0]); i++ {
		if occ[0][i] > occ[0][i-1]+1e-9 {
			t.Fatalf("occupation should be non-increasing with energy, got %v", occ[0])
		}
	}
}

func TestOccupationsRejectNonPositiveTemperature(t *testing.T) {
	if _, _, err := Occupations([][]float64{{0}}, []float64{2}, 1, 0); err == nil {
		t.Fatal("expected error for zero temperature")
	}
}

func TestOccupationsRejectUnbracketedFermiLevel(t *testing.T) {
	if _, _, err := Occupations([][]float64{{0, 1}}, []float64{2}, 100, 0.01); err == nil {
		t.Fatal("expected error when electron count exceeds available states")
	}
}

func TestPulayMixerFirstStepIsLinear(t *testing.T) {
	m := NewPulayMixer(4, 0.3)
	input := []complex128{complex(1, 0), complex(2, 0)}
	output := []complex128{complex(3, 0), complex(5, 0)}
	out, err := m.Mix(input, output)
	if err != nil {
		t.Fatal(err)
	}
	want := []complex128{complex(1.6, 0), complex(2.9, 0)}
	for i := range want {
		if math.Abs(real(out[i])-real(want[i])) > 1e-9 {
			t.Fatalf("mix[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestPulayMixerConvergesOnAFixedPoint(t *testing.T) {
	// output = 0.5*input + constant has a unique fixed point; feeding the
	// mixer its own output repeatedly should walk the residual to zero.
	target := []complex128{complex(2, 0), complex(-1, 0)}
	step := func(in []complex128) []complex128 {
		out := make([]complex128, len(in))
		for i := range in {
			out[i] = 0.5*in[i] + 0.5*target[i]
		}
		return out
	}

	m := NewPulayMixer(4, 0.3)
	cur := []complex128{complex(0, 0), complex(0, 0)}
	var lastResidual float64
	for iter := 0; iter < 12; iter++ {
		out := step(cur)
		var res float64
		for i := range out {
			d := out[i] - cur[i]
			res += real(d)*real(d) + imag(d)*imag(d)
		}
		lastResidual = res
		next, err := m.Mix(cur, out)
		if err != nil {
			t.Fatal(err)
		}
		cur = next
	}
	if lastResidual > 1e-8 {
		t.Fatalf("pulay mixing did not drive the residual to zero, last residual^2=%v", lastResidual)
	}
}

func newHeAtomDriver(t *testing.T) (*Driver, *State) {
	t.Helper()
	c, err := cell.Cubic(12, 0)
	if err != nil {
		t.Fatal(err)
	}
	r, err := grid.NewReal(c, [3]int{10, 10, 10}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	dV := r.Cell.Volume() / float64(r.Size())

	vloc := field.NewField(r, field.RealScalar)
	for idx := 0; idx < r.Size(); idx++ {
		ix, iy, iz := r.Coords(idx)
		pos := r.CartesianAt(ix, iy, iz)
		cx, cy, cz := pos[0]-6, pos[1]-6, pos[2]-6
		d := math.Sqrt(cx*cx+cy*cy+cz*cz) + 0.3
		vloc.Data[idx] = complex(-2.0/d, 0)
	}

	ps, err := poisson.NewSolver(r, 6)
	if err != nil {
		t.Fatal(err)
	}
	term := xc.Term{Exchange: xc.SlaterExchange{}, Correlation: xc.PW92Correlation{}}
	ham, err := hamiltonian.New(r, [3]float64{}, vloc, nil, ps, term, nil, perturbation.None{}, field.LocalCommunicator{})
	if err != nil {
		t.Fatal(err)
	}

	ions := &ion.System{Cell: c, Atoms: []ion.Atom{{Species: "He", Charge: 2, Pos: [3]float64{6, 6, 6}}}}

	cfg := Config{
		MaxIterations:   25,
		RefinementSteps: 3,
		NElectrons:      2,
		Temperature:     0.01,
		EnergyTol:       1e-5,
		DensityTol:      1e-3,
		MixAlpha:        0.3,
		MixHistory:      5,
		EwaldAlpha:      0.3, EwaldRCut: 8, EwaldGCut: 6,
	}
	driver := NewDriver(ham, ions, r, dV, cfg)

	phi := field.NewOrbitalSet(r, c, 1, 0, [3]float64{})
	for idx := range phi.Data {
		phi.Data[idx] = complex(1, 0)
	}
	phi.Orthonormalize()

	density, err := field.NewDensity(r, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := density.AccumulateOrbital(phi.Data, 2.0, 0); err != nil {
		t.Fatal(err)
	}

	state := &State{
		Density:     density,
		Orbitals:    []*field.OrbitalSet{phi},
		Eigenvalues: [][]float64{{0}},
		Occupations: [][]float64{{2}},
	}
	return driver, state
}

func TestRunConservesElectronCount(t *testing.T) {
	driver, state := newHeAtomDriver(t)
	final, err := driver.Run(state)
	if err != nil && !errs.Is(err, errs.NotConverged) {
		t.Fatalf("unexpected error: %v", err)
	}
	total := final.Density.TotalCharge(driver.DV)
	if math.Abs(total-2.0) > 0.05 {
		t.Fatalf("final density integrates to %v electrons, want ~2", total)
	}
	if final.Energy.Total == 0 {
		t.Fatal("expected a nonzero total energy after at least one iteration")
	}
}

func TestRunReturnsStructuredNotConvergedOutcome(t *testing.T) {
	driver, state := newHeAtomDriver(t)
	driver.Cfg.MaxIterations = 1
	driver.Cfg.EnergyTol = 1e-300
	driver.Cfg.DensityTol = 1e-300

	_, err := driver.Run(state)
	if err == nil {
		t.Fatal("expected a not-converged error with an impossibly tight tolerance")
	}
	if !errs.Is(err, errs.NotConverged) {
		t.Fatalf("expected a NotConverged kind, got %v", err)
	}
}
