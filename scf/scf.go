// Package scf drives the self-consistent ground-state loop: build the
// Kohn-Sham Hamiltonian from the current density, refine the orbitals
// with an iterative eigensolver, subspace-diagonalize, solve for the
// occupations at a finite electronic temperature, rebuild the density,
// mix, and test for convergence. A run that exhausts its iteration
// budget returns a structured not-converged outcome carrying the last
// state rather than only logging a warning.
package scf

import (
	"math"

	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
	"github.com/qsim/rtdft/hamiltonian"
	"github.com/qsim/rtdft/ion"
	"github.com/qsim/rtdft/linalg"
)

// Config holds the tunables of one self-consistency run.
type Config struct {
	MaxIterations   int
	RefinementSteps int // steepest-descent line-search steps per outer iteration

	NElectrons  float64
	Temperature float64 // Fermi-Dirac smearing width, in Hartree

	EnergyTol  float64
	DensityTol float64

	MixAlpha   float64
	MixHistory int

	// Ewald split for the ion-ion energy; unused for a non-periodic cell.
	EwaldAlpha, EwaldRCut, EwaldGCut float64
}

// Energy is the total-energy bookkeeping of one SCF iteration:
// E = sum_i f_i*eps_i - 1/2*integral(rho*V_H) + Exc - integral(rho*Vxc)
// + E_ion-ion + E_core-correction + E_EXX.
type Energy struct {
	Eigsum         float64
	Hartree        float64
	XC             float64
	NVxc           float64
	IonIon         float64
	CoreCorrection float64
	EXX            float64
	Total          float64
}

// State is the full ground-state iterate: the spin-resolved density,
// one orbital set per spin channel, their eigenvalues and occupations,
// the chemical potential, and the energy breakdown.
type State struct {
	Density     *field.Density
	CoreDensity *field.Field
	Orbitals    []*field.OrbitalSet
	Eigenvalues [][]float64
	Occupations [][]float64
	Mu          float64
	Energy      Energy
	Iteration   int
}

// Driver owns the Hamiltonian and ion subsystem a Run call iterates
// against, plus the Pulay mixer carrying history across iterations.
type Driver struct {
	Ham   *hamiltonian.Hamiltonian
	Ions  *ion.System
	Grid  *grid.Real
	DV    float64
	Cfg   Config
	mixer *PulayMixer
}

// NewDriver builds a driver with a fresh mixing history.
func NewDriver(ham *hamiltonian.Hamiltonian, ions *ion.System, r *grid.Real, dV float64, cfg Config) *Driver {
	return &Driver{
		Ham: ham, Ions: ions, Grid: r, DV: dV, Cfg: cfg,
		mixer: NewPulayMixer(cfg.MixHistory, cfg.MixAlpha),
	}
}

// Run iterates the state machine until the total energy and density
// both stop changing by more than Cfg.EnergyTol/Cfg.DensityTol, or
// Cfg.MaxIterations is exhausted. On exhaustion it returns the last
// state plus an *errs.NotConvergedResult[State] error; the caller
// decides whether that last state is usable.
func (d *Driver) Run(state *State) (*State, error) {
	ionIon, err := d.Ions.InteractionEnergy(d.Cfg.EwaldAlpha, d.Cfg.EwaldRCut, d.Cfg.EwaldGCut)
	if err != nil {
		return nil, err
	}

	degeneracy := channelDegeneracy(len(state.Orbitals))
	var prevEnergy float64
	havePrev := false

	for state.Iteration < d.Cfg.MaxIterations {
		pot, err := d.Ham.Assemble(state.Density, state.CoreDensity, d.DV, 0)
		if err != nil {
			return nil, err
		}

		if d.Ham.Exchange != nil && d.Ham.Exchange.Enabled() {
			d.Ham.Exchange.HFOrbitals = state.Orbitals[0]
			d.Ham.Exchange.HFOcc = state.Occupations[0]
		}

		var eigsum float64
		newEigenvalues := make([][]float64, len(state.Orbitals))
		for s, phi := range state.Orbitals {
			hphi, err := refine(d.Ham, pot, phi, d.Cfg.RefinementSteps)
			if err != nil {
				return nil, err
			}
			newPhi, _, eigs, err := diagonalizeSubspace(phi, hphi)
			if err != nil {
				return nil, err
			}
			state.Orbitals[s] = newPhi
			newEigenvalues[s] = eigs
		}
		state.Eigenvalues = newEigenvalues

		occ, mu, err := Occupations(newEigenvalues, degeneracy, d.Cfg.NElectrons, d.Cfg.Temperature)
		if err != nil {
			return nil, err
		}
		state.Occupations = occ
		state.Mu = mu

		for s, ch := range occ {
			for i, f := range ch {
				eigsum += f * newEigenvalues[s][i]
			}
		}

		var exxEnergy float64
		if d.Ham.Exchange != nil && d.Ham.Exchange.Enabled() {
			exxEnergy, err = d.Ham.Exchange.Update(state.Orbitals[0], occ[0])
			if err != nil {
				return nil, err
			}
		}

		outputDensity, err := buildDensity(state.Orbitals, occ, d.Grid, len(state.Orbitals))
		if err != nil {
			return nil, err
		}

		energy := Energy{
			Eigsum:  eigsum,
			Hartree: pot.HartreeEnergy,
			XC:      pot.XC.Exc,
			NVxc:    pot.XC.NVxc,
			IonIon:  ionIon,
			EXX:     exxEnergy,
		}
		energy.Total = energy.Eigsum - energy.Hartree + energy.XC - energy.NVxc + energy.IonIon + energy.CoreCorrection + energy.EXX
		state.Energy = energy

		residual, err := state.Density.Residual(outputDensity)
		if err != nil {
			return nil, err
		}
		densityResidualNorm := l2Norm(residual.Field.Data, d.DV)

		converged := false
		if havePrev {
			deltaE := math.Abs(energy.Total - prevEnergy)
			converged = deltaE < d.Cfg.EnergyTol && densityResidualNorm < d.Cfg.DensityTol
		}
		state.Iteration++

		if converged {
			return state, nil
		}
		prevEnergy = energy.Total
		havePrev = true

		mixedData, err := d.mixer.Mix(state.Density.Field.Data, outputDensity.Field.Data)
		if err != nil {
			return nil, err
		}
		copy(state.Density.Field.Data, mixedData)
	}

	return state, errs.NewNotConverged(*state, state.Iteration, "scf: exceeded max iterations without converging")
}

// channelDegeneracy returns the maximum occupation per state in each
// spin channel: 2 for the single unpolarized channel, 1 for each of
// two collinear up/down channels.
func channelDegeneracy(nChannels int) []float64 {
	if nChannels <= 1 {
		return []float64{2}
	}
	out := make([]float64, nChannels)
	for i := range out {
		out[i] = 1
	}
	return out
}

// buildDensity accumulates occ-weighted |phi|^2 from every channel's
// locally-owned states into a fresh density.
func buildDensity(orbitals []*field.OrbitalSet, occ [][]float64, r *grid.Real, nChannels int) (*field.Density, error) {
	nComp := 1
	if nChannels >= 2 {
		nComp = 2
	}
	dens, err := field.NewDensity(r, nComp)
	if err != nil {
		return nil, err
	}
	n := r.Size()
	for s, phi := range orbitals {
		spinComp := 0
		if nComp == 2 {
			spinComp = s
		}
		for li := 0; li < phi.LocalCount; li++ {
			ist := phi.LocalStart + li
			psi := phi.Data[li*n : (li+1)*n]
			if err := dens.AccumulateOrbital(psi, occ[s][ist], spinComp); err != nil {
				return nil, err
			}
		}
	}
	return dens, nil
}

func l2Norm(data []complex128, dV float64) float64 {
	var sum float64
	for _, v := range data {
		sum += (real(v)*real(v) + imag(v)*imag(v)) * dV
	}
	return math.Sqrt(sum)
}

// diagonalizeSubspace builds phi^dagger*H*phi, diagonalizes it, and
// rotates both phi and the already-computed H*phi by the same unitary
// (H is linear, so rotating Hphi is equivalent to and cheaper than
// reapplying H to the rotated phi).
func diagonalizeSubspace(phi, hphi *field.OrbitalSet) (*field.OrbitalSet, *field.OrbitalSet, []float64, error) {
	hmat, err := phi.GramMatrix(hphi)
	if err != nil {
		return nil, nil, nil, err
	}
	eig, err := linalg.DiagonalizeHermitian(phi.NStates, hmat)
	if err != nil {
		return nil, nil, nil, err
	}
	newPhi := rotate(phi, eig.Vectors)
	newHphi := rotate(hphi, eig.Vectors)
	return newPhi, newHphi, eig.Values, nil
}

// rotate returns a new orbital set whose k-th state is
// sum_i vectors[k*NStates+i] * phi_i, the basis change subspace
// diagonalization applies to both phi and H*phi.
func rotate(phi *field.OrbitalSet, vectors []complex128) *field.OrbitalSet {
	out := phi.ZerosLike()
	n := phi.Grid.Size()
	for k := 0; k < phi.NStates; k++ {
		dst := out.Data[k*n : (k+1)*n]
		for i := 0; i < phi.NStates; i++ {
			c := vectors[k*phi.NStates+i]
			if c == 0 {
				continue
			}
			src := phi.Data[i*n : (i+1)*n]
			for p := range dst {
				dst[p] += c * src[p]
			}
		}
	}
	return out
}
