// Package realtime propagates the Kohn-Sham orbitals in time under a
// fixed or time-dependent Hamiltonian: Enforced Time-Reversal Symmetry
// (the default) and Crank-Nicolson steppers, an ion sub-propagator hook
// so the nuclei can stay fixed, receive a one-time impulsive kick, or
// move under velocity Verlet, and an observer callback invoked once per
// step with an immutable snapshot of the system.
package realtime

import (
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
	"github.com/qsim/rtdft/hamiltonian"
	"github.com/qsim/rtdft/ion"
	"github.com/qsim/rtdft/pseudo"
)

// Propagator selects the electron stepper.
type Propagator int

const (
	ETRS Propagator = iota
	CrankNicolson
)

// Config holds the tunables of one real-time run.
type Config struct {
	Dt       float64
	NumSteps int

	Propagator Propagator

	// TaylorOrder truncates each ETRS half-step exponential; 4 is the
	// usual default.
	TaylorOrder int

	// CrankIterations is the fixed-point iteration count Crank-Nicolson
	// runs per step in place of an exact Krylov solve.
	CrankIterations int
}

// State is the propagated system: density, one orbital set per spin
// channel, and the occupations carried unchanged from the ground state
// that seeded the run (unitary evolution conserves them).
type State struct {
	Density     *field.Density
	CoreDensity *field.Field
	Orbitals    []*field.OrbitalSet
	Occupations [][]float64
	Iter        int
	Time        float64
}

// Snapshot is the immutable view an Observer receives once per step,
// mirroring the source's real_time_data accessors: iteration, time,
// every atom's position/velocity/force, the total energy, and the
// electronic dipole moment.
type Snapshot struct {
	Iter       int
	Time       float64
	Positions  [][3]float64
	Velocities [][3]float64
	Forces     [][3]float64
	Energy     float64
	Dipole     [3]float64
}

// Observer is called once per step (including the initial state at
// step 0) with a read-only snapshot.
type Observer func(Snapshot)

// Driver owns the Hamiltonian, ion subsystem and species table a
// Propagate call advances.
type Driver struct {
	Ham        *hamiltonian.Hamiltonian
	Ions       *ion.System
	Species    map[string]pseudo.Species
	Projectors []*pseudo.Projector
	Grid       *grid.Real
	DV         float64
	Cfg        Config

	EwaldAlpha, EwaldRCut, EwaldGCut float64
}

// NewDriver builds a real-time driver over ham and ions.
func NewDriver(ham *hamiltonian.Hamiltonian, ions *ion.System, r *grid.Real, dV float64, cfg Config) *Driver {
	return &Driver{Ham: ham, Ions: ions, Grid: r, DV: dV, Cfg: cfg}
}

// Propagate advances state by Cfg.NumSteps steps of Cfg.Dt, calling
// observe (if non-nil) once per step including the initial state.
// forces is recomputed via finite difference only when ionProp needs
// it; otherwise the ions stay exactly where ionProp leaves them.
func (d *Driver) Propagate(state *State, ionProp IonSubPropagator, observe Observer) (*State, error) {
	ionIon, err := d.Ions.InteractionEnergy(d.EwaldAlpha, d.EwaldRCut, d.EwaldGCut)
	if err != nil {
		return nil, err
	}

	pot, err := d.Ham.Assemble(state.Density, state.CoreDensity, d.DV, state.Time)
	if err != nil {
		return nil, err
	}
	energy, err := d.totalEnergy(pot, state, ionIon)
	if err != nil {
		return nil, err
	}

	var forces [][3]float64
	if ionProp.NeedsForce() {
		forces, err = ion.Forces(d.Ions, d.Grid, state.Density, d.Species, d.Projectors, state.Orbitals, state.Occupations, 1e-3)
		if err != nil {
			return nil, err
		}
	}

	if observe != nil {
		observe(d.snapshot(state, forces, energy))
	}

	for step := 0; step < d.Cfg.NumSteps; step++ {
		ionProp.PropagatePositions(d.Cfg.Dt, d.Ions, forces)

		switch d.Cfg.Propagator {
		case CrankNicolson:
			if err := d.crankNicolsonStep(state); err != nil {
				return nil, err
			}
		default:
			if err := d.etrsStep(state); err != nil {
				return nil, err
			}
		}
		state.Time += d.Cfg.Dt
		state.Iter++

		pot, err = d.Ham.Assemble(state.Density, state.CoreDensity, d.DV, state.Time)
		if err != nil {
			return nil, err
		}
		energy, err = d.totalEnergy(pot, state, ionIon)
		if err != nil {
			return nil, err
		}

		if ionProp.NeedsForce() {
			forces, err = ion.Forces(d.Ions, d.Grid, state.Density, d.Species, d.Projectors, state.Orbitals, state.Occupations, 1e-3)
			if err != nil {
				return nil, err
			}
		}
		ionProp.PropagateVelocities(d.Cfg.Dt, d.Ions, forces)

		if observe != nil {
			observe(d.snapshot(state, forces, energy))
		}
	}

	return state, nil
}

// totalEnergy mirrors scf's bookkeeping formula, using the occupations
// frozen at the start of the run rather than a fresh diagonalization.
func (d *Driver) totalEnergy(pot *hamiltonian.Potential, state *State, ionIon float64) (float64, error) {
	var eigsum float64
	for s, phi := range state.Orbitals {
		hphi, err := d.Ham.Apply(phi, pot, state.Time)
		if err != nil {
			return 0, err
		}
		diag, err := phi.OverlapDiagonal(hphi)
		if err != nil {
			return 0, err
		}
		for li, v := range diag {
			ist := phi.LocalStart + li
			eigsum += state.Occupations[s][ist] * real(v)
		}
	}
	return eigsum - pot.HartreeEnergy + pot.XC.Exc - pot.XC.NVxc + ionIon, nil
}

func (d *Driver) snapshot(state *State, forces [][3]float64, energy float64) Snapshot {
	positions := make([][3]float64, len(d.Ions.Atoms))
	velocities := make([][3]float64, len(d.Ions.Atoms))
	for i, a := range d.Ions.Atoms {
		positions[i] = a.Pos
		velocities[i] = a.Vel
	}
	return Snapshot{
		Iter: state.Iter, Time: state.Time,
		Positions: positions, Velocities: velocities, Forces: forces,
		Energy: energy,
		Dipole: electronicDipole(state.Density, d.Grid, d.DV),
	}
}

// densityFromOrbitals accumulates occ-weighted |phi|^2 from every
// channel's locally-owned states into a fresh density, the same
// construction the self-consistency driver uses to rebuild rho(r) from
// a set of orbitals and occupations.
func densityFromOrbitals(orbitals []*field.OrbitalSet, occ [][]float64, r *grid.Real) (*field.Density, error) {
	nComp := 1
	if len(orbitals) >= 2 {
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

// electronicDipole integrates r*rho(r) over the grid, the electronic
// contribution to the dipole moment.
func electronicDipole(density *field.Density, r *grid.Real, dV float64) [3]float64 {
	total := density.ToScalarTotal()
	var dip [3]float64
	n := r.Size()
	for idx := 0; idx < n; idx++ {
		ix, iy, iz := r.Coords(idx)
		pos := r.CartesianAt(ix, iy, iz)
		rho := real(total.Data[idx])
		for a := 0; a < 3; a++ {
			dip[a] += rho * pos[a]
		}
	}
	for a := range dip {
		dip[a] *= dV
	}
	return dip
}
