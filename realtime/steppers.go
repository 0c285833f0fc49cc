package realtime

import (
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/hamiltonian"
)

// etrsStep advances state by one Enforced Time-Reversal Symmetry step:
// a half-step exp(-i*dt/2*H(t)), a density/Hamiltonian rebuild at the
// advanced point, then a second half-step exp(-i*dt/2*H(t+dt)).
func (d *Driver) etrsStep(state *State) error {
	t0 := state.Time
	t1 := state.Time + d.Cfg.Dt

	pot0, err := d.Ham.Assemble(state.Density, state.CoreDensity, d.DV, t0)
	if err != nil {
		return err
	}

	half := make([]*field.OrbitalSet, len(state.Orbitals))
	for s, phi := range state.Orbitals {
		half[s], err = expHalfStep(d.Ham, pot0, phi, d.Cfg.Dt, d.Cfg.TaylorOrder, t0)
		if err != nil {
			return err
		}
	}

	predicted, err := densityFromOrbitals(half, state.Occupations, d.Grid)
	if err != nil {
		return err
	}
	pot1, err := d.Ham.Assemble(predicted, state.CoreDensity, d.DV, t1)
	if err != nil {
		return err
	}

	for s, phi := range half {
		state.Orbitals[s], err = expHalfStep(d.Ham, pot1, phi, d.Cfg.Dt, d.Cfg.TaylorOrder, t1)
		if err != nil {
			return err
		}
	}

	newDensity, err := densityFromOrbitals(state.Orbitals, state.Occupations, d.Grid)
	if err != nil {
		return err
	}
	state.Density = newDensity
	return nil
}

// expHalfStep approximates exp(-i*dt/2*H)*phi by a truncated Taylor
// series: phi + sum_{k=1}^{order} (-i*dt/2)^k/k! * H^k*phi.
func expHalfStep(ham *hamiltonian.Hamiltonian, pot *hamiltonian.Potential, phi *field.OrbitalSet, dt float64, order int, t float64) (*field.OrbitalSet, error) {
	out := phi.Clone()
	term := phi.Clone()
	coeff := complex(1, 0)
	step := complex(0, -dt/2)
	for k := 1; k <= order; k++ {
		next, err := ham.Apply(term, pot, t)
		if err != nil {
			return nil, err
		}
		term = next
		coeff *= step / complex(float64(k), 0)
		for p := range out.Data {
			out.Data[p] += coeff * term.Data[p]
		}
	}
	return out, nil
}

// crankNicolsonStep advances state by solving
// (I + i*dt/2*H)*phi_{n+1} = (I - i*dt/2*H)*phi_n with a fixed number
// of fixed-point iterations, holding H at its value at the start of
// the step throughout the solve.
func (d *Driver) crankNicolsonStep(state *State) error {
	t0 := state.Time
	pot, err := d.Ham.Assemble(state.Density, state.CoreDensity, d.DV, t0)
	if err != nil {
		return err
	}

	half := complex(0, -d.Cfg.Dt/2)
	for s, phi := range state.Orbitals {
		hphi, err := d.Ham.Apply(phi, pot, t0)
		if err != nil {
			return err
		}
		rhs := phi.Clone()
		for p := range rhs.Data {
			rhs.Data[p] += half * hphi.Data[p]
		}

		guess := rhs.Clone()
		iterations := d.Cfg.CrankIterations
		if iterations <= 0 {
			iterations = 4
		}
		for iter := 0; iter < iterations; iter++ {
			hguess, err := d.Ham.Apply(guess, pot, t0)
			if err != nil {
				return err
			}
			next := rhs.Clone()
			for p := range next.Data {
				next.Data[p] += half * hguess.Data[p]
			}
			guess = next
		}
		state.Orbitals[s] = guess
	}

	newDensity, err := densityFromOrbitals(state.Orbitals, state.Occupations, d.Grid)
	if err != nil {
		return err
	}
	state.Density = newDensity
	return nil
}
