// Package ion maintains the atomic subsystem: species, positions,
// velocities and masses, the ion-ion interaction energy, and the
// Hellmann-Feynman plus non-local-projector-derivative forces the
// ground-state and real-time drivers need to move atoms.
package ion

import (
	"math"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
	"github.com/qsim/rtdft/pseudo"
)

// Atom is one nucleus: a species lookup key, its ionic (valence)
// charge, mass in electron masses, and cartesian position and velocity.
type Atom struct {
	Species string
	Charge  float64
	Mass    float64
	Pos     [3]float64
	Vel     [3]float64
}

// System is the full atomic configuration in a simulation cell.
type System struct {
	Cell  *cell.Cell
	Atoms []Atom
}

// InteractionEnergy returns the ion-ion Coulomb energy: an Ewald
// lattice sum for a fully periodic cell, a direct pairwise sum
// otherwise. alpha, rCut and gCut tune the Ewald split for the periodic
// case and are unused otherwise.
func (s *System) InteractionEnergy(alpha, rCut, gCut float64) (float64, error) {
	if s.Cell.Periodicity == 3 {
		return s.ewaldEnergy(alpha, rCut, gCut)
	}
	return s.directPairEnergy(), nil
}

// directPairEnergy sums Z_a*Z_b/|R_a-R_b| over unique pairs, the finite-
// cell (no periodic images) ion-ion energy.
func (s *System) directPairEnergy() float64 {
	var e float64
	for i := 0; i < len(s.Atoms); i++ {
		for j := i + 1; j < len(s.Atoms); j++ {
			d := distance(s.Atoms[i].Pos, s.Atoms[j].Pos)
			if d > 0 {
				e += s.Atoms[i].Charge * s.Atoms[j].Charge / d
			}
		}
	}
	return e
}

// ewaldEnergy evaluates the classical Ewald sum: a real-space screened
// Coulomb sum over lattice images within rCut, a reciprocal-space sum
// over G-vectors within gCut, and the self-energy subtraction.
func (s *System) ewaldEnergy(alpha, rCut, gCut float64) (float64, error) {
	if alpha <= 0 || rCut <= 0 || gCut <= 0 {
		return 0, errs.BadConfigurationf("ion: ewald parameters must be positive, got alpha=%g rCut=%g gCut=%g", alpha, rCut, gCut)
	}
	n := len(s.Atoms)
	vol := s.Cell.Volume()

	var realSum float64
	shells := imageShells(s.Cell, rCut)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for _, shift := range shells {
				if i == j && shift == ([3]float64{}) {
					continue
				}
				d := distance(addv(s.Atoms[i].Pos, shift), s.Atoms[j].Pos)
				if d > rCut || d == 0 {
					continue
				}
				realSum += s.Atoms[i].Charge * s.Atoms[j].Charge * math.Erfc(alpha*d) / d
			}
		}
	}
	realSum *= 0.5

	var recipSum float64
	gvecs := reciprocalVectors(s.Cell, gCut)
	for _, g := range gvecs {
		g2 := g[0]*g[0] + g[1]*g[1] + g[2]*g[2]
		if g2 == 0 {
			continue
		}
		var reS, imS float64
		for _, a := range s.Atoms {
			phase := g[0]*a.Pos[0] + g[1]*a.Pos[1] + g[2]*a.Pos[2]
			reS += a.Charge * math.Cos(phase)
			imS += a.Charge * math.Sin(phase)
		}
		structFactor2 := reS*reS + imS*imS
		recipSum += math.Exp(-g2/(4*alpha*alpha)) / g2 * structFactor2
	}
	recipSum *= 2 * math.Pi / vol

	var selfCharge2 float64
	for _, a := range s.Atoms {
		selfCharge2 += a.Charge * a.Charge
	}
	self := alpha / math.Sqrt(math.Pi) * selfCharge2

	return realSum + recipSum - self, nil
}

// minimumImage returns a - b, wrapped along the cell's periodic axes so
// the shortest displacement is chosen, mirroring the sphere-building
// convention the projector package uses.
func minimumImage(r *grid.Real, a, b [3]float64) [3]float64 {
	var disp [3]float64
	for i := 0; i < 3; i++ {
		disp[i] = a[i] - b[i]
	}
	if r.Cell.Periodicity == 0 {
		return disp
	}
	frac := r.Cell.ToFractional(disp)
	for i := 0; i < r.Cell.Periodicity; i++ {
		frac[i] -= math.Round(frac[i])
	}
	return r.Cell.ToCartesian(frac)
}

func distance(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func addv(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// imageShells returns every lattice translation n1*a1+n2*a2+n3*a3 whose
// norm is at most rCut, including the zero shift.
func imageShells(c *cell.Cell, rCut float64) [][3]float64 {
	var maxN [3]int
	for i := 0; i < 3; i++ {
		length := math.Sqrt(c.A[i][0]*c.A[i][0] + c.A[i][1]*c.A[i][1] + c.A[i][2]*c.A[i][2])
		maxN[i] = int(math.Ceil(rCut/length)) + 1
	}
	var out [][3]float64
	for n0 := -maxN[0]; n0 <= maxN[0]; n0++ {
		for n1 := -maxN[1]; n1 <= maxN[1]; n1++ {
			for n2 := -maxN[2]; n2 <= maxN[2]; n2++ {
				var shift [3]float64
				for d := 0; d < 3; d++ {
					shift[d] = float64(n0)*c.A[0][d] + float64(n1)*c.A[1][d] + float64(n2)*c.A[2][d]
				}
				if math.Sqrt(shift[0]*shift[0]+shift[1]*shift[1]+shift[2]*shift[2]) <= rCut {
					out = append(out, shift)
				}
			}
		}
	}
	return out
}

// reciprocalVectors returns every reciprocal lattice vector whose norm
// is at most gCut, excluding G=0.
func reciprocalVectors(c *cell.Cell, gCut float64) [][3]float64 {
	b := c.ReciprocalVectors()
	var maxN [3]int
	for i := 0; i < 3; i++ {
		length := math.Sqrt(b[i][0]*b[i][0] + b[i][1]*b[i][1] + b[i][2]*b[i][2])
		maxN[i] = int(math.Ceil(gCut/length)) + 1
	}
	var out [][3]float64
	for n0 := -maxN[0]; n0 <= maxN[0]; n0++ {
		for n1 := -maxN[1]; n1 <= maxN[1]; n1++ {
			for n2 := -maxN[2]; n2 <= maxN[2]; n2++ {
				if n0 == 0 && n1 == 0 && n2 == 0 {
					continue
				}
				var g [3]float64
				for d := 0; d < 3; d++ {
					g[d] = float64(n0)*b[0][d] + float64(n1)*b[1][d] + float64(n2)*b[2][d]
				}
				if math.Sqrt(g[0]*g[0]+g[1]*g[1]+g[2]*g[2]) <= gCut {
					out = append(out, g)
				}
			}
		}
	}
	return out
}

// Forces returns the Hellmann-Feynman local-potential force plus the
// non-local projector-derivative force on every atom, both evaluated by
// central finite difference: the local term differentiates each
// species' radial potential directly, the non-local term rebuilds the
// projector at displaced positions and differences the projected
// energy. h is the finite-difference step in Bohr.
func Forces(s *System, r *grid.Real, density *field.Density, species map[string]pseudo.Species, projectors []*pseudo.Projector, phi []*field.OrbitalSet, occ [][]float64, h float64) ([][3]float64, error) {
	total := density.ToScalarTotal()
	dV := r.Cell.Volume() / float64(r.Size())

	out := make([][3]float64, len(s.Atoms))
	for i, a := range s.Atoms {
		sp, ok := species[a.Species]
		if !ok {
			return nil, errs.BadConfigurationf("ion: unknown species %q", a.Species)
		}
		out[i] = localForce(r, total, dV, a.Pos, sp)
	}

	if len(projectors) > 0 {
		nlForces, err := nonlocalForces(s, r, species, phi, occ, h)
		if err != nil {
			return nil, err
		}
		for i := range out {
			for d := 0; d < 3; d++ {
				out[i][d] += nlForces[i][d]
			}
		}
	}
	return out, nil
}

// localForce integrates rho(r) * (-dV_loc/dR) over the grid for one
// atom, using the minimum-image displacement and a central-difference
// radial derivative of the species' local potential.
func localForce(r *grid.Real, total *field.Field, dV float64, pos [3]float64, sp pseudo.Species) [3]float64 {
	if sp.Local == nil {
		return [3]float64{}
	}
	const dr = 1e-4
	var f [3]float64
	for ix := 0; ix < r.N[0]; ix++ {
		for iy := 0; iy < r.N[1]; iy++ {
			for iz := 0; iz < r.N[2]; iz++ {
				gridPos := r.CartesianAt(ix, iy, iz)
				disp := minimumImage(r, gridPos, pos)
				d := math.Sqrt(disp[0]*disp[0] + disp[1]*disp[1] + disp[2]*disp[2])
				if d < 1e-8 {
					continue
				}
				dVdr := (sp.Local(d+dr) - sp.Local(d-dr)) / (2 * dr)
				idx := r.Index(ix, iy, iz)
				rho := real(total.Data[idx])
				for a := 0; a < 3; a++ {
					f[a] += rho * dVdr * (disp[a] / d) * dV
				}
			}
		}
	}
	return f
}

// nonlocalForces differences the projector energy sum_row KB_row*|c_row|^2
// at the atom displaced by +/-h along each cartesian axis, one atom at a
// time, rebuilding only that atom's projector.
func nonlocalForces(s *System, r *grid.Real, species map[string]pseudo.Species, phi []*field.OrbitalSet, occ [][]float64, h float64) ([][3]float64, error) {
	out := make([][3]float64, len(s.Atoms))
	for i, a := range s.Atoms {
		sp, ok := species[a.Species]
		if !ok || len(sp.Channels) == 0 {
			continue
		}
		for d := 0; d < 3; d++ {
			plus := a.Pos
			plus[d] += h
			minus := a.Pos
			minus[d] -= h

			ePlus, err := projectedEnergy(r, i, sp, plus, phi, occ)
			if err != nil {
				return nil, err
			}
			eMinus, err := projectedEnergy(r, i, sp, minus, phi, occ)
			if err != nil {
				return nil, err
			}
			out[i][d] = -(ePlus - eMinus) / (2 * h)
		}
	}
	return out, nil
}

// projectedEnergy is sum_i occ_i * sum_row KB_row * |<p_row|phi_i>|^2
// for a single-atom projector built at pos.
func projectedEnergy(r *grid.Real, atomIndex int, sp pseudo.Species, pos [3]float64, phi []*field.OrbitalSet, occ [][]float64) (float64, error) {
	p, err := pseudo.Build(r, atomIndex, sp, pos)
	if err != nil {
		return 0, err
	}
	dV := r.Cell.Volume() / float64(r.Size())
	var energy float64
	for spin, set := range phi {
		n := set.Grid.Size()
		for li := 0; li < set.LocalCount; li++ {
			ist := set.LocalStart + li
			psi := set.Data[li*n : (li+1)*n]
			for row := 0; row < p.NLM; row++ {
				var c complex128
				for ip, gi := range p.Points {
					c += p.Matrix[row*len(p.Points)+ip] * psi[gi]
				}
				c *= complex(dV, 0)
				energy += occ[spin][ist] * p.KB[row] * (real(c)*real(c) + imag(c)*imag(c))
			}
		}
	}
	return energy, nil
}
