// Package poisson solves nabla^2 V = -4*pi*n for the Hartree potential
// of a charge density, dispatching on the cell's periodicity between
// the exact reciprocal-space kernel and a truncated-Coulomb kernel for
// boundaries that are not fully periodic.
package poisson

import (
	"math"

	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
)

// Solver applies the Poisson kernel 4*pi/G^2 (periodic) or a
// truncated-Coulomb analog (non-periodic) to a density field's Fourier
// transform and returns the Hartree potential in real space.
type Solver struct {
	real *grid.Real
	fft  *grid.FFT3
	kern []float64 // precomputed per-point multiplicative kernel
}

// NewSolver builds a solver for r.Cell's periodicity. Fully periodic
// cells (Periodicity==3) use the exact 4*pi/G^2 kernel; any other
// periodicity uses a spherical truncated-Coulomb kernel with truncation
// radius rc (Bohr), the Martyna-Tuckerman device for removing the
// spurious interaction between periodic images of an isolated or
// slab/wire charge distribution. rc should be at least half the
// shortest non-periodic cell dimension.
func NewSolver(r *grid.Real, rc float64) (*Solver, error) {
	fft := grid.NewFFT3(r)
	s := &Solver{real: r, fft: fft, kern: make([]float64, r.Size())}
	recip := grid.NewReciprocal(r, 0)

	periodic := r.Cell.Periodicity == 3
	if !periodic && rc <= 0 {
		return nil, errs.BadConfigurationf("poisson: truncation radius must be positive for periodicity %d", r.Cell.Periodicity)
	}

	for ix := 0; ix < r.N[0]; ix++ {
		for iy := 0; iy < r.N[1]; iy++ {
			for iz := 0; iz < r.N[2]; iz++ {
				idx := r.Index(ix, iy, iz)
				if recip.IsZero(ix, iy, iz) {
					if periodic {
						s.kern[idx] = 0
					} else {
						// The G=0 limit of the truncated kernel is finite:
						// lim_{G->0} 4*pi/G^2 * (1-cos(G*rc)) = 2*pi*rc^2.
						s.kern[idx] = 2 * math.Pi * rc * rc
					}
					continue
				}
				g2 := recip.G2(ix, iy, iz)
				if periodic {
					s.kern[idx] = 4 * math.Pi / g2
				} else {
					g := math.Sqrt(g2)
					s.kern[idx] = (4 * math.Pi / g2) * (1 - math.Cos(g*rc))
				}
			}
		}
	}
	return s, nil
}

// Solve returns the Hartree potential generated by density, a scalar
// field on the same grid, leaving density untouched.
func (s *Solver) Solve(density *field.Field) (*field.Field, error) {
	if density.NComp != 1 {
		return nil, errs.ShapeMismatchf("poisson: density must be a scalar field, has %d components", density.NComp)
	}
	if err := s.real.RequireSameShape(density.Grid); err != nil {
		return nil, err
	}

	work := make([]complex128, len(density.Data))
	copy(work, density.Data)
	if err := s.fft.Forward(work); err != nil {
		return nil, err
	}
	for i, k := range s.kern {
		work[i] *= complex(k, 0)
	}
	if err := s.fft.Inverse(work); err != nil {
		return nil, err
	}

	out := density.ZerosLike()
	copy(out.Data, work)
	return out, nil
}

// HartreeEnergy returns (1/2) * integral n(r) V(r) dr given the density
// and its Hartree potential, both on the same grid with point volume dV.
func HartreeEnergy(density, potential *field.Field, dV float64) (float64, error) {
	if err := density.Grid.RequireSameShape(potential.Grid); err != nil {
		return 0, err
	}
	var e float64
	for i := range density.Data {
		e += real(density.Data[i]) * real(potential.Data[i])
	}
	return 0.5 * e * dV, nil
}
