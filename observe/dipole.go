package observe

import (
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
)

// Dipole returns the purely electronic dipole moment
// integral r*rho(r) dr — no ionic term — the same quantity a
// real-time run records once per step; this standalone copy exists
// for post-hoc analysis of a restarted density outside of a
// propagation loop, where pulling in the realtime package's Driver
// would be a layering violation for a tool that only wants the
// observable.
func Dipole(density *field.Density, r *grid.Real, dV float64) [3]float64 {
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
