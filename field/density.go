package field

import (
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/grid"
)

// Density is the charge density accumulated from an OrbitalSet's
// occupied states, spin-resolved with NComp in {1,2,4}: 1 for
// unpolarized, 2 for collinear up/down, 4 for non-collinear n,mx,my,mz.
type Density struct {
	Field *Field
}

// NewDensity allocates a zeroed density over r with nComp spin
// components.
func NewDensity(r *grid.Real, nComp int) (*Density, error) {
	f, err := NewSpinField(r, nComp)
	if err != nil {
		return nil, err
	}
	return &Density{Field: f}, nil
}

// AccumulateOrbital adds weight*|psi|^2 (collinear) or the appropriate
// spinor outer product (non-collinear) for one locally-owned orbital
// into the density, the per-state contribution to n(r) = sum_i f_i
// |psi_i(r)|^2.
func (d *Density) AccumulateOrbital(psi []complex128, weight float64, spinComp int) error {
	n := d.Field.Grid.Size()
	if len(psi) != n {
		return errs.ShapeMismatchf("density: orbital length %d != grid size %d", len(psi), n)
	}
	if spinComp < 0 || spinComp >= d.Field.NComp {
		return errs.ShapeMismatchf("density: spin component %d out of range [0,%d)", spinComp, d.Field.NComp)
	}
	for idx, v := range psi {
		rho := real(v)*real(v) + imag(v)*imag(v)
		d.Field.Data[idx*d.Field.NComp+spinComp] += complex(weight*rho, 0)
	}
	return nil
}

// Zero clears the density to zero in place, the first step of every
// SCF density-build sweep.
func (d *Density) Zero() {
	for i := range d.Field.Data {
		d.Field.Data[i] = 0
	}
}

// TotalCharge integrates n(r) over the grid, scaled by the grid-point
// volume dV = Omega/Ntotal, giving integral n(r) dr.
func (d *Density) TotalCharge(dV float64) float64 {
	n := d.Field.Grid.Size()
	diag := d.Field.NComp
	if diag > 2 {
		diag = 2
	}
	var total float64
	for idx := 0; idx < n; idx++ {
		for c := 0; c < diag; c++ {
			total += real(d.Field.Data[idx*d.Field.NComp+c])
		}
	}
	return total * dV
}

// ToScalarTotal collapses a spin-resolved density into the scalar
// total charge n(r) = sum of diagonal spin components, the input the
// Poisson solver and the ion-electron local potential both need
// regardless of how many spin channels the density carries.
func (d *Density) ToScalarTotal() *Field {
	out := NewField(d.Field.Grid, RealScalar)
	n := d.Field.Grid.Size()
	diag := d.Field.NComp
	if diag > 2 {
		diag = 2
	}
	for idx := 0; idx < n; idx++ {
		var s complex128
		for c := 0; c < diag; c++ {
			s += d.Field.Data[idx*d.Field.NComp+c]
		}
		out.Data[idx] = s
	}
	return out
}

// Mix performs a linear density mixing step d = (1-alpha)*d + alpha*other,
// the simplest member of the mixer family (Pulay/Broyden build on top of
// this primitive by tracking a history of such updates).
func (d *Density) Mix(alpha float64, other *Density) error {
	if err := d.Field.Grid.RequireSameShape(other.Field.Grid); err != nil {
		return err
	}
	if d.Field.NComp != other.Field.NComp {
		return errs.ShapeMismatchf("density: component counts differ: %d vs %d", d.Field.NComp, other.Field.NComp)
	}
	for i := range d.Field.Data {
		d.Field.Data[i] = complex(1-alpha, 0)*d.Field.Data[i] + complex(alpha, 0)*other.Field.Data[i]
	}
	return nil
}

// Residual returns other - d component-wise, the input to Pulay/Broyden
// history-based mixing.
func (d *Density) Residual(other *Density) (*Density, error) {
	if err := d.Field.Grid.RequireSameShape(other.Field.Grid); err != nil {
		return nil, err
	}
	out := &Density{Field: d.Field.ZerosLike()}
	for i := range d.Field.Data {
		out.Field.Data[i] = other.Field.Data[i] - d.Field.Data[i]
	}
	return out, nil
}
