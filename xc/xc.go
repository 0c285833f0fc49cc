// Package xc evaluates semi-local exchange-correlation functionals on
// a spin density, producing an XC energy and an XC potential on the
// same grid the density lives on.
package xc

import (
	"math"

	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
)

// Functional evaluates a local (or semi-local) XC functional pointwise
// given spin-up and spin-down densities (and, for gradient-dependent
// functionals, their gradients) at a single grid point.
type Functional interface {
	// Eval returns (energy density, vxc_up, vxc_down) at one point.
	Eval(rhoUp, rhoDown float64, gradUp, gradDown [3]float64) (eps, vUp, vDown float64)
	RequiresGradient() bool
}

// Term bundles an exchange and a correlation functional, mirroring the
// split every LDA/GGA family makes between the two physical effects.
type Term struct {
	Exchange    Functional
	Correlation Functional
}

// Result holds the scalar outputs of an XC evaluation.
type Result struct {
	Exc  float64 // total XC energy
	NVxc float64 // integral rho*vxc, for the double-counting correction
}

// Evaluate computes the XC potential on vks (incremented in place, one
// field per spin channel already allocated with NComp matching the
// density) and returns the energy terms. coreDensity may be nil. Exc
// and vxc are evaluated against the core-inclusive density, but NVxc's
// double-counting integral uses the valence-only density: the core
// correction does not go there.
func (t Term) Evaluate(density *field.Density, coreDensity *field.Field, dV float64, vks []*field.Field) (Result, error) {
	full, err := processDensity(density, coreDensity)
	if err != nil {
		return Result{}, err
	}
	valence := full
	if coreDensity != nil {
		valence, err = processDensity(density, nil)
		if err != nil {
			return Result{}, err
		}
	}

	var grads [][3]float64
	var gradsDown [][3]float64
	needGrad := (t.Exchange != nil && t.Exchange.RequiresGradient()) || (t.Correlation != nil && t.Correlation.RequiresGradient())
	if needGrad {
		grads, gradsDown, err = gradients(full)
		if err != nil {
			return Result{}, err
		}
	}

	var res Result
	n := full[0].Grid.Size()
	for _, f := range []Functional{t.Exchange, t.Correlation} {
		if f == nil {
			continue
		}
		var gUp, gDown [3]float64
		for idx := 0; idx < n; idx++ {
			rhoUp := real(full[0].Data[idx])
			rhoDown := rhoUp
			if len(full) == 2 {
				rhoDown = real(full[1].Data[idx])
			} else {
				rhoUp *= 0.5
				rhoDown = rhoUp
			}
			valUp := real(valence[0].Data[idx])
			valDown := valUp
			if len(valence) == 2 {
				valDown = real(valence[1].Data[idx])
			}
			if needGrad {
				gUp, gDown = grads[idx], gradsDown[idx]
			}
			eps, vUp, vDown := f.Eval(rhoUp, rhoDown, gUp, gDown)
			res.Exc += eps * dV
			vks[0].Data[idx] += complex(vUp, 0)
			res.NVxc += vUp * valUp * dV
			if len(vks) == 2 {
				vks[1].Data[idx] += complex(vDown, 0)
				res.NVxc += vDown * valDown * dV
			}
		}
	}
	return res, nil
}

// processDensity builds the (rho_up, rho_down) pair the functional
// evaluates against: pass-through for 1/2-component densities,
// diagonalization of the non-collinear 4-component case into
// rho_tot +/- |m| (clamped non-negative), plus an even core-density
// split across the active channels.
func processDensity(density *field.Density, core *field.Field) ([]*field.Field, error) {
	f := density.Field
	nOut := 1
	if f.NComp >= 2 {
		nOut = 2
	}
	out := make([]*field.Field, nOut)
	for i := range out {
		out[i] = field.NewField(f.Grid, field.RealScalar)
	}

	n := f.Grid.Size()
	switch f.NComp {
	case 1:
		for idx := 0; idx < n; idx++ {
			out[0].Data[idx] = f.Data[idx]
		}
	case 2:
		for idx := 0; idx < n; idx++ {
			out[0].Data[idx] = f.Data[idx*2+0]
			out[1].Data[idx] = f.Data[idx*2+1]
		}
	case 4:
		for idx := 0; idx < n; idx++ {
			rup := real(f.Data[idx*4+0])
			rdn := real(f.Data[idx*4+1])
			mx := real(f.Data[idx*4+2])
			my := real(f.Data[idx*4+3])
			dtot := rup + rdn
			dd := rup - rdn
			dpol := math.Sqrt(dd*dd + 4*(mx*mx+my*my))
			out[0].Data[idx] = complex(math.Max(0, 0.5*(dtot+dpol)), 0)
			out[1].Data[idx] = complex(math.Max(0, 0.5*(dtot-dpol)), 0)
		}
	default:
		return nil, errs.ShapeMismatchf("xc: unsupported spin component count %d", f.NComp)
	}

	if core != nil {
		for i := range out {
			for idx := 0; idx < n; idx++ {
				out[i].Data[idx] += core.Data[idx] / complex(float64(len(out)), 0)
			}
		}
	}
	return out, nil
}

// gradients returns the real-space gradient of each channel of full via
// FFT differentiation: grad f = IFFT(i*G * FFT(f)).
func gradients(full []*field.Field) ([][3]float64, [][3]float64, error) {
	r := full[0].Grid
	fft := grid.NewFFT3(r)
	recip := grid.NewReciprocal(r, 0)
	n := r.Size()

	compute := func(f *field.Field) ([][3]float64, error) {
		work := make([]complex128, n)
		copy(work, f.Data)
		if err := fft.Forward(work); err != nil {
			return nil, err
		}
		out := make([][3]float64, n)
		comp := make([]complex128, n)
		for axis := 0; axis < 3; axis++ {
			for ix := 0; ix < r.N[0]; ix++ {
				for iy := 0; iy < r.N[1]; iy++ {
					for iz := 0; iz < r.N[2]; iz++ {
						idx := r.Index(ix, iy, iz)
						g := recip.GVector(ix, iy, iz)
						comp[idx] = complex(0, g[axis]) * work[idx]
					}
				}
			}
			if err := fft.Inverse(comp); err != nil {
				return nil, err
			}
			for idx := 0; idx < n; idx++ {
				out[idx][axis] = real(comp[idx])
			}
		}
		return out, nil
	}

	up, err := compute(full[0])
	if err != nil {
		return nil, nil, err
	}
	down := up
	if len(full) == 2 {
		down, err = compute(full[1])
		if err != nil {
			return nil, nil, err
		}
	}
	return up, down, nil
}
