// Package hamiltonian assembles and applies the Kohn-Sham Hamiltonian:
// kinetic energy via FFT, the local ionic potential, the Hartree
// potential from a Poisson solve, exchange-correlation, the non-local
// Kleinman-Bylander projectors, exact exchange, and any external
// perturbation, all re-evaluated whenever the density or ion positions
// change.
package hamiltonian

import (
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/exchange"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
	"github.com/qsim/rtdft/perturbation"
	"github.com/qsim/rtdft/poisson"
	"github.com/qsim/rtdft/pseudo"
	"github.com/qsim/rtdft/xc"
)

// Hamiltonian holds every piece of H needed to assemble a potential and
// apply H*phi for a given grid and k-point.
type Hamiltonian struct {
	Grid   *grid.Real
	KPoint [3]float64

	VIonLocal  *field.Field // scalar, sum of species local channels
	Projectors []*pseudo.Projector
	Poisson    *poisson.Solver
	XC         xc.Term
	Exchange   *exchange.Operator
	Pert       perturbation.Perturbation

	Comm field.Communicator

	fft   *grid.FFT3
	recip *grid.Reciprocal
}

// New builds a Hamiltonian over r at the given k-point. exch and pert
// may be nil, disabling exact exchange and external perturbations
// respectively.
func New(r *grid.Real, kpoint [3]float64, vIonLocal *field.Field, projectors []*pseudo.Projector, ps *poisson.Solver, xcTerm xc.Term, exch *exchange.Operator, pert perturbation.Perturbation, comm field.Communicator) (*Hamiltonian, error) {
	if err := r.RequireSameShape(vIonLocal.Grid); err != nil {
		return nil, err
	}
	return &Hamiltonian{
		Grid: r, KPoint: kpoint,
		VIonLocal: vIonLocal, Projectors: projectors, Poisson: ps,
		XC: xcTerm, Exchange: exch, Pert: pert, Comm: comm,
		fft: grid.NewFFT3(r), recip: grid.NewReciprocal(r, 0),
	}, nil
}

// Potential is the assembled local multiplicative potential, one field
// per spin channel, plus the energy terms it was built from.
type Potential struct {
	VKS            []*field.Field
	Hartree        *field.Field
	HartreeEnergy  float64
	XC             xc.Result
	ExternalEnergy float64
}

// Assemble builds the Kohn-Sham potential from the current density:
// Hartree (Poisson solve of the total charge), exchange-correlation,
// the fixed local ionic potential, and any time-dependent scalar
// perturbation at time t.
func (h *Hamiltonian) Assemble(density *field.Density, coreDensity *field.Field, dV, t float64) (*Potential, error) {
	nChan := 1
	if density.Field.NComp >= 2 {
		nChan = 2
	}

	total := density.ToScalarTotal()
	hartree, err := h.Poisson.Solve(total)
	if err != nil {
		return nil, err
	}
	hartreeEnergy, err := poisson.HartreeEnergy(total, hartree, dV)
	if err != nil {
		return nil, err
	}

	vks := make([]*field.Field, nChan)
	for c := range vks {
		vks[c] = h.VIonLocal.Clone()
		if err := vks[c].AddScaled(1, hartree); err != nil {
			return nil, err
		}
	}

	xcRes, err := h.XC.Evaluate(density, coreDensity, dV, vks)
	if err != nil {
		return nil, err
	}

	var externalEnergy float64
	n := h.Grid.Size()
	for idx := 0; idx < n; idx++ {
		externalEnergy += real(total.Data[idx]) * real(h.VIonLocal.Data[idx])
	}
	externalEnergy *= dV

	if h.Pert != nil && h.Pert.HasPotential() {
		for _, v := range vks {
			h.Pert.AddPotential(t, v)
		}
	}

	return &Potential{VKS: vks, Hartree: hartree, HartreeEnergy: hartreeEnergy, XC: xcRes, ExternalEnergy: externalEnergy}, nil
}

// Apply computes H*phi, writing the result into a freshly allocated
// orbital set: the FFT kinetic term (with the k-point and, when the
// active perturbation carries one, its vector potential folded into the
// canonical momentum), the assembled local potential for phi's spin
// channel, the non-local projectors, and exact exchange.
func (h *Hamiltonian) Apply(phi *field.OrbitalSet, pot *Potential, t float64) (*field.OrbitalSet, error) {
	if err := h.Grid.RequireSameShape(phi.Grid); err != nil {
		return nil, err
	}
	out := phi.ZerosLike()

	var a [3]float64
	if h.Pert != nil && h.Pert.HasVectorPotential() {
		a = h.Pert.VectorPotential(t)
	}

	if err := h.applyKinetic(phi, a, out); err != nil {
		return nil, err
	}
	if err := h.applyLocalPotential(phi, pot, out); err != nil {
		return nil, err
	}
	if len(h.Projectors) > 0 {
		dV := phi.Grid.Cell.Volume() / float64(phi.Grid.Size())
		if err := pseudo.Apply(h.Projectors, phi, dV, h.Comm, out); err != nil {
			return nil, err
		}
	}
	if h.Exchange != nil && h.Exchange.Enabled() {
		exOut, err := h.Exchange.Apply(phi)
		if err != nil {
			return nil, err
		}
		if err := out.RequireSameShape(exOut); err != nil {
			return nil, err
		}
		for i := range out.Data {
			out.Data[i] += exOut.Data[i]
		}
	}
	return out, nil
}

// applyKinetic adds IFFT(0.5*|G+k+A|^2 * FFT(phi)) for every
// locally-owned state into out.
func (h *Hamiltonian) applyKinetic(phi *field.OrbitalSet, a [3]float64, out *field.OrbitalSet) error {
	n := phi.Grid.Size()
	work := make([]complex128, n)
	for li := 0; li < phi.LocalCount; li++ {
		psi := phi.Data[li*n : (li+1)*n]
		copy(work, psi)
		if err := h.fft.Forward(work); err != nil {
			return err
		}
		for ix := 0; ix < phi.Grid.N[0]; ix++ {
			for iy := 0; iy < phi.Grid.N[1]; iy++ {
				for iz := 0; iz < phi.Grid.N[2]; iz++ {
					g := h.recip.GVector(ix, iy, iz)
					var k2 float64
					for d := 0; d < 3; d++ {
						gk := g[d] + h.KPoint[d] + a[d]
						k2 += gk * gk
					}
					idx := phi.Grid.Index(ix, iy, iz)
					work[idx] *= complex(0.5*k2, 0)
				}
			}
		}
		if err := h.fft.Inverse(work); err != nil {
			return err
		}
		dst := out.Data[li*n : (li+1)*n]
		for p := range dst {
			dst[p] += work[p]
		}
	}
	return nil
}

// applyLocalPotential adds vks[phi.Spin]*phi into out, pointwise.
func (h *Hamiltonian) applyLocalPotential(phi *field.OrbitalSet, pot *Potential, out *field.OrbitalSet) error {
	if phi.Spin < 0 || phi.Spin >= len(pot.VKS) {
		return errs.ShapeMismatchf("hamiltonian: orbital spin index %d out of range [0,%d)", phi.Spin, len(pot.VKS))
	}
	v := pot.VKS[phi.Spin]
	n := phi.Grid.Size()
	for li := 0; li < phi.LocalCount; li++ {
		psi := phi.Data[li*n : (li+1)*n]
		dst := out.Data[li*n : (li+1)*n]
		for p := 0; p < n; p++ {
			dst[p] += v.Data[p] * psi[p]
		}
	}
	return nil
}
