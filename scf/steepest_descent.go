package scf

import (
	"math"

	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/hamiltonian"
)

// refine applies a fixed number of analytic steepest-descent line-search
// steps to phi in place and returns the final H*phi. Each step computes
// the residual r_i = H*phi_i - eps_i*phi_i (eps_i the Rayleigh quotient
// <phi_i|H|phi_i>/<phi_i|phi_i>), then an exact line-search minimizer
// lambda_i for phi_i + lambda_i*r_i from six per-state scalar overlaps,
// rather than a fixed or backtracked step size. phi is orthonormalized
// once at the end.
func refine(ham *hamiltonian.Hamiltonian, pot *hamiltonian.Potential, phi *field.OrbitalSet, steps int) (*field.OrbitalSet, error) {
	hphi, err := ham.Apply(phi, pot, 0)
	if err != nil {
		return nil, err
	}

	for step := 0; step < steps; step++ {
		eigenvalues, err := phi.OverlapDiagonal(hphi)
		if err != nil {
			return nil, err
		}
		norm, err := phi.OverlapDiagonal(phi)
		if err != nil {
			return nil, err
		}

		residual := hphi.Clone()
		shiftResidual(residual, phi, eigenvalues, norm)

		hresidual, err := ham.Apply(residual, pot, 0)
		if err != nil {
			return nil, err
		}

		rr, err := residual.OverlapDiagonal(residual)
		if err != nil {
			return nil, err
		}
		pr, err := phi.OverlapDiagonal(residual)
		if err != nil {
			return nil, err
		}
		rhr, err := residual.OverlapDiagonal(hresidual)
		if err != nil {
			return nil, err
		}
		phr, err := phi.OverlapDiagonal(hresidual)
		if err != nil {
			return nil, err
		}

		lambda := make([]complex128, phi.LocalCount)
		for i := range lambda {
			lambda[i] = lineSearchStep(rr[i], pr[i], rhr[i], phr[i], eigenvalues[i], norm[i])
		}

		n := phi.Grid.Size()
		last := step == steps-1
		for li := 0; li < phi.LocalCount; li++ {
			lam := lambda[li]
			phiState := phi.Data[li*n : (li+1)*n]
			resState := residual.Data[li*n : (li+1)*n]
			for p := range phiState {
				phiState[p] += lam * resState[p]
			}
			if !last {
				hphiState := hphi.Data[li*n : (li+1)*n]
				hresState := hresidual.Data[li*n : (li+1)*n]
				for p := range hphiState {
					hphiState[p] += lam * hresState[p]
				}
			}
		}
	}

	phi.Orthonormalize()
	hphi, err = ham.Apply(phi, pot, 0)
	if err != nil {
		return nil, err
	}
	return hphi, nil
}

// shiftResidual subtracts (eigenvalues_i/norm_i)*phi_i from residual_i
// in place, turning the raw H*phi copy into the actual eigenvalue
// residual H*phi_i - eps_i*phi_i.
func shiftResidual(residual, phi *field.OrbitalSet, eigenvalues, norm []complex128) {
	n := phi.Grid.Size()
	for li := 0; li < phi.LocalCount; li++ {
		if real(norm[li]) == 0 {
			continue
		}
		evnorm := eigenvalues[li] / norm[li]
		phiState := phi.Data[li*n : (li+1)*n]
		resState := residual.Data[li*n : (li+1)*n]
		for p := range resState {
			resState[p] -= evnorm * phiState[p]
		}
	}
}

// lineSearchStep solves the analytic cubic-minimization step size for
// phi + lambda*residual: with ca = Re(rr*phr - rhr*pr),
// cb = Re(norm*rhr - eigenvalue*rr), cc = Re(eigenvalue*pr - phr*norm),
// lambda = 2*cc / (cb + sqrt(cb^2 - 4*ca*cc)).
func lineSearchStep(rr, pr, rhr, phr, eigenvalue, norm complex128) complex128 {
	ca := real(rr*phr - rhr*pr)
	cb := real(norm*rhr - eigenvalue*rr)
	cc := real(eigenvalue*pr - phr*norm)

	disc := cb*cb - 4*ca*cc
	if disc < 0 {
		disc = 0
	}
	den := cb + math.Sqrt(disc)
	if math.Abs(den) < 1e-15 {
		return 0
	}
	return complex(2*cc/den, 0)
}
