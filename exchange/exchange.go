// Package exchange implements exact (Hartree-Fock) exchange and its
// Adaptive Compressed Exchange (ACE) low-rank acceleration.
package exchange

import (
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/linalg"
	"github.com/qsim/rtdft/poisson"
)

// Operator holds the HF reference orbitals and occupations exact
// exchange is evaluated against, plus the optional ACE-compressed
// representation built by Update.
type Operator struct {
	Poisson     *poisson.Solver
	Coefficient float64
	UseACE      bool

	HFOrbitals *field.OrbitalSet
	HFOcc      []float64

	ace *field.OrbitalSet // xi', present only after Update when UseACE
}

// NewOperator builds an exchange operator with coefficient alpha (1.0
// for full Hartree-Fock exchange, the PBE0-style fraction for a hybrid
// functional) evaluated on the Poisson solver's grid.
func NewOperator(ps *poisson.Solver, coefficient float64, useACE bool) *Operator {
	return &Operator{Poisson: ps, Coefficient: coefficient, UseACE: useACE}
}

// Enabled reports whether this operator contributes anything (a zero
// coefficient degenerates every call to a no-op, matching the pattern
// every component of this engine uses to skip disabled terms cheaply).
func (op *Operator) Enabled() bool { return op.Coefficient != 0 && op.HFOrbitals != nil }

// Direct applies scale * sum_j occ_j * hf_j(r) * v_ij(r) to every
// locally-owned state of phi, where v_ij solves the Poisson equation
// for rho_ij(r) = conj(hf_j(r)) * phi_i(r). This is the O(N_occ*N_st)
// per-pair-Poisson-solve evaluation; ACE exists precisely to avoid
// calling this on every Hamiltonian application.
func (op *Operator) Direct(phi *field.OrbitalSet, scale float64) (*field.OrbitalSet, error) {
	out := phi.ZerosLike()
	if !op.Enabled() {
		return out, nil
	}
	if err := phi.RequireSameShape(op.HFOrbitals); err != nil {
		return nil, err
	}
	n := phi.Grid.Size()

	for j := 0; j < op.HFOrbitals.NStates; j++ {
		if !op.HFOrbitals.Owns(j) {
			continue
		}
		hfj := op.HFOrbitals.State(j)
		occj := op.HFOcc[j]
		if occj == 0 {
			continue
		}
		for li := 0; li < phi.LocalCount; li++ {
			psi := phi.Data[li*n : (li+1)*n]
			dst := out.Data[li*n : (li+1)*n]

			rho := field.NewField(phi.Grid, field.ComplexScalar)
			for p := 0; p < n; p++ {
				rho.Data[p] = conj(hfj[p]) * psi[p]
			}
			v, err := op.Poisson.Solve(rho)
			if err != nil {
				return nil, err
			}
			c := complex(scale*op.Coefficient*occj, 0)
			for p := 0; p < n; p++ {
				dst[p] += c * hfj[p] * v.Data[p]
			}
		}
	}
	return out, nil
}

func conj(v complex128) complex128 { return complex(real(v), -imag(v)) }

// Apply evaluates the configured exchange operator against phi: the
// ACE-compressed form if Update has been run and UseACE is set,
// otherwise a direct per-pair evaluation with scale -0.5 per the
// -1/2*alpha*occ_j convention of the direct formula.
func (op *Operator) Apply(phi *field.OrbitalSet) (*field.OrbitalSet, error) {
	if !op.Enabled() {
		return phi.ZerosLike(), nil
	}
	if op.UseACE && op.ace != nil {
		return op.applyACE(phi)
	}
	return op.Direct(phi, -0.5)
}

// applyACE computes (EXX_ACE * phi)_i = -sum_k xi'_k * <xi'_k|phi_i>,
// replacing every Hamiltonian application's O(N_occ*N_st) Poisson
// solves with a pair of small dense products once xi' has been built.
func (op *Operator) applyACE(phi *field.OrbitalSet) (*field.OrbitalSet, error) {
	if err := phi.RequireSameShape(op.ace); err != nil {
		return nil, err
	}
	n := phi.Grid.Size()
	coeffs, err := op.ace.GramMatrix(phi) // coeffs[k*NStates+i] = <xi'_k|phi_i>
	if err != nil {
		return nil, err
	}
	out := phi.ZerosLike()
	for li := 0; li < phi.LocalCount; li++ {
		i := phi.LocalStart + li
		dst := out.Data[li*n : (li+1)*n]
		for k := 0; k < op.ace.NStates; k++ {
			xik := op.ace.State(k)
			c := -coeffs[k*phi.NStates+i]
			for p := 0; p < n; p++ {
				dst[p] += c * xik[p]
			}
		}
	}
	return out, nil
}

// Update performs one direct EXX evaluation producing xi = Direct(phi,
// -0.5) (the same -1/2*alpha*occ_j convention as Apply's non-ACE
// branch, so xi is the exchange action on phi), returns the exchange
// energy 1/2*sum_i occ_i*<xi_i|phi_i>, and when UseACE is set, Cholesky-
// factors -M (M = phi^dagger xi, negative definite) and stores
// xi' = xi * L^-H for O(1)-Poisson-solve application.
func (op *Operator) Update(phi *field.OrbitalSet, occ []float64) (float64, error) {
	if !op.Enabled() {
		return 0, nil
	}
	xi, err := op.Direct(phi, -0.5)
	if err != nil {
		return 0, err
	}
	diag, err := xi.OverlapDiagonal(phi)
	if err != nil {
		return 0, err
	}
	var energy float64
	for li, v := range diag {
		i := phi.LocalStart + li
		energy += occ[i] * real(v)
	}
	energy *= 0.5

	if op.UseACE {
		if err := op.buildACE(phi, xi); err != nil {
			return energy, err
		}
	}
	return energy, nil
}

func (op *Operator) buildACE(phi, xi *field.OrbitalSet) error {
	m, err := phi.GramMatrix(xi) // m[i*NStates+k] = <phi_i|xi_k>
	if err != nil {
		return err
	}
	n := phi.NStates
	negM := make([]complex128, n*n)
	for i := range negM {
		negM[i] = -m[i]
	}
	l, err := linalg.CholeskyHermitian(n, negM)
	if err != nil {
		return errs.NotPositiveDefinitef("exchange: ACE overlap -M is not positive definite: %v", err)
	}
	linv, err := invertLowerTriangular(n, l)
	if err != nil {
		return err
	}

	ace := xi.ZerosLike()
	pts := xi.Grid.Size()
	for li := 0; li < xi.LocalCount; li++ {
		i := xi.LocalStart + li
		dst := ace.Data[li*pts : (li+1)*pts]
		for k := 0; k < n; k++ {
			xik := xi.State(k)
			coeff := conj(linv[i*n+k]) // (L^-H)_{k,i} = conj((L^-1)_{i,k})
			for p := 0; p < pts; p++ {
				dst[p] += coeff * xik[p]
			}
		}
	}
	op.ace = ace
	return nil
}

// invertLowerTriangular returns L^-1 (row-major) via forward
// substitution, one column of the identity at a time.
func invertLowerTriangular(n int, l []complex128) ([]complex128, error) {
	inv := make([]complex128, n*n)
	for c := 0; c < n; c++ {
		diag := l[c*n+c]
		if diag == 0 {
			return nil, errs.NotPositiveDefinitef("exchange: singular Cholesky factor at column %d", c)
		}
		inv[c*n+c] = 1 / diag
		for r := c + 1; r < n; r++ {
			var s complex128
			for k := c; k < r; k++ {
				s += l[r*n+k] * inv[k*n+c]
			}
			inv[r*n+c] = -s / l[r*n+r]
		}
	}
	return inv, nil
}
