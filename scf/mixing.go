package scf

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qsim/rtdft/errs"
)

// PulayMixer is DIIS density mixing: a bounded history of input vectors
// and their output-minus-input residuals, combined at every step after
// the first into a minimum-residual linear combination. The first step
// falls back to plain linear mixing, since Pulay's overlap matrix needs
// at least two history entries to be informative.
type PulayMixer struct {
	maxHistory int
	alpha      float64

	ff   [][]complex128 // input history
	dff  [][]complex128 // residual (output-input) history
	iter int
}

// NewPulayMixer builds a mixer that keeps at most maxHistory steps of
// history and falls back to linear mixing with weight alpha on the
// first step.
func NewPulayMixer(maxHistory int, alpha float64) *PulayMixer {
	return &PulayMixer{maxHistory: maxHistory, alpha: alpha}
}

// residualCoeff is the fraction of the stored residual blended into
// each history term's contribution, matching the small residual
// admixture classic Pulay mixing uses to keep the iteration from
// stalling exactly on the extrapolated point.
const residualCoeff = 0.05

// Mix returns the next input density given the current input and the
// density the Hamiltonian/occupations just produced from it.
func (m *PulayMixer) Mix(input, output []complex128) ([]complex128, error) {
	n := len(input)
	if len(output) != n {
		return nil, errs.ShapeMismatchf("scf: mixer input length %d != output length %d", n, len(output))
	}
	m.iter++

	df := make([]complex128, n)
	for i := range df {
		df[i] = output[i] - input[i]
	}
	inCopy := append([]complex128(nil), input...)

	if len(m.ff) < m.maxHistory {
		m.ff = append(m.ff, inCopy)
		m.dff = append(m.dff, df)
	} else {
		copy(m.ff, m.ff[1:])
		copy(m.dff, m.dff[1:])
		m.ff[len(m.ff)-1] = inCopy
		m.dff[len(m.dff)-1] = df
	}
	size := len(m.ff)

	if m.iter == 1 {
		out := make([]complex128, n)
		for i := range out {
			out[i] = complex(1-m.alpha, 0)*input[i] + complex(m.alpha, 0)*output[i]
		}
		return out, nil
	}

	amat := mat.NewDense(size+1, size+1, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			amat.Set(i, j, realDot(m.dff[i], m.dff[j]))
		}
		amat.Set(i, size, -1)
		amat.Set(size, i, -1)
	}
	amat.Set(size, size, 0)

	b := mat.NewVecDense(size+1, nil)
	b.SetVec(size, -1)

	var x mat.VecDense
	if err := x.SolveVec(amat, b); err != nil {
		return nil, errs.NotPositiveDefinitef("scf: pulay mixing matrix is singular: %v", err)
	}

	var sumAlpha float64
	for i := 0; i < size; i++ {
		sumAlpha += x.AtVec(i)
	}
	if sumAlpha == 0 {
		return nil, errs.NotPositiveDefinitef("scf: pulay coefficients sum to zero")
	}

	out := make([]complex128, n)
	for j := 0; j < size; j++ {
		coeff := complex(x.AtVec(j)/sumAlpha, 0)
		for k := 0; k < n; k++ {
			out[k] += coeff * (m.ff[j][k] + complex(residualCoeff, 0)*m.dff[j][k])
		}
	}
	return out, nil
}

func realDot(a, b []complex128) float64 {
	var s float64
	for i := range a {
		s += real(a[i])*real(b[i]) + imag(a[i])*imag(b[i])
	}
	return s
}
