package grid

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/qsim/rtdft/errs"
)

// FFT3 holds one gonum CmplxFFT plan per axis, reused across calls
// instead of reallocating per call.
type FFT3 struct {
	r     *Real
	plans [3]*fourier.CmplxFFT
}

// NewFFT3 builds the three 1-D FFT plans needed for a separable 3-D
// transform over r.
func NewFFT3(r *Real) *FFT3 {
	f := &FFT3{r: r}
	for i := 0; i < 3; i++ {
		f.plans[i] = fourier.NewCmplxFFT(r.N[i])
	}
	return f
}

// Forward transforms data (real-space, length r.Size()) in place into
// reciprocal space with no forward normalization.
func (f *FFT3) Forward(data []complex128) error {
	return f.transform(data, false)
}

// Inverse transforms data (reciprocal-space) in place back to real
// space, multiplying by 1/N_total. If recip carries a spherical cutoff,
// the mask is not reapplied here; call recip.Mask after Forward instead.
func (f *FFT3) Inverse(data []complex128) error {
	return f.transform(data, true)
}

func (f *FFT3) transform(data []complex128, inverse bool) error {
	if len(data) != f.r.Size() {
		return errs.ShapeMismatchf("fft: data length %d != grid size %d", len(data), f.r.Size())
	}
	n := f.r.N
	line := make([]complex128, 0, max3(n))

	// Axis 2 (innermost, contiguous): transform each (ix,iy) row directly.
	for ix := 0; ix < n[0]; ix++ {
		for iy := 0; iy < n[1]; iy++ {
			start := f.r.Index(ix, iy, 0)
			seg := data[start : start+n[2]]
			applyPlan(f.plans[2], seg, inverse)
		}
	}

	// Axis 1: gather the strided line, transform, scatter back.
	line = line[:n[1]]
	for ix := 0; ix < n[0]; ix++ {
		for iz := 0; iz < n[2]; iz++ {
			for iy := 0; iy < n[1]; iy++ {
				line[iy] = data[f.r.Index(ix, iy, iz)]
			}
			applyPlan(f.plans[1], line, inverse)
			for iy := 0; iy < n[1]; iy++ {
				data[f.r.Index(ix, iy, iz)] = line[iy]
			}
		}
	}

	// Axis 0.
	line = line[:n[0]]
	for iy := 0; iy < n[1]; iy++ {
		for iz := 0; iz < n[2]; iz++ {
			for ix := 0; ix < n[0]; ix++ {
				line[ix] = data[f.r.Index(ix, iy, iz)]
			}
			applyPlan(f.plans[0], line, inverse)
			for ix := 0; ix < n[0]; ix++ {
				data[f.r.Index(ix, iy, iz)] = line[ix]
			}
		}
	}

	return nil
}

func applyPlan(p *fourier.CmplxFFT, seg []complex128, inverse bool) {
	if inverse {
		p.Sequence(seg, seg)
	} else {
		p.Coefficients(seg, seg)
	}
}

func max3(n [3]int) int {
	m := n[0]
	if n[1] > m {
		m = n[1]
	}
	if n[2] > m {
		m = n[2]
	}
	return m
}
