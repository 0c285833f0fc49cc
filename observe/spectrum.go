// Package observe turns a run's raw orbital/density trajectory into
// scalar observables: the electronic dipole moment and, from a
// recorded dipole time series, an absorption-spectrum-style frequency
// transform.
package observe

import (
	"math/cmplx"

	"github.com/qsim/rtdft/errs"
)

// Spectrum transforms a time series sampled at the (not necessarily
// uniform) instants in time into its value at every frequency
// 0, dw, 2*dw, ..., maxw, by a windowed Filon-type quadrature rather
// than a power-of-two FFT: the series is non-uniformly sampled in
// general (a real-time run's observer callback fires once per
// propagation step, not once per a clock tick chosen for transform
// convenience), so a direct quadrature over the recorded instants is
// used in place of a discrete Fourier transform. Every interior sample
// is weighted by a cubic damping factor that falls to zero at the
// final recorded time, suppressing the spectral leakage a hard cutoff
// would otherwise introduce.
func Spectrum(maxw, dw float64, time []float64, series []complex128) ([]complex128, error) {
	if len(time) != len(series) {
		return nil, errs.ShapeMismatchf("observe: time has %d samples, series has %d", len(time), len(series))
	}
	if len(time) < 2 {
		return nil, errs.BadConfigurationf("observe: spectrum needs at least two samples, got %d", len(time))
	}
	if dw <= 0 {
		return nil, errs.BadConfigurationf("observe: frequency step must be positive, got %v", dw)
	}

	ntime := len(time)
	nfreq := int(maxw/dw) + 1
	out := make([]complex128, nfreq)

	tFinal := time[ntime-1]
	for ifreq := 0; ifreq < nfreq; ifreq++ {
		ww := dw * float64(ifreq)

		sum := complex(0.5*(time[1]-time[0]), 0) * series[0]
		for itime := 1; itime < ntime-1; itime++ {
			fract := time[itime] / tFinal
			damp := 1.0 - 3.0*fract*fract + 2.0*fract*fract*fract
			phase := cmplx.Exp(complex(0, ww*time[itime]))
			weight := complex(0.5*damp*(time[itime+1]-time[itime-1]), 0)
			sum += weight * phase * series[itime]
		}
		out[ifreq] = sum
	}
	return out, nil
}

// SpectrumReal is Spectrum for a real-valued time series, the common
// case for a single Cartesian component of a recorded dipole moment.
func SpectrumReal(maxw, dw float64, time []float64, series []float64) ([]complex128, error) {
	complexSeries := make([]complex128, len(series))
	for i, v := range series {
		complexSeries[i] = complex(v, 0)
	}
	return Spectrum(maxw, dw, time, complexSeries)
}
