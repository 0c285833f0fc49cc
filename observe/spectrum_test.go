package observe

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestSpectrumTwoToneSeriesMatchesReferenceValues(t *testing.T) {
	t.Parallel()
	const (
		ntime = 1000
		dtime = 0.1
		freq1 = 10.0
		freq2 = 6.39
		amp1  = 2.0
		amp2  = -1.5
		maxw  = 20.0
		dw    = 0.1
	)

	time := make([]float64, ntime)
	series := make([]float64, ntime)
	for i := 0; i < ntime; i++ {
		time[i] = dtime * float64(i)
		series[i] = amp1*math.Cos(time[i]*freq1) + amp2*math.Sin(time[i]*freq2)
	}

	fseries, err := SpectrumReal(maxw, dw, time, series)
	if err != nil {
		t.Fatal(err)
	}

	if len(fseries) != 201 {
		t.Fatalf("got %d frequencies, want 201", len(fseries))
	}

	check := func(ifreq int, wantRe, wantIm float64) {
		t.Helper()
		got := fseries[ifreq]
		if math.Abs(real(got)-wantRe) > 1e-6 || math.Abs(imag(got)-wantIm) > 1e-6 {
			t.Fatalf("freq index %d: got %v, want (%v, %v)", ifreq, got, wantRe, wantIm)
		}
	}
	check(12, -0.2352749195, -0.0264556811)
	check(100, 50.1204711636, 0.0321104817)
}

func TestSpectrumPeaksNearDrivingFrequencies(t *testing.T) {
	t.Parallel()
	const (
		ntime = 2000
		dtime = 0.05
		freq1 = 5.0
		freq2 = 12.0
	)
	time := make([]float64, ntime)
	series := make([]float64, ntime)
	for i := 0; i < ntime; i++ {
		time[i] = dtime * float64(i)
		series[i] = math.Cos(time[i]*freq1) + 0.5*math.Cos(time[i]*freq2)
	}

	fseries, err := SpectrumReal(20.0, 0.05, time, series)
	if err != nil {
		t.Fatal(err)
	}

	peakIndex := func(lo, hi int) int {
		best, bestMag := lo, 0.0
		for i := lo; i <= hi; i++ {
			m := cmplx.Abs(fseries[i])
			if m > bestMag {
				best, bestMag = i, m
			}
		}
		return best
	}

	idx1 := peakIndex(80, 120)
	idx2 := peakIndex(220, 260)
	w1 := 0.05 * float64(idx1)
	w2 := 0.05 * float64(idx2)
	if math.Abs(w1-freq1) > 0.2 {
		t.Fatalf("first peak at %v, want near %v", w1, freq1)
	}
	if math.Abs(w2-freq2) > 0.2 {
		t.Fatalf("second peak at %v, want near %v", w2, freq2)
	}
}

func TestSpectrumRejectsMismatchedLengths(t *testing.T) {
	t.Parallel()
	if _, err := Spectrum(1, 0.1, []float64{0, 1}, []complex128{1}); err == nil {
		t.Fatal("expected a shape-mismatch error")
	}
}

func TestSpectrumRejectsNonPositiveFrequencyStep(t *testing.T) {
	t.Parallel()
	if _, err := Spectrum(1, 0, []float64{0, 1}, []complex128{1, 1}); err == nil {
		t.Fatal("expected an error for a non-positive frequency step")
	}
}
