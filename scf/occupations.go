package scf

import (
	"math"

	"github.com/qsim/rtdft/errs"
)

// Occupations solves f(eps) = 1/(1+exp((eps-mu)/T)) for the chemical
// potential mu that fixes the total electron count: one global mu
// shared across every spin channel, bisected until
// sum_s sum_i degeneracy[s]*f(eigenvalues[s][i]) equals nElectrons to
// within 1e-10. Each channel's states carry degeneracy[s] as their
// maximum occupation (2 for a single unpolarized channel, 1 for each
// of two collinear channels). A non-bracketed mu is a fatal
// configuration error, not a silently wrong answer.
func Occupations(eigenvalues [][]float64, degeneracy []float64, nElectrons, temperature float64) ([][]float64, float64, error) {
	if temperature <= 0 {
		return nil, 0, errs.BadConfigurationf("scf: temperature must be positive for Fermi-Dirac occupations, got %g", temperature)
	}
	if len(eigenvalues) != len(degeneracy) {
		return nil, 0, errs.ShapeMismatchf("scf: %d spin channels but %d degeneracy weights", len(eigenvalues), len(degeneracy))
	}

	minE, maxE := math.Inf(1), math.Inf(-1)
	for _, ch := range eigenvalues {
		for _, e := range ch {
			if e < minE {
				minE = e
			}
			if e > maxE {
				maxE = e
			}
		}
	}
	if math.IsInf(minE, 1) {
		return nil, 0, errs.BadConfigurationf("scf: no states to occupy")
	}

	occupancy := func(mu float64) float64 {
		var sum float64
		for s, ch := range eigenvalues {
			for _, e := range ch {
				sum += degeneracy[s] / (1 + math.Exp((e-mu)/temperature))
			}
		}
		return sum
	}

	lo := minE - 50*temperature
	hi := maxE + 50*temperature
	flo := occupancy(lo) - nElectrons
	fhi := occupancy(hi) - nElectrons
	if flo > 0 || fhi < 0 {
		return nil, 0, errs.BadConfigurationf("scf: fermi level not bracketed in [%g,%g] (occupancy %g..%g for %g electrons)", lo, hi, flo+nElectrons, fhi+nElectrons, nElectrons)
	}

	var mu float64
	for iter := 0; iter < 100; iter++ {
		mu = 0.5 * (lo + hi)
		f := occupancy(mu) - nElectrons
		if math.Abs(f) < 1e-10 {
			break
		}
		if f > 0 {
			hi = mu
		} else {
			lo = mu
		}
	}

	occ := make([][]float64, len(eigenvalues))
	for s, ch := range eigenvalues {
		occ[s] = make([]float64, len(ch))
		for i, e := range ch {
			occ[s][i] = degeneracy[s] / (1 + math.Exp((e-mu)/temperature))
		}
	}
	return occ, mu, nil
}
