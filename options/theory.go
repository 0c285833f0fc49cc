package options

import "github.com/qsim/rtdft/errs"

func errNoExchangeCoefficient(name string) error {
	return errs.BadConfigurationf("options: exchange coefficient is not known in closed form for functional %q", name)
}

// Theory bundles the choice of interaction: whether the Hartree
// potential is included, which exchange and correlation functionals
// are active, and an optional induced vector potential coefficient.
// Every field is optional; a field left unset falls back to its
// default the same way the source's std::optional members do.
type Theory struct {
	hartreePotential *bool
	exchange         string
	hasExchange      bool
	correlation      string
	hasCorrelation   bool
	alpha            *float64
}

// NonInteracting turns off the Hartree potential and both functionals.
func (t Theory) NonInteracting() Theory {
	f := false
	t.hartreePotential = &f
	t.exchange, t.hasExchange = "none", true
	t.correlation, t.hasCorrelation = "none", true
	return t
}

// DFT turns the Hartree potential on, leaving the functional choice
// at its default (PBE/PBE).
func (t Theory) DFT() Theory {
	tr := true
	t.hartreePotential = &tr
	return t
}

// LDA selects the local-density approximation.
func (t Theory) LDA() Theory {
	tr := true
	t.hartreePotential = &tr
	t.exchange, t.hasExchange = "lda", true
	t.correlation, t.hasCorrelation = "lda_pz", true
	return t
}

// Hartree turns off both functionals but keeps the Hartree potential.
func (t Theory) Hartree() Theory {
	tr := true
	t.hartreePotential = &tr
	t.exchange, t.hasExchange = "none", true
	t.correlation, t.hasCorrelation = "none", true
	return t
}

// HartreeFock enables exact exchange with coefficient 1 and no
// correlation functional.
func (t Theory) HartreeFock() Theory {
	tr := true
	t.hartreePotential = &tr
	t.exchange, t.hasExchange = "hartree_fock", true
	t.correlation, t.hasCorrelation = "none", true
	return t
}

// PBE selects the PBE exchange and correlation functionals.
func (t Theory) PBE() Theory {
	tr := true
	t.hartreePotential = &tr
	t.exchange, t.hasExchange = "pbe", true
	t.correlation, t.hasCorrelation = "pbe", true
	return t
}

// RPBE selects the RPBE exchange functional with PBE correlation.
func (t Theory) RPBE() Theory {
	tr := true
	t.hartreePotential = &tr
	t.exchange, t.hasExchange = "rpbe", true
	t.correlation, t.hasCorrelation = "pbe", true
	return t
}

// PBE0 selects the PBE0 hybrid with no separate correlation term.
func (t Theory) PBE0() Theory {
	tr := true
	t.hartreePotential = &tr
	t.exchange, t.hasExchange = "pbe0", true
	t.correlation, t.hasCorrelation = "none", true
	return t
}

// B3LYP selects the B3LYP hybrid with no separate correlation term.
func (t Theory) B3LYP() Theory {
	tr := true
	t.hartreePotential = &tr
	t.exchange, t.hasExchange = "b3lyp", true
	t.correlation, t.hasCorrelation = "none", true
	return t
}

// InducedVectorPotential enables the induced vector potential term
// with coefficient alpha (default -4*pi as in the source).
func (t Theory) InducedVectorPotential(alpha float64) Theory {
	t.alpha = &alpha
	return t
}

func (t Theory) HartreePotentialValue() bool {
	if t.hartreePotential == nil {
		return true
	}
	return *t.hartreePotential
}

func (t Theory) ExchangeValue() string {
	if !t.hasExchange {
		return "pbe"
	}
	return t.exchange
}

func (t Theory) CorrelationValue() string {
	if !t.hasCorrelation {
		return "pbe"
	}
	return t.correlation
}

// ExchangeCoefficient returns the exact-exchange mixing coefficient
// for the two functionals that have one defined in closed form; any
// other functional is not this bundle's concern to mix and returns an
// error.
func (t Theory) ExchangeCoefficient() (float64, error) {
	switch t.ExchangeValue() {
	case "hartree_fock":
		return 1.0, nil
	case "none":
		return 0.0, nil
	default:
		return 0, errNoExchangeCoefficient(t.ExchangeValue())
	}
}

func (t Theory) SelfConsistent() bool {
	return t.HartreePotentialValue() || t.ExchangeValue() != "none" || t.CorrelationValue() != "none"
}

func (t Theory) HasInducedVectorPotential() bool { return t.alpha != nil }

func (t Theory) AlphaValue() float64 {
	if t.alpha == nil {
		return 0
	}
	return *t.alpha
}

// Save writes the bundle to dir, one file per set value.
func (t Theory) Save(dir string) error {
	if err := writeBool(dir, "hartree_potential", t.hartreePotential); err != nil {
		return err
	}
	if err := writeKeyword(dir, "exchange", t.exchange, t.hasExchange); err != nil {
		return err
	}
	if err := writeKeyword(dir, "correlation", t.correlation, t.hasCorrelation); err != nil {
		return err
	}
	return writeFloat(dir, "alpha", t.alpha)
}

// LoadTheory reads a bundle previously written by Save; missing files
// leave the corresponding field unset (default behavior at read time).
func LoadTheory(dir string) (Theory, error) {
	var t Theory
	var err error
	if t.hartreePotential, err = readBool(dir, "hartree_potential"); err != nil {
		return Theory{}, err
	}
	if t.exchange, t.hasExchange, err = readKeyword(dir, "exchange"); err != nil {
		return Theory{}, err
	}
	if t.correlation, t.hasCorrelation, err = readKeyword(dir, "correlation"); err != nil {
		return Theory{}, err
	}
	if t.alpha, err = readFloat(dir, "alpha"); err != nil {
		return Theory{}, err
	}
	return t, nil
}
