package options

import "math"

// SpinConfig mirrors the source's spin_config enumeration.
type SpinConfig int

const (
	Unpolarized SpinConfig = iota
	Polarized
	NonCollinear
)

func (s SpinConfig) String() string {
	switch s {
	case Polarized:
		return "polarized"
	case NonCollinear:
		return "non_collinear"
	default:
		return "unpolarized"
	}
}

func parseSpinConfig(s string) SpinConfig {
	switch s {
	case "polarized":
		return Polarized
	case "non_collinear":
		return NonCollinear
	default:
		return Unpolarized
	}
}

// Electrons bundles the tunables of the electronic subsystem: extra
// empty states, a fractional charge offset, the smearing temperature,
// the spin configuration, and the real-space grid spacing.
type Electrons struct {
	extraStates    *int
	extraElectrons *float64
	temperature    *float64
	spin           *SpinConfig
	spacing        *float64
	doubleGrid     *bool
	densityFactor  *float64
}

func (e Electrons) ExtraStates(n int) Electrons {
	e.extraStates = &n
	return e
}

func (e Electrons) ExtraStatesValue() int {
	if e.extraStates == nil {
		return 0
	}
	return *e.extraStates
}

func (e Electrons) ExtraElectrons(n float64) Electrons {
	e.extraElectrons = &n
	return e
}

func (e Electrons) ExtraElectronsValue() float64 {
	if e.extraElectrons == nil {
		return 0
	}
	return *e.extraElectrons
}

// Temperature sets the Fermi-Dirac smearing temperature in Hartree.
func (e Electrons) Temperature(t float64) Electrons {
	e.temperature = &t
	return e
}

func (e Electrons) TemperatureValue() float64 {
	if e.temperature == nil {
		return 0
	}
	return *e.temperature
}

func (e Electrons) SpinUnpolarized() Electrons  { return e.withSpin(Unpolarized) }
func (e Electrons) SpinPolarized() Electrons    { return e.withSpin(Polarized) }
func (e Electrons) SpinNonCollinear() Electrons { return e.withSpin(NonCollinear) }

func (e Electrons) withSpin(s SpinConfig) Electrons {
	e.spin = &s
	return e
}

func (e Electrons) SpinValue() SpinConfig {
	if e.spin == nil {
		return Unpolarized
	}
	return *e.spin
}

func (e Electrons) NumSpinComponentsValue() int {
	if e.SpinValue() == Polarized {
		return 2
	}
	return 1
}

// Cutoff derives a grid spacing from a plane-wave cutoff energy via
// spacing = pi*sqrt(0.5/ecut), as the source does.
func (e Electrons) Cutoff(ecut float64) Electrons {
	s := math.Pi * math.Sqrt(0.5/ecut)
	e.spacing = &s
	return e
}

func (e Electrons) Spacing(s float64) Electrons {
	e.spacing = &s
	return e
}

func (e Electrons) SpacingValue() (float64, bool) {
	if e.spacing == nil {
		return 0, false
	}
	return *e.spacing, true
}

func (e Electrons) DoubleGrid() Electrons {
	tr := true
	e.doubleGrid = &tr
	return e
}

func (e Electrons) DoubleGridValue() bool {
	if e.doubleGrid == nil {
		return false
	}
	return *e.doubleGrid
}

func (e Electrons) DensityFactor(f float64) Electrons {
	e.densityFactor = &f
	return e
}

func (e Electrons) DensityFactorValue() float64 {
	if e.densityFactor == nil {
		return 1.0
	}
	return *e.densityFactor
}

// Save writes the bundle to dir, one file per set value.
func (e Electrons) Save(dir string) error {
	if err := writeInt(dir, "extra_states", e.extraStates); err != nil {
		return err
	}
	if err := writeFloat(dir, "extra_electrons", e.extraElectrons); err != nil {
		return err
	}
	if err := writeFloat(dir, "temperature", e.temperature); err != nil {
		return err
	}
	if err := writeFloat(dir, "spacing", e.spacing); err != nil {
		return err
	}
	if err := writeBool(dir, "double_grid", e.doubleGrid); err != nil {
		return err
	}
	if err := writeFloat(dir, "density_factor", e.densityFactor); err != nil {
		return err
	}
	if e.spin != nil {
		if err := writeKeyword(dir, "spin", e.spin.String(), true); err != nil {
			return err
		}
	}
	return nil
}

// LoadElectrons reads a bundle previously written by Save.
func LoadElectrons(dir string) (Electrons, error) {
	var e Electrons
	var err error
	if e.extraStates, err = readInt(dir, "extra_states"); err != nil {
		return Electrons{}, err
	}
	if e.extraElectrons, err = readFloat(dir, "extra_electrons"); err != nil {
		return Electrons{}, err
	}
	if e.temperature, err = readFloat(dir, "temperature"); err != nil {
		return Electrons{}, err
	}
	if e.spacing, err = readFloat(dir, "spacing"); err != nil {
		return Electrons{}, err
	}
	if e.doubleGrid, err = readBool(dir, "double_grid"); err != nil {
		return Electrons{}, err
	}
	if e.densityFactor, err = readFloat(dir, "density_factor"); err != nil {
		return Electrons{}, err
	}
	spinKeyword, ok, err := readKeyword(dir, "spin")
	if err != nil {
		return Electrons{}, err
	}
	if ok {
		s := parseSpinConfig(spinKeyword)
		e.spin = &s
	}
	return e, nil
}
