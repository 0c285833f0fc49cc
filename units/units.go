// Package units converts external-facing quantities (eV, angstrom,
// femtosecond, kelvin) to the atomic units (Hartree, Bohr, a.u. of time)
// that every persisted and internal quantity of the engine uses.
package units

// Conversion factors, CODATA-consistent to the precision the engine
// needs. Atomic units are the base; multiply an external value by its
// factor to get atomic units, divide to go back.
const (
	// BohrPerAngstrom converts angstrom to Bohr.
	BohrPerAngstrom = 1.8897261339212517

	// HartreePerEV converts electron-volts to Hartree.
	HartreePerEV = 1.0 / 27.211386245988

	// AuTimePerFS converts femtoseconds to atomic units of time.
	AuTimePerFS = 1.0 / 0.024188843265857

	// HartreePerKelvin converts kelvin to Hartree (k_B in a.u.).
	HartreePerKelvin = 3.1668115634556e-6
)

// Length unit keywords accepted by the persisted option directory and
// the command surface.
type Length int

const (
	Bohr Length = iota
	Angstrom
)

// ToBohr converts a length value of the given unit to Bohr.
func ToBohr(v float64, u Length) float64 {
	switch u {
	case Angstrom:
		return v * BohrPerAngstrom
	default:
		return v
	}
}

// Energy unit keywords.
type Energy int

const (
	Hartree Energy = iota
	EV
)

// ToHartree converts an energy value of the given unit to Hartree.
func ToHartree(v float64, u Energy) float64 {
	switch u {
	case EV:
		return v * HartreePerEV
	default:
		return v
	}
}

// Time unit keywords.
type Time int

const (
	AtomicTime Time = iota
	Femtosecond
)

// ToAtomicTime converts a time value of the given unit to a.u. of time.
func ToAtomicTime(v float64, u Time) float64 {
	switch u {
	case Femtosecond:
		return v * AuTimePerFS
	default:
		return v
	}
}

// Temperature unit keywords.
type Temperature int

const (
	HartreeTemp Temperature = iota
	Kelvin
)

// ToHartreeTemperature converts a temperature value to Hartree (k_B*T).
func ToHartreeTemperature(v float64, u Temperature) float64 {
	switch u {
	case Kelvin:
		return v * HartreePerKelvin
	default:
		return v
	}
}

// ParseLengthUnit parses a lowercase keyword into a Length unit.
func ParseLengthUnit(s string) (Length, bool) {
	switch s {
	case "bohr", "b", "au":
		return Bohr, true
	case "angstrom", "ang", "a":
		return Angstrom, true
	}
	return 0, false
}

// ParseEnergyUnit parses a lowercase keyword into an Energy unit.
func ParseEnergyUnit(s string) (Energy, bool) {
	switch s {
	case "hartree", "ha", "au":
		return Hartree, true
	case "ev":
		return EV, true
	}
	return 0, false
}

// ParseTemperatureUnit parses a lowercase keyword into a Temperature unit.
func ParseTemperatureUnit(s string) (Temperature, bool) {
	switch s {
	case "hartree", "ha", "au":
		return HartreeTemp, true
	case "kelvin", "k":
		return Kelvin, true
	}
	return 0, false
}

// ParseTimeUnit parses a lowercase keyword into a Time unit.
func ParseTimeUnit(s string) (Time, bool) {
	switch s {
	case "au", "atomic":
		return AtomicTime, true
	case "fs", "femtosecond":
		return Femtosecond, true
	}
	return 0, false
}
