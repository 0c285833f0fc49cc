// Package perturbation implements the closed set of external drives the
// real-time propagator and Hamiltonian assembly can apply: no drive,
// an instantaneous phase kick, a laser vector potential, and a
// spatially modulated IXS probe.
package perturbation

import (
	"math"
	"math/cmplx"

	"github.com/qsim/rtdft/field"
)

// Perturbation exposes a capability set; callers only invoke the
// methods whose capability flag is true.
type Perturbation interface {
	HasUniformElectricField() bool
	HasVectorPotential() bool
	HasPotential() bool

	// VectorPotential returns the time-dependent canonical-momentum
	// shift A(t), valid only when HasVectorPotential is true.
	VectorPotential(t float64) [3]float64

	// AddPotential adds this perturbation's scalar potential at time t
	// into v in place, valid only when HasPotential is true.
	AddPotential(t float64, v *field.Field)
}

// None is the identity perturbation: every capability is false.
type None struct{}

func (None) HasUniformElectricField() bool      { return false }
func (None) HasVectorPotential() bool           { return false }
func (None) HasPotential() bool                 { return false }
func (None) VectorPotential(float64) [3]float64 { return [3]float64{} }
func (None) AddPotential(float64, *field.Field) {}

// Kick is an instantaneous phase twist exp(i*k.r), applied once at
// t==0 by multiplying every orbital by the phase (it does not act
// through the Hamiltonian potential, so every capability is false: the
// caller applies Kick.Apply directly to the initial orbitals).
type Kick struct {
	K [3]float64
}

func (Kick) HasUniformElectricField() bool      { return false }
func (Kick) HasVectorPotential() bool           { return false }
func (Kick) HasPotential() bool                 { return false }
func (Kick) VectorPotential(float64) [3]float64 { return [3]float64{} }
func (Kick) AddPotential(float64, *field.Field) {}

// Apply multiplies every point of phi by exp(i*k.r), the one-time
// instantaneous kick used to seed a linear-response real-time run.
func (k Kick) Apply(phi *field.OrbitalSet) {
	n := phi.Grid.Size()
	for idx := 0; idx < n; idx++ {
		ix, iy, iz := phi.Grid.Coords(idx)
		r := phi.Grid.CartesianAt(ix, iy, iz)
		phase := k.K[0]*r[0] + k.K[1]*r[1] + k.K[2]*r[2]
		factor := cmplx.Exp(complex(0, phase))
		for li := 0; li < phi.LocalCount; li++ {
			i := li*n + idx
			phi.Data[i] *= factor
		}
	}
}

// Envelope is the temporal shape applied to a Laser's vector potential.
type Envelope int

const (
	EnvelopeSin Envelope = iota
	EnvelopeCos
	EnvelopeGaussian
)

// Laser is a time-dependent uniform vector potential with a
// configurable envelope, entering the kinetic operator via the
// canonical-momentum shift p -> p + A(t)/c (atomic units, c absorbed
// into Amplitude).
type Laser struct {
	Amplitude [3]float64
	Frequency float64
	T0        float64
	Width     float64
	Shape     Envelope
}

func (Laser) HasUniformElectricField() bool { return true }
func (Laser) HasVectorPotential() bool      { return true }
func (Laser) HasPotential() bool            { return false }

func (l Laser) VectorPotential(t float64) [3]float64 {
	env := l.envelope(t)
	var out [3]float64
	for i := range out {
		out[i] = l.Amplitude[i] * env * math.Cos(l.Frequency*(t-l.T0))
	}
	return out
}

func (l Laser) envelope(t float64) float64 {
	switch l.Shape {
	case EnvelopeSin:
		if l.Width <= 0 {
			return 1
		}
		phase := math.Pi * (t - l.T0) / l.Width
		if phase < 0 || phase > math.Pi {
			return 0
		}
		return math.Sin(phase)
	case EnvelopeCos:
		if l.Width <= 0 {
			return 1
		}
		phase := math.Pi * (t - l.T0) / l.Width
		if phase < -math.Pi/2 || phase > math.Pi/2 {
			return 0
		}
		return math.Cos(phase)
	default: // EnvelopeGaussian
		if l.Width <= 0 {
			return 1
		}
		x := (t - l.T0) / l.Width
		return math.Exp(-0.5 * x * x)
	}
}

func (Laser) AddPotential(float64, *field.Field) {}

// IXS is the spatially modulated inelastic-x-ray-scattering probe
// potential A/sqrt(2*pi)/tau * exp(((t-t0)/(2*tau))^2) * exp(i*q.r). The
// exponent's sign matches the literal formula rather than the more
// common decaying exp(-(...)^2) Gaussian window; kept as written rather
// than silently corrected.
type IXS struct {
	Amplitude float64
	Q         [3]float64
	TDelay    float64
	TWidth    float64
}

func (IXS) HasUniformElectricField() bool      { return false }
func (IXS) HasVectorPotential() bool           { return false }
func (IXS) HasPotential() bool                 { return true }
func (IXS) VectorPotential(float64) [3]float64 { return [3]float64{} }

func (p IXS) AddPotential(t float64, v *field.Field) {
	n := v.Grid.Size()
	prefactor := p.Amplitude / math.Sqrt(2*math.Pi) / p.TWidth
	arg := (t - p.TDelay) / (2 * p.TWidth)
	amp := prefactor * math.Exp(arg*arg)
	for idx := 0; idx < n; idx++ {
		ix, iy, iz := v.Grid.Coords(idx)
		r := v.Grid.CartesianAt(ix, iy, iz)
		phase := p.Q[0]*r[0] + p.Q[1]*r[1] + p.Q[2]*r[2]
		v.Data[idx] += complex(amp, 0) * cmplx.Exp(complex(0, phase))
	}
}
