package options

import (
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/realtime"
)

// RealTime bundles the tunables of a time-propagation run: the time
// step, the number of steps, and which electron stepper to use.
type RealTime struct {
	dt         *float64
	numSteps   *int
	propagator *realtime.Propagator
}

func (rt RealTime) Dt(dt float64) RealTime {
	rt.dt = &dt
	return rt
}

func (rt RealTime) DtValue() float64 {
	if rt.dt == nil {
		return 0.01
	}
	return *rt.dt
}

func (rt RealTime) NumSteps(n int) RealTime {
	rt.numSteps = &n
	return rt
}

func (rt RealTime) NumStepsValue() int {
	if rt.numSteps == nil {
		return 100
	}
	return *rt.numSteps
}

func (rt RealTime) ETRS() RealTime {
	p := realtime.ETRS
	rt.propagator = &p
	return rt
}

func (rt RealTime) CrankNicolson() RealTime {
	p := realtime.CrankNicolson
	rt.propagator = &p
	return rt
}

func (rt RealTime) PropagatorValue() realtime.Propagator {
	if rt.propagator == nil {
		return realtime.ETRS
	}
	return *rt.propagator
}

func propagatorKeyword(p realtime.Propagator) string {
	if p == realtime.CrankNicolson {
		return "crank-nicolson"
	}
	return "etrs"
}

func parsePropagatorKeyword(s string) (realtime.Propagator, error) {
	switch s {
	case "etrs":
		return realtime.ETRS, nil
	case "crank-nicolson":
		return realtime.CrankNicolson, nil
	default:
		return 0, errs.IOFailuref("options: invalid propagator keyword %q", s)
	}
}

// Save writes the bundle to dir, one file per set value.
func (rt RealTime) Save(dir string) error {
	if err := writeFloat(dir, "time_step", rt.dt); err != nil {
		return err
	}
	if err := writeInt(dir, "num_steps", rt.numSteps); err != nil {
		return err
	}
	if rt.propagator != nil {
		if err := writeKeyword(dir, "propagator", propagatorKeyword(*rt.propagator), true); err != nil {
			return err
		}
	}
	return nil
}

// LoadRealTime reads a bundle previously written by Save.
func LoadRealTime(dir string) (RealTime, error) {
	var rt RealTime
	var err error
	if rt.dt, err = readFloat(dir, "time_step"); err != nil {
		return RealTime{}, err
	}
	if rt.numSteps, err = readInt(dir, "num_steps"); err != nil {
		return RealTime{}, err
	}
	keyword, ok, err := readKeyword(dir, "propagator")
	if err != nil {
		return RealTime{}, err
	}
	if ok {
		p, err := parsePropagatorKeyword(keyword)
		if err != nil {
			return RealTime{}, err
		}
		rt.propagator = &p
	}
	return rt, nil
}

// ToConfig builds a realtime.Config from this bundle, filling in
// TaylorOrder and CrankIterations with their standard defaults
// since the persisted real_time options do not expose them.
func (rt RealTime) ToConfig() realtime.Config {
	return realtime.Config{
		Dt:              rt.DtValue(),
		NumSteps:        rt.NumStepsValue(),
		Propagator:      rt.PropagatorValue(),
		TaylorOrder:     4,
		CrankIterations: 4,
	}
}
