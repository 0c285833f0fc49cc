package realtime

import "github.com/qsim/rtdft/ion"

// IonSubPropagator is the small interface for moving ions alongside
// the electrons: NeedsForce tells Propagate
// whether it is worth computing Hellmann-Feynman forces this step,
// PropagatePositions/PropagateVelocities advance the nuclear degrees of
// freedom by dt.
type IonSubPropagator interface {
	NeedsForce() bool
	PropagatePositions(dt float64, sys *ion.System, forces [][3]float64)
	PropagateVelocities(dt float64, sys *ion.System, forces [][3]float64)
}

// FixedIonPropagator is the no-op variant: ions are clamped at their
// starting positions for the whole run, the default for a purely
// electronic real-time simulation.
type FixedIonPropagator struct{}

func (FixedIonPropagator) NeedsForce() bool                                       { return false }
func (FixedIonPropagator) PropagatePositions(float64, *ion.System, [][3]float64)  {}
func (FixedIonPropagator) PropagateVelocities(float64, *ion.System, [][3]float64) {}

// ImpulsiveIonPropagator never needs a force and never changes an
// atom's velocity on its own: it is meant for runs where the initial
// velocity already carries a one-time kick (applied by the caller
// before Propagate starts), after which the ions free-stream at that
// constant velocity.
type ImpulsiveIonPropagator struct{}

func (ImpulsiveIonPropagator) NeedsForce() bool { return false }

func (ImpulsiveIonPropagator) PropagatePositions(dt float64, sys *ion.System, _ [][3]float64) {
	for i := range sys.Atoms {
		for a := 0; a < 3; a++ {
			sys.Atoms[i].Pos[a] += sys.Atoms[i].Vel[a] * dt
		}
	}
}

func (ImpulsiveIonPropagator) PropagateVelocities(float64, *ion.System, [][3]float64) {}

// VerletIonPropagator moves ions by velocity Verlet: positions advance
// using the current velocity and the force/mass at the start of the
// step, velocities advance by the average of the step's starting and
// ending accelerations.
type VerletIonPropagator struct {
	prevForces [][3]float64
}

func (v *VerletIonPropagator) NeedsForce() bool { return true }

func (v *VerletIonPropagator) PropagatePositions(dt float64, sys *ion.System, forces [][3]float64) {
	v.prevForces = forces
	for i := range sys.Atoms {
		m := sys.Atoms[i].Mass
		if m <= 0 {
			continue
		}
		for a := 0; a < 3; a++ {
			accel := forces[i][a] / m
			sys.Atoms[i].Pos[a] += sys.Atoms[i].Vel[a]*dt + 0.5*accel*dt*dt
		}
	}
}

func (v *VerletIonPropagator) PropagateVelocities(dt float64, sys *ion.System, forces [][3]float64) {
	for i := range sys.Atoms {
		m := sys.Atoms[i].Mass
		if m <= 0 {
			continue
		}
		for a := 0; a < 3; a++ {
			oldAccel := v.prevForces[i][a] / m
			newAccel := forces[i][a] / m
			sys.Atoms[i].Vel[a] += 0.5 * (oldAccel + newAccel) * dt
		}
	}
}
