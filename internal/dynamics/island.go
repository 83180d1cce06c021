package dynamics

import (
	"math"

	"github.com/go-logr/logr"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// island is a set of bodies connected through touching contacts and joints.
// Its slices are reused from one island to the next.
type island struct {
	bodies   []*Body
	contacts []*Contact
	joints   []Joint

	gravity            vec.Vec2
	positionIterations int
	scratch            *[]contactConstraint
	log                logr.Logger
}

func (is *island) clear() {
	clear(is.bodies)
	clear(is.contacts)
	clear(is.joints)
	is.bodies = is.bodies[:0]
	is.contacts = is.contacts[:0]
	is.joints = is.joints[:0]
}

func (is *island) addBody(b *Body)       { is.bodies = append(is.bodies, b) }
func (is *island) addContact(c *Contact) { is.contacts = append(is.contacts, c) }
func (is *island) addJoint(j Joint)      { is.joints = append(is.joints, j) }

// integrate applies forces, solves velocity constraints and moves every
// body of the island by one step.
func (is *island) integrate(step TimeStep) {
	g := is.gravity
	for _, b := range is.bodies {
		if b.invMass == 0 {
			continue
		}

		b.linearVelocity = b.linearVelocity.Add(g.Add(b.force.Scale(b.invMass)).Scale(step.Dt))
		b.angularVelocity += step.Dt * b.invI * b.torque

		b.force.X, b.force.Y = 0, 0
		b.torque = 0

		b.linearVelocity = b.linearVelocity.Scale(b.linearDamping)
		b.angularVelocity *= b.angularDamping
	}

	solver := newContactSolver(step, is.contacts, is.scratch)

	solver.initVelocityConstraints()
	for _, j := range is.joints {
		j.initVelocityConstraints(step)
	}

	for i := 0; i < step.Iterations; i++ {
		solver.solveVelocityConstraints()
		for _, j := range is.joints {
			j.solveVelocityConstraints(step)
		}
	}

	solver.finalizeVelocityConstraints()

	for _, b := range is.bodies {
		if b.invMass == 0 {
			continue
		}

		b.position0 = b.position
		b.rotation0 = b.rotation

		b.position = b.position.Add(b.linearVelocity.Scale(step.Dt))
		b.setRotation(b.rotation + step.Dt*b.angularVelocity)

		b.synchronizeShapes()
	}
}

// solvePositionConstraints runs position passes until every constraint is
// within slop or the iteration budget runs out.
func (is *island) solvePositionConstraints(step TimeStep) {
	solver := newContactSolver(step, is.contacts, is.scratch)

	for _, j := range is.joints {
		j.initPositionConstraints()
	}

	for is.positionIterations = 0; is.positionIterations < step.Iterations; is.positionIterations++ {
		contactsOK := solver.solvePositionConstraints()

		jointsOK := true
		for _, j := range is.joints {
			ok := j.solvePositionConstraints()
			jointsOK = jointsOK && ok
		}

		if contactsOK && jointsOK {
			break
		}
	}
}

// updateSleep puts the whole island to sleep once its slowest body has
// rested for TimeToSleep.
func (is *island) updateSleep(step TimeStep) {
	minSleepTime := math.MaxFloat64

	const linTolSqr = settings.LinearSleepTolerance * settings.LinearSleepTolerance
	const angTolSqr = settings.AngularSleepTolerance * settings.AngularSleepTolerance

	for _, b := range is.bodies {
		if b.invMass == 0 {
			continue
		}

		if b.flags&flagAllowSleep == 0 ||
			b.angularVelocity*b.angularVelocity > angTolSqr ||
			b.linearVelocity.Dot(b.linearVelocity) > linTolSqr {
			b.sleepTime = 0
			minSleepTime = 0
		} else {
			b.sleepTime += step.Dt
			minSleepTime = math.Min(minSleepTime, b.sleepTime)
		}
	}

	if minSleepTime >= settings.TimeToSleep {
		for _, b := range is.bodies {
			if b.invMass == 0 {
				continue
			}
			b.flags |= flagSleep
			b.linearVelocity = vec.Vec2{}
			b.angularVelocity = 0
		}
		is.log.V(1).Info("island asleep", "bodies", len(is.bodies), "contacts", len(is.contacts), "joints", len(is.joints))
	}
}
