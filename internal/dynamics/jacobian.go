package dynamics

import "github.com/san-kum/boxsim/internal/vec"

// Jacobian is a 1x6 constraint row over two bodies.
type Jacobian struct {
	Linear1  vec.Vec2
	Angular1 float64
	Linear2  vec.Vec2
	Angular2 float64
}

func (j *Jacobian) SetZero() {
	*j = Jacobian{}
}

func (j *Jacobian) Set(x1 vec.Vec2, a1 float64, x2 vec.Vec2, a2 float64) {
	j.Linear1, j.Angular1 = x1, a1
	j.Linear2, j.Angular2 = x2, a2
}

// Compute returns J·v for the given body velocities.
func (j Jacobian) Compute(x1 vec.Vec2, a1 float64, x2 vec.Vec2, a2 float64) float64 {
	return j.Linear1.Dot(x1) + j.Angular1*a1 + j.Linear2.Dot(x2) + j.Angular2*a2
}

// computeFor evaluates J·v for the current velocities of b1 and b2.
func (j Jacobian) computeFor(b1, b2 *Body) float64 {
	return j.Compute(b1.linearVelocity, b1.angularVelocity, b2.linearVelocity, b2.angularVelocity)
}

// applyImpulse adds impulse·J scaled by the inverse masses to the bodies'
// velocities.
func (j Jacobian) applyImpulse(b1, b2 *Body, impulse float64) {
	b1.linearVelocity = b1.linearVelocity.Add(j.Linear1.Scale(b1.invMass * impulse))
	b1.angularVelocity += b1.invI * impulse * j.Angular1
	b2.linearVelocity = b2.linearVelocity.Add(j.Linear2.Scale(b2.invMass * impulse))
	b2.angularVelocity += b2.invI * impulse * j.Angular2
}

// applyPosition is applyImpulse for positions.
func (j Jacobian) applyPosition(b1, b2 *Body, impulse float64) {
	b1.position = b1.position.Add(j.Linear1.Scale(b1.invMass * impulse))
	b1.setRotation(b1.rotation + b1.invI*impulse*j.Angular1)
	b2.position = b2.position.Add(j.Linear2.Scale(b2.invMass * impulse))
	b2.setRotation(b2.rotation + b2.invI*impulse*j.Angular2)
}
