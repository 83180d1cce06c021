package dynamics

import (
	"math"

	"github.com/san-kum/boxsim/internal/vec"
)

// MouseJointDef drags a point of Body2 toward Target with a soft spring.
// Body1 defaults to the world's ground body.
type MouseJointDef struct {
	JointDefBase
	Target       vec.Vec2
	MaxForce     float64
	FrequencyHz  float64
	DampingRatio float64
	// TimeStep is the step the spring coefficients are tuned for.
	TimeStep float64
}

// NewMouseJointDef returns a definition with a 5 Hz spring, damping ratio
// 0.7, tuned for 60 Hz stepping.
func NewMouseJointDef(body *Body, target vec.Vec2, maxForce float64) *MouseJointDef {
	return &MouseJointDef{
		JointDefBase: JointDefBase{Body2: body},
		Target:       target,
		MaxForce:     maxForce,
		FrequencyHz:  5,
		DampingRatio: 0.7,
		TimeStep:     1.0 / 60.0,
	}
}

// MouseJoint is a soft point-to-point constraint between a point of Body2
// and a world target.
//
//	C    = p - target
//	Cdot = v + cross(w, r)
//	J    = [I, skew(r)]
type MouseJoint struct {
	jointBase

	localAnchor vec.Vec2
	target      vec.Vec2
	impulse     vec.Vec2

	ptpMass  vec.Mat22
	C        vec.Vec2
	maxForce float64
	beta     float64
	gamma    float64
}

func newMouseJoint(d *MouseJointDef) *MouseJoint {
	j := &MouseJoint{jointBase: newJointBase(MouseJointType, &d.JointDefBase)}
	b := j.body2
	j.target = d.Target
	j.localAnchor = vec.MulT(b.r, d.Target.Sub(b.position))
	j.maxForce = d.MaxForce

	mass := b.mass
	omega := 2 * math.Pi * d.FrequencyHz
	damping := 2 * mass * d.DampingRatio * omega
	k := mass * omega * omega

	h := d.TimeStep
	if denom := damping + h*k; denom > vec.Epsilon {
		j.gamma = 1 / denom
		j.beta = h * k / denom
	}
	return j
}

// SetTarget moves the target and wakes the body.
func (j *MouseJoint) SetTarget(target vec.Vec2) {
	j.body2.WakeUp()
	j.target = target
}

func (j *MouseJoint) Target() vec.Vec2  { return j.target }
func (j *MouseJoint) MaxForce() float64 { return j.maxForce }
func (j *MouseJoint) Anchor1() vec.Vec2 { return j.target }
func (j *MouseJoint) Anchor2() vec.Vec2 { return j.body2.WorldPoint(j.localAnchor) }

func (j *MouseJoint) ReactionForce(invDt float64) vec.Vec2 { return j.impulse.Scale(invDt) }
func (j *MouseJoint) ReactionTorque(float64) float64       { return 0 }

func (j *MouseJoint) initVelocityConstraints(step TimeStep) {
	b := j.body2
	r := vec.Mul(b.r, j.localAnchor)

	// K = invMass*I + invI*[r.y², -r.x*r.y; -r.x*r.y, r.x²] + gamma*I
	invMass, invI := b.invMass, b.invI
	K := vec.Mat22{
		Col1: vec.V(invMass+invI*r.Y*r.Y+j.gamma, -invI*r.X*r.Y),
		Col2: vec.V(-invI*r.X*r.Y, invMass+invI*r.X*r.X+j.gamma),
	}
	j.ptpMass = K.Invert()

	j.C = b.position.Add(r).Sub(j.target)

	b.angularVelocity *= 0.98

	if step.WarmStarting {
		b.linearVelocity = b.linearVelocity.Add(j.impulse.Scale(invMass))
		b.angularVelocity += invI * vec.Cross(r, j.impulse)
	} else {
		j.impulse = vec.Vec2{}
	}
}

func (j *MouseJoint) solveVelocityConstraints(step TimeStep) {
	b := j.body2
	r := vec.Mul(b.r, j.localAnchor)

	Cdot := b.linearVelocity.Add(vec.CrossSV(b.angularVelocity, r))
	rhs := Cdot.Add(j.C.Scale(j.beta * step.InvDt)).Add(j.impulse.Scale(j.gamma))
	impulse := vec.Mul(j.ptpMass, rhs).Neg()

	old := j.impulse
	j.impulse = j.impulse.Add(impulse)
	if length := j.impulse.Length(); length > step.Dt*j.maxForce {
		j.impulse = j.impulse.Scale(step.Dt * j.maxForce / length)
	}
	impulse = j.impulse.Sub(old)

	b.linearVelocity = b.linearVelocity.Add(impulse.Scale(b.invMass))
	b.angularVelocity += b.invI * vec.Cross(r, impulse)
}

// The spring has no position pass.
func (j *MouseJoint) solvePositionConstraints() bool { return true }
