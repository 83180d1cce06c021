package dynamics

import (
	"math"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// DistanceJointDef keeps two anchor points at their initial distance.
// Anchors are given in world coordinates.
type DistanceJointDef struct {
	JointDefBase
	Anchor1 vec.Vec2
	Anchor2 vec.Vec2
}

// DistanceJoint keeps |anchor2 - anchor1| equal to its rest length.
//
//	C    = |p2 - p1| - L
//	u    = (p2 - p1) / |p2 - p1|
//	Cdot = dot(u, v2 + cross(w2, r2) - v1 - cross(w1, r1))
//	J    = [-u, -cross(r1, u), u, cross(r2, u)]
type DistanceJoint struct {
	jointBase

	localAnchor1 vec.Vec2
	localAnchor2 vec.Vec2
	u            vec.Vec2
	impulse      float64
	mass         float64
	length       float64
}

func newDistanceJoint(d *DistanceJointDef) *DistanceJoint {
	j := &DistanceJoint{jointBase: newJointBase(DistanceJointType, &d.JointDefBase)}
	b1, b2 := j.body1, j.body2
	j.localAnchor1 = vec.MulT(b1.r, d.Anchor1.Sub(b1.position))
	j.localAnchor2 = vec.MulT(b2.r, d.Anchor2.Sub(b2.position))
	j.length = d.Anchor2.Sub(d.Anchor1).Length()
	return j
}

// Length is the rest length.
func (j *DistanceJoint) Length() float64 { return j.length }

func (j *DistanceJoint) Anchor1() vec.Vec2 { return j.body1.WorldPoint(j.localAnchor1) }
func (j *DistanceJoint) Anchor2() vec.Vec2 { return j.body2.WorldPoint(j.localAnchor2) }

func (j *DistanceJoint) ReactionForce(invDt float64) vec.Vec2 {
	return j.u.Scale(j.impulse * invDt)
}

func (j *DistanceJoint) ReactionTorque(float64) float64 { return 0 }

func (j *DistanceJoint) initVelocityConstraints(step TimeStep) {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)
	j.u = b2.position.Add(r2).Sub(b1.position).Sub(r1)

	// Handle singularity.
	length := j.u.Length()
	if length > settings.LinearSlop {
		j.u = j.u.Scale(1 / length)
	} else {
		j.u = vec.Vec2{}
	}

	cr1u := vec.Cross(r1, j.u)
	cr2u := vec.Cross(r2, j.u)
	k := b1.invMass + b1.invI*cr1u*cr1u + b2.invMass + b2.invI*cr2u*cr2u
	assert(k > vec.Epsilon, "distance joint mass is singular")
	j.mass = 1 / k

	if step.WarmStarting {
		P := j.u.Scale(j.impulse)
		applyPointImpulse(b1, b2, r1, r2, P)
	} else {
		j.impulse = 0
	}
}

func (j *DistanceJoint) solveVelocityConstraints(TimeStep) {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)

	Cdot := j.u.Dot(relativeVelocity(b1, b2, r1, r2))
	impulse := -j.mass * Cdot
	j.impulse += impulse

	applyPointImpulse(b1, b2, r1, r2, j.u.Scale(impulse))
}

func (j *DistanceJoint) solvePositionConstraints() bool {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)
	d := b2.position.Add(r2).Sub(b1.position).Sub(r1)

	u, length := d.Normalize()
	C := vec.Clamp(length-j.length, -settings.MaxLinearCorrection, settings.MaxLinearCorrection)

	impulse := -j.mass * C
	j.u = u

	applyPointPosition(b1, b2, r1, r2, u.Scale(impulse))

	return math.Abs(C) < settings.LinearSlop
}

// applyPointImpulse applies -P at r1 on b1 and P at r2 on b2.
func applyPointImpulse(b1, b2 *Body, r1, r2, P vec.Vec2) {
	b1.linearVelocity = b1.linearVelocity.Sub(P.Scale(b1.invMass))
	b1.angularVelocity -= b1.invI * vec.Cross(r1, P)
	b2.linearVelocity = b2.linearVelocity.Add(P.Scale(b2.invMass))
	b2.angularVelocity += b2.invI * vec.Cross(r2, P)
}

// applyPointPosition is applyPointImpulse for positions.
func applyPointPosition(b1, b2 *Body, r1, r2, P vec.Vec2) {
	b1.position = b1.position.Sub(P.Scale(b1.invMass))
	b1.setRotation(b1.rotation - b1.invI*vec.Cross(r1, P))
	b2.position = b2.position.Add(P.Scale(b2.invMass))
	b2.setRotation(b2.rotation + b2.invI*vec.Cross(r2, P))
}
