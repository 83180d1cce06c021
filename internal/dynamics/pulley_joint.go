package dynamics

import (
	"math"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// PulleyJointDef hangs two bodies from fixed ground points. A MaxLength of
// zero uses the largest length the rope allows.
type PulleyJointDef struct {
	JointDefBase
	GroundPoint1 vec.Vec2
	GroundPoint2 vec.Vec2
	Anchor1      vec.Vec2
	Anchor2      vec.Vec2
	MaxLength1   float64
	MaxLength2   float64
	Ratio        float64
}

// NewPulleyJointDef returns a pulley with the given ratio. The connected
// bodies keep colliding with each other.
func NewPulleyJointDef(b1, b2 *Body, ground1, ground2, anchor1, anchor2 vec.Vec2, ratio float64) *PulleyJointDef {
	return &PulleyJointDef{
		JointDefBase: JointDefBase{Body1: b1, Body2: b2, CollideConnected: true},
		GroundPoint1: ground1,
		GroundPoint2: ground2,
		Anchor1:      anchor1,
		Anchor2:      anchor2,
		Ratio:        ratio,
	}
}

// PulleyJoint keeps length1 + ratio*length2 constant, where each length
// runs from a ground point to an anchor. Each side also has a maximum
// length.
//
//	C    = constant - |p1 - s1| - ratio*|p2 - s2|
//	Cdot = -dot(u1, v1 + cross(w1, r1)) - ratio*dot(u2, v2 + cross(w2, r2))
type PulleyJoint struct {
	jointBase

	ground        *Body
	groundAnchor1 vec.Vec2
	groundAnchor2 vec.Vec2
	localAnchor1  vec.Vec2
	localAnchor2  vec.Vec2

	u1, u2 vec.Vec2

	constant   float64
	ratio      float64
	maxLength1 float64
	maxLength2 float64

	pulleyMass float64
	limitMass1 float64
	limitMass2 float64

	pulleyImpulse float64
	limitImpulse1 float64
	limitImpulse2 float64

	limitPositionImpulse1 float64
	limitPositionImpulse2 float64

	limitState1 LimitState
	limitState2 LimitState
}

func newPulleyJoint(d *PulleyJointDef, ground *Body) *PulleyJoint {
	j := &PulleyJoint{jointBase: newJointBase(PulleyJointType, &d.JointDefBase)}
	b1, b2 := j.body1, j.body2

	j.ground = ground
	j.groundAnchor1 = d.GroundPoint1.Sub(ground.position)
	j.groundAnchor2 = d.GroundPoint2.Sub(ground.position)
	j.localAnchor1 = vec.MulT(b1.r, d.Anchor1.Sub(b1.position))
	j.localAnchor2 = vec.MulT(b2.r, d.Anchor2.Sub(b2.position))
	j.ratio = d.Ratio

	length1 := math.Max(0.5*settings.MinPulleyLength, d.GroundPoint1.Sub(d.Anchor1).Length())
	length2 := math.Max(0.5*settings.MinPulleyLength, d.GroundPoint2.Sub(d.Anchor2).Length())
	j.constant = length1 + j.ratio*length2

	j.maxLength1 = j.constant - j.ratio*settings.MinPulleyLength
	if d.MaxLength1 > 0 {
		j.maxLength1 = math.Min(d.MaxLength1, j.maxLength1)
	}
	j.maxLength2 = (j.constant - settings.MinPulleyLength) / j.ratio
	if d.MaxLength2 > 0 {
		j.maxLength2 = math.Min(d.MaxLength2, j.maxLength2)
	}
	return j
}

func (j *PulleyJoint) Anchor1() vec.Vec2 { return j.body1.WorldPoint(j.localAnchor1) }
func (j *PulleyJoint) Anchor2() vec.Vec2 { return j.body2.WorldPoint(j.localAnchor2) }

// GroundPoint1 is the world point body1 hangs from.
func (j *PulleyJoint) GroundPoint1() vec.Vec2 { return j.ground.position.Add(j.groundAnchor1) }

// GroundPoint2 is the world point body2 hangs from.
func (j *PulleyJoint) GroundPoint2() vec.Vec2 { return j.ground.position.Add(j.groundAnchor2) }

func (j *PulleyJoint) Length1() float64 { return j.Anchor1().Sub(j.GroundPoint1()).Length() }
func (j *PulleyJoint) Length2() float64 { return j.Anchor2().Sub(j.GroundPoint2()).Length() }
func (j *PulleyJoint) Ratio() float64   { return j.ratio }

// Constant is length1 + ratio*length2 at creation.
func (j *PulleyJoint) Constant() float64 { return j.constant }

func (j *PulleyJoint) ReactionForce(invDt float64) vec.Vec2 {
	return j.u2.Scale(j.pulleyImpulse * invDt)
}

func (j *PulleyJoint) ReactionTorque(float64) float64 { return 0 }

// ropeAxis returns the unit vector from ground point s to anchor p and the
// rope length. Very short ropes get a zero axis.
func ropeAxis(p, s vec.Vec2) (vec.Vec2, float64) {
	u := p.Sub(s)
	length := u.Length()
	if length > settings.LinearSlop {
		return u.Scale(1 / length), length
	}
	return vec.Vec2{}, length
}

func (j *PulleyJoint) initVelocityConstraints(step TimeStep) {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)

	var length1, length2 float64
	j.u1, length1 = ropeAxis(b1.position.Add(r1), j.GroundPoint1())
	j.u2, length2 = ropeAxis(b2.position.Add(r2), j.GroundPoint2())

	if length1 < j.maxLength1 {
		j.limitState1 = LimitInactive
		j.limitImpulse1 = 0
	} else {
		j.limitState1 = LimitAtUpper
		j.limitPositionImpulse1 = 0
	}
	if length2 < j.maxLength2 {
		j.limitState2 = LimitInactive
		j.limitImpulse2 = 0
	} else {
		j.limitState2 = LimitAtUpper
		j.limitPositionImpulse2 = 0
	}

	cr1u1 := vec.Cross(r1, j.u1)
	cr2u2 := vec.Cross(r2, j.u2)

	j.limitMass1 = b1.invMass + b1.invI*cr1u1*cr1u1
	j.limitMass2 = b2.invMass + b2.invI*cr2u2*cr2u2
	j.pulleyMass = j.limitMass1 + j.ratio*j.ratio*j.limitMass2
	assert(j.pulleyMass > vec.Epsilon, "pulley mass is singular")
	j.limitMass1 = invertMass(j.limitMass1)
	j.limitMass2 = invertMass(j.limitMass2)
	j.pulleyMass = 1 / j.pulleyMass

	if step.WarmStarting {
		P1 := j.u1.Scale(-(j.pulleyImpulse + j.limitImpulse1))
		P2 := j.u2.Scale(-j.ratio*j.pulleyImpulse - j.limitImpulse2)
		b1.linearVelocity = b1.linearVelocity.Add(P1.Scale(b1.invMass))
		b1.angularVelocity += b1.invI * vec.Cross(r1, P1)
		b2.linearVelocity = b2.linearVelocity.Add(P2.Scale(b2.invMass))
		b2.angularVelocity += b2.invI * vec.Cross(r2, P2)
	} else {
		j.pulleyImpulse = 0
		j.limitImpulse1 = 0
		j.limitImpulse2 = 0
	}
}

// invertMass inverts an effective mass, leaving a static side at zero.
func invertMass(k float64) float64 {
	if k > vec.Epsilon {
		return 1 / k
	}
	return 0
}

// pointVelocity is the world velocity of the body point at offset r.
func pointVelocity(b *Body, r vec.Vec2) vec.Vec2 {
	return b.linearVelocity.Add(vec.CrossSV(b.angularVelocity, r))
}

// applyAt adds impulse P at offset r from the center of b.
func applyAt(b *Body, r, P vec.Vec2) {
	b.linearVelocity = b.linearVelocity.Add(P.Scale(b.invMass))
	b.angularVelocity += b.invI * vec.Cross(r, P)
}

// applyPositionAt is applyAt for positions.
func applyPositionAt(b *Body, r, P vec.Vec2) {
	b.position = b.position.Add(P.Scale(b.invMass))
	b.setRotation(b.rotation + b.invI*vec.Cross(r, P))
}

func (j *PulleyJoint) solveVelocityConstraints(TimeStep) {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)

	Cdot := -j.u1.Dot(pointVelocity(b1, r1)) - j.ratio*j.u2.Dot(pointVelocity(b2, r2))
	impulse := -j.pulleyMass * Cdot
	j.pulleyImpulse += impulse

	applyAt(b1, r1, j.u1.Scale(-impulse))
	applyAt(b2, r2, j.u2.Scale(-j.ratio*impulse))

	if j.limitState1 == LimitAtUpper {
		Cdot := -j.u1.Dot(pointVelocity(b1, r1))
		impulse := -j.limitMass1 * Cdot
		old := j.limitImpulse1
		j.limitImpulse1 = math.Max(0, j.limitImpulse1+impulse)
		impulse = j.limitImpulse1 - old
		applyAt(b1, r1, j.u1.Scale(-impulse))
	}

	if j.limitState2 == LimitAtUpper {
		Cdot := -j.u2.Dot(pointVelocity(b2, r2))
		impulse := -j.limitMass2 * Cdot
		old := j.limitImpulse2
		j.limitImpulse2 = math.Max(0, j.limitImpulse2+impulse)
		impulse = j.limitImpulse2 - old
		applyAt(b2, r2, j.u2.Scale(-impulse))
	}
}

func (j *PulleyJoint) solvePositionConstraints() bool {
	b1, b2 := j.body1, j.body2
	s1 := j.GroundPoint1()
	s2 := j.GroundPoint2()

	linearError := 0.0

	{
		r1 := vec.Mul(b1.r, j.localAnchor1)
		r2 := vec.Mul(b2.r, j.localAnchor2)

		u1, length1 := ropeAxis(b1.position.Add(r1), s1)
		u2, length2 := ropeAxis(b2.position.Add(r2), s2)
		j.u1, j.u2 = u1, u2

		C := j.constant - length1 - j.ratio*length2
		linearError = math.Abs(C)
		C = vec.Clamp(C, -settings.MaxLinearCorrection, settings.MaxLinearCorrection)
		impulse := -j.pulleyMass * C

		applyPositionAt(b1, r1, u1.Scale(-impulse))
		applyPositionAt(b2, r2, u2.Scale(-j.ratio*impulse))
	}

	if j.limitState1 == LimitAtUpper {
		r1 := vec.Mul(b1.r, j.localAnchor1)
		u1, length1 := ropeAxis(b1.position.Add(r1), s1)
		j.u1 = u1

		C := j.maxLength1 - length1
		linearError = math.Max(linearError, -C)
		C = vec.Clamp(C+settings.LinearSlop, -settings.MaxLinearCorrection, 0)
		impulse := -j.limitMass1 * C
		old := j.limitPositionImpulse1
		j.limitPositionImpulse1 = math.Max(0, j.limitPositionImpulse1+impulse)
		impulse = j.limitPositionImpulse1 - old

		applyPositionAt(b1, r1, u1.Scale(-impulse))
	}

	if j.limitState2 == LimitAtUpper {
		r2 := vec.Mul(b2.r, j.localAnchor2)
		u2, length2 := ropeAxis(b2.position.Add(r2), s2)
		j.u2 = u2

		C := j.maxLength2 - length2
		linearError = math.Max(linearError, -C)
		C = vec.Clamp(C+settings.LinearSlop, -settings.MaxLinearCorrection, 0)
		impulse := -j.limitMass2 * C
		old := j.limitPositionImpulse2
		j.limitPositionImpulse2 = math.Max(0, j.limitPositionImpulse2+impulse)
		impulse = j.limitPositionImpulse2 - old

		applyPositionAt(b2, r2, u2.Scale(-impulse))
	}

	return linearError < settings.LinearSlop
}
