package dynamics

import (
	"math"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// RevoluteJointDef pins two bodies together at a world anchor point.
type RevoluteJointDef struct {
	JointDefBase
	Anchor vec.Vec2

	LowerAngle  float64
	UpperAngle  float64
	EnableLimit bool

	MotorTorque float64
	MotorSpeed  float64
	EnableMotor bool
}

// RevoluteJoint lets two bodies rotate about a shared point.
//
//	C    = p2 - p1
//	Cdot = v2 + cross(w2, r2) - v1 - cross(w1, r1)
//	J    = [-I, -skew(r1), I, skew(r2)]
//
// The motor and limit act on the relative angle, with J = [0, -1, 0, 1].
type RevoluteJoint struct {
	jointBase

	localAnchor1 vec.Vec2
	localAnchor2 vec.Vec2
	initialAngle float64

	ptpImpulse           vec.Vec2
	motorImpulse         float64
	limitImpulse         float64
	limitPositionImpulse float64

	ptpMass   vec.Mat22
	motorMass float64

	lowerAngle     float64
	upperAngle     float64
	maxMotorTorque float64
	motorSpeed     float64

	enableLimit bool
	enableMotor bool
	limitState  LimitState
}

func newRevoluteJoint(d *RevoluteJointDef) *RevoluteJoint {
	j := &RevoluteJoint{jointBase: newJointBase(RevoluteJointType, &d.JointDefBase)}
	b1, b2 := j.body1, j.body2
	j.localAnchor1 = vec.MulT(b1.r, d.Anchor.Sub(b1.position))
	j.localAnchor2 = vec.MulT(b2.r, d.Anchor.Sub(b2.position))
	j.initialAngle = b2.rotation - b1.rotation

	j.lowerAngle = d.LowerAngle
	j.upperAngle = d.UpperAngle
	j.enableLimit = d.EnableLimit
	j.maxMotorTorque = d.MotorTorque
	j.motorSpeed = d.MotorSpeed
	j.enableMotor = d.EnableMotor
	return j
}

func (j *RevoluteJoint) Anchor1() vec.Vec2 { return j.body1.WorldPoint(j.localAnchor1) }
func (j *RevoluteJoint) Anchor2() vec.Vec2 { return j.body2.WorldPoint(j.localAnchor2) }

func (j *RevoluteJoint) ReactionForce(invDt float64) vec.Vec2 { return j.ptpImpulse.Scale(invDt) }
func (j *RevoluteJoint) ReactionTorque(invDt float64) float64 { return j.limitImpulse * invDt }

// JointAngle is the rotation of body2 relative to body1 since creation.
func (j *RevoluteJoint) JointAngle() float64 {
	return j.body2.rotation - j.body1.rotation - j.initialAngle
}

// JointSpeed is the relative angular velocity.
func (j *RevoluteJoint) JointSpeed() float64 {
	return j.body2.angularVelocity - j.body1.angularVelocity
}

func (j *RevoluteJoint) MotorTorque(invDt float64) float64 { return j.motorImpulse * invDt }
func (j *RevoluteJoint) MotorSpeed() float64               { return j.motorSpeed }
func (j *RevoluteJoint) SetMotorSpeed(speed float64)       { j.motorSpeed = speed }
func (j *RevoluteJoint) SetMotorTorque(torque float64)     { j.maxMotorTorque = torque }
func (j *RevoluteJoint) LimitState() LimitState            { return j.limitState }

// pointMass returns the 2x2 effective mass of the point constraint.
func pointMass(b1, b2 *Body, r1, r2 vec.Vec2) vec.Mat22 {
	invMass := b1.invMass + b2.invMass
	K := vec.Mat22{Col1: vec.V(invMass, 0), Col2: vec.V(0, invMass)}
	K = K.Add(skewMass(b1.invI, r1))
	K = K.Add(skewMass(b2.invI, r2))
	return K
}

// skewMass is invI * [r.y², -r.x*r.y; -r.x*r.y, r.x²].
func skewMass(invI float64, r vec.Vec2) vec.Mat22 {
	return vec.Mat22{
		Col1: vec.V(invI*r.Y*r.Y, -invI*r.X*r.Y),
		Col2: vec.V(-invI*r.X*r.Y, invI*r.X*r.X),
	}
}

func (j *RevoluteJoint) initVelocityConstraints(step TimeStep) {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)

	j.ptpMass = pointMass(b1, b2, r1, r2).Invert()
	if k := b1.invI + b2.invI; k > vec.Epsilon {
		j.motorMass = 1 / k
	} else {
		j.motorMass = 0
	}

	if !j.enableMotor {
		j.motorImpulse = 0
	}

	if j.enableLimit {
		angle := j.JointAngle()
		switch {
		case math.Abs(j.upperAngle-j.lowerAngle) < 2*settings.AngularSlop:
			j.limitState = LimitEqual
		case angle <= j.lowerAngle:
			if j.limitState != LimitAtLower {
				j.limitImpulse = 0
			}
			j.limitState = LimitAtLower
		case angle >= j.upperAngle:
			if j.limitState != LimitAtUpper {
				j.limitImpulse = 0
			}
			j.limitState = LimitAtUpper
		default:
			j.limitState = LimitInactive
			j.limitImpulse = 0
		}
	} else {
		j.limitState = LimitInactive
		j.limitImpulse = 0
	}

	if step.WarmStarting {
		axial := j.motorImpulse + j.limitImpulse
		b1.linearVelocity = b1.linearVelocity.Sub(j.ptpImpulse.Scale(b1.invMass))
		b1.angularVelocity -= b1.invI * (vec.Cross(r1, j.ptpImpulse) + axial)
		b2.linearVelocity = b2.linearVelocity.Add(j.ptpImpulse.Scale(b2.invMass))
		b2.angularVelocity += b2.invI * (vec.Cross(r2, j.ptpImpulse) + axial)
	} else {
		j.ptpImpulse = vec.Vec2{}
		j.motorImpulse = 0
		j.limitImpulse = 0
	}

	j.limitPositionImpulse = 0
}

func (j *RevoluteJoint) solveVelocityConstraints(step TimeStep) {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)

	// Point to point.
	ptpCdot := relativeVelocity(b1, b2, r1, r2)
	ptpImpulse := vec.Mul(j.ptpMass, ptpCdot).Neg()
	j.ptpImpulse = j.ptpImpulse.Add(ptpImpulse)
	applyPointImpulse(b1, b2, r1, r2, ptpImpulse)

	if j.enableMotor && j.limitState != LimitEqual {
		motorCdot := b2.angularVelocity - b1.angularVelocity - j.motorSpeed
		motorImpulse := -j.motorMass * motorCdot
		old := j.motorImpulse
		maxImpulse := step.Dt * j.maxMotorTorque
		j.motorImpulse = vec.Clamp(j.motorImpulse+motorImpulse, -maxImpulse, maxImpulse)
		motorImpulse = j.motorImpulse - old

		b1.angularVelocity -= b1.invI * motorImpulse
		b2.angularVelocity += b2.invI * motorImpulse
	}

	if j.enableLimit && j.limitState != LimitInactive {
		limitCdot := b2.angularVelocity - b1.angularVelocity
		limitImpulse := -j.motorMass * limitCdot

		switch j.limitState {
		case LimitEqual:
			j.limitImpulse += limitImpulse
		case LimitAtLower:
			old := j.limitImpulse
			j.limitImpulse = math.Max(j.limitImpulse+limitImpulse, 0)
			limitImpulse = j.limitImpulse - old
		case LimitAtUpper:
			old := j.limitImpulse
			j.limitImpulse = math.Min(j.limitImpulse+limitImpulse, 0)
			limitImpulse = j.limitImpulse - old
		}

		b1.angularVelocity -= b1.invI * limitImpulse
		b2.angularVelocity += b2.invI * limitImpulse
	}
}

func (j *RevoluteJoint) solvePositionConstraints() bool {
	b1, b2 := j.body1, j.body2

	// Point to point, with the effective mass recomputed at the current pose.
	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)
	ptpC := b2.position.Add(r2).Sub(b1.position).Sub(r1)

	impulse := pointMass(b1, b2, r1, r2).Solve(ptpC).Neg()
	applyPointPosition(b1, b2, r1, r2, impulse)
	positionError := ptpC.Length()

	angularError := 0.0
	if j.enableLimit && j.limitState != LimitInactive {
		angle := j.JointAngle()
		limitImpulse := 0.0

		switch j.limitState {
		case LimitEqual:
			limitC := vec.Clamp(angle-j.lowerAngle, -settings.MaxAngularCorrection, settings.MaxAngularCorrection)
			limitImpulse = -j.motorMass * limitC
			angularError = math.Abs(limitC)
		case LimitAtLower:
			limitC := angle - j.lowerAngle
			angularError = math.Max(0, -limitC)
			limitC = vec.Clamp(limitC+settings.AngularSlop, -settings.MaxAngularCorrection, 0)
			limitImpulse = -j.motorMass * limitC
			old := j.limitPositionImpulse
			j.limitPositionImpulse = math.Max(j.limitPositionImpulse+limitImpulse, 0)
			limitImpulse = j.limitPositionImpulse - old
		case LimitAtUpper:
			limitC := angle - j.upperAngle
			angularError = math.Max(0, limitC)
			limitC = vec.Clamp(limitC-settings.AngularSlop, 0, settings.MaxAngularCorrection)
			limitImpulse = -j.motorMass * limitC
			old := j.limitPositionImpulse
			j.limitPositionImpulse = math.Min(j.limitPositionImpulse+limitImpulse, 0)
			limitImpulse = j.limitPositionImpulse - old
		}

		b1.setRotation(b1.rotation - b1.invI*limitImpulse)
		b2.setRotation(b2.rotation + b2.invI*limitImpulse)
	}

	return positionError <= settings.LinearSlop && angularError <= settings.AngularSlop
}
