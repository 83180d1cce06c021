package dynamics

import (
	"math"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// PrismaticJointDef lets body2 slide along a world axis fixed in body1.
// Rotation between the bodies is locked.
type PrismaticJointDef struct {
	JointDefBase
	Anchor vec.Vec2
	Axis   vec.Vec2

	LowerTranslation float64
	UpperTranslation float64
	EnableLimit      bool

	MotorForce  float64
	MotorSpeed  float64
	EnableMotor bool
}

// PrismaticJoint is a slider.
//
// Linear constraint, perpendicular to the axis:
//
//	C    = dot(ay1, d),  d = p2 - p1
//	J    = [-ay1, -cross(d + r1, ay1), ay1, cross(r2, ay1)]
//
// Angular constraint:
//
//	C    = a2 - a1 + a_initial
//	J    = [0, -1, 0, 1]
//
// The motor and limit use J = [-ax1, -cross(d + r1, ax1), ax1, cross(r2, ax1)].
type PrismaticJoint struct {
	jointBase

	localAnchor1 vec.Vec2
	localAnchor2 vec.Vec2
	localXAxis1  vec.Vec2
	localYAxis1  vec.Vec2
	initialAngle float64

	linearJacobian Jacobian
	linearMass     float64
	linearImpulse  float64

	angularMass    float64
	angularImpulse float64

	motorJacobian        Jacobian
	motorMass            float64
	motorImpulse         float64
	limitImpulse         float64
	limitPositionImpulse float64

	lowerTranslation float64
	upperTranslation float64
	maxMotorForce    float64
	motorSpeed       float64

	enableLimit bool
	enableMotor bool
	limitState  LimitState
}

func newPrismaticJoint(d *PrismaticJointDef) *PrismaticJoint {
	j := &PrismaticJoint{jointBase: newJointBase(PrismaticJointType, &d.JointDefBase)}
	b1, b2 := j.body1, j.body2
	j.localAnchor1 = vec.MulT(b1.r, d.Anchor.Sub(b1.position))
	j.localAnchor2 = vec.MulT(b2.r, d.Anchor.Sub(b2.position))
	axis, _ := d.Axis.Normalize()
	j.localXAxis1 = vec.MulT(b1.r, axis)
	j.localYAxis1 = vec.CrossSV(1, j.localXAxis1)
	j.initialAngle = b2.rotation - b1.rotation

	j.lowerTranslation = d.LowerTranslation
	j.upperTranslation = d.UpperTranslation
	j.enableLimit = d.EnableLimit
	j.maxMotorForce = d.MotorForce
	j.motorSpeed = d.MotorSpeed
	j.enableMotor = d.EnableMotor
	return j
}

func (j *PrismaticJoint) Anchor1() vec.Vec2 { return j.body1.WorldPoint(j.localAnchor1) }
func (j *PrismaticJoint) Anchor2() vec.Vec2 { return j.body2.WorldPoint(j.localAnchor2) }

func (j *PrismaticJoint) ReactionForce(invDt float64) vec.Vec2 {
	ax1 := vec.Mul(j.body1.r, j.localXAxis1)
	ay1 := vec.Mul(j.body1.r, j.localYAxis1)
	return ax1.Scale(j.limitImpulse).Add(ay1.Scale(j.linearImpulse)).Scale(invDt)
}

func (j *PrismaticJoint) ReactionTorque(invDt float64) float64 {
	return j.angularImpulse * invDt
}

// JointTranslation is the displacement of the anchors along the axis.
func (j *PrismaticJoint) JointTranslation() float64 {
	b1, b2 := j.body1, j.body2
	p1 := b1.WorldPoint(j.localAnchor1)
	p2 := b2.WorldPoint(j.localAnchor2)
	axis := vec.Mul(b1.r, j.localXAxis1)
	return axis.Dot(p2.Sub(p1))
}

// JointSpeed is the rate of change of JointTranslation.
func (j *PrismaticJoint) JointSpeed() float64 {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)
	p1 := b1.position.Add(r1)
	p2 := b2.position.Add(r2)
	d := p2.Sub(p1)
	axis := vec.Mul(b1.r, j.localXAxis1)

	v1, v2 := b1.linearVelocity, b2.linearVelocity
	w1, w2 := b1.angularVelocity, b2.angularVelocity

	return d.Dot(vec.CrossSV(w1, axis)) +
		axis.Dot(v2.Add(vec.CrossSV(w2, r2)).Sub(v1).Sub(vec.CrossSV(w1, r1)))
}

func (j *PrismaticJoint) MotorForce(invDt float64) float64 { return j.motorImpulse * invDt }
func (j *PrismaticJoint) MotorSpeed() float64              { return j.motorSpeed }
func (j *PrismaticJoint) SetMotorSpeed(speed float64)      { j.motorSpeed = speed }
func (j *PrismaticJoint) SetMotorForce(force float64)      { j.maxMotorForce = force }
func (j *PrismaticJoint) LimitState() LimitState           { return j.limitState }

// rowMass returns 1 / (J M^-1 J^T) for a single constraint row.
func rowMass(b1, b2 *Body, jac Jacobian) float64 {
	k := b1.invMass + b1.invI*jac.Angular1*jac.Angular1 +
		b2.invMass + b2.invI*jac.Angular2*jac.Angular2
	assert(k > vec.Epsilon, "constraint row mass is singular")
	return 1 / k
}

func (j *PrismaticJoint) initVelocityConstraints(step TimeStep) {
	b1, b2 := j.body1, j.body2

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)
	e := b2.position.Add(r2).Sub(b1.position)

	// Linear.
	ay1 := vec.Mul(b1.r, j.localYAxis1)
	j.linearJacobian.Set(ay1.Neg(), -vec.Cross(e, ay1), ay1, vec.Cross(r2, ay1))
	j.linearMass = rowMass(b1, b2, j.linearJacobian)

	// Angular.
	if k := b1.invI + b2.invI; k > vec.Epsilon {
		j.angularMass = 1 / k
	} else {
		j.angularMass = 0
	}

	// Motor and limit.
	if j.enableLimit || j.enableMotor {
		ax1 := vec.Mul(b1.r, j.localXAxis1)
		j.motorJacobian.Set(ax1.Neg(), -vec.Cross(e, ax1), ax1, vec.Cross(r2, ax1))
		j.motorMass = rowMass(b1, b2, j.motorJacobian)

		if j.enableLimit {
			d := e.Sub(r1)
			translation := ax1.Dot(d)
			switch {
			case math.Abs(j.upperTranslation-j.lowerTranslation) < 2*settings.LinearSlop:
				j.limitState = LimitEqual
			case translation <= j.lowerTranslation:
				if j.limitState != LimitAtLower {
					j.limitImpulse = 0
				}
				j.limitState = LimitAtLower
			case translation >= j.upperTranslation:
				if j.limitState != LimitAtUpper {
					j.limitImpulse = 0
				}
				j.limitState = LimitAtUpper
			default:
				j.limitState = LimitInactive
				j.limitImpulse = 0
			}
		}
	}

	if !j.enableMotor {
		j.motorImpulse = 0
	}
	if !j.enableLimit {
		j.limitState = LimitInactive
		j.limitImpulse = 0
	}

	if step.WarmStarting {
		axial := j.motorImpulse + j.limitImpulse
		P1 := j.linearJacobian.Linear1.Scale(j.linearImpulse).Add(j.motorJacobian.Linear1.Scale(axial))
		P2 := j.linearJacobian.Linear2.Scale(j.linearImpulse).Add(j.motorJacobian.Linear2.Scale(axial))
		L1 := j.linearImpulse*j.linearJacobian.Angular1 - j.angularImpulse + axial*j.motorJacobian.Angular1
		L2 := j.linearImpulse*j.linearJacobian.Angular2 + j.angularImpulse + axial*j.motorJacobian.Angular2

		b1.linearVelocity = b1.linearVelocity.Add(P1.Scale(b1.invMass))
		b1.angularVelocity += b1.invI * L1
		b2.linearVelocity = b2.linearVelocity.Add(P2.Scale(b2.invMass))
		b2.angularVelocity += b2.invI * L2
	} else {
		j.linearImpulse = 0
		j.angularImpulse = 0
		j.limitImpulse = 0
		j.motorImpulse = 0
	}

	j.limitPositionImpulse = 0
}

func (j *PrismaticJoint) solveVelocityConstraints(step TimeStep) {
	b1, b2 := j.body1, j.body2

	// Linear.
	linearCdot := j.linearJacobian.computeFor(b1, b2)
	linearImpulse := -j.linearMass * linearCdot
	j.linearImpulse += linearImpulse
	j.linearJacobian.applyImpulse(b1, b2, linearImpulse)

	// Angular.
	angularCdot := b2.angularVelocity - b1.angularVelocity
	angularImpulse := -j.angularMass * angularCdot
	j.angularImpulse += angularImpulse
	b1.angularVelocity -= b1.invI * angularImpulse
	b2.angularVelocity += b2.invI * angularImpulse

	if j.enableMotor && j.limitState != LimitEqual {
		motorCdot := j.motorJacobian.computeFor(b1, b2) - j.motorSpeed
		motorImpulse := -j.motorMass * motorCdot
		old := j.motorImpulse
		maxImpulse := step.Dt * j.maxMotorForce
		j.motorImpulse = vec.Clamp(j.motorImpulse+motorImpulse, -maxImpulse, maxImpulse)
		motorImpulse = j.motorImpulse - old
		j.motorJacobian.applyImpulse(b1, b2, motorImpulse)
	}

	if j.enableLimit && j.limitState != LimitInactive {
		limitCdot := j.motorJacobian.computeFor(b1, b2)
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

		j.motorJacobian.applyImpulse(b1, b2, limitImpulse)
	}
}

func (j *PrismaticJoint) solvePositionConstraints() bool {
	b1, b2 := j.body1, j.body2
	invMass1, invMass2 := b1.invMass, b2.invMass
	invI1, invI2 := b1.invI, b2.invI

	r1 := vec.Mul(b1.r, j.localAnchor1)
	r2 := vec.Mul(b2.r, j.localAnchor2)
	p1 := b1.position.Add(r1)
	p2 := b2.position.Add(r2)
	d := p2.Sub(p1)
	ay1 := vec.Mul(b1.r, j.localYAxis1)

	// Linear.
	linearC := ay1.Dot(d)
	linearError := math.Abs(linearC)
	linearC = vec.Clamp(linearC, -settings.MaxLinearCorrection, settings.MaxLinearCorrection)
	linearImpulse := -j.linearMass * linearC

	b1.position = b1.position.Add(j.linearJacobian.Linear1.Scale(invMass1 * linearImpulse))
	b1.setRotation(b1.rotation + invI1*linearImpulse*j.linearJacobian.Angular1)
	b2.position = b2.position.Add(j.linearJacobian.Linear2.Scale(invMass2 * linearImpulse))
	b2.setRotation(b2.rotation + invI2*linearImpulse*j.linearJacobian.Angular2)

	// Angular.
	angularC := b2.rotation - b1.rotation - j.initialAngle
	angularError := math.Abs(angularC)
	angularC = vec.Clamp(angularC, -settings.MaxAngularCorrection, settings.MaxAngularCorrection)
	angularImpulse := -j.angularMass * angularC

	b1.setRotation(b1.rotation - invI1*angularImpulse)
	b2.setRotation(b2.rotation + invI2*angularImpulse)

	// Limit.
	if j.enableLimit && j.limitState != LimitInactive {
		r1 = vec.Mul(b1.r, j.localAnchor1)
		r2 = vec.Mul(b2.r, j.localAnchor2)
		p1 = b1.position.Add(r1)
		p2 = b2.position.Add(r2)
		d = p2.Sub(p1)
		ax1 := vec.Mul(b1.r, j.localXAxis1)

		translation := ax1.Dot(d)
		limitImpulse := 0.0

		switch j.limitState {
		case LimitEqual:
			limitC := translation - j.lowerTranslation
			linearError = math.Max(linearError, math.Abs(limitC))
			limitC = vec.Clamp(limitC, -settings.MaxLinearCorrection, settings.MaxLinearCorrection)
			limitImpulse = -j.motorMass * limitC
		case LimitAtLower:
			limitC := translation - j.lowerTranslation
			linearError = math.Max(linearError, -limitC)
			limitC = vec.Clamp(limitC+settings.LinearSlop, -settings.MaxLinearCorrection, 0)
			limitImpulse = -j.motorMass * limitC
			old := j.limitPositionImpulse
			j.limitPositionImpulse = math.Max(j.limitPositionImpulse+limitImpulse, 0)
			limitImpulse = j.limitPositionImpulse - old
		case LimitAtUpper:
			limitC := translation - j.upperTranslation
			linearError = math.Max(linearError, limitC)
			limitC = vec.Clamp(limitC-settings.LinearSlop, 0, settings.MaxLinearCorrection)
			limitImpulse = -j.motorMass * limitC
			old := j.limitPositionImpulse
			j.limitPositionImpulse = math.Min(j.limitPositionImpulse+limitImpulse, 0)
			limitImpulse = j.limitPositionImpulse - old
		}

		j.motorJacobian.applyPosition(b1, b2, limitImpulse)
	}

	return linearError <= settings.LinearSlop && angularError <= settings.AngularSlop
}
