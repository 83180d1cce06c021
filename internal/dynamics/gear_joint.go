package dynamics

import (
	"fmt"

	"github.com/san-kum/boxsim/internal/vec"
)

// GearJointDef couples two revolute or prismatic joints. Each of them must
// have a static Body1. Body1 and Body2 of the embedded base are filled in
// from the joints.
type GearJointDef struct {
	JointDefBase
	Joint1 Joint
	Joint2 Joint
	Ratio  float64
}

// GearJoint keeps coordinate1 + ratio*coordinate2 constant, where a
// coordinate is a revolute angle or a prismatic translation.
//
//	C    = constant - (coordinate1 + ratio*coordinate2)
//	Cdot = -(Cdot1 + ratio*Cdot2)
//	J    = -[J1 ratio*J2]
type GearJoint struct {
	jointBase

	ground1, ground2 *Body

	revolute1  *RevoluteJoint
	prismatic1 *PrismaticJoint
	revolute2  *RevoluteJoint
	prismatic2 *PrismaticJoint

	groundAnchor1 vec.Vec2
	groundAnchor2 vec.Vec2
	localAnchor1  vec.Vec2
	localAnchor2  vec.Vec2

	jacobian Jacobian

	constant float64
	ratio    float64
	mass     float64
	impulse  float64
}

func newGearJoint(d *GearJointDef) (*GearJoint, error) {
	if d.Joint1 == nil || d.Joint2 == nil {
		return nil, fmt.Errorf("%w: missing joint", ErrGearJoint)
	}
	if d.Ratio == 0 || !isFinite(d.Ratio) {
		return nil, fmt.Errorf("%w: ratio must be finite and non-zero", ErrGearJoint)
	}

	j := &GearJoint{ratio: d.Ratio}

	coordinate1, err := j.bind(d.Joint1, &j.revolute1, &j.prismatic1, &j.ground1, &j.groundAnchor1, &j.localAnchor1)
	if err != nil {
		return nil, err
	}
	coordinate2, err := j.bind(d.Joint2, &j.revolute2, &j.prismatic2, &j.ground2, &j.groundAnchor2, &j.localAnchor2)
	if err != nil {
		return nil, err
	}

	base := d.JointDefBase
	base.Body1 = d.Joint1.Body2()
	base.Body2 = d.Joint2.Body2()
	if err := base.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGearJoint, err)
	}
	j.jointBase = newJointBase(GearJointType, &base)
	j.constant = coordinate1 + j.ratio*coordinate2
	return j, nil
}

// bind records one of the coupled joints and returns its coordinate.
func (j *GearJoint) bind(joint Joint, rev **RevoluteJoint, pri **PrismaticJoint,
	ground **Body, groundAnchor, localAnchor *vec.Vec2) (float64, error) {
	if !joint.Body1().IsStatic() {
		return 0, fmt.Errorf("%w: %s joint body1 must be static", ErrGearJoint, joint.Type())
	}
	*ground = joint.Body1()

	switch jj := joint.(type) {
	case *RevoluteJoint:
		*rev = jj
		*groundAnchor = jj.localAnchor1
		*localAnchor = jj.localAnchor2
		return jj.JointAngle(), nil
	case *PrismaticJoint:
		*pri = jj
		*groundAnchor = jj.localAnchor1
		*localAnchor = jj.localAnchor2
		return jj.JointTranslation(), nil
	default:
		return 0, fmt.Errorf("%w: cannot couple a %s joint", ErrGearJoint, joint.Type())
	}
}

func (j *GearJoint) Anchor1() vec.Vec2 { return j.body1.WorldPoint(j.localAnchor1) }
func (j *GearJoint) Anchor2() vec.Vec2 { return j.body2.WorldPoint(j.localAnchor2) }

func (j *GearJoint) ReactionForce(float64) vec.Vec2 { return vec.Vec2{} }
func (j *GearJoint) ReactionTorque(float64) float64 { return 0 }

func (j *GearJoint) Ratio() float64 { return j.ratio }

// Constant is coordinate1 + ratio*coordinate2 at creation.
func (j *GearJoint) Constant() float64 { return j.constant }

// Joint1 and Joint2 return the coupled joints.
func (j *GearJoint) Joint1() Joint {
	if j.revolute1 != nil {
		return j.revolute1
	}
	return j.prismatic1
}

func (j *GearJoint) Joint2() Joint {
	if j.revolute2 != nil {
		return j.revolute2
	}
	return j.prismatic2
}

// Coordinate returns coordinate1 + ratio*coordinate2 at the current pose.
func (j *GearJoint) Coordinate() float64 {
	return j.coordinate1() + j.ratio*j.coordinate2()
}

func (j *GearJoint) coordinate1() float64 {
	if j.revolute1 != nil {
		return j.revolute1.JointAngle()
	}
	return j.prismatic1.JointTranslation()
}

func (j *GearJoint) coordinate2() float64 {
	if j.revolute2 != nil {
		return j.revolute2.JointAngle()
	}
	return j.prismatic2.JointTranslation()
}

func (j *GearJoint) initVelocityConstraints(step TimeStep) {
	g1, g2 := j.ground1, j.ground2
	b1, b2 := j.body1, j.body2

	K := 0.0
	j.jacobian.SetZero()

	if j.revolute1 != nil {
		j.jacobian.Angular1 = -1
		K += b1.invI
	} else {
		ug := vec.Mul(g1.r, j.prismatic1.localXAxis1)
		r := vec.Mul(b1.r, j.localAnchor1)
		crug := vec.Cross(r, ug)
		j.jacobian.Linear1 = ug.Neg()
		j.jacobian.Angular1 = -crug
		K += b1.invMass + b1.invI*crug*crug
	}

	if j.revolute2 != nil {
		j.jacobian.Angular2 = -j.ratio
		K += j.ratio * j.ratio * b2.invI
	} else {
		ug := vec.Mul(g2.r, j.prismatic2.localXAxis1)
		r := vec.Mul(b2.r, j.localAnchor2)
		crug := vec.Cross(r, ug)
		j.jacobian.Linear2 = ug.Scale(-j.ratio)
		j.jacobian.Angular2 = -j.ratio * crug
		K += j.ratio * j.ratio * (b2.invMass + b2.invI*crug*crug)
	}

	assert(K > 0, "gear joint mass is singular")
	j.mass = 1 / K

	if step.WarmStarting {
		j.jacobian.applyImpulse(b1, b2, j.impulse)
	} else {
		j.impulse = 0
	}
}

func (j *GearJoint) solveVelocityConstraints(TimeStep) {
	Cdot := j.jacobian.computeFor(j.body1, j.body2)
	impulse := -j.mass * Cdot
	j.impulse += impulse
	j.jacobian.applyImpulse(j.body1, j.body2, impulse)
}

func (j *GearJoint) solvePositionConstraints() bool {
	C := j.constant - j.Coordinate()
	impulse := -j.mass * C
	j.jacobian.applyPosition(j.body1, j.body2, impulse)
	return true
}
