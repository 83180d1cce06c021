package dynamics

import (
	"fmt"

	"github.com/san-kum/boxsim/internal/vec"
)

// JointType tags the concrete joint.
type JointType uint8

const (
	UnknownJoint JointType = iota
	DistanceJointType
	RevoluteJointType
	PrismaticJointType
	PulleyJointType
	GearJointType
	MouseJointType
)

func (t JointType) String() string {
	switch t {
	case DistanceJointType:
		return "distance"
	case RevoluteJointType:
		return "revolute"
	case PrismaticJointType:
		return "prismatic"
	case PulleyJointType:
		return "pulley"
	case GearJointType:
		return "gear"
	case MouseJointType:
		return "mouse"
	default:
		return "unknown"
	}
}

// LimitState is the state of a joint limit for the current step.
type LimitState uint8

const (
	LimitInactive LimitState = iota
	LimitAtLower
	LimitAtUpper
	LimitEqual
)

// Joint constrains the relative motion of two bodies. The set of joints is
// closed: *DistanceJoint, *RevoluteJoint, *PrismaticJoint, *PulleyJoint,
// *GearJoint and *MouseJoint.
type Joint interface {
	Type() JointType
	Body1() *Body
	Body2() *Body

	// Anchor1 and Anchor2 are the world anchor points on each body.
	Anchor1() vec.Vec2
	Anchor2() vec.Vec2

	ReactionForce(invDt float64) vec.Vec2
	ReactionTorque(invDt float64) float64

	CollideConnected() bool
	UserData() any

	initVelocityConstraints(step TimeStep)
	solveVelocityConstraints(step TimeStep)
	initPositionConstraints()
	solvePositionConstraints() bool

	base() *jointBase
}

type jointBase struct {
	jointType        JointType
	body1, body2     *Body
	collideConnected bool
	islandFlag       bool
	userData         any
}

func newJointBase(t JointType, d *JointDefBase) jointBase {
	return jointBase{
		jointType:        t,
		body1:            d.Body1,
		body2:            d.Body2,
		collideConnected: d.CollideConnected,
		userData:         d.UserData,
	}
}

func (j *jointBase) Type() JointType          { return j.jointType }
func (j *jointBase) Body1() *Body             { return j.body1 }
func (j *jointBase) Body2() *Body             { return j.body2 }
func (j *jointBase) CollideConnected() bool   { return j.collideConnected }
func (j *jointBase) UserData() any            { return j.userData }
func (j *jointBase) SetUserData(v any)        { j.userData = v }
func (j *jointBase) initPositionConstraints() {}
func (j *jointBase) base() *jointBase         { return j }

// JointDefBase holds the fields shared by all joint definitions.
type JointDefBase struct {
	Body1, Body2     *Body
	CollideConnected bool
	UserData         any
}

func (d *JointDefBase) defBase() *JointDefBase { return d }

// JointDef describes a joint: *DistanceJointDef, *RevoluteJointDef,
// *PrismaticJointDef, *PulleyJointDef, *GearJointDef or *MouseJointDef.
type JointDef interface {
	defBase() *JointDefBase
}

func (d *JointDefBase) validate() error {
	if d.Body1 == nil || d.Body2 == nil {
		return fmt.Errorf("%w: missing body", ErrInvalidJoint)
	}
	if d.Body1 == d.Body2 {
		return fmt.Errorf("%w: both ends on the same body", ErrInvalidJoint)
	}
	if d.Body1.IsDestroyed() || d.Body2.IsDestroyed() {
		return fmt.Errorf("%w: body was destroyed", ErrInvalidJoint)
	}
	if d.Body1.IsStatic() && d.Body2.IsStatic() {
		return fmt.Errorf("%w: both bodies are static", ErrInvalidJoint)
	}
	return nil
}

// newJoint builds the concrete joint for def. ground is the world's ground
// body, used where a definition leaves Body1 empty.
func newJoint(def JointDef, ground *Body) (Joint, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidJoint)
	}
	switch d := def.(type) {
	case *DistanceJointDef:
		if err := d.validate(); err != nil {
			return nil, err
		}
		return newDistanceJoint(d), nil
	case *RevoluteJointDef:
		if err := d.validate(); err != nil {
			return nil, err
		}
		return newRevoluteJoint(d), nil
	case *PrismaticJointDef:
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, n := d.Axis.Normalize(); n < vec.Epsilon {
			return nil, fmt.Errorf("%w: prismatic axis is zero", ErrInvalidJoint)
		}
		return newPrismaticJoint(d), nil
	case *PulleyJointDef:
		if err := d.validate(); err != nil {
			return nil, err
		}
		if !(d.Ratio > 0) {
			return nil, fmt.Errorf("%w: pulley ratio must be positive", ErrInvalidJoint)
		}
		return newPulleyJoint(d, ground), nil
	case *GearJointDef:
		g, err := newGearJoint(d)
		if err != nil {
			return nil, err
		}
		return g, nil
	case *MouseJointDef:
		if d.Body1 == nil {
			dd := *d
			dd.Body1 = ground
			d = &dd
		}
		if err := d.validate(); err != nil {
			return nil, err
		}
		if !(d.FrequencyHz > 0) || !(d.TimeStep > 0) {
			return nil, fmt.Errorf("%w: mouse spring needs a positive frequency and time step", ErrInvalidJoint)
		}
		if !(d.DampingRatio >= 0) || !(d.MaxForce >= 0) {
			return nil, fmt.Errorf("%w: mouse damping and max force must be non-negative", ErrInvalidJoint)
		}
		return newMouseJoint(d), nil
	default:
		return nil, fmt.Errorf("%w: unsupported definition %T", ErrInvalidJoint, def)
	}
}
