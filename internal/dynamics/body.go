package dynamics

import (
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// BodyDef describes a body and its shapes. Position and Rotation place the
// body origin; the center of mass is derived from the shapes.
type BodyDef struct {
	Shapes []*ShapeDef

	Position vec.Vec2
	Rotation float64

	LinearVelocity  vec.Vec2
	AngularVelocity float64

	LinearDamping  float64
	AngularDamping float64

	AllowSleep      bool
	IsSleeping      bool
	PreventRotation bool
	// IsFast marks a body for continuous collision against everything.
	IsFast bool

	UserData any
}

// NewBodyDef returns a body definition that allows sleeping.
func NewBodyDef() *BodyDef {
	return &BodyDef{AllowSleep: true}
}

// AddShape appends a shape definition.
func (bd *BodyDef) AddShape(sd *ShapeDef) *BodyDef {
	bd.Shapes = append(bd.Shapes, sd)
	return bd
}

// Validate reports definition errors before any body is created.
func (bd *BodyDef) Validate() error {
	if len(bd.Shapes) > settings.MaxShapesPerBody {
		return fmt.Errorf("%w: %d > %d", ErrTooManyShapes, len(bd.Shapes), settings.MaxShapesPerBody)
	}
	if !bd.Position.IsValid() || !isFinite(bd.Rotation) || !bd.LinearVelocity.IsValid() || !isFinite(bd.AngularVelocity) {
		return fmt.Errorf("%w: non-finite initial state", ErrInvalidBody)
	}
	for i, sd := range bd.Shapes {
		if sd == nil {
			return fmt.Errorf("%w: shape %d is nil", ErrInvalidShape, i)
		}
		if err := sd.Validate(); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
	}
	return nil
}

type bodyFlags uint16

const (
	flagStatic bodyFlags = 1 << iota
	flagFrozen
	flagIsland
	flagSleep
	flagAllowSleep
	flagDestroy
	flagFast
	flagTOIResolved
)

// ContactEdge links a body to a touching contact and the body on the other
// side of it.
type ContactEdge struct {
	Other   *Body
	Contact *Contact
}

// JointEdge links a body to a joint and the body on the other side of it.
type JointEdge struct {
	Other *Body
	Joint Joint
}

// Body is a rigid body. Position and rotation refer to the center of mass.
type Body struct {
	world *World
	flags bodyFlags

	position vec.Vec2
	rotation float64
	r        vec.Mat22

	// Pose at the start of the step, used by continuous collision.
	position0 vec.Vec2
	rotation0 float64
	toi       float64

	linearVelocity  vec.Vec2
	angularVelocity float64

	force  vec.Vec2
	torque float64

	// center is the center of mass relative to the body origin.
	center vec.Vec2

	mass, invMass float64
	inertia, invI float64

	linearDamping  float64
	angularDamping float64

	sleepTime float64

	shapes   []*Shape
	contacts []ContactEdge
	joints   []JointEdge

	userData any
}

func newBody(bd *BodyDef, w *World) (*Body, error) {
	b := &Body{
		world:          w,
		position:       bd.Position,
		rotation:       bd.Rotation,
		r:              vec.Rotation(bd.Rotation),
		linearDamping:  vec.Clamp(1-bd.LinearDamping, 0, 1),
		angularDamping: vec.Clamp(1-bd.AngularDamping, 0, 1),
		toi:            1,
		userData:       bd.UserData,
	}
	if bd.IsFast {
		b.flags |= flagFast
	}

	type placedMass struct {
		mass   float64
		center vec.Vec2
		i      float64
	}
	masses := make([]placedMass, len(bd.Shapes))

	for k, sd := range bd.Shapes {
		md, err := sd.Geometry.massData(sd.Density)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", k, err)
		}
		c := sd.LocalPosition.Add(vec.Mul(vec.Rotation(sd.LocalRotation), md.Center))
		masses[k] = placedMass{mass: md.Mass, center: c, i: md.I}
		b.mass += md.Mass
		b.center = b.center.Add(c.Scale(md.Mass))
	}

	if b.mass > 0 {
		b.center = b.center.Scale(1 / b.mass)
		b.position = b.position.Add(vec.Mul(b.r, b.center))
		b.invMass = 1 / b.mass
	} else {
		b.center = vec.Vec2{}
		b.flags |= flagStatic
	}

	for _, pm := range masses {
		r := pm.center.Sub(b.center)
		b.inertia += pm.i + pm.mass*r.Dot(r)
	}
	if b.inertia > 0 && !bd.PreventRotation {
		b.invI = 1 / b.inertia
	} else {
		b.inertia = 0
		b.invI = 0
	}

	b.linearVelocity = bd.LinearVelocity.Add(vec.CrossSV(bd.AngularVelocity, b.center))
	b.angularVelocity = bd.AngularVelocity

	b.position0 = b.position
	b.rotation0 = b.rotation

	b.shapes = make([]*Shape, 0, len(bd.Shapes))
	for k, sd := range bd.Shapes {
		s, err := newShape(sd, b, b.center)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", k, err)
		}
		b.shapes = append(b.shapes, s)
	}

	if bd.AllowSleep {
		b.flags |= flagAllowSleep
	}
	if bd.IsSleeping {
		b.flags |= flagSleep
	}
	if b.flags&flagSleep != 0 || b.invMass == 0 {
		b.linearVelocity = vec.Vec2{}
		b.angularVelocity = 0
	}

	return b, nil
}

// attach creates broad-phase proxies for the body's shapes. A shape
// outside the world bounds freezes the body.
func (b *Body) attach() {
	bp := b.world.broadPhase
	for _, s := range b.shapes {
		s.createProxy(bp)
		if !s.HasProxy() {
			b.freeze()
			return
		}
	}
}

func (b *Body) transform() vec.Transform {
	return vec.Transform{P: b.position, R: b.r}
}

// OriginPosition is the world position of the body origin.
func (b *Body) OriginPosition() vec.Vec2 {
	return b.position.Sub(vec.Mul(b.r, b.center))
}

// SetOriginPosition teleports the body so that its origin sits at p.
func (b *Body) SetOriginPosition(p vec.Vec2, rotation float64) error {
	if b.IsFrozen() {
		return ErrFrozen
	}
	b.rotation = rotation
	b.r = vec.Rotation(rotation)
	b.position = p.Add(vec.Mul(b.r, b.center))
	b.teleported()
	return nil
}

// CenterPosition is the world position of the center of mass.
func (b *Body) CenterPosition() vec.Vec2 { return b.position }

// SetCenterPosition teleports the body so that its center of mass sits at p.
func (b *Body) SetCenterPosition(p vec.Vec2, rotation float64) error {
	if b.IsFrozen() {
		return ErrFrozen
	}
	b.rotation = rotation
	b.r = vec.Rotation(rotation)
	b.position = p
	b.teleported()
	return nil
}

func (b *Body) teleported() {
	b.position0 = b.position
	b.rotation0 = b.rotation
	xf := b.transform()
	bp := b.world.broadPhase
	for _, s := range b.shapes {
		s.synchronize(bp, xf, xf)
	}
	bp.Commit()
}

func (b *Body) Rotation() float64         { return b.rotation }
func (b *Body) RotationMatrix() vec.Mat22 { return b.r }

func (b *Body) LinearVelocity() vec.Vec2            { return b.linearVelocity }
func (b *Body) SetLinearVelocity(v vec.Vec2)        { b.linearVelocity = v }
func (b *Body) AngularVelocity() float64            { return b.angularVelocity }
func (b *Body) SetAngularVelocity(w float64)        { b.angularVelocity = w }
func (b *Body) Mass() float64                       { return b.mass }
func (b *Body) Inertia() float64                    { return b.inertia }
func (b *Body) LocalCenter() vec.Vec2               { return b.center }
func (b *Body) UserData() any                       { return b.userData }
func (b *Body) SetUserData(v any)                   { b.userData = v }
func (b *Body) WorldPoint(local vec.Vec2) vec.Vec2  { return b.position.Add(vec.Mul(b.r, local)) }
func (b *Body) WorldVector(local vec.Vec2) vec.Vec2 { return vec.Mul(b.r, local) }
func (b *Body) LocalPoint(world vec.Vec2) vec.Vec2  { return vec.MulT(b.r, world.Sub(b.position)) }
func (b *Body) LocalVector(world vec.Vec2) vec.Vec2 { return vec.MulT(b.r, world) }

// ApplyForce applies a world force at a world point. Sleeping bodies ignore it.
func (b *Body) ApplyForce(force, point vec.Vec2) {
	if b.IsSleeping() {
		return
	}
	b.force = b.force.Add(force)
	b.torque += vec.Cross(point.Sub(b.position), force)
}

// ApplyTorque applies a torque. Sleeping bodies ignore it.
func (b *Body) ApplyTorque(torque float64) {
	if b.IsSleeping() {
		return
	}
	b.torque += torque
}

// ApplyImpulse changes the velocity by a world impulse at a world point.
// Sleeping bodies ignore it.
func (b *Body) ApplyImpulse(impulse, point vec.Vec2) {
	if b.IsSleeping() {
		return
	}
	b.linearVelocity = b.linearVelocity.Add(impulse.Scale(b.invMass))
	b.angularVelocity += b.invI * vec.Cross(point.Sub(b.position), impulse)
}

func (b *Body) IsStatic() bool   { return b.flags&flagStatic != 0 }
func (b *Body) IsFrozen() bool   { return b.flags&flagFrozen != 0 }
func (b *Body) IsSleeping() bool { return b.flags&flagSleep != 0 }
func (b *Body) IsFast() bool     { return b.flags&flagFast != 0 }

// IsDestroyed reports whether DestroyBody was called on the body.
func (b *Body) IsDestroyed() bool { return b.flags&flagDestroy != 0 }

// AllowSleeping enables or disables sleeping. Disabling wakes the body.
func (b *Body) AllowSleeping(flag bool) {
	if flag {
		b.flags |= flagAllowSleep
		return
	}
	b.flags &^= flagAllowSleep
	b.WakeUp()
}

func (b *Body) WakeUp() {
	b.flags &^= flagSleep
	b.sleepTime = 0
}

func (b *Body) Shapes() []*Shape            { return b.shapes }
func (b *Body) ContactEdges() []ContactEdge { return b.contacts }
func (b *Body) JointEdges() []JointEdge     { return b.joints }

// IsConnected reports whether a joint between b and other keeps them from
// colliding.
func (b *Body) IsConnected(other *Body) bool {
	for _, e := range b.joints {
		if e.Other == other {
			return !e.Joint.CollideConnected()
		}
	}
	return false
}

func (b *Body) synchronizeShapes() {
	xf0 := vec.NewTransform(b.position0, b.rotation0)
	xf1 := b.transform()
	bp := b.world.broadPhase
	for _, s := range b.shapes {
		s.synchronize(bp, xf0, xf1)
	}
}

func (b *Body) quickSyncShapes() {
	xf := b.transform()
	for _, s := range b.shapes {
		s.quickSync(xf)
	}
}

// freeze stops a body that left the world bounds and drops its proxies.
func (b *Body) freeze() {
	b.flags |= flagFrozen
	b.linearVelocity = vec.Vec2{}
	b.angularVelocity = 0
	bp := b.world.broadPhase
	for _, s := range b.shapes {
		s.destroyProxy(bp)
	}
}

func (b *Body) setRotation(rotation float64) {
	b.rotation = rotation
	b.r = vec.Rotation(rotation)
}

func (b *Body) linkContact(other *Body, c *Contact) {
	b.contacts = append(b.contacts, ContactEdge{Other: other, Contact: c})
}

func (b *Body) unlinkContact(c *Contact) {
	if i := slices.IndexFunc(b.contacts, func(e ContactEdge) bool { return e.Contact == c }); i >= 0 {
		b.contacts = slices.Delete(b.contacts, i, i+1)
	}
}

func (b *Body) linkJoint(other *Body, j Joint) {
	b.joints = append(b.joints, JointEdge{Other: other, Joint: j})
}

func (b *Body) unlinkJoint(j Joint) {
	if i := slices.IndexFunc(b.joints, func(e JointEdge) bool { return e.Joint == j }); i >= 0 {
		b.joints = slices.Delete(b.joints, i, i+1)
	}
}

// IsValid reports whether the body state is finite.
func (b *Body) IsValid() bool {
	return b.position.IsValid() && isFinite(b.rotation) &&
		b.linearVelocity.IsValid() && isFinite(b.angularVelocity)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
