package dynamics

import (
	"fmt"
	"math"

	"github.com/san-kum/boxsim/internal/broadphase"
	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/vec"
)

// Filter holds the collision filtering data of a shape.
type Filter struct {
	CategoryBits uint16
	MaskBits     uint16
	GroupIndex   int16
}

// DefaultShapeFilter collides with everything.
func DefaultShapeFilter() Filter {
	return Filter{CategoryBits: 0x0001, MaskBits: 0xFFFF}
}

// GeometryDef is the geometry part of a shape definition: CircleDef,
// BoxDef or PolyDef.
type GeometryDef interface {
	massData(density float64) (collision.MassData, error)
	build(localPosition vec.Vec2, localRotation float64, origin vec.Vec2) (collision.Geometry, error)
	validate() error
}

// CircleDef is a disk centered on the shape's local position.
type CircleDef struct {
	Radius float64
}

func (d CircleDef) massData(density float64) (collision.MassData, error) {
	return collision.CircleMass(d.Radius, density), nil
}

func (d CircleDef) build(localPosition vec.Vec2, _ float64, origin vec.Vec2) (collision.Geometry, error) {
	return collision.NewCircle(localPosition.Sub(origin), d.Radius)
}

func (d CircleDef) validate() error {
	if !(d.Radius > 0) {
		return collision.ErrBadRadius
	}
	return nil
}

// BoxDef is a rectangle with half-widths Extents centered on the shape's
// local position.
type BoxDef struct {
	Extents vec.Vec2
}

func (d BoxDef) massData(density float64) (collision.MassData, error) {
	return collision.BoxMass(d.Extents, density), nil
}

func (d BoxDef) build(localPosition vec.Vec2, localRotation float64, origin vec.Vec2) (collision.Geometry, error) {
	return collision.NewBox(d.Extents, localPosition, localRotation, origin)
}

func (d BoxDef) validate() error {
	_, err := collision.NewBox(d.Extents, vec.Vec2{}, 0, vec.Vec2{})
	return err
}

// PolyDef is a convex counter-clockwise polygon of 3 to 8 vertices given in
// the shape's local frame.
type PolyDef struct {
	Vertices []vec.Vec2
}

func (d PolyDef) massData(density float64) (collision.MassData, error) {
	return collision.PolygonMass(d.Vertices, density)
}

func (d PolyDef) build(localPosition vec.Vec2, localRotation float64, origin vec.Vec2) (collision.Geometry, error) {
	return collision.NewPolygon(d.Vertices, localPosition, localRotation, origin)
}

func (d PolyDef) validate() error {
	return collision.ValidatePolygon(d.Vertices)
}

// ShapeDef describes a shape to attach to a body.
type ShapeDef struct {
	Geometry      GeometryDef
	LocalPosition vec.Vec2
	LocalRotation float64

	Friction    float64
	Restitution float64
	Density     float64

	Filter   Filter
	UserData any
}

func newShapeDef(g GeometryDef) *ShapeDef {
	return &ShapeDef{
		Geometry: g,
		Friction: 0.2,
		Filter:   DefaultShapeFilter(),
	}
}

// NewCircleDef returns a circle definition with default material.
func NewCircleDef(radius float64) *ShapeDef { return newShapeDef(CircleDef{Radius: radius}) }

// NewBoxDef returns a box definition with default material.
func NewBoxDef(extents vec.Vec2) *ShapeDef { return newShapeDef(BoxDef{Extents: extents}) }

// NewPolyDef returns a polygon definition with default material.
func NewPolyDef(vertices ...vec.Vec2) *ShapeDef {
	return newShapeDef(PolyDef{Vertices: append([]vec.Vec2(nil), vertices...)})
}

func (sd *ShapeDef) WithDensity(density float64) *ShapeDef {
	sd.Density = density
	return sd
}

func (sd *ShapeDef) WithFriction(friction float64) *ShapeDef {
	sd.Friction = friction
	return sd
}

func (sd *ShapeDef) WithRestitution(restitution float64) *ShapeDef {
	sd.Restitution = restitution
	return sd
}

// At places the shape in the body frame.
func (sd *ShapeDef) At(localPosition vec.Vec2, localRotation float64) *ShapeDef {
	sd.LocalPosition = localPosition
	sd.LocalRotation = localRotation
	return sd
}

// Validate reports definition errors before any body is created.
func (sd *ShapeDef) Validate() error {
	if sd.Geometry == nil {
		return fmt.Errorf("%w: missing geometry", ErrInvalidShape)
	}
	if !(sd.Density >= 0) || !(sd.Friction >= 0) || !(sd.Restitution >= 0) {
		return fmt.Errorf("%w: density, friction and restitution must be non-negative", ErrInvalidShape)
	}
	if !sd.LocalPosition.IsValid() || math.IsNaN(sd.LocalRotation) || math.IsInf(sd.LocalRotation, 0) {
		return fmt.Errorf("%w: non-finite placement", ErrInvalidShape)
	}
	if err := sd.Geometry.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	return nil
}

// Shape is a piece of collision geometry owned by one body.
type Shape struct {
	body     *Body
	geometry collision.Geometry

	// World transform of the geometry frame.
	position vec.Vec2
	r        vec.Mat22

	friction    float64
	restitution float64
	filter      Filter

	proxyID  int
	userData any
}

func newShape(sd *ShapeDef, body *Body, center vec.Vec2) (*Shape, error) {
	g, err := sd.Geometry.build(sd.LocalPosition, sd.LocalRotation, center)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	s := &Shape{
		body:        body,
		geometry:    g,
		friction:    sd.Friction,
		restitution: sd.Restitution,
		filter:      sd.Filter,
		proxyID:     broadphase.NullProxy,
		userData:    sd.UserData,
	}
	s.quickSync(body.transform())
	return s, nil
}

func (s *Shape) Body() *Body                  { return s.body }
func (s *Shape) Geometry() collision.Geometry { return s.geometry }
func (s *Shape) Kind() collision.Kind         { return s.geometry.Kind() }

// Position is the world position of the shape's frame: the circle center or
// the polygon centroid.
func (s *Shape) Position() vec.Vec2 { return s.position }

// Rotation is the world rotation of the shape.
func (s *Shape) Rotation() vec.Mat22 { return s.r }

func (s *Shape) Friction() float64    { return s.friction }
func (s *Shape) Restitution() float64 { return s.restitution }
func (s *Shape) Filter() Filter       { return s.filter }
func (s *Shape) MaxRadius() float64   { return s.geometry.MaxRadius() }
func (s *Shape) UserData() any        { return s.userData }
func (s *Shape) SetUserData(v any)    { s.userData = v }
func (s *Shape) HasProxy() bool       { return s.proxyID != broadphase.NullProxy }

// TestPoint reports whether the world point p lies inside the shape.
func (s *Shape) TestPoint(p vec.Vec2) bool {
	return s.geometry.TestPoint(s.transform(), p)
}

// AABB is the world bounding box at the current pose.
func (s *Shape) AABB() collision.AABB {
	return s.geometry.ComputeAABB(s.transform())
}

func (s *Shape) transform() vec.Transform {
	return vec.Transform{P: s.position, R: s.r}
}

func (s *Shape) createProxy(bp *broadphase.BroadPhase) {
	aabb := s.AABB()
	if bp.InRange(aabb) {
		s.proxyID = bp.CreateProxy(aabb, s)
	} else {
		s.proxyID = broadphase.NullProxy
	}
}

func (s *Shape) destroyProxy(bp *broadphase.BroadPhase) {
	if s.proxyID != broadphase.NullProxy {
		bp.DestroyProxy(s.proxyID)
		s.proxyID = broadphase.NullProxy
	}
}

// synchronize moves the shape to xf1 and its proxy to the box swept from
// xf0. A shape whose swept box leaves the world freezes its body.
func (s *Shape) synchronize(bp *broadphase.BroadPhase, xf0, xf1 vec.Transform) {
	s.quickSync(xf1)
	if s.proxyID == broadphase.NullProxy {
		return
	}

	aabb := collision.SweptAABB(s.geometry, xf0, xf1)
	if bp.InRange(aabb) {
		bp.MoveProxy(s.proxyID, aabb)
	} else {
		s.body.freeze()
	}
}

func (s *Shape) quickSync(body vec.Transform) {
	f := collision.Frame(s.geometry, body)
	s.position = f.P
	s.r = f.R
}

// resetProxy recreates the proxy so that the broad phase offers its pairs
// again.
func (s *Shape) resetProxy(bp *broadphase.BroadPhase) {
	if s.proxyID == broadphase.NullProxy {
		return
	}
	bp.DestroyProxy(s.proxyID)
	s.createProxy(bp)
	if s.proxyID == broadphase.NullProxy {
		s.body.freeze()
	}
}
