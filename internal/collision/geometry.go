package collision

import (
	"fmt"
	"math"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// Kind tags the concrete geometry type.
type Kind uint8

const (
	KindCircle Kind = iota
	KindPolygon
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MassData describes the mass properties of a shape about its own
// definition origin.
type MassData struct {
	Mass   float64
	Center vec.Vec2
	I      float64
}

// Geometry is the closed set of collision shapes: *Circle and *Polygon.
//
// A geometry lives in its body's frame. LocalPosition is the origin of the
// geometry's own frame (circle center or polygon centroid) relative to the
// body's center of mass. Methods taking a transform expect the world
// transform of that frame, see Frame.
type Geometry interface {
	Kind() Kind
	LocalPosition() vec.Vec2
	ComputeAABB(xf vec.Transform) AABB
	Support(xf vec.Transform, d vec.Vec2) vec.Vec2
	TestPoint(xf vec.Transform, p vec.Vec2) bool
	// MaxRadius bounds the distance from the body's center of mass to any
	// point of the core shape.
	MaxRadius() float64
	isGeometry()
}

// Frame returns the world transform of g's frame for a body transform.
func Frame(g Geometry, body vec.Transform) vec.Transform {
	return vec.Transform{P: body.Apply(g.LocalPosition()), R: body.R}
}

// SweptAABB covers g at both body transforms. Rotation between the two
// poses may be slightly under-covered.
func SweptAABB(g Geometry, body0, body1 vec.Transform) AABB {
	a := g.ComputeAABB(Frame(g, body0))
	b := g.ComputeAABB(Frame(g, body1))
	return a.Union(b)
}

// Circle is a solid disk.
type Circle struct {
	Position vec.Vec2
	Radius   float64
}

// NewCircle builds a circle whose center sits at localPosition in the body frame.
func NewCircle(localPosition vec.Vec2, radius float64) (*Circle, error) {
	if !(radius > 0) {
		return nil, ErrBadRadius
	}
	return &Circle{Position: localPosition, Radius: radius}, nil
}

func (c *Circle) Kind() Kind              { return KindCircle }
func (c *Circle) LocalPosition() vec.Vec2 { return c.Position }
func (c *Circle) MaxRadius() float64      { return c.Position.Length() + c.Radius }
func (c *Circle) isGeometry()             {}

func (c *Circle) ComputeAABB(xf vec.Transform) AABB {
	r := vec.V(c.Radius, c.Radius)
	return AABB{Min: xf.P.Sub(r), Max: xf.P.Add(r)}
}

// Support returns the point of the core circle farthest along d.
func (c *Circle) Support(xf vec.Transform, d vec.Vec2) vec.Vec2 {
	u, _ := d.Normalize()
	r := math.Max(0, c.Radius-settings.TOISlop)
	return xf.P.Add(u.Scale(r))
}

func (c *Circle) TestPoint(xf vec.Transform, p vec.Vec2) bool {
	d := p.Sub(xf.P)
	return d.Dot(d) <= c.Radius*c.Radius
}

// Polygon is a convex polygon with counter-clockwise winding. Vertices are
// stored relative to the centroid.
type Polygon struct {
	Centroid     vec.Vec2
	Vertices     []vec.Vec2
	Normals      []vec.Vec2
	CoreVertices []vec.Vec2

	obbCenter  vec.Vec2
	obbExtents vec.Vec2
	minRadius  float64
	maxRadius  float64
}

// NewPolygon builds a polygon from definition-space vertices placed at
// localPosition and rotated by localAngle. origin is the body's center of
// mass in the same frame; the result is expressed relative to it.
func NewPolygon(vertices []vec.Vec2, localPosition vec.Vec2, localAngle float64, origin vec.Vec2) (*Polygon, error) {
	n := len(vertices)
	if n < 3 || n > settings.MaxPolyVertices {
		return nil, fmt.Errorf("%w: got %d", ErrVertexCount, n)
	}

	centroid, area := polyCentroid(vertices)
	if area <= vec.Epsilon {
		return nil, ErrDegenerate
	}

	localR := vec.Rotation(localAngle)
	p := &Polygon{
		Centroid: localPosition.Add(vec.Mul(localR, centroid)).Sub(origin),
		Vertices: make([]vec.Vec2, n),
	}
	for i, v := range vertices {
		p.Vertices[i] = vec.Mul(localR, v.Sub(centroid))
	}

	if err := p.finish(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewBox builds a rectangle with half-widths extents.
func NewBox(extents vec.Vec2, localPosition vec.Vec2, localAngle float64, origin vec.Vec2) (*Polygon, error) {
	if !(extents.X > 0 && extents.Y > 0) {
		return nil, ErrBadExtents
	}

	localR := vec.Rotation(localAngle)
	hx, hy := extents.X, extents.Y
	p := &Polygon{
		Centroid: localPosition.Sub(origin),
		Vertices: []vec.Vec2{
			vec.Mul(localR, vec.V(hx, hy)),
			vec.Mul(localR, vec.V(-hx, hy)),
			vec.Mul(localR, vec.V(-hx, -hy)),
			vec.Mul(localR, vec.V(hx, -hy)),
		},
	}

	if err := p.finish(); err != nil {
		return nil, err
	}
	return p, nil
}

// finish computes the bounding box, normals and core of the polygon.
func (p *Polygon) finish() error {
	n := len(p.Vertices)

	lower := vec.V(math.MaxFloat64, math.MaxFloat64)
	upper := vec.V(-math.MaxFloat64, -math.MaxFloat64)
	for _, v := range p.Vertices {
		lower = vec.Min(lower, v)
		upper = vec.Max(upper, v)
	}
	p.obbCenter = lower.Add(upper).Scale(0.5)
	p.obbExtents = upper.Sub(lower).Scale(0.5)

	p.Normals = make([]vec.Vec2, n)
	for i := 0; i < n; i++ {
		edge := p.Vertices[next(i, n)].Sub(p.Vertices[i])
		normal, length := vec.CrossVS(edge, 1).Normalize()
		if length < vec.Epsilon {
			return ErrDegenerate
		}
		p.Normals[i] = normal
	}

	for i := 0; i < n; i++ {
		if vec.Cross(p.Normals[i], p.Normals[next(i, n)]) <= vec.Epsilon {
			return ErrNotConvex
		}
	}

	// Shift each edge inward by the core margin and intersect neighbours:
	// dot(n1, core) = d.X, dot(n2, core) = d.Y.
	p.CoreVertices = make([]vec.Vec2, n)
	p.minRadius = math.MaxFloat64
	p.maxRadius = -math.MaxFloat64
	for i := 0; i < n; i++ {
		n1 := p.Normals[prev(i, n)]
		n2 := p.Normals[i]
		v := p.Vertices[i]

		d := vec.V(n1.Dot(v)-settings.TOISlop, n2.Dot(v)-settings.TOISlop)
		if d.X < 0 || d.Y < 0 {
			return ErrTooThin
		}

		p.CoreVertices[i] = vec.Rows(n1, n2).Solve(d)
		p.minRadius = math.Min(p.minRadius, math.Min(d.X, d.Y))
		p.maxRadius = math.Max(p.maxRadius, p.CoreVertices[i].Add(p.Centroid).Length())
	}

	return nil
}

func (p *Polygon) Kind() Kind              { return KindPolygon }
func (p *Polygon) LocalPosition() vec.Vec2 { return p.Centroid }
func (p *Polygon) MaxRadius() float64      { return p.maxRadius }
func (p *Polygon) isGeometry()             {}

// MinRadius is the smallest inward offset of the core edges from the centroid.
func (p *Polygon) MinRadius() float64 { return p.minRadius }

func (p *Polygon) ComputeAABB(xf vec.Transform) AABB {
	h := vec.Mul(xf.R.Abs(), p.obbExtents)
	c := xf.Apply(p.obbCenter)
	return AABB{Min: c.Sub(h), Max: c.Add(h)}
}

// Support returns the core vertex farthest along d.
func (p *Polygon) Support(xf vec.Transform, d vec.Vec2) vec.Vec2 {
	dLocal := vec.MulT(xf.R, d)
	best := 0
	bestValue := p.CoreVertices[0].Dot(dLocal)
	for i := 1; i < len(p.CoreVertices); i++ {
		value := p.CoreVertices[i].Dot(dLocal)
		if value > bestValue {
			best = i
			bestValue = value
		}
	}
	return xf.Apply(p.CoreVertices[best])
}

func (p *Polygon) TestPoint(xf vec.Transform, pt vec.Vec2) bool {
	pLocal := xf.ApplyT(pt)
	for i, n := range p.Normals {
		if n.Dot(pLocal.Sub(p.Vertices[i])) > 0 {
			return false
		}
	}
	return true
}

func next(i, n int) int {
	if i+1 < n {
		return i + 1
	}
	return 0
}

func prev(i, n int) int {
	if i > 0 {
		return i - 1
	}
	return n - 1
}
