package collision

import (
	"math"

	"github.com/san-kum/boxsim/internal/vec"
)

// CollideCircles computes the contact between two circles. xf1 and xf2 are
// the world transforms of the circle centers.
func CollideCircles(m *Manifold, c1 *Circle, xf1 vec.Transform, c2 *Circle, xf2 vec.Transform, conservative bool) {
	m.PointCount = 0

	p1, p2 := xf1.P, xf2.P
	d := p2.Sub(p1)
	distSqr := d.Dot(d)
	radiusSum := c1.Radius + c2.Radius
	if distSqr > radiusSum*radiusSum && !conservative {
		return
	}

	var separation float64
	if distSqr < vec.Epsilon {
		separation = -radiusSum
		m.Normal = vec.V(0, 1)
	} else {
		dist := math.Sqrt(distSqr)
		separation = dist - radiusSum
		m.Normal = d.Scale(1 / dist)
	}

	m.PointCount = 1
	m.Points[0] = ManifoldPoint{
		Position:   p2.Sub(m.Normal.Scale(c2.Radius)),
		Separation: separation,
	}
}

// CollidePolygonAndCircle computes the contact between a polygon and a
// circle. The manifold normal points from the polygon to the circle.
func CollidePolygonAndCircle(m *Manifold, poly *Polygon, xf1 vec.Transform, circle *Circle, xf2 vec.Transform, conservative bool) {
	m.PointCount = 0
	radius := circle.Radius

	// Circle center in the polygon frame.
	c := xf2.P
	cLocal := xf1.ApplyT(c)

	normalIndex := 0
	separation := -math.MaxFloat64
	n := len(poly.Vertices)
	for i := 0; i < n; i++ {
		s := poly.Normals[i].Dot(cLocal.Sub(poly.Vertices[i]))
		if s > radius {
			return
		}
		if s > separation {
			normalIndex = i
			separation = s
		}
	}

	// Center inside the polygon.
	if separation < vec.Epsilon {
		m.PointCount = 1
		m.Normal = vec.Mul(xf1.R, poly.Normals[normalIndex])
		id := nullID()
		id.Features.IncidentEdge = uint8(normalIndex)
		id.Features.Flip = 0
		m.Points[0] = ManifoldPoint{
			Position:   c.Sub(m.Normal.Scale(radius)),
			Separation: separation - radius,
			ID:         id,
		}
		return
	}

	// Project the center onto the nearest edge.
	vertIndex1 := normalIndex
	vertIndex2 := next(vertIndex1, n)
	e, length := poly.Vertices[vertIndex2].Sub(poly.Vertices[vertIndex1]).Normalize()

	u := cLocal.Sub(poly.Vertices[vertIndex1]).Dot(e)
	id := nullID()

	var p vec.Vec2
	switch {
	case length < vec.Epsilon || u <= 0:
		p = poly.Vertices[vertIndex1]
		id.Features.IncidentVertex = uint8(vertIndex1)
	case u >= length:
		p = poly.Vertices[vertIndex2]
		id.Features.IncidentVertex = uint8(vertIndex2)
	default:
		p = poly.Vertices[vertIndex1].Add(e.Scale(u))
		id.Features.IncidentEdge = uint8(vertIndex1)
	}

	d, dist := cLocal.Sub(p).Normalize()
	if dist > radius {
		return
	}

	m.PointCount = 1
	m.Normal = vec.Mul(xf1.R, d)
	m.Points[0] = ManifoldPoint{
		Position:   c.Sub(m.Normal.Scale(radius)),
		Separation: dist - radius,
		ID:         id,
	}
}
