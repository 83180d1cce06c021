package collision

import (
	"math"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

const maxGJKIterations = 20

// Proxy is the convex point set plus radius used by Distance.
type Proxy struct {
	Vertices []vec.Vec2
	Radius   float64
}

// MakeProxy returns the core of g: polygon core vertices with no radius, or
// a circle center with the radius shrunk by the core margin.
func MakeProxy(g Geometry) Proxy {
	switch s := g.(type) {
	case *Circle:
		return Proxy{
			Vertices: []vec.Vec2{{}},
			Radius:   math.Max(0, s.Radius-settings.TOISlop),
		}
	case *Polygon:
		return Proxy{Vertices: s.CoreVertices}
	}
	return Proxy{}
}

func (p Proxy) support(d vec.Vec2) int {
	best := 0
	bestValue := p.Vertices[0].Dot(d)
	for i := 1; i < len(p.Vertices); i++ {
		if value := p.Vertices[i].Dot(d); value > bestValue {
			best = i
			bestValue = value
		}
	}
	return best
}

// DistanceOutput holds the closest points between two proxies.
type DistanceOutput struct {
	PointA     vec.Vec2
	PointB     vec.Vec2
	Distance   float64
	Iterations int
}

type simplexVertex struct {
	wA, wB vec.Vec2
	w      vec.Vec2 // wB - wA
	a      float64  // barycentric coordinate
	indexA int
	indexB int
}

type simplex struct {
	v     [3]simplexVertex
	count int
}

func (s *simplex) searchDirection() vec.Vec2 {
	switch s.count {
	case 1:
		return s.v[0].w.Neg()
	case 2:
		e12 := s.v[1].w.Sub(s.v[0].w)
		if vec.Cross(e12, s.v[0].w.Neg()) > 0 {
			return vec.CrossSV(1, e12)
		}
		return vec.CrossVS(e12, 1)
	}
	return vec.Vec2{}
}

func (s *simplex) witnessPoints() (vec.Vec2, vec.Vec2) {
	switch s.count {
	case 1:
		return s.v[0].wA, s.v[0].wB
	case 2:
		a := s.v[0].wA.Scale(s.v[0].a).Add(s.v[1].wA.Scale(s.v[1].a))
		b := s.v[0].wB.Scale(s.v[0].a).Add(s.v[1].wB.Scale(s.v[1].a))
		return a, b
	case 3:
		a := s.v[0].wA.Scale(s.v[0].a).
			Add(s.v[1].wA.Scale(s.v[1].a)).
			Add(s.v[2].wA.Scale(s.v[2].a))
		return a, a
	}
	return vec.Vec2{}, vec.Vec2{}
}

// solve2 reduces a segment simplex to the region closest to the origin.
func (s *simplex) solve2() {
	w1, w2 := s.v[0].w, s.v[1].w
	e12 := w2.Sub(w1)

	d12n2 := -w1.Dot(e12)
	if d12n2 <= 0 {
		s.v[0].a = 1
		s.count = 1
		return
	}

	d12n1 := w2.Dot(e12)
	if d12n1 <= 0 {
		s.v[1].a = 1
		s.count = 1
		s.v[0] = s.v[1]
		return
	}

	inv := 1 / (d12n1 + d12n2)
	s.v[0].a = d12n1 * inv
	s.v[1].a = d12n2 * inv
	s.count = 2
}

// solve3 reduces a triangle simplex to the vertex, edge or interior region
// containing the closest point to the origin.
func (s *simplex) solve3() {
	w1, w2, w3 := s.v[0].w, s.v[1].w, s.v[2].w

	e12 := w2.Sub(w1)
	d12n1 := w2.Dot(e12)
	d12n2 := -w1.Dot(e12)

	e13 := w3.Sub(w1)
	d13n1 := w3.Dot(e13)
	d13n2 := -w1.Dot(e13)

	e23 := w3.Sub(w2)
	d23n1 := w3.Dot(e23)
	d23n2 := -w2.Dot(e23)

	n123 := vec.Cross(e12, e13)
	d123n1 := n123 * vec.Cross(w2, w3)
	d123n2 := n123 * vec.Cross(w3, w1)
	d123n3 := n123 * vec.Cross(w1, w2)

	switch {
	case d12n2 <= 0 && d13n2 <= 0:
		s.v[0].a = 1
		s.count = 1

	case d12n1 > 0 && d12n2 > 0 && d123n3 <= 0:
		inv := 1 / (d12n1 + d12n2)
		s.v[0].a = d12n1 * inv
		s.v[1].a = d12n2 * inv
		s.count = 2

	case d13n1 > 0 && d13n2 > 0 && d123n2 <= 0:
		inv := 1 / (d13n1 + d13n2)
		s.v[0].a = d13n1 * inv
		s.v[2].a = d13n2 * inv
		s.count = 2
		s.v[1] = s.v[2]

	case d12n1 <= 0 && d23n2 <= 0:
		s.v[1].a = 1
		s.count = 1
		s.v[0] = s.v[1]

	case d13n1 <= 0 && d23n1 <= 0:
		s.v[2].a = 1
		s.count = 1
		s.v[0] = s.v[2]

	case d23n1 > 0 && d23n2 > 0 && d123n1 <= 0:
		inv := 1 / (d23n1 + d23n2)
		s.v[1].a = d23n1 * inv
		s.v[2].a = d23n2 * inv
		s.count = 2
		s.v[0] = s.v[2]

	default:
		inv := 1 / (d123n1 + d123n2 + d123n3)
		s.v[0].a = d123n1 * inv
		s.v[1].a = d123n2 * inv
		s.v[2].a = d123n3 * inv
		s.count = 3
	}
}

// Distance computes the closest points between two proxies placed at xfA
// and xfB using GJK. Overlapping proxies report zero distance.
func Distance(proxyA Proxy, xfA vec.Transform, proxyB Proxy, xfB vec.Transform) DistanceOutput {
	var s simplex
	first := &s.v[0]
	first.wA = xfA.Apply(proxyA.Vertices[0])
	first.wB = xfB.Apply(proxyB.Vertices[0])
	first.w = first.wB.Sub(first.wA)
	first.a = 1
	s.count = 1

	var saveA, saveB [3]int
	iter := 0
	for iter < maxGJKIterations {
		saveCount := s.count
		for i := 0; i < saveCount; i++ {
			saveA[i] = s.v[i].indexA
			saveB[i] = s.v[i].indexB
		}

		switch s.count {
		case 2:
			s.solve2()
		case 3:
			s.solve3()
		}

		// Origin inside the triangle.
		if s.count == 3 {
			break
		}

		d := s.searchDirection()
		if d.LengthSquared() < vec.Epsilon*vec.Epsilon {
			break
		}

		vertex := &s.v[s.count]
		vertex.indexA = proxyA.support(vec.MulT(xfA.R, d.Neg()))
		vertex.wA = xfA.Apply(proxyA.Vertices[vertex.indexA])
		vertex.indexB = proxyB.support(vec.MulT(xfB.R, d))
		vertex.wB = xfB.Apply(proxyB.Vertices[vertex.indexB])
		vertex.w = vertex.wB.Sub(vertex.wA)

		iter++

		duplicate := false
		for i := 0; i < saveCount; i++ {
			if vertex.indexA == saveA[i] && vertex.indexB == saveB[i] {
				duplicate = true
				break
			}
		}
		if duplicate {
			break
		}

		s.count++
	}

	out := DistanceOutput{Iterations: iter}
	out.PointA, out.PointB = s.witnessPoints()
	out.Distance = vec.Distance(out.PointA, out.PointB)

	rA, rB := proxyA.Radius, proxyB.Radius
	if out.Distance > rA+rB && out.Distance > vec.Epsilon {
		out.Distance -= rA + rB
		normal, _ := out.PointB.Sub(out.PointA).Normalize()
		out.PointA = out.PointA.Add(normal.Scale(rA))
		out.PointB = out.PointB.Sub(normal.Scale(rB))
	} else {
		p := out.PointA.Add(out.PointB).Scale(0.5)
		out.PointA = p
		out.PointB = p
		out.Distance = 0
	}

	return out
}

// ShapeDistance is Distance between the cores of two geometries whose frames
// sit at xf1 and xf2.
func ShapeDistance(g1 Geometry, xf1 vec.Transform, g2 Geometry, xf2 vec.Transform) DistanceOutput {
	return Distance(MakeProxy(g1), xf1, MakeProxy(g2), xf2)
}
