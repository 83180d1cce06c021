package collision

import (
	"math"

	"github.com/san-kum/boxsim/internal/vec"
)

type clipVertex struct {
	v  vec.Vec2
	id ContactID
}

// clipSegmentToLine keeps the part of the segment behind the plane
// dot(normal, x) = offset.
func clipSegmentToLine(in [2]clipVertex, normal vec.Vec2, offset float64) ([2]clipVertex, int) {
	var out [2]clipVertex
	count := 0

	distance0 := normal.Dot(in[0].v) - offset
	distance1 := normal.Dot(in[1].v) - offset

	if distance0 <= 0 {
		out[count] = in[0]
		count++
	}
	if distance1 <= 0 {
		out[count] = in[1]
		count++
	}

	if distance0*distance1 < 0 {
		interp := distance0 / (distance0 - distance1)
		out[count].v = in[0].v.Add(in[1].v.Sub(in[0].v).Scale(interp))
		if distance0 > 0 {
			out[count].id = in[0].id
		} else {
			out[count].id = in[1].id
		}
		count++
	}

	return out, count
}

// edgeSeparation measures how far poly2 lies in front of edge1 of poly1.
func edgeSeparation(poly1 *Polygon, xf1 vec.Transform, edge1 int, poly2 *Polygon, xf2 vec.Transform) float64 {
	normal1World := vec.Mul(xf1.R, poly1.Normals[edge1])
	normal1 := vec.MulT(xf2.R, normal1World)

	index := 0
	minDot := math.MaxFloat64
	for i, v := range poly2.Vertices {
		dot := v.Dot(normal1)
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	v1 := xf1.Apply(poly1.Vertices[edge1])
	v2 := xf2.Apply(poly2.Vertices[index])
	return v2.Sub(v1).Dot(normal1World)
}

// findMaxSeparation returns the edge of poly1 with the largest separation
// from poly2. It starts from the edge facing poly2's centroid and climbs
// to a local maximum. When the polygons overlap the result is checked
// against every edge so the global maximum is returned.
func findMaxSeparation(poly1 *Polygon, xf1 vec.Transform, poly2 *Polygon, xf2 vec.Transform, conservative bool) (int, float64) {
	count1 := len(poly1.Vertices)

	dLocal1 := vec.MulT(xf1.R, xf2.P.Sub(xf1.P))

	edge := 0
	maxDot := -math.MaxFloat64
	for i, n := range poly1.Normals {
		dot := n.Dot(dLocal1)
		if dot > maxDot {
			maxDot = dot
			edge = i
		}
	}

	s := edgeSeparation(poly1, xf1, edge, poly2, xf2)
	if s > 0 && !conservative {
		return edge, s
	}

	prevEdge := prev(edge, count1)
	sPrev := edgeSeparation(poly1, xf1, prevEdge, poly2, xf2)
	if sPrev > 0 && !conservative {
		return prevEdge, sPrev
	}

	nextEdge := next(edge, count1)
	sNext := edgeSeparation(poly1, xf1, nextEdge, poly2, xf2)
	if sNext > 0 && !conservative {
		return nextEdge, sNext
	}

	var (
		bestEdge       int
		bestSeparation float64
		increment      int
	)
	switch {
	case sPrev > s && sPrev > sNext:
		increment = -1
		bestEdge = prevEdge
		bestSeparation = sPrev
	case sNext > s:
		increment = 1
		bestEdge = nextEdge
		bestSeparation = sNext
	default:
		return fullScan(poly1, xf1, poly2, xf2, edge, s)
	}

	for {
		if increment == -1 {
			edge = prev(bestEdge, count1)
		} else {
			edge = next(bestEdge, count1)
		}

		s = edgeSeparation(poly1, xf1, edge, poly2, xf2)
		if s > 0 && !conservative {
			return edge, s
		}

		if s > bestSeparation {
			bestEdge = edge
			bestSeparation = s
		} else {
			break
		}
	}

	return fullScan(poly1, xf1, poly2, xf2, bestEdge, bestSeparation)
}

func fullScan(poly1 *Polygon, xf1 vec.Transform, poly2 *Polygon, xf2 vec.Transform, bestEdge int, bestSeparation float64) (int, float64) {
	for i := range poly1.Normals {
		if i == bestEdge {
			continue
		}
		if s := edgeSeparation(poly1, xf1, i, poly2, xf2); s > bestSeparation {
			bestEdge = i
			bestSeparation = s
		}
	}
	return bestEdge, bestSeparation
}

// findIncidentEdge returns the edge of poly2 most anti-parallel to edge1 of
// poly1, in world coordinates.
func findIncidentEdge(poly1 *Polygon, xf1 vec.Transform, edge1 int, poly2 *Polygon, xf2 vec.Transform) [2]clipVertex {
	normal1 := vec.MulT(xf2.R, vec.Mul(xf1.R, poly1.Normals[edge1]))

	index := 0
	minDot := math.MaxFloat64
	for i, n := range poly2.Normals {
		dot := normal1.Dot(n)
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	vertex21 := index
	vertex22 := next(vertex21, len(poly2.Vertices))

	var c [2]clipVertex
	c[0].v = xf2.Apply(poly2.Vertices[vertex21])
	c[0].id.Features = Features{
		ReferenceEdge:  uint8(edge1),
		IncidentEdge:   uint8(vertex21),
		IncidentVertex: uint8(vertex21),
	}
	c[1].v = xf2.Apply(poly2.Vertices[vertex22])
	c[1].id.Features = Features{
		ReferenceEdge:  uint8(edge1),
		IncidentEdge:   uint8(vertex21),
		IncidentVertex: uint8(vertex22),
	}
	return c
}

// CollidePolygons computes the contact manifold between two convex
// polygons using the separating axis test and reference-face clipping.
// xfA and xfB are the world transforms of the polygon centroids.
func CollidePolygons(m *Manifold, polyA *Polygon, xfA vec.Transform, polyB *Polygon, xfB vec.Transform, conservative bool) {
	m.PointCount = 0

	edgeA, separationA := findMaxSeparation(polyA, xfA, polyB, xfB, conservative)
	if separationA > 0 && !conservative {
		return
	}

	edgeB, separationB := findMaxSeparation(polyB, xfB, polyA, xfA, conservative)
	if separationB > 0 && !conservative {
		return
	}

	const (
		relativeTol = 0.98
		absoluteTol = 0.001
	)

	poly1, xf1 := polyA, xfA
	poly2, xf2 := polyB, xfB
	edge1 := edgeA
	var flip uint8

	// Prefer A as the reference face unless B is clearly better.
	if separationB > relativeTol*separationA+absoluteTol {
		poly1, xf1 = polyB, xfB
		poly2, xf2 = polyA, xfA
		edge1 = edgeB
		flip = 1
	}

	incidentEdge := findIncidentEdge(poly1, xf1, edge1, poly2, xf2)

	v11 := poly1.Vertices[edge1]
	v12 := poly1.Vertices[next(edge1, len(poly1.Vertices))]

	sideNormal, _ := vec.Mul(xf1.R, v12.Sub(v11)).Normalize()
	frontNormal := vec.CrossVS(sideNormal, 1)

	v11 = xf1.Apply(v11)
	v12 = xf1.Apply(v12)

	frontOffset := frontNormal.Dot(v11)
	sideOffset1 := -sideNormal.Dot(v11)
	sideOffset2 := sideNormal.Dot(v12)

	clipPoints1, np := clipSegmentToLine(incidentEdge, sideNormal.Neg(), sideOffset1)
	if np < 2 {
		return
	}

	clipPoints2, np := clipSegmentToLine(clipPoints1, sideNormal, sideOffset2)
	if np < 2 {
		return
	}

	if flip == 1 {
		m.Normal = frontNormal.Neg()
	} else {
		m.Normal = frontNormal
	}

	pointCount := 0
	for _, cv := range clipPoints2 {
		separation := frontNormal.Dot(cv.v) - frontOffset
		if separation <= 0 || conservative {
			cp := &m.Points[pointCount]
			*cp = ManifoldPoint{Position: cv.v, Separation: separation, ID: cv.id}
			cp.ID.Features.Flip = flip
			pointCount++
		}
	}
	m.PointCount = pointCount
}
