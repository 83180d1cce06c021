package collision

import (
	"fmt"
	"math"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// CircleMass returns the mass properties of a solid disk about its center.
func CircleMass(radius, density float64) MassData {
	mass := density * math.Pi * radius * radius
	return MassData{Mass: mass, I: 0.5 * mass * radius * radius}
}

// BoxMass returns the mass properties of a rectangle with half-widths
// extents about its center.
func BoxMass(extents vec.Vec2, density float64) MassData {
	mass := 4 * density * extents.X * extents.Y
	return MassData{Mass: mass, I: mass / 3 * extents.Dot(extents)}
}

// PolygonMass integrates mass, centroid and rotational inertia (about the
// centroid) of a counter-clockwise convex polygon by fanning triangles out
// of the definition origin.
func PolygonMass(vertices []vec.Vec2, density float64) (MassData, error) {
	n := len(vertices)
	if n < 3 || n > settings.MaxPolyVertices {
		return MassData{}, fmt.Errorf("%w: got %d", ErrVertexCount, n)
	}

	var (
		center  vec.Vec2
		area    float64
		inertia float64
	)
	const inv3 = 1.0 / 3.0

	for i := 0; i < n; i++ {
		p2 := vertices[i]
		p3 := vertices[next(i, n)]

		e1, e2 := p2, p3
		D := vec.Cross(e1, e2)

		triangleArea := 0.5 * D
		area += triangleArea
		center = center.Add(p2.Add(p3).Scale(triangleArea * inv3))

		ex1, ey1 := e1.X, e1.Y
		ex2, ey2 := e2.X, e2.Y

		// Second moments of the triangle fanned from the origin.
		intx2 := inv3 * 0.25 * (ex1*ex1 + ex2*ex1 + ex2*ex2)
		inty2 := inv3 * 0.25 * (ey1*ey1 + ey2*ey1 + ey2*ey2)
		inertia += D * (intx2 + inty2)
	}

	if area <= vec.Epsilon {
		return MassData{}, ErrDegenerate
	}

	center = center.Scale(1 / area)
	return MassData{
		Mass:   density * area,
		Center: center,
		I:      density * (inertia - area*center.Dot(center)),
	}, nil
}

// ValidatePolygon reports whether vertices describe a usable polygon.
func ValidatePolygon(vertices []vec.Vec2) error {
	_, err := NewPolygon(vertices, vec.Vec2{}, 0, vec.Vec2{})
	return err
}

func polyCentroid(vertices []vec.Vec2) (vec.Vec2, float64) {
	var c vec.Vec2
	var area float64
	const inv3 = 1.0 / 3.0

	n := len(vertices)
	for i := 0; i < n; i++ {
		p2 := vertices[i]
		p3 := vertices[next(i, n)]
		triangleArea := 0.5 * vec.Cross(p2, p3)
		area += triangleArea
		c = c.Add(p2.Add(p3).Scale(triangleArea * inv3))
	}
	if area > vec.Epsilon {
		c = c.Scale(1 / area)
	}
	return c, area
}
