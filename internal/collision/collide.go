package collision

import "github.com/san-kum/boxsim/internal/vec"

// Collide dispatches to the pairwise routine for g1 and g2. xf1 and xf2 are
// the world transforms of each geometry's frame. The manifold normal always
// points from g1 to g2. Conservative collision keeps points that are not
// yet touching.
func Collide(m *Manifold, g1 Geometry, xf1 vec.Transform, g2 Geometry, xf2 vec.Transform, conservative bool) {
	switch s1 := g1.(type) {
	case *Circle:
		switch s2 := g2.(type) {
		case *Circle:
			CollideCircles(m, s1, xf1, s2, xf2, conservative)
		case *Polygon:
			CollidePolygonAndCircle(m, s2, xf2, s1, xf1, conservative)
			m.Normal = m.Normal.Neg()
		}
	case *Polygon:
		switch s2 := g2.(type) {
		case *Circle:
			CollidePolygonAndCircle(m, s1, xf1, s2, xf2, conservative)
		case *Polygon:
			CollidePolygons(m, s1, xf1, s2, xf2, conservative)
		}
	}
}
