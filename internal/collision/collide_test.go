package collision_test

import (
	"math"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/vec"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func box(hx, hy float64) *collision.Polygon {
	p, err := collision.NewBox(vec.V(hx, hy), vec.Vec2{}, 0, vec.Vec2{})
	Expect(err).NotTo(HaveOccurred())
	return p
}

func circle(r float64) *collision.Circle {
	c, err := collision.NewCircle(vec.Vec2{}, r)
	Expect(err).NotTo(HaveOccurred())
	return c
}

var _ = Describe("CollideCircles", func() {
	It("reports one point for overlapping circles", func() {
		var m collision.Manifold
		collision.CollideCircles(&m, circle(1), vec.NewTransform(vec.V(0, 0), 0), circle(1), vec.NewTransform(vec.V(1.5, 0), 0), false)

		Expect(m.PointCount).To(Equal(1))
		want := collision.ManifoldPoint{Position: vec.V(0.5, 0), Separation: -0.5}
		Expect(cmp.Diff(want, m.Points[0], approx)).To(BeEmpty())
		Expect(m.Normal).To(Equal(vec.V(1, 0)))
		Expect(m.Points[0].ID.Key()).To(BeZero())
	})

	It("reports nothing for separated circles", func() {
		var m collision.Manifold
		collision.CollideCircles(&m, circle(1), vec.NewTransform(vec.V(0, 0), 0), circle(1), vec.NewTransform(vec.V(3, 0), 0), false)
		Expect(m.PointCount).To(BeZero())
	})

	It("keeps separated circles in conservative mode", func() {
		var m collision.Manifold
		collision.CollideCircles(&m, circle(1), vec.NewTransform(vec.V(0, 0), 0), circle(1), vec.NewTransform(vec.V(3, 0), 0), true)
		Expect(m.PointCount).To(Equal(1))
		Expect(m.Points[0].Separation).To(BeNumerically("~", 1, 1e-12))
	})

	It("picks an up normal for coincident centers", func() {
		var m collision.Manifold
		collision.CollideCircles(&m, circle(1), vec.NewTransform(vec.V(2, 2), 0), circle(0.5), vec.NewTransform(vec.V(2, 2), 0), false)
		Expect(m.PointCount).To(Equal(1))
		Expect(m.Normal).To(Equal(vec.V(0, 1)))
		Expect(m.Points[0].Separation).To(Equal(-1.5))
	})
})

var _ = Describe("CollidePolygonAndCircle", func() {
	It("handles a circle resting on a face", func() {
		var m collision.Manifold
		collision.CollidePolygonAndCircle(&m, box(1, 1), vec.NewTransform(vec.V(0, 0), 0), circle(0.5), vec.NewTransform(vec.V(0, 1.4), 0), false)

		Expect(m.PointCount).To(Equal(1))
		Expect(m.Normal.X).To(BeNumerically("~", 0, 1e-12))
		Expect(m.Normal.Y).To(BeNumerically("~", 1, 1e-12))
		Expect(m.Points[0].Separation).To(BeNumerically("~", -0.1, 1e-12))
		Expect(m.Points[0].Position.Y).To(BeNumerically("~", 0.9, 1e-12))
		Expect(m.Points[0].ID.Features.IncidentEdge).To(Equal(uint8(0)))
		Expect(m.Points[0].ID.Features.IncidentVertex).To(Equal(uint8(collision.NullFeature)))
	})

	It("handles a circle near a corner", func() {
		var m collision.Manifold
		collision.CollidePolygonAndCircle(&m, box(1, 1), vec.NewTransform(vec.V(0, 0), 0), circle(0.5), vec.NewTransform(vec.V(1.2, 1.2), 0), false)

		Expect(m.PointCount).To(Equal(1))
		Expect(m.Normal.X).To(BeNumerically("~", math.Sqrt2/2, 1e-12))
		Expect(m.Normal.Y).To(BeNumerically("~", math.Sqrt2/2, 1e-12))
		Expect(m.Points[0].Separation).To(BeNumerically("~", 0.2*math.Sqrt2-0.5, 1e-12))
		Expect(m.Points[0].ID.Features.IncidentEdge).To(Equal(uint8(collision.NullFeature)))
	})

	It("handles a center inside the polygon", func() {
		var m collision.Manifold
		collision.CollidePolygonAndCircle(&m, box(1, 1), vec.NewTransform(vec.V(0, 0), 0), circle(0.5), vec.NewTransform(vec.V(0.8, 0), 0), false)

		Expect(m.PointCount).To(Equal(1))
		Expect(m.Normal.X).To(BeNumerically("~", 1, 1e-12))
		Expect(m.Points[0].Separation).To(BeNumerically("~", -0.2-0.5, 1e-12))
	})

	It("misses a distant circle", func() {
		var m collision.Manifold
		collision.CollidePolygonAndCircle(&m, box(1, 1), vec.NewTransform(vec.V(0, 0), 0), circle(0.5), vec.NewTransform(vec.V(1.4, 1.4), 0), false)
		Expect(m.PointCount).To(BeZero())
	})

	It("negates the normal when the circle comes first", func() {
		var a, b collision.Manifold
		c := circle(0.5)
		p := box(1, 1)
		xfc := vec.NewTransform(vec.V(0, 1.4), 0)
		xfp := vec.NewTransform(vec.V(0, 0), 0)

		collision.Collide(&a, p, xfp, c, xfc, false)
		collision.Collide(&b, c, xfc, p, xfp, false)
		Expect(b.PointCount).To(Equal(a.PointCount))
		Expect(b.Normal).To(Equal(a.Normal.Neg()))
	})
})

var _ = Describe("CollidePolygons", func() {
	It("produces two points for a box resting on a box", func() {
		var m collision.Manifold
		ground := box(5, 0.5)
		top := box(0.5, 0.5)
		collision.CollidePolygons(&m, ground, vec.NewTransform(vec.V(0, 0), 0), top, vec.NewTransform(vec.V(0, 0.95), 0), false)

		Expect(m.PointCount).To(Equal(2))
		Expect(m.Normal.X).To(BeNumerically("~", 0, 1e-12))
		Expect(m.Normal.Y).To(BeNumerically("~", 1, 1e-12))
		for i := 0; i < m.PointCount; i++ {
			Expect(m.Points[i].Separation).To(BeNumerically("~", -0.05, 1e-12))
			Expect(m.Points[i].Position.Y).To(BeNumerically("~", 0.45, 1e-12))
		}
		Expect(m.Points[0].ID.Key()).NotTo(Equal(m.Points[1].ID.Key()))
	})

	It("points the normal from the first polygon to the second", func() {
		var m collision.Manifold
		top := box(0.5, 0.5)
		ground := box(5, 0.5)
		collision.CollidePolygons(&m, top, vec.NewTransform(vec.V(0, 0.95), 0), ground, vec.NewTransform(vec.V(0, 0), 0), false)

		Expect(m.PointCount).To(Equal(2))
		Expect(m.Normal.Y).To(BeNumerically("~", -1, 1e-12))
		for i := 0; i < m.PointCount; i++ {
			Expect(m.Points[i].Separation).To(BeNumerically("~", -0.05, 1e-12))
		}
	})

	It("moves the points onto the other face when the order is swapped", func() {
		var ab, ba collision.Manifold
		xfA := vec.NewTransform(vec.V(0, 0), 0)
		xfB := vec.NewTransform(vec.V(0.3, 1.9), 0)
		collision.CollidePolygons(&ab, box(1, 1), xfA, box(1, 1), xfB, false)
		collision.CollidePolygons(&ba, box(1, 1), xfB, box(1, 1), xfA, false)

		Expect(ab.PointCount).To(Equal(2))
		Expect(ba.PointCount).To(Equal(ab.PointCount))
		Expect(cmp.Diff(ab.Normal.Neg(), ba.Normal, approx)).To(BeEmpty())

		// Points sit on the incident face, so the swap shifts them by the
		// penetration depth along the first normal.
		for i := 0; i < ab.PointCount; i++ {
			sep := ab.Points[i].Separation
			Expect(sep).To(BeNumerically("~", -0.1, 1e-12))
			want := ab.Points[i].Position.Add(ab.Normal.Scale(math.Abs(sep)))
			found := false
			for j := 0; j < ba.PointCount; j++ {
				if vec.Distance(ba.Points[j].Position, want) < 1e-9 {
					Expect(ba.Points[j].Separation).To(BeNumerically("~", sep, 1e-12))
					found = true
				}
			}
			Expect(found).To(BeTrue(), "no swapped point at %v", want)
		}
	})

	It("flips the reference face when the second polygon is clearly better", func() {
		var m collision.Manifold
		diamond := box(0.5, 0.5)
		ground := box(5, 0.5)
		h := 0.5 * math.Sqrt2
		collision.CollidePolygons(&m, diamond, vec.NewTransform(vec.V(0, 0.5+h-0.02), math.Pi/4), ground, vec.NewTransform(vec.V(0, 0), 0), false)

		Expect(m.PointCount).To(Equal(1))
		Expect(m.Normal.X).To(BeNumerically("~", 0, 1e-12))
		Expect(m.Normal.Y).To(BeNumerically("~", -1, 1e-12))
		Expect(m.Points[0].ID.Features.Flip).To(Equal(uint8(1)))
		Expect(m.Points[0].Separation).To(BeNumerically("~", -0.02, 1e-9))
	})

	It("reports nothing for separated polygons", func() {
		var m collision.Manifold
		collision.CollidePolygons(&m, box(1, 1), vec.NewTransform(vec.V(0, 0), 0), box(1, 1), vec.NewTransform(vec.V(2.5, 0), 0), false)
		Expect(m.PointCount).To(BeZero())
	})

	It("keeps speculative points in conservative mode", func() {
		var m collision.Manifold
		collision.CollidePolygons(&m, box(1, 1), vec.NewTransform(vec.V(0, 0), 0), box(1, 1), vec.NewTransform(vec.V(2.5, 0), 0), true)
		Expect(m.PointCount).To(Equal(2))
		Expect(m.Points[0].Separation).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("produces stable IDs across small motions", func() {
		var a, b collision.Manifold
		ground := box(5, 0.5)
		top := box(0.5, 0.5)
		collision.CollidePolygons(&a, ground, vec.NewTransform(vec.V(0, 0), 0), top, vec.NewTransform(vec.V(0, 0.95), 0), false)
		collision.CollidePolygons(&b, ground, vec.NewTransform(vec.V(0, 0), 0), top, vec.NewTransform(vec.V(0.01, 0.96), 0.01), false)

		Expect(b.PointCount).To(Equal(a.PointCount))
		keys := map[uint32]bool{}
		for i := 0; i < a.PointCount; i++ {
			keys[a.Points[i].ID.Key()] = true
		}
		for i := 0; i < b.PointCount; i++ {
			Expect(keys).To(HaveKey(b.Points[i].ID.Key()))
		}
	})

	It("handles a rotated box on its corner", func() {
		var m collision.Manifold
		ground := box(5, 0.5)
		diamond := box(0.5, 0.5)
		h := 0.5 * math.Sqrt2
		collision.CollidePolygons(&m, ground, vec.NewTransform(vec.V(0, 0), 0), diamond, vec.NewTransform(vec.V(0, 0.5+h-0.02), math.Pi/4), false)

		Expect(m.PointCount).To(Equal(1))
		Expect(m.Points[0].Separation).To(BeNumerically("~", -0.02, 1e-9))
		Expect(m.Points[0].Position.X).To(BeNumerically("~", 0, 1e-9))
	})
})

var _ = Describe("Distance", func() {
	It("measures the gap between cores of two boxes", func() {
		out := collision.ShapeDistance(box(1, 1), vec.NewTransform(vec.V(0, 0), 0), box(1, 1), vec.NewTransform(vec.V(3, 0), 0))
		// Cores are each shrunk by the margin.
		Expect(out.Distance).To(BeNumerically("~", 1+2*0.04, 1e-9))
		Expect(out.PointA.X).To(BeNumerically("~", 0.96, 1e-9))
		Expect(out.PointB.X).To(BeNumerically("~", 2.04, 1e-9))
	})

	It("applies circle radii", func() {
		out := collision.ShapeDistance(circle(1), vec.NewTransform(vec.V(0, 0), 0), circle(1), vec.NewTransform(vec.V(0, 5), 0))
		Expect(out.Distance).To(BeNumerically("~", 5-2*0.96, 1e-9))
		Expect(out.PointA.Y).To(BeNumerically("~", 0.96, 1e-9))
	})

	It("returns zero for overlapping shapes", func() {
		out := collision.ShapeDistance(box(1, 1), vec.NewTransform(vec.V(0, 0), 0), circle(1), vec.NewTransform(vec.V(0.5, 0.5), 0))
		Expect(out.Distance).To(BeZero())
		Expect(out.PointA).To(Equal(out.PointB))
	})

	It("measures a circle against a box face", func() {
		out := collision.ShapeDistance(box(1, 1), vec.NewTransform(vec.V(0, 0), 0), circle(0.5), vec.NewTransform(vec.V(0, 3), 0.3))
		Expect(out.Distance).To(BeNumerically("~", 3-0.96-0.46, 1e-9))
	})
})
