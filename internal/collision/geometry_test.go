package collision_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

func square(h float64) []vec.Vec2 {
	return []vec.Vec2{vec.V(-h, -h), vec.V(h, -h), vec.V(h, h), vec.V(-h, h)}
}

var _ = Describe("Mass", func() {
	It("computes circle mass", func() {
		md := collision.CircleMass(0.5, 1)
		Expect(md.Mass).To(BeNumerically("~", math.Pi*0.25, 1e-12))
		Expect(md.I).To(BeNumerically("~", 0.5*md.Mass*0.25, 1e-12))
		Expect(md.Center).To(Equal(vec.Vec2{}))
	})

	It("computes box mass", func() {
		md := collision.BoxMass(vec.V(1, 0.5), 2)
		Expect(md.Mass).To(BeNumerically("~", 4, 1e-12))
		Expect(md.I).To(BeNumerically("~", 4.0/3.0*1.25, 1e-12))
	})

	It("matches the box formula for an equivalent polygon", func() {
		poly := []vec.Vec2{vec.V(-1, -0.5), vec.V(1, -0.5), vec.V(1, 0.5), vec.V(-1, 0.5)}
		md, err := collision.PolygonMass(poly, 2)
		Expect(err).NotTo(HaveOccurred())

		box := collision.BoxMass(vec.V(1, 0.5), 2)
		Expect(md.Mass).To(BeNumerically("~", box.Mass, 1e-9))
		Expect(md.I).To(BeNumerically("~", box.I, 1e-9))
		Expect(md.Center.X).To(BeNumerically("~", 0, 1e-12))
		Expect(md.Center.Y).To(BeNumerically("~", 0, 1e-12))
	})

	It("finds the centroid of an offset triangle", func() {
		tri := []vec.Vec2{vec.V(1, 1), vec.V(4, 1), vec.V(1, 4)}
		md, err := collision.PolygonMass(tri, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(md.Mass).To(BeNumerically("~", 4.5, 1e-9))
		Expect(md.Center.X).To(BeNumerically("~", 2, 1e-9))
		Expect(md.Center.Y).To(BeNumerically("~", 2, 1e-9))
	})

	It("handles a regular hexagon away from the origin", func() {
		const r, density = 1.5, 2.0
		center := vec.V(3, -2)
		hex := make([]vec.Vec2, 6)
		for i := range hex {
			a := float64(i) * math.Pi / 3
			hex[i] = center.Add(vec.V(r*math.Cos(a), r*math.Sin(a)))
		}

		var shoelace float64
		for i := range hex {
			shoelace += vec.Cross(hex[i], hex[(i+1)%len(hex)])
		}
		shoelace *= 0.5
		Expect(shoelace).To(BeNumerically("~", 1.5*math.Sqrt(3)*r*r, 1e-9))

		md, err := collision.PolygonMass(hex, density)
		Expect(err).NotTo(HaveOccurred())
		Expect(md.Mass).To(BeNumerically("~", density*shoelace, 1e-9))
		Expect(md.Center.X).To(BeNumerically("~", center.X, 1e-9))
		Expect(md.Center.Y).To(BeNumerically("~", center.Y, 1e-9))
		Expect(md.I).To(BeNumerically("~", 5.0/12.0*md.Mass*r*r, 1e-9))
	})

	It("rejects a zero-area polygon", func() {
		line := []vec.Vec2{vec.V(0, 0), vec.V(1, 0), vec.V(2, 0)}
		_, err := collision.PolygonMass(line, 1)
		Expect(errors.Is(err, collision.ErrDegenerate)).To(BeTrue())
	})
})

var _ = Describe("Polygon", func() {
	It("recenters vertices on the centroid", func() {
		verts := []vec.Vec2{vec.V(0, 0), vec.V(2, 0), vec.V(2, 2), vec.V(0, 2)}
		p, err := collision.NewPolygon(verts, vec.Vec2{}, 0, vec.Vec2{})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Centroid.X).To(BeNumerically("~", 1, 1e-12))
		Expect(p.Centroid.Y).To(BeNumerically("~", 1, 1e-12))
		Expect(p.Vertices[0]).To(Equal(vec.V(-1, -1)))
	})

	It("has unit outward normals", func() {
		p, err := collision.NewPolygon(square(1), vec.Vec2{}, 0, vec.Vec2{})
		Expect(err).NotTo(HaveOccurred())
		for i, n := range p.Normals {
			Expect(n.Length()).To(BeNumerically("~", 1, 1e-12))
			mid := p.Vertices[i].Add(p.Vertices[(i+1)%len(p.Vertices)]).Scale(0.5)
			Expect(n.Dot(mid)).To(BeNumerically(">", 0))
		}
	})

	It("shrinks the core by the margin", func() {
		p, err := collision.NewPolygon(square(1), vec.Vec2{}, 0, vec.Vec2{})
		Expect(err).NotTo(HaveOccurred())
		for i, c := range p.CoreVertices {
			// Each core vertex sits TOISlop inside both adjacent edges.
			Expect(math.Abs(c.X)).To(BeNumerically("~", 1-settings.TOISlop, 1e-12))
			Expect(math.Abs(c.Y)).To(BeNumerically("~", 1-settings.TOISlop, 1e-12))
			Expect(c.Dot(p.Normals[i])).To(BeNumerically("~", 1-settings.TOISlop, 1e-12))
		}
		Expect(p.MinRadius()).To(BeNumerically("~", 1-settings.TOISlop, 1e-12))
	})

	DescribeTable("validation",
		func(verts []vec.Vec2, want error) {
			err := collision.ValidatePolygon(verts)
			if want == nil {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
		},
		Entry("square", square(1), nil),
		Entry("two vertices", []vec.Vec2{vec.V(0, 0), vec.V(1, 0)}, collision.ErrVertexCount),
		Entry("nine vertices", make([]vec.Vec2, 9), collision.ErrVertexCount),
		Entry("clockwise", []vec.Vec2{vec.V(-1, -1), vec.V(-1, 1), vec.V(1, 1), vec.V(1, -1)}, collision.ErrDegenerate),
		Entry("reflex corner", []vec.Vec2{vec.V(0, 0), vec.V(2, 0), vec.V(1, 0.5), vec.V(2, 2), vec.V(0, 2)}, collision.ErrNotConvex),
		Entry("collinear vertex", []vec.Vec2{vec.V(0, 0), vec.V(1, 0), vec.V(2, 0), vec.V(2, 2), vec.V(0, 2)}, collision.ErrNotConvex),
		Entry("too thin", []vec.Vec2{vec.V(0, 0), vec.V(1, 0), vec.V(1, 0.01), vec.V(0, 0.01)}, collision.ErrTooThin),
	)

	It("builds rotated boxes", func() {
		b, err := collision.NewBox(vec.V(1, 0.5), vec.V(2, 0), math.Pi/2, vec.Vec2{})
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Centroid).To(Equal(vec.V(2, 0)))
		aabb := b.ComputeAABB(vec.NewTransform(b.Centroid, 0))
		Expect(aabb.Extents().X).To(BeNumerically("~", 0.5, 1e-12))
		Expect(aabb.Extents().Y).To(BeNumerically("~", 1, 1e-12))
	})

	It("rejects bad extents and radii", func() {
		_, err := collision.NewBox(vec.V(0, 1), vec.Vec2{}, 0, vec.Vec2{})
		Expect(err).To(MatchError(collision.ErrBadExtents))
		_, err = collision.NewCircle(vec.Vec2{}, -1)
		Expect(err).To(MatchError(collision.ErrBadRadius))
	})

	It("tests points", func() {
		p, err := collision.NewPolygon(square(1), vec.Vec2{}, 0, vec.Vec2{})
		Expect(err).NotTo(HaveOccurred())
		xf := vec.NewTransform(vec.V(5, 0), math.Pi/4)
		Expect(p.TestPoint(xf, vec.V(5, 0))).To(BeTrue())
		Expect(p.TestPoint(xf, vec.V(5, 1.3))).To(BeTrue())
		Expect(p.TestPoint(xf, vec.V(6, 1))).To(BeFalse())
	})
})

var _ = Describe("Circle", func() {
	It("supports along a direction with the core radius", func() {
		c, err := collision.NewCircle(vec.V(1, 0), 0.5)
		Expect(err).NotTo(HaveOccurred())
		xf := vec.NewTransform(vec.V(3, 3), 0)
		s := c.Support(xf, vec.V(0, 2))
		Expect(s.X).To(BeNumerically("~", 3, 1e-12))
		Expect(s.Y).To(BeNumerically("~", 3+0.5-settings.TOISlop, 1e-12))
	})

	It("bounds the shape from the body center", func() {
		c, _ := collision.NewCircle(vec.V(3, 4), 1)
		Expect(c.MaxRadius()).To(BeNumerically("~", 6, 1e-12))
		Expect(c.TestPoint(vec.NewTransform(vec.V(0, 0), 0), vec.V(0.3, 0.4))).To(BeTrue())
	})

	It("sweeps its bounds", func() {
		c, _ := collision.NewCircle(vec.Vec2{}, 1)
		a := collision.SweptAABB(c, vec.NewTransform(vec.V(0, 0), 0), vec.NewTransform(vec.V(4, 0), 0))
		Expect(a.Min).To(Equal(vec.V(-1, -1)))
		Expect(a.Max).To(Equal(vec.V(5, 1)))
	})
})

var _ = Describe("AABB", func() {
	It("overlaps when touching", func() {
		a := collision.AABB{Min: vec.V(0, 0), Max: vec.V(1, 1)}
		b := collision.AABB{Min: vec.V(1, 0), Max: vec.V(2, 1)}
		c := collision.AABB{Min: vec.V(1.1, 0), Max: vec.V(2, 1)}
		Expect(a.Overlaps(b)).To(BeTrue())
		Expect(a.Overlaps(c)).To(BeFalse())
		Expect(a.Union(c).Contains(b)).To(BeTrue())
		Expect(collision.AABB{Min: vec.V(1, 0), Max: vec.V(0, 1)}.IsValid()).To(BeFalse())
	})
})
