package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/vec"
)

const padding = 10.0

type Style struct {
	Background string
	Static     string
	Dynamic    string
	Sleeping   string
	Joint      string
}

func DefaultStyle() Style {
	return Style{
		Background: "#0a0a0a",
		Static:     "#5f5f5f",
		Dynamic:    "#00d7af",
		Sleeping:   "#ffd700",
		Joint:      "#ff5f5f",
	}
}

// view maps world coordinates onto an SVG canvas with y pointing up.
type view struct {
	min    vec.Vec2
	scale  float64
	height float64
}

func newView(box collision.AABB, width, height int) view {
	rx := math.Max(box.Max.X-box.Min.X, 1e-3)
	ry := math.Max(box.Max.Y-box.Min.Y, 1e-3)
	scale := math.Min((float64(width)-2*padding)/rx, (float64(height)-2*padding)/ry)
	return view{min: box.Min, scale: scale, height: float64(height)}
}

func (v view) point(p vec.Vec2) (float64, float64) {
	x := padding + (p.X-v.min.X)*v.scale
	y := v.height - padding - (p.Y-v.min.Y)*v.scale
	return x, y
}

func header(sb *strings.Builder, width, height int, background string) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// WorldToSVG draws every shape and joint of w, fitted to the bounding box of
// all shapes.
func WorldToSVG(w *dynamics.World, width, height int, style Style) string {
	var box collision.AABB
	first := true
	for _, b := range w.Bodies() {
		for _, s := range b.Shapes() {
			if first {
				box = s.AABB()
				first = false
				continue
			}
			box = box.Union(s.AABB())
		}
	}
	v := newView(box, width, height)

	var sb strings.Builder
	header(&sb, width, height, style.Background)

	for _, b := range w.Bodies() {
		color := style.Dynamic
		switch {
		case b.IsStatic():
			color = style.Static
		case b.IsSleeping():
			color = style.Sleeping
		}
		for _, s := range b.Shapes() {
			writeShape(&sb, v, s, color)
		}
	}

	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="1.5" fill="none">`+"\n", style.Joint))
	for _, j := range w.Joints() {
		writeJoint(&sb, v, j)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func writeShape(sb *strings.Builder, v view, s *dynamics.Shape, color string) {
	switch g := s.Geometry().(type) {
	case *collision.Circle:
		cx, cy := v.point(s.Position())
		r := g.Radius * v.scale
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s"/>`+"\n",
			cx, cy, r, color))
		// Radius line shows the rotation.
		ex, ey := v.point(s.Position().Add(vec.Mul(s.Rotation(), vec.V(g.Radius, 0))))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
			cx, cy, ex, ey, color))
	case *collision.Polygon:
		pts := make([]string, len(g.Vertices))
		for i, local := range g.Vertices {
			x, y := v.point(s.Position().Add(vec.Mul(s.Rotation(), local)))
			pts[i] = fmt.Sprintf("%.1f,%.1f", x, y)
		}
		sb.WriteString(fmt.Sprintf(`<polygon points="%s" fill="none" stroke="%s"/>`+"\n",
			strings.Join(pts, " "), color))
	}
}

func writeJoint(sb *strings.Builder, v view, j dynamics.Joint) {
	var path []vec.Vec2
	switch jt := j.(type) {
	case *dynamics.PulleyJoint:
		path = []vec.Vec2{jt.Anchor1(), jt.GroundPoint1(), jt.GroundPoint2(), jt.Anchor2()}
	case *dynamics.GearJoint:
		// Gears couple other joints and have no physical link to draw.
		return
	default:
		path = []vec.Vec2{j.Anchor1(), j.Anchor2()}
	}

	pts := make([]string, len(path))
	for i, p := range path {
		x, y := v.point(p)
		pts[i] = fmt.Sprintf("%.1f,%.1f", x, y)
	}
	sb.WriteString(fmt.Sprintf(`<polyline points="%s"/>`+"\n", strings.Join(pts, " ")))
}

// TrajectoryToSVG draws the path through points.
func TrajectoryToSVG(points []vec.Vec2, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	box := collision.AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = vec.Min(box.Min, p)
		box.Max = vec.Max(box.Max, p)
	}
	v := newView(box, width, height)

	var sb strings.Builder
	header(&sb, width, height, DefaultStyle().Background)
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))

	for i, p := range points {
		x, y := v.point(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
