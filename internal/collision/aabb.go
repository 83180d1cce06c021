package collision

import "github.com/san-kum/boxsim/internal/vec"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max vec.Vec2
}

// IsValid reports whether the box is non-inverted and finite.
func (a AABB) IsValid() bool {
	d := a.Max.Sub(a.Min)
	return d.X >= 0 && d.Y >= 0 && a.Min.IsValid() && a.Max.IsValid()
}

// Overlaps reports whether a and b intersect (touching counts).
func (a AABB) Overlaps(b AABB) bool {
	if b.Min.X > a.Max.X || a.Min.X > b.Max.X {
		return false
	}
	if b.Min.Y > a.Max.Y || a.Min.Y > b.Max.Y {
		return false
	}
	return true
}

// Contains reports whether b lies entirely inside a.
func (a AABB) Contains(b AABB) bool {
	return a.Min.X <= b.Min.X && a.Min.Y <= b.Min.Y && b.Max.X <= a.Max.X && b.Max.Y <= a.Max.Y
}

// Union returns the smallest box containing a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{Min: vec.Min(a.Min, b.Min), Max: vec.Max(a.Max, b.Max)}
}

// Center of the box.
func (a AABB) Center() vec.Vec2 { return a.Min.Add(a.Max).Scale(0.5) }

// Extents are the half-widths of the box.
func (a AABB) Extents() vec.Vec2 { return a.Max.Sub(a.Min).Scale(0.5) }
