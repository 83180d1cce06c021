package collision

import "errors"

// Definition errors reported before any shape is built.
var (
	// ErrVertexCount indicates a polygon with fewer than 3 or more than 8 vertices.
	ErrVertexCount = errors.New("collision: polygon vertex count out of range")

	// ErrDegenerate indicates a polygon whose signed area is not positive
	// (collinear points or clockwise winding).
	ErrDegenerate = errors.New("collision: polygon area is not positive")

	// ErrNotConvex indicates a polygon with a reflex or collinear corner.
	ErrNotConvex = errors.New("collision: polygon is not convex")

	// ErrTooThin indicates a polygon that cannot be shrunk by the core margin.
	ErrTooThin = errors.New("collision: polygon too thin for core margin")

	// ErrBadRadius indicates a non-positive circle radius.
	ErrBadRadius = errors.New("collision: circle radius must be positive")

	// ErrBadExtents indicates a box with a non-positive half-width or half-height.
	ErrBadExtents = errors.New("collision: box extents must be positive")
)
