package dynamics

import (
	"github.com/go-logr/logr"

	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/vec"
)

// WorldDef holds the per-world settings.
type WorldDef struct {
	// Bounds is the region bodies may occupy. A body whose shapes leave it
	// is frozen.
	Bounds  collision.AABB
	Gravity vec.Vec2

	AllowSleep         bool
	WarmStarting       bool
	PositionCorrection bool
}

// DefaultWorldDef returns a 200x200 m world centered on the origin with
// gravity -10 along y.
func DefaultWorldDef() WorldDef {
	return WorldDef{
		Bounds:             collision.AABB{Min: vec.V(-100, -100), Max: vec.V(100, 100)},
		Gravity:            vec.V(0, -10),
		AllowSleep:         true,
		WarmStarting:       true,
		PositionCorrection: true,
	}
}

// Option configures a World.
type Option func(*World)

// WithLogger routes world events to l.
func WithLogger(l logr.Logger) Option {
	return func(w *World) { w.log = l }
}

// WithListener sets the world listener at construction.
func WithListener(l WorldListener) Option {
	return func(w *World) { w.listener = l }
}

// WithFilter replaces the default collision filter.
func WithFilter(f CollisionFilter) Option {
	return func(w *World) { w.filter = f }
}

// TimeStep is the input of one step as seen by the solvers.
type TimeStep struct {
	Dt         float64
	InvDt      float64
	Iterations int

	WarmStarting       bool
	PositionCorrection bool
}
