package scene

import (
	"fmt"
	"slices"

	"github.com/san-kum/boxsim/internal/dynamics"
)

// Params are the knobs shared by all scene builders. A zero field selects
// the scene's own default.
type Params struct {
	World   dynamics.WorldDef
	Options []dynamics.Option

	Count       int
	Spacing     float64
	Radius      float64
	Restitution float64
	Friction    float64
	MotorSpeed  float64
	MotorTorque float64
	Ratio       float64
}

// DefaultParams returns parameters over the default world.
func DefaultParams() Params {
	return Params{World: dynamics.DefaultWorldDef()}
}

func (p Params) count(def int) int {
	if p.Count > 0 {
		return p.Count
	}
	return def
}

func (p Params) spacing(def float64) float64 { return orDefault(p.Spacing, def) }
func (p Params) radius(def float64) float64  { return orDefault(p.Radius, def) }
func (p Params) friction(def float64) float64 {
	return orDefault(p.Friction, def)
}
func (p Params) motorSpeed(def float64) float64  { return orDefault(p.MotorSpeed, def) }
func (p Params) motorTorque(def float64) float64 { return orDefault(p.MotorTorque, def) }
func (p Params) ratio(def float64) float64       { return orDefault(p.Ratio, def) }

func orDefault(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

// Tracked is a named body whose state is recorded.
type Tracked struct {
	Name string
	Body *dynamics.Body
}

// Hook runs before every step with the time at the start of the step.
type Hook func(t float64)

// Scene is a populated world plus the bodies worth watching.
type Scene struct {
	Name    string
	World   *dynamics.World
	Tracked []Tracked

	hooks []Hook
}

func newScene(name string, p Params) *Scene {
	return &Scene{
		Name:  name,
		World: dynamics.NewWorld(p.World, p.Options...),
	}
}

// Track adds b to the recorded bodies under name.
func (s *Scene) Track(name string, b *dynamics.Body) {
	s.Tracked = append(s.Tracked, Tracked{Name: name, Body: b})
}

// Body returns the tracked body called name, or nil.
func (s *Scene) Body(name string) *dynamics.Body {
	i := slices.IndexFunc(s.Tracked, func(t Tracked) bool { return t.Name == name })
	if i < 0 {
		return nil
	}
	return s.Tracked[i].Body
}

// TrackedNames lists the tracked bodies in recording order.
func (s *Scene) TrackedNames() []string {
	names := make([]string, len(s.Tracked))
	for i, t := range s.Tracked {
		names[i] = t.Name
	}
	return names
}

func (s *Scene) AddHook(h Hook) { s.hooks = append(s.hooks, h) }

// Step runs the hooks and advances the world.
func (s *Scene) Step(dt float64, iterations int) {
	t := s.World.Time()
	for _, h := range s.hooks {
		h(t)
	}
	s.World.Step(dt, iterations)
}

// Builder populates a fresh world.
type Builder func(p Params) (*Scene, error)

type entry struct {
	description string
	build       Builder
}

// Registry maps scene names to builders.
type Registry struct {
	scenes map[string]entry
}

// NewRegistry returns a registry holding every built-in scene.
func NewRegistry() *Registry {
	r := &Registry{scenes: make(map[string]entry)}

	r.Register("drop", "a circle falls onto static ground", buildDrop)
	r.Register("stack", "a pyramid of boxes", buildStack)
	r.Register("pendulum", "a box on a revolute joint, optional motor", buildPendulum)
	r.Register("chain", "revolute links hanging from ground", buildChain)
	r.Register("bridge", "planks pinned at both ends", buildBridge)
	r.Register("pulley", "two boxes on a pulley", buildPulley)
	r.Register("gear", "two wheels coupled by a gear joint", buildGear)
	r.Register("slider", "a prismatic joint with limit and motor", buildSlider)
	r.Register("mouse", "a mouse joint dragging a box around a circle", buildMouse)
	r.Register("fast", "a bullet against a thin wall", buildFast)
	r.Register("distance", "two bodies on a distance joint, pulled apart", buildDistance)

	return r
}

// Register adds or replaces a scene.
func (r *Registry) Register(name, description string, b Builder) {
	r.scenes[name] = entry{description: description, build: b}
}

// Build creates the named scene.
func (r *Registry) Build(name string, p Params) (*Scene, error) {
	e, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	s, err := e.build(p)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	return s, nil
}

// List returns the scene names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Description(name string) string {
	return r.scenes[name].description
}
