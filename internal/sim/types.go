package sim

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/san-kum/boxsim/internal/dynamics"
)

var (
	ErrInvalidConfig  = errors.New("sim: invalid run config")
	ErrUnknownChannel = errors.New("sim: unknown channel")
)

type Metric interface {
	Name() string
	Observe(w *dynamics.World, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *dynamics.World, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(w *dynamics.World, t float64)

func (f ObserverFunc) OnStep(w *dynamics.World, t float64) { f(w, t) }

type RunConfig struct {
	Dt          float64
	Duration    float64
	Iterations  int
	RecordEvery int
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Dt:          1.0 / 60.0,
		Duration:    10,
		Iterations:  10,
		RecordEvery: 1,
	}
}

// Steps is the number of steps needed to cover Duration.
func (c RunConfig) Steps() int {
	return int(c.Duration/c.Dt + 1e-9)
}

func (c RunConfig) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, c.Duration)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every must not be negative, got %d", ErrInvalidConfig, c.RecordEvery)
	}
	return nil
}

// Fields are the recorded quantities of every tracked body, in column order.
var Fields = []string{"x", "y", "angle", "vx", "vy", "omega", "sleeping"}

type BodyState struct {
	X, Y     float64
	Angle    float64
	VX, VY   float64
	Omega    float64
	Sleeping bool
}

func stateOf(b *dynamics.Body) BodyState {
	p := b.CenterPosition()
	v := b.LinearVelocity()
	return BodyState{
		X:        p.X,
		Y:        p.Y,
		Angle:    b.Rotation(),
		VX:       v.X,
		VY:       v.Y,
		Omega:    b.AngularVelocity(),
		Sleeping: b.IsSleeping(),
	}
}

// Values returns the state in Fields order.
func (s BodyState) Values() []float64 {
	sleeping := 0.0
	if s.Sleeping {
		sleeping = 1
	}
	return []float64{s.X, s.Y, s.Angle, s.VX, s.VY, s.Omega, sleeping}
}

type Sample struct {
	Time   float64
	Bodies []BodyState
}

// RunStats aggregates the world's per-step counters over a run.
type RunStats struct {
	Steps                 int `json:"steps"`
	TOIEvents             int `json:"toi_events"`
	MaxContacts           int `json:"max_contacts"`
	MaxIslands            int `json:"max_islands"`
	MaxPositionIterations int `json:"max_position_iterations"`
	FinalBodies           int `json:"final_bodies"`
	FinalSleeping         int `json:"final_sleeping"`
}

type Result struct {
	Scene   string
	Bodies  []string
	Samples []Sample
	Metrics map[string]float64
	Stats   RunStats
}

// Columns names the flattened sample columns: time, then body.field.
func (r *Result) Columns() []string {
	cols := make([]string, 0, 1+len(r.Bodies)*len(Fields))
	cols = append(cols, "time")
	for _, name := range r.Bodies {
		for _, f := range Fields {
			cols = append(cols, name+"."+f)
		}
	}
	return cols
}

// Row flattens sample i in Columns order.
func (r *Result) Row(i int) []float64 {
	s := r.Samples[i]
	row := make([]float64, 0, 1+len(s.Bodies)*len(Fields))
	row = append(row, s.Time)
	for _, b := range s.Bodies {
		row = append(row, b.Values()...)
	}
	return row
}

func (r *Result) Times() []float64 {
	times := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		times[i] = s.Time
	}
	return times
}

// Channel returns one column, named "body.field", over all samples.
func (r *Result) Channel(name string) ([]float64, error) {
	body, field, ok := strings.Cut(name, ".")
	if !ok {
		return nil, fmt.Errorf("%w: %q is not body.field", ErrUnknownChannel, name)
	}
	bi := slices.Index(r.Bodies, body)
	fi := slices.Index(Fields, field)
	if bi < 0 || fi < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}

	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Bodies[bi].Values()[fi]
	}
	return out, nil
}
