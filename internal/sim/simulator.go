package sim

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/scene"
)

// Runner steps one scene and records its tracked bodies.
type Runner struct {
	scene     *scene.Scene
	metrics   []Metric
	observers []Observer
	log       logr.Logger
}

func New(s *scene.Scene) *Runner {
	return &Runner{
		scene:     s,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       s.World.Logger(),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }
func (r *Runner) Scene() *scene.Scene    { return r.scene }

// Run steps the scene for cfg.Duration. It stops early when ctx is done or
// a body state stops being finite; the partial result is returned with the
// error.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	every := max(cfg.RecordEvery, 1)
	w := r.scene.World

	result := &Result{
		Scene:   r.scene.Name,
		Bodies:  r.scene.TrackedNames(),
		Samples: make([]Sample, 0, steps/every+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	result.Samples = append(result.Samples, r.sample())
	r.log.V(1).Info("run started", "scene", r.scene.Name, "steps", steps, "dt", cfg.Dt, "iterations", cfg.Iterations)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.finish(result)
			return result, ctx.Err()
		default:
		}

		r.scene.Step(cfg.Dt, cfg.Iterations)
		t := w.Time()
		r.accumulate(&result.Stats)

		if err := w.Validate(); err != nil {
			r.finish(result)
			stepErr := &dynamics.StepError{Step: i, Time: t, Wrapped: err}
			r.log.Error(stepErr, "run aborted", "scene", r.scene.Name)
			return result, stepErr
		}

		for _, m := range r.metrics {
			m.Observe(w, t)
		}
		for _, obs := range r.observers {
			obs.OnStep(w, t)
		}

		if (i+1)%every == 0 {
			result.Samples = append(result.Samples, r.sample())
		}
	}

	r.finish(result)
	r.log.V(1).Info("run finished", "scene", r.scene.Name, "steps", result.Stats.Steps, "toi", result.Stats.TOIEvents)
	return result, nil
}

func (r *Runner) sample() Sample {
	s := Sample{
		Time:   r.scene.World.Time(),
		Bodies: make([]BodyState, len(r.scene.Tracked)),
	}
	for i, t := range r.scene.Tracked {
		s.Bodies[i] = stateOf(t.Body)
	}
	return s
}

func (r *Runner) accumulate(st *RunStats) {
	ws := r.scene.World.LastStepStats()
	st.Steps++
	st.TOIEvents += ws.TOIEvents
	st.MaxContacts = max(st.MaxContacts, ws.Contacts)
	st.MaxIslands = max(st.MaxIslands, ws.Islands)
	st.MaxPositionIterations = max(st.MaxPositionIterations, ws.PositionIterations)
}

func (r *Runner) finish(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	bodies := r.scene.World.Bodies()
	result.Stats.FinalBodies = len(bodies)
	result.Stats.FinalSleeping = 0
	for _, b := range bodies {
		if b.IsSleeping() {
			result.Stats.FinalSleeping++
		}
	}
}
