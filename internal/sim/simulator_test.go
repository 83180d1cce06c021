package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/scene"
)

func newRunner(t *testing.T, name string) *Runner {
	t.Helper()
	s, err := scene.NewRegistry().Build(name, scene.DefaultParams())
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	return New(s)
}

func oneSecond() RunConfig {
	cfg := DefaultRunConfig()
	cfg.Duration = 1
	return cfg
}

func TestRunnerRun(t *testing.T) {
	r := newRunner(t, "drop")

	result, err := r.Run(context.Background(), oneSecond())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Samples) != 61 {
		t.Errorf("expected 61 samples, got %d", len(result.Samples))
	}
	if result.Stats.Steps != 60 {
		t.Errorf("expected 60 steps, got %d", result.Stats.Steps)
	}

	times := result.Times()
	if last := times[len(times)-1]; math.Abs(last-1) > 1e-9 {
		t.Errorf("expected final time 1, got %f", last)
	}

	y, err := result.Channel("ball.y")
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if y[0] != 10 || y[len(y)-1] >= 10 {
		t.Errorf("expected the ball to fall from y=10, got %f -> %f", y[0], y[len(y)-1])
	}
}

func TestRunnerRecordEvery(t *testing.T) {
	r := newRunner(t, "drop")
	cfg := oneSecond()
	cfg.RecordEvery = 10

	result, err := r.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Samples) != 7 {
		t.Errorf("expected 7 samples, got %d", len(result.Samples))
	}
}

func TestRunnerInvalidConfig(t *testing.T) {
	r := newRunner(t, "drop")

	tests := []struct {
		name string
		cfg  RunConfig
	}{
		{"zero dt", RunConfig{Dt: 0, Duration: 1, Iterations: 10}},
		{"negative dt", RunConfig{Dt: -0.1, Duration: 1, Iterations: 10}},
		{"zero duration", RunConfig{Dt: 0.1, Duration: 0, Iterations: 10}},
		{"negative duration", RunConfig{Dt: 0.1, Duration: -1, Iterations: 10}},
		{"zero iterations", RunConfig{Dt: 0.1, Duration: 1, Iterations: 0}},
		{"negative record_every", RunConfig{Dt: 0.1, Duration: 1, Iterations: 10, RecordEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(w *dynamics.World, t float64) {
	m.count++
	m.sum += float64(w.BodyCount())
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestRunnerMetricsAndObservers(t *testing.T) {
	r := newRunner(t, "drop")

	metric := &testMetric{count: 99}
	r.AddMetric(metric)

	var times []float64
	r.AddObserver(ObserverFunc(func(w *dynamics.World, t float64) {
		times = append(times, t)
	}))

	result, err := r.Run(context.Background(), oneSecond())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if metric.count != 60 {
		t.Errorf("expected 60 observations, got %d", metric.count)
	}
	// ground, ball and the world's own ground body
	if got := result.Metrics["test"]; got != 3 {
		t.Errorf("expected mean body count 3, got %f", got)
	}
	if len(times) != 60 || times[0] <= 0 {
		t.Errorf("observer saw %d steps starting at %v", len(times), times)
	}
}

func TestRunnerCancel(t *testing.T) {
	r := newRunner(t, "drop")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, oneSecond())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.Samples) != 1 {
		t.Errorf("expected only the initial sample, got %d", len(result.Samples))
	}
}

func TestChannelErrors(t *testing.T) {
	r := &Result{Bodies: []string{"ball"}}

	for _, name := range []string{"ball", "box.y", "ball.z"} {
		if _, err := r.Channel(name); !errors.Is(err, ErrUnknownChannel) {
			t.Errorf("%s: expected ErrUnknownChannel, got %v", name, err)
		}
	}
}

func TestColumns(t *testing.T) {
	r := &Result{Bodies: []string{"a", "b"}}
	want := []string{
		"time",
		"a.x", "a.y", "a.angle", "a.vx", "a.vy", "a.omega", "a.sleeping",
		"b.x", "b.y", "b.angle", "b.vx", "b.vy", "b.omega", "b.sleeping",
	}
	if diff := cmp.Diff(want, r.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestBatch(t *testing.T) {
	names := []string{"drop", "pendulum", "slider"}
	jobs := make([]Job, len(names))
	for i, name := range names {
		jobs[i] = Job{Name: name, Runner: newRunner(t, name), Config: oneSecond()}
	}

	results, err := Batch(context.Background(), jobs, 2)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	for i, res := range results {
		if res.Scene != names[i] {
			t.Errorf("result %d: expected scene %s, got %s", i, names[i], res.Scene)
		}
	}
}

func TestBatchError(t *testing.T) {
	jobs := []Job{
		{Name: "ok", Runner: newRunner(t, "drop"), Config: oneSecond()},
		{Name: "bad", Runner: newRunner(t, "drop"), Config: RunConfig{}},
	}

	_, err := Batch(context.Background(), jobs, 2)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
