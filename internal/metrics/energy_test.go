package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/scene"
	"github.com/san-kum/boxsim/internal/vec"
)

func weightless() *dynamics.World {
	def := dynamics.DefaultWorldDef()
	def.Gravity = vec.Vec2{}
	return dynamics.NewWorld(def)
}

func spinningCircle(t *testing.T, w *dynamics.World) *dynamics.Body {
	t.Helper()
	bd := dynamics.NewBodyDef()
	bd.LinearVelocity = vec.V(2, 0)
	bd.AngularVelocity = 3
	bd.AddShape(dynamics.NewCircleDef(0.5).WithDensity(1))
	b, err := w.CreateBody(bd)
	if err != nil {
		t.Fatalf("create body: %v", err)
	}
	return b
}

func runScene(t *testing.T, name string, steps int) *dynamics.World {
	t.Helper()
	s, err := scene.NewRegistry().Build(name, scene.DefaultParams())
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	for i := 0; i < steps; i++ {
		s.Step(1.0/60.0, 10)
	}
	return s.World
}

func TestKineticEnergy(t *testing.T) {
	w := weightless()
	b := spinningCircle(t, w)

	expected := 0.5*b.Mass()*4 + 0.5*b.Inertia()*9

	m := NewKineticEnergy()
	m.Observe(w, 0)
	m.Observe(w, 0)
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	peak := NewPeakKineticEnergy()
	peak.Observe(w, 0)
	if math.Abs(peak.Value()-expected) > 1e-9 {
		t.Errorf("expected peak %f, got %f", expected, peak.Value())
	}
}

func TestKineticEnergyReset(t *testing.T) {
	w := weightless()
	spinningCircle(t, w)

	m := NewKineticEnergy()
	m.Observe(w, 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestContactMetricsOnResting(t *testing.T) {
	w := runScene(t, "drop", 240)

	contacts := NewContactCount()
	depth := NewMaxPenetration()
	contacts.Observe(w, 0)
	depth.Observe(w, 0)

	if contacts.Value() != 1 {
		t.Errorf("expected one touching contact, got %f", contacts.Value())
	}
	// Position correction leaves about a linear slop of overlap.
	if d := depth.Value(); d > 0.02 {
		t.Errorf("unexpected penetration depth %f", d)
	}
}

func TestSleepRatio(t *testing.T) {
	m := NewSleepRatio()
	m.Observe(runScene(t, "drop", 400), 0)
	if m.Value() != 1 {
		t.Errorf("expected every body asleep, got %f", m.Value())
	}

	m.Observe(weightless(), 0)
	if m.Value() != 0 {
		t.Errorf("expected 0 for a world without dynamic bodies, got %f", m.Value())
	}
}

func TestJointError(t *testing.T) {
	tests := []struct {
		scene string
		limit float64
	}{
		{"pendulum", 0.05},
		{"chain", 0.2},
		{"distance", 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.scene, func(t *testing.T) {
			w := runScene(t, tt.scene, 120)
			m := NewJointError()
			m.Observe(w, 0)
			if m.Value() > tt.limit {
				t.Errorf("joint error %f exceeds %f", m.Value(), tt.limit)
			}
			if len(w.Joints()) == 0 {
				t.Error("scene has no joints")
			}
		})
	}
}

func TestDefaultNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Default() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
}
