package tui

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/boxsim/internal/scene"
)

func newModel(t *testing.T, name string) Model {
	t.Helper()
	reg := scene.NewRegistry()
	m, err := New(func() (*scene.Scene, error) {
		return reg.Build(name, scene.DefaultParams())
	}, 1.0/60.0, 10)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTickSteps(t *testing.T) {
	m := newModel(t, "drop")

	m, cmd := update(m, tickMsg(time.Now()))
	if cmd == nil {
		t.Error("expected the next tick to be scheduled")
	}
	if got := m.Scene().World.StepCount(); got != 1 {
		t.Errorf("expected 1 step, got %d", got)
	}
}

func TestPause(t *testing.T) {
	m := newModel(t, "drop")

	m, _ = update(m, key(" "))
	if !m.Paused() {
		t.Fatal("expected paused")
	}
	m, _ = update(m, tickMsg(time.Now()))
	if got := m.Scene().World.StepCount(); got != 0 {
		t.Errorf("paused model stepped %d times", got)
	}
}

func TestSpeed(t *testing.T) {
	m := newModel(t, "drop")

	m, _ = update(m, key("+"))
	m, _ = update(m, key("+"))
	if m.Speed() != 4 {
		t.Errorf("expected speed 4, got %f", m.Speed())
	}
	m, _ = update(m, tickMsg(time.Now()))
	if got := m.Scene().World.StepCount(); got != 4 {
		t.Errorf("expected 4 steps, got %d", got)
	}

	for i := 0; i < 10; i++ {
		m, _ = update(m, key("-"))
	}
	if math.Abs(m.Speed()-minSpeed) > 1e-12 {
		t.Errorf("expected speed clamped to %f, got %f", minSpeed, m.Speed())
	}
}

func TestReset(t *testing.T) {
	m := newModel(t, "drop")
	m, _ = update(m, tickMsg(time.Now()))

	m, _ = update(m, key("r"))
	if got := m.Scene().World.StepCount(); got != 0 {
		t.Errorf("expected a fresh scene, got %d steps", got)
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t, "drop")
	_, cmd := update(m, key("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestView(t *testing.T) {
	m := newModel(t, "stack")
	m, _ = update(m, tickMsg(time.Now()))
	m, _ = update(m, tickMsg(time.Now().Add(time.Second)))

	view := m.View()
	for _, want := range []string{"stack", "box0_0", "awake", "contacts"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}
