package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/metrics"
	"github.com/san-kum/boxsim/internal/scene"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	maxRows    = 16
	historyLen = 120
	maxSpeed   = 16
	minSpeed   = 0.25
)

// Builder creates the scene shown by the live view. It is called again on
// reset.
type Builder func() (*scene.Scene, error)

type tickMsg time.Time

// Model steps a scene in real time and shows its tracked bodies.
type Model struct {
	build      Builder
	scene      *scene.Scene
	dt         float64
	iterations int

	paused  bool
	speed   float64
	carry   float64
	history []float64
	err     error

	lastFrame time.Time
	fps       float64
	width     int
}

func New(build Builder, dt float64, iterations int) (Model, error) {
	s, err := build()
	if err != nil {
		return Model{}, err
	}
	return Model{
		build:      build,
		scene:      s,
		dt:         dt,
		iterations: iterations,
		speed:      1,
		width:      80,
	}, nil
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Duration(m.dt*float64(time.Second)), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		if !m.paused && m.err == nil {
			now := time.Time(msg)
			if !m.lastFrame.IsZero() {
				if d := now.Sub(m.lastFrame).Seconds(); d > 0 {
					m.fps = 1 / d
				}
			}
			m.lastFrame = now
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "r":
		s, err := m.build()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.scene = s
		m.history = m.history[:0]
		m.carry = 0
		m.err = nil
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, maxSpeed)
	case "-", "_":
		m.speed = math.Max(m.speed/2, minSpeed)
	case "0":
		m.speed = 1
	}
	return m, nil
}

// advance runs speed steps, carrying fractions over to the next tick.
func (m *Model) advance() {
	m.carry += m.speed
	for m.carry >= 1 {
		m.scene.Step(m.dt, m.iterations)
		m.carry--
		if err := m.scene.World.Validate(); err != nil {
			m.err = err
			return
		}
	}

	m.history = append(m.history, metrics.KineticEnergyOf(m.scene.World))
	if len(m.history) > historyLen {
		m.history = m.history[1:]
	}
}

func (m Model) Scene() *scene.Scene { return m.scene }
func (m Model) Paused() bool        { return m.paused }
func (m Model) Speed() float64      { return m.speed }

func (m Model) View() string {
	var b strings.Builder
	w := m.scene.World

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.err != nil:
		statusIcon = red.Render("✕")
		statusText = red.Render("diverged")
	case m.paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s  %s\n\n",
		statusIcon, cyan.Render(m.scene.Name), statusText,
		dim.Render(fmt.Sprintf("t=%.2fs x%.2g", w.Time(), m.speed)),
		dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	b.WriteString(indent(m.bodyTable()))
	b.WriteString("\n")

	st := w.LastStepStats()
	b.WriteString(fmt.Sprintf("   %s %s  %s %s  %s %s  %s %s  %s %s\n",
		dim.Render("bodies"), white.Render(fmt.Sprint(w.BodyCount())),
		dim.Render("contacts"), white.Render(fmt.Sprintf("%d/%d", st.TouchingContacts, st.Contacts)),
		dim.Render("islands"), white.Render(fmt.Sprint(st.Islands)),
		dim.Render("toi"), white.Render(fmt.Sprint(st.TOIEvents)),
		dim.Render("pos iters"), white.Render(fmt.Sprint(st.PositionIterations))))

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("KE"), cyan.Render(sparkline(m.history, 40))))
	}
	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r reset  q quit") + "\n")
	return b.String()
}

func (m Model) bodyTable() string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimmer).
		Headers("body", "x", "y", "angle", "vx", "vy", "ω", "state")

	tracked := m.scene.Tracked
	for i, tb := range tracked {
		if i == maxRows {
			t.Row(dim.Render(fmt.Sprintf("+%d more", len(tracked)-maxRows)), "", "", "", "", "", "", "")
			break
		}
		b := tb.Body
		p := b.CenterPosition()
		v := b.LinearVelocity()
		t.Row(
			tb.Name,
			fmt.Sprintf("%.3f", p.X),
			fmt.Sprintf("%.3f", p.Y),
			fmt.Sprintf("%.3f", b.Rotation()),
			fmt.Sprintf("%.3f", v.X),
			fmt.Sprintf("%.3f", v.Y),
			fmt.Sprintf("%.3f", b.AngularVelocity()),
			badge(b),
		)
	}
	return t.String()
}

func badge(b *dynamics.Body) string {
	switch {
	case b.IsFrozen():
		return red.Render("frozen")
	case b.IsSleeping():
		return yellow.Render("asleep")
	default:
		return green.Render("awake")
	}
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "   " + l
	}
	return strings.Join(lines, "\n")
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := max(len(data)/width, 1)
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[min(max(idx, 0), 7)])
	}
	return sb.String()
}

// Run starts the live view on the alternate screen.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
