package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/guptarohit/asciigraph"
	"github.com/mellw0101/3d-sim/internal/body"
	"github.com/mellw0101/3d-sim/internal/collision"
	"github.com/mellw0101/3d-sim/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 240
	lookStep        = 10
)

// TickMsg drives one simulation frame.
type TickMsg time.Time

// Model is the live view of a running world. The view renders the scene
// through the world's own camera.
type Model struct {
	world   *sim.World
	scene   string
	ctx     context.Context
	canvas  *Canvas
	theme   Theme
	styles  Styles
	running bool
	help    bool
	err     error

	tracked  *body.Body
	heights  []float64
	speeds   []float64
	mouse    tea.MouseMsg
	hasMouse bool
}

// NewModel wraps w for interactive display. The model does not close w.
func NewModel(ctx context.Context, w *sim.World, scene string) Model {
	m := Model{
		world:   w,
		scene:   scene,
		ctx:     ctx,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		theme:   Themes[0],
		styles:  NewStyles(Themes[0]),
		running: true,
		heights: make([]float64, 0, historyCapacity),
		speeds:  make([]float64, 0, historyCapacity),
	}
	for _, b := range w.Bodies {
		if !b.Flags.Static() {
			m.tracked = b
			break
		}
	}
	return m
}

func (m Model) tick() tea.Cmd {
	interval := time.Duration(float64(time.Second) * float64(m.world.Timestep()))
	return tea.Tick(interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Err returns the step error that stopped the view, if any.
func (m Model) Err() error { return m.err }

// Update handles input and advances the world on every tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionMotion {
			if m.hasMouse {
				m.world.Camera.ChangeAngle(float32(msg.X-m.mouse.X)*4, float32(msg.Y-m.mouse.Y)*4)
			}
			m.mouse, m.hasMouse = msg, true
		}
	case TickMsg:
		if m.running && m.err == nil {
			if err := m.world.Step(m.ctx); err != nil {
				m.err = err
				m.running = false
			}
			m.record()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cam := m.world.Camera
	step := cam.MoveStep()
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "w":
		cam.ChangePosition(mgl32.Vec3{0, 0, step})
	case "s":
		cam.ChangePosition(mgl32.Vec3{0, 0, -step})
	case "d":
		cam.ChangePosition(mgl32.Vec3{step, 0, 0})
	case "a":
		cam.ChangePosition(mgl32.Vec3{-step, 0, 0})
	case " ":
		cam.Jump()
	case "left", "h":
		cam.ChangeAngle(-lookStep, 0)
	case "right", "l":
		cam.ChangeAngle(lookStep, 0)
	case "up", "k":
		cam.ChangeAngle(0, -lookStep)
	case "down", "j":
		cam.ChangeAngle(0, lookStep)
	case "f":
		cam.Flags.SetFreeFly(!cam.Flags.FreeFly())
	case "p":
		m.running = !m.running
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = NewStyles(m.theme)
	case "?":
		m.help = !m.help
	}
	return m, nil
}

func (m *Model) record() {
	if m.tracked == nil {
		return
	}
	m.heights = appendCapped(m.heights, float64(m.tracked.Position.Y()))
	m.speeds = appendCapped(m.speeds, float64(m.tracked.Velocity.Len()))
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m Model) draw() string {
	m.canvas.Clear()
	p := NewProjector(m.world.Camera.View(), m.canvas)
	for _, b := range m.world.Bodies {
		p.DrawBox(m.canvas, collision.BoxOf(b))
	}
	return m.canvas.String()
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.Failed.Render("FAILED")
	case !m.running:
		return m.styles.Paused.Render("PAUSED")
	default:
		return m.styles.Running.Render("RUNNING")
	}
}

func (m Model) metric(b *strings.Builder, label, value string) {
	b.WriteString(m.styles.MetricLabel.Render(label) + m.styles.MetricValue.Render(value) + "\n")
}

// View renders the scene beside a stats panel.
func (m Model) View() string {
	st := m.styles
	cam := m.world.Camera

	var s strings.Builder
	s.WriteString(st.Title.Render(strings.ToUpper(m.scene)) + "  " + m.status() + "\n")
	s.WriteString(st.Separator(36) + "\n")
	m.metric(&s, "frame", fmt.Sprintf("%d", m.world.Frame()))
	m.metric(&s, "time", fmt.Sprintf("%.2fs", float64(m.world.Frame())*float64(m.world.Timestep())))
	m.metric(&s, "mode", fmt.Sprintf("%s/%s", m.world.Mode(), m.world.Backend()))
	m.metric(&s, "camera", formatVec(cam.Position))
	m.metric(&s, "look", fmt.Sprintf("yaw %.1f pitch %.1f", cam.Yaw(), cam.Pitch()))
	fly := "ground"
	if cam.Flags.FreeFly() {
		fly = "free-fly"
	}
	m.metric(&s, "motion", fly)

	if m.tracked != nil {
		s.WriteString("\n" + st.Title.Render(m.tracked.Name) + "\n")
		m.metric(&s, "pos", formatVec(m.tracked.Position))
		m.metric(&s, "vel", formatVec(m.tracked.Velocity))
		if len(m.heights) > 1 {
			chart := asciigraph.Plot(m.heights, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("height"))
			s.WriteString(st.Graph.Render(chart) + "\n")
		}
		s.WriteString(st.MetricLabel.Render("speed") + st.Sparkline(m.speeds, 24) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + st.Failed.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + st.KeyHint.Render("wasd move  space jump  hjkl look\nf fly  p pause  t theme  ? help  q quit"))

	layout := lipgloss.JoinHorizontal(lipgloss.Top, st.Panel.Render(m.draw()), st.Panel.Render(s.String()))
	if m.help {
		return st.Panel.Render(helpText) + "\n" + layout
	}
	return layout
}

const helpText = `w / s      move forward / back
a / d      strafe left / right
space      jump
arrows     look (hjkl also works, as does the mouse)
f          toggle free-fly
p          pause / resume
t          cycle theme
q / esc    quit`

func formatVec(v mgl32.Vec3) string {
	return fmt.Sprintf("%6.2f %6.2f %6.2f", v.X(), v.Y(), v.Z())
}

// Run starts the live view on the terminal and blocks until the user quits.
// The returned error is either a terminal failure or the step error that
// stopped the world.
func Run(ctx context.Context, w *sim.World, scene string) error {
	final, err := tea.NewProgram(NewModel(ctx, w, scene), tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
