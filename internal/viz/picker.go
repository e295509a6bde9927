package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mellw0101/3d-sim/internal/sim"
)

// WorldBuilder creates the world for a named scene.
type WorldBuilder func(scene string) (*sim.World, error)

// Picker lists scenes and hands the chosen one to a live Model.
type Picker struct {
	ctx    context.Context
	scenes []string
	build  WorldBuilder
	cursor int
	styles Styles
	err    error

	world *sim.World
	live  *Model
}

func NewPicker(ctx context.Context, scenes []string, build WorldBuilder) Picker {
	return Picker{ctx: ctx, scenes: scenes, build: build, styles: NewStyles(Themes[0])}
}

func (p Picker) Init() tea.Cmd { return nil }

// World returns the world started from the picker, or nil if none was.
func (p Picker) World() *sim.World { return p.world }

// Err reports a build failure or the step error of the live view.
func (p Picker) Err() error {
	if p.err != nil {
		return p.err
	}
	if p.live != nil {
		return p.live.Err()
	}
	return nil
}

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		next, cmd := p.live.Update(msg)
		live := next.(Model)
		p.live = &live
		return p, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.scenes)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.scenes) == 0 {
			return p, nil
		}
		scene := p.scenes[p.cursor]
		w, err := p.build(scene)
		if err != nil {
			p.err = err
			return p, nil
		}
		live := NewModel(p.ctx, w, scene)
		p.world, p.live = w, &live
		return p, live.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}
	st := p.styles
	var b strings.Builder
	b.WriteString("\n  " + st.Title.Render("SIM3D") + "\n  " + st.Subtle.Render("choose a scene") + "\n  " + st.Separator(24) + "\n\n")
	for i, name := range p.scenes {
		if i == p.cursor {
			b.WriteString(fmt.Sprintf("  %s %s\n", st.Selected.Render("▸"), st.MetricValue.Render(name)))
		} else {
			b.WriteString(fmt.Sprintf("    %s\n", st.Subtle.Render(name)))
		}
	}
	if p.err != nil {
		b.WriteString("\n  " + st.Failed.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n  " + st.KeyHint.Render("j/k navigate  enter select  q quit") + "\n")
	return b.String()
}

// RunPicker shows the scene list and then the live view of the chosen scene.
// The world it built, if any, is closed before returning.
func RunPicker(ctx context.Context, scenes []string, build WorldBuilder) error {
	final, err := tea.NewProgram(NewPicker(ctx, scenes, build), tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	p, ok := final.(Picker)
	if ok && p.World() != nil {
		defer p.World().Close()
	}
	if err != nil {
		return err
	}
	if ok {
		return p.Err()
	}
	return nil
}
