package sim

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/body"
)

// BodyState is the recorded part of a body for one frame.
type BodyState struct {
	Name     string
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Static   bool
}

func stateOf(b *body.Body) BodyState {
	return BodyState{Name: b.Name, Position: b.Position, Velocity: b.Velocity, Static: b.Flags.Static()}
}

// IsValid reports whether every component is finite.
func (s BodyState) IsValid() bool {
	for i := 0; i < 3; i++ {
		if !finite(s.Position[i]) || !finite(s.Velocity[i]) {
			return false
		}
	}
	return true
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

// Frame is a snapshot taken after a step. Frame 0 is the initial state.
type Frame struct {
	Index  int
	Time   float64
	Camera BodyState
	Bodies []BodyState
}

// Metric accumulates a scalar over the frames of a run.
type Metric interface {
	Name() string
	Observe(frame int, bodies []*body.Body)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Frame)

func (fn ObserverFunc) OnStep(f Frame) { fn(f) }

type Result struct {
	Mode       string
	Backend    string
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	Elapsed    time.Duration
}

// Final returns the last recorded frame.
func (r *Result) Final() Frame {
	if len(r.Frames) == 0 {
		return Frame{}
	}
	return r.Frames[len(r.Frames)-1]
}

// Track returns the recorded states of one body across all frames.
func (r *Result) Track(name string) []BodyState {
	out := make([]BodyState, 0, len(r.Frames))
	for _, f := range r.Frames {
		for _, b := range f.Bodies {
			if b.Name == name {
				out = append(out, b)
				break
			}
		}
	}
	return out
}
