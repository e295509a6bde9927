// Package automation drives worlds without a terminal: scripted camera input
// for headless runs, parameter sweeps and perturbed Monte Carlo trials.
package automation

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/camera"
	"github.com/mellw0101/3d-sim/internal/sim"
	"gopkg.in/yaml.v3"
)

// Inputs a script action may name.
const (
	InputForward = "forward"
	InputBack    = "back"
	InputLeft    = "left"
	InputRight   = "right"
	InputJump    = "jump"
	InputLook    = "look"
	InputFly     = "fly"
)

var ErrScript = errors.New("automation: invalid script")

// Script is a timed sequence of camera inputs.
type Script struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Actions     []Action `yaml:"actions"`
}

// Action applies Input at frame At and, when For is positive, on each of the
// following For-1 frames. DX and DY are the look delta for InputLook.
type Action struct {
	At    int     `yaml:"at"`
	For   int     `yaml:"for,omitempty"`
	Input string  `yaml:"input"`
	DX    float32 `yaml:"dx,omitempty"`
	DY    float32 `yaml:"dy,omitempty"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	var errs []error
	for i, a := range s.Actions {
		if a.At < 0 || a.For < 0 {
			errs = append(errs, fmt.Errorf("%w: action %d has a negative frame", ErrScript, i))
		}
		switch a.Input {
		case InputForward, InputBack, InputLeft, InputRight, InputJump, InputLook, InputFly:
		default:
			errs = append(errs, fmt.Errorf("%w: action %d has unknown input %q", ErrScript, i, a.Input))
		}
	}
	return errors.Join(errs...)
}

func (a Action) activeAt(frame int) bool {
	span := max(a.For, 1)
	return frame >= a.At && frame < a.At+span
}

// Apply feeds every action active at frame to cam and returns how many fired.
func (s *Script) Apply(frame int, cam *camera.Camera) int {
	n := 0
	step := cam.MoveStep()
	for _, a := range s.Actions {
		if !a.activeAt(frame) {
			continue
		}
		switch a.Input {
		case InputForward:
			cam.ChangePosition(mgl32.Vec3{0, 0, step})
		case InputBack:
			cam.ChangePosition(mgl32.Vec3{0, 0, -step})
		case InputLeft:
			cam.ChangePosition(mgl32.Vec3{-step, 0, 0})
		case InputRight:
			cam.ChangePosition(mgl32.Vec3{step, 0, 0})
		case InputJump:
			cam.Jump()
		case InputLook:
			cam.ChangeAngle(a.DX, a.DY)
		case InputFly:
			cam.Flags.SetFreeFly(!cam.Flags.FreeFly())
		}
		n++
	}
	return n
}

// Attach makes w play s: inputs for the current frame are applied now and
// each later frame's inputs right after the previous step finishes.
func Attach(w *sim.World, s *Script) {
	s.Apply(w.Frame(), w.Camera)
	w.AddObserver(sim.ObserverFunc(func(f sim.Frame) {
		s.Apply(f.Index, w.Camera)
	}))
}
