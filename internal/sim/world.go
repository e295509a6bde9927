package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/body"
	"github.com/mellw0101/3d-sim/internal/camera"
	"github.com/mellw0101/3d-sim/internal/collision"
	"github.com/mellw0101/3d-sim/internal/compute"
	"github.com/mellw0101/3d-sim/internal/config"
	"github.com/mellw0101/3d-sim/internal/integrators"
	"github.com/mellw0101/3d-sim/internal/logging"
)

// World is the simulation context the frame loop drives. It owns the bodies,
// the viewer and, in device mode, the dispatcher. A World is not safe for
// concurrent use; Step is meant to be called from one loop.
type World struct {
	Camera *camera.Camera
	Bodies []*body.Body

	mode       string
	dt         float32
	force      mgl32.Vec3
	dispatcher *compute.Dispatcher
	metrics    []Metric
	observers  []Observer
	logger     *slog.Logger
	frame      int
	closed     bool
}

// NewWorld builds the scene described by cfg. In device mode it also selects
// a backend and initializes the dispatcher; failures there are returned
// wrapping compute.ErrBackendUnavailable or compute.ErrKernelBuild.
func NewWorld(cfg *config.Config, logger *slog.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode != config.ModeDevice {
		return newWorld(cfg, nil, logger)
	}
	backend, err := compute.NewBackend(cfg.Backend, cfg.Workers, logger)
	if err != nil {
		return nil, err
	}
	return newWorld(cfg, backend, logger)
}

// NewWorldWithBackend builds the scene in device mode on the given backend,
// ignoring cfg.Mode and cfg.Backend.
func NewWorldWithBackend(cfg *config.Config, backend compute.Backend, logger *slog.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newWorld(cfg, backend, logger)
}

func newWorld(cfg *config.Config, backend compute.Backend, logger *slog.Logger) (*World, error) {
	logger = logging.OrDiscard(logger)

	bodies := make([]*body.Body, 0, len(cfg.Bodies))
	for _, bc := range cfg.Bodies {
		size, err := bc.Extents()
		if err != nil {
			return nil, err
		}
		b := body.New(bc.Name, bc.Position, size)
		b.Velocity = bc.Velocity
		b.Flags.SetStatic(bc.Static)
		bodies = append(bodies, b)
	}

	w := &World{
		Camera: camera.New(cfg.CameraConfig()),
		Bodies: bodies,
		mode:   config.ModeHost,
		dt:     cfg.Timestep(),
		force:  cfg.Force(),
		logger: logger,
	}

	if backend != nil {
		d, err := compute.NewDispatcher(backend, w.dt, w.force, logger)
		if err != nil {
			return nil, err
		}
		w.mode = config.ModeDevice
		w.dispatcher = d
	}

	logger.Info("world ready", "mode", w.mode, "backend", w.Backend(), "bodies", len(bodies), "dt", w.dt)
	return w, nil
}

func (w *World) Mode() string { return w.mode }

// Backend names the device running the passes, or "host".
func (w *World) Backend() string {
	if w.dispatcher == nil {
		return "host"
	}
	return w.dispatcher.Backend().Name()
}

func (w *World) Timestep() float32 { return w.dt }

// Frame is the number of steps taken so far.
func (w *World) Frame() int { return w.frame }

func (w *World) AddMetric(m Metric)     { w.metrics = append(w.metrics, m) }
func (w *World) AddObserver(o Observer) { w.observers = append(w.observers, o) }

func (w *World) Body(name string) (*body.Body, error) {
	for _, b := range w.Bodies {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBody, name)
}

// Step advances one frame: viewer integration, viewer against static bodies,
// the gravity pass, then the collision pass.
func (w *World) Step(ctx context.Context) error {
	if w.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.Camera.Update(w.dt, w.force)
	w.Camera.ResolveAgainst(w.Bodies)

	if w.dispatcher != nil {
		// Once started, a frame runs both passes even if ctx is cancelled.
		frameCtx := context.WithoutCancel(ctx)
		if err := w.dispatcher.Step(frameCtx, compute.OpGravity, w.Bodies); err != nil {
			return &StepError{Frame: w.frame, Wrapped: err}
		}
		if err := w.dispatcher.Step(frameCtx, compute.OpCollision, w.Bodies); err != nil {
			return &StepError{Frame: w.frame, Wrapped: err}
		}
	} else {
		for _, b := range w.Bodies {
			integrators.ApplyGravity(b, w.dt, w.force)
		}
		for _, b := range w.Bodies {
			collision.ResolveAgainst(b, w.Bodies)
		}
	}

	w.frame++
	for _, b := range w.Bodies {
		if !stateOf(b).IsValid() {
			return &StepError{Frame: w.frame, Body: b.Name, Wrapped: ErrInvalidState}
		}
	}

	for _, m := range w.metrics {
		m.Observe(w.frame, w.Bodies)
	}
	if len(w.observers) > 0 {
		f := w.Snapshot()
		for _, obs := range w.observers {
			obs.OnStep(f)
		}
	}
	return nil
}

// Snapshot captures the current state as a frame.
func (w *World) Snapshot() Frame {
	f := Frame{
		Index:  w.frame,
		Time:   float64(w.frame) * float64(w.dt),
		Camera: stateOf(&w.Camera.Body),
		Bodies: make([]BodyState, len(w.Bodies)),
	}
	for i, b := range w.Bodies {
		f.Bodies[i] = stateOf(b)
	}
	return f
}

// Run steps the world frames times, recording every frame. Cancellation is
// checked between frames; the partial result is returned with the error.
func (w *World) Run(ctx context.Context, frames int) (*Result, error) {
	result := &Result{
		Mode:    w.mode,
		Backend: w.Backend(),
		Frames:  make([]Frame, 0, frames+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range w.metrics {
		m.Reset()
	}

	w.logger.Info("run started", "frames", frames, "mode", w.mode)
	start := time.Now()
	result.Frames = append(result.Frames, w.Snapshot())

	var runErr error
	for i := 0; i < frames; i++ {
		if err := w.Step(ctx); err != nil {
			runErr = err
			break
		}
		result.StepsTaken++
		result.Frames = append(result.Frames, w.Snapshot())
		w.logger.Debug("frame", "index", w.frame, "camera", w.Camera.Position)
	}
	result.Elapsed = time.Since(start)

	for _, m := range w.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	w.logger.Info("run finished", "steps", result.StepsTaken, "elapsed", result.Elapsed)
	return result, runErr
}

func (w *World) Close() {
	if w.closed {
		return
	}
	w.closed = true
	if w.dispatcher != nil {
		w.dispatcher.Close()
	}
}
