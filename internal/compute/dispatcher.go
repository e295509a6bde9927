package compute

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/body"
	"github.com/mellw0101/3d-sim/internal/logging"
)

// Dispatcher owns a backend and drives the upload, dispatch, barrier and
// readback sequence for one operation at a time. The timestep and constant
// force are fixed when it is built.
type Dispatcher struct {
	mu      sync.Mutex
	backend Backend
	dt      float32
	force   mgl32.Vec3
	logger  *slog.Logger
}

func NewDispatcher(backend Backend, dt float32, force mgl32.Vec3, logger *slog.Logger) (*Dispatcher, error) {
	logger = logging.OrDiscard(logger)
	if !backend.Available() {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, backend.Name())
	}
	if err := backend.Init(); err != nil {
		backend.Cleanup()
		return nil, fmt.Errorf("init %s: %w", backend.Name(), err)
	}
	if err := backend.SetFloat(ParamDeltaT, dt); err != nil {
		backend.Cleanup()
		return nil, err
	}
	if err := backend.SetVec3(ParamForce, force); err != nil {
		backend.Cleanup()
		return nil, err
	}
	logger.Info("dispatcher ready", "backend", backend.Name(), "dt", dt, "force", force)
	return &Dispatcher{
		backend: backend,
		dt:      dt,
		force:   force,
		logger:  logger,
	}, nil
}

func (d *Dispatcher) Backend() Backend { return d.backend }

// Dispatch runs op over records and returns the updated records in the same
// order. The context is only checked before the dispatch is issued; once
// issued it runs to the barrier.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, records []Record) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !op.Valid() {
		return nil, &DispatchError{Op: op, Records: len(records), Wrapped: ErrUnknownOperation}
	}
	if len(records) == 0 {
		return []Record{}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	wrap := func(err error) error {
		return &DispatchError{Op: op, Records: len(records), Wrapped: err}
	}
	if err := d.backend.Upload(Pack(records)); err != nil {
		return nil, wrap(err)
	}
	if err := d.backend.SetUint(ParamOperation, uint32(op)); err != nil {
		return nil, wrap(err)
	}
	if err := d.backend.Dispatch(len(records)); err != nil {
		return nil, wrap(err)
	}
	if err := d.backend.Barrier(); err != nil {
		return nil, wrap(err)
	}
	buf, err := d.backend.Read()
	if err != nil {
		return nil, wrap(err)
	}
	out, err := Unpack(buf)
	if err != nil {
		return nil, wrap(err)
	}
	if len(out) < len(records) {
		return nil, wrap(fmt.Errorf("%w: read %d records, sent %d", ErrBufferSize, len(out), len(records)))
	}
	return out[:len(records)], nil
}

// Step packs bodies in order, dispatches op and scatters the result back.
func (d *Dispatcher) Step(ctx context.Context, op Operation, bodies []*body.Body) error {
	records := make([]Record, len(bodies))
	for i, b := range bodies {
		records[i] = RecordFromBody(b)
	}
	out, err := d.Dispatch(ctx, op, records)
	if err != nil {
		return err
	}
	for i, b := range bodies {
		out[i].ApplyTo(b)
	}
	return nil
}

// Close waits for any outstanding work and releases the backend. A kernel
// error surfacing at that last barrier has no caller left to return to, so it
// is logged.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.backend.Barrier(); err != nil {
		d.logger.Warn("barrier failed on close", "backend", d.backend.Name(), "err", err)
	}
	d.backend.Cleanup()
	d.logger.Debug("dispatcher closed", "backend", d.backend.Name())
}
