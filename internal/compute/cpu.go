package compute

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/collision"
	"golang.org/x/sync/errgroup"
)

// CPUDevice runs the kernel in-process. Work items are split into one chunk
// per worker and executed concurrently; the device buffer is a plain byte
// slice laid out exactly as on the GPU.
type CPUDevice struct {
	workers int

	mu       sync.Mutex
	buf      []byte
	params   kernelParams
	inflight *errgroup.Group
}

func NewCPUDevice(workers int) *CPUDevice {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUDevice{workers: workers}
}

func (c *CPUDevice) Name() string    { return "cpu" }
func (c *CPUDevice) Available() bool { return true }
func (c *CPUDevice) Init() error     { return nil }

// Cleanup drains outstanding work before dropping the buffer. Dispatcher.Close
// already ran the barrier and logged its error, so a second one is dropped.
func (c *CPUDevice) Cleanup() {
	_ = c.Barrier()
	c.mu.Lock()
	c.buf = nil
	c.mu.Unlock()
}

func (c *CPUDevice) Upload(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		return ErrDispatchInFlight
	}
	if len(buf)%RecordSize != 0 {
		return fmt.Errorf("%w: upload of %d bytes", ErrBufferSize, len(buf))
	}
	c.buf = append(c.buf[:0], buf...)
	return nil
}

func (c *CPUDevice) SetFloat(name string, v float32) error {
	return c.setParam(name, func(p *kernelParams) bool {
		if name != ParamDeltaT {
			return false
		}
		p.dt = v
		return true
	})
}

func (c *CPUDevice) SetVec3(name string, v mgl32.Vec3) error {
	return c.setParam(name, func(p *kernelParams) bool {
		if name != ParamForce {
			return false
		}
		p.force = v
		return true
	})
}

func (c *CPUDevice) SetUint(name string, v uint32) error {
	return c.setParam(name, func(p *kernelParams) bool {
		if name != ParamOperation {
			return false
		}
		p.op = Operation(v)
		return true
	})
}

func (c *CPUDevice) setParam(name string, set func(*kernelParams) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		return ErrDispatchInFlight
	}
	if !set(&c.params) {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return nil
}

func (c *CPUDevice) Dispatch(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		return ErrDispatchInFlight
	}
	if n < 0 || n*RecordSize > len(c.buf) {
		return fmt.Errorf("%w: %d work items for %d bytes", ErrBufferSize, n, len(c.buf))
	}
	if !c.params.op.Valid() {
		return ErrUnknownOperation
	}

	buf, params := c.buf, c.params
	var statics []collision.Box
	if params.op == OpCollision {
		statics = staticBoxes(buf, n)
	}
	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	chunk := (n + c.workers - 1) / c.workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				runWorkItem(buf, i, params, statics)
			}
			return nil
		})
	}
	c.inflight = g
	return nil
}

func (c *CPUDevice) Barrier() error {
	c.mu.Lock()
	g := c.inflight
	c.mu.Unlock()
	if g == nil {
		return nil
	}
	err := g.Wait()

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	return err
}

func (c *CPUDevice) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		return nil, ErrReadBeforeBarrier
	}
	out := make([]byte, len(c.buf))
	copy(out, c.buf)
	return out, nil
}
