package compute

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
)

// Backend is a batched device that runs the physics kernel over one buffer of
// records. A dispatch is asynchronous: Dispatch returns once the work is
// issued, Barrier waits for it, and only then may Read be called.
type Backend interface {
	Name() string
	Available() bool
	// Init prepares the device and builds the kernel.
	Init() error
	Upload(buf []byte) error
	SetFloat(name string, v float32) error
	SetVec3(name string, v mgl32.Vec3) error
	SetUint(name string, v uint32) error
	// Dispatch runs one work item per record for the first n records.
	Dispatch(n int) error
	Barrier() error
	Read() ([]byte, error)
	Cleanup()
}

// AutoSelectBackend returns the GL device when it can run here and the CPU
// device otherwise.
func AutoSelectBackend(workers int, logger *slog.Logger) Backend {
	gl := NewGLDevice()
	if gl.Available() {
		if logger != nil {
			logger.Info("backend selected", "backend", gl.Name())
		}
		return gl
	}
	cpu := NewCPUDevice(workers)
	if logger != nil {
		logger.Info("backend selected", "backend", cpu.Name(), "reason", "gl unavailable")
	}
	return cpu
}

// NewBackend returns the device registered under name: auto, cpu or gl.
func NewBackend(name string, workers int, logger *slog.Logger) (Backend, error) {
	switch name {
	case "", "auto":
		return AutoSelectBackend(workers, logger), nil
	case "cpu":
		return NewCPUDevice(workers), nil
	case "gl":
		return NewGLDevice(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendUnavailable, name)
	}
}
