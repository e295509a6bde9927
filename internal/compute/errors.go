package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendUnavailable indicates the selected device cannot run on this host.
	ErrBackendUnavailable = errors.New("compute: backend unavailable")

	// ErrKernelBuild indicates the kernel failed to compile or link.
	ErrKernelBuild = errors.New("compute: kernel build failed")

	// ErrReadBeforeBarrier indicates a readback was attempted while a dispatch
	// was still running.
	ErrReadBeforeBarrier = errors.New("compute: read before barrier")

	// ErrBufferSize indicates a buffer whose length is not a whole number of
	// records, or a dispatch larger than the uploaded buffer.
	ErrBufferSize = errors.New("compute: buffer size mismatch")

	ErrUnknownOperation = errors.New("compute: unknown operation")

	ErrUnknownParameter = errors.New("compute: unknown parameter")

	// ErrDispatchInFlight indicates the buffer or parameters were touched while
	// a dispatch owned them.
	ErrDispatchInFlight = errors.New("compute: dispatch in flight")

	ErrNotInitialized = errors.New("compute: backend not initialized")
)

// DispatchError wraps a failure with the dispatch it happened in.
type DispatchError struct {
	Op      Operation
	Records int
	Wrapped error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("compute: %s dispatch of %d records: %v", e.Op, e.Records, e.Wrapped)
}

func (e *DispatchError) Unwrap() error {
	return e.Wrapped
}
