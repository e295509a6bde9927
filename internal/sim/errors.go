package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a body reached a NaN or infinite value.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	ErrClosed = errors.New("sim: world closed")

	// ErrUnknownBody indicates a lookup by a name no body carries.
	ErrUnknownBody = errors.New("sim: unknown body")
)

// StepError wraps a failure with the frame it happened in.
type StepError struct {
	Frame   int
	Body    string
	Wrapped error
}

func (e *StepError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("frame %d, body %q: %v", e.Frame, e.Body, e.Wrapped)
	}
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
