package compute

import (
	"fmt"
	"strings"
)

// Operation selects what the kernel does on a dispatch. The value is what
// gets written to the operation parameter.
type Operation uint32

const (
	OpGravity Operation = iota
	OpCollision
)

func (op Operation) String() string {
	switch op {
	case OpGravity:
		return "gravity"
	case OpCollision:
		return "collision"
	default:
		return fmt.Sprintf("operation(%d)", uint32(op))
	}
}

func (op Operation) Valid() bool {
	return op == OpGravity || op == OpCollision
}

func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(s) {
	case "gravity":
		return OpGravity, nil
	case "collision":
		return OpCollision, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}
