package compute

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/collision"
	"github.com/mellw0101/3d-sim/internal/integrators"
)

// Kernel parameter names, shared by every device.
const (
	ParamDeltaT    = "delta_t"
	ParamForce     = "c_force"
	ParamOperation = "operation"
)

// kernelParams is the uniform block a dispatch runs with.
type kernelParams struct {
	dt    float32
	force mgl32.Vec3
	op    Operation
}

// staticBoxes decodes the static records among the first n of buf. It runs
// before work items fan out, so the collision pass never reads a record that
// another work item is writing.
func staticBoxes(buf []byte, n int) []collision.Box {
	var boxes []collision.Box
	for j := 0; j < n; j++ {
		src := buf[j*RecordSize : (j+1)*RecordSize]
		if !recordStatic(src) {
			continue
		}
		other := decodeRecord(src)
		boxes = append(boxes, collision.Box{Position: other.Position, Size: other.Size})
	}
	return boxes
}

// runWorkItem executes the kernel for record i of buf in place. Work item i
// reads and writes only record i; the collision pass sees static records
// through statics, captured before the dispatch.
func runWorkItem(buf []byte, i int, p kernelParams, statics []collision.Box) {
	self := buf[i*RecordSize : (i+1)*RecordSize]
	rec := decodeRecord(self)
	if rec.Flags.Static() {
		return
	}

	switch p.op {
	case OpGravity:
		integrators.Integrate(&rec.Position, &rec.Velocity, p.dt, p.force.Add(rec.Acceleration))
		rec.Acceleration = mgl32.Vec3{}
	case OpCollision:
		for _, other := range statics {
			collision.Push(&rec.Position, &rec.Velocity, rec.Size, other)
		}
	default:
		return
	}
	encodeRecord(self, rec)
}
