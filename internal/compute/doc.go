// Package compute runs the physics kernel over a batch of bodies on a
// device.
//
// Bodies are packed into one buffer of fixed-size records (see Pack), the
// buffer is uploaded, a single operation parameter selects gravity or
// collision, one work item runs per record, and after the barrier the buffer
// is read back and scattered onto the bodies in the order they were packed.
//
// Two devices implement Backend:
//
//   - CPU: in-process, work items fanned out over a bounded worker group
//   - GL: OpenGL 4.3 compute shader, built with the gl tag
//
// Typical use:
//
//	backend := compute.AutoSelectBackend(0, logger)
//	d, err := compute.NewDispatcher(backend, 1.0/120, mgl32.Vec3{0, -9.806, 0}, logger)
//	if err != nil {
//		return err
//	}
//	defer d.Close()
//	err = d.Step(ctx, compute.OpGravity, bodies)
//
// Build with the GL device:
//
//	go build -tags gl ./...
package compute
