package integrators

import "github.com/go-gl/mathgl/mgl32"

// Verlet is velocity Verlet. The acceleration is constant across a step, so
// the averaged acceleration collapses to accel.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(pos, vel *mgl32.Vec3, dt float32, accel mgl32.Vec3) {
	dt2 := dt * dt
	*pos = pos.Add(vel.Mul(dt)).Add(accel.Mul(0.5 * dt2))
	*vel = vel.Add(accel.Mul(dt))
}
