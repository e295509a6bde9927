package integrators

import "github.com/go-gl/mathgl/mgl32"

// Euler is the semi-implicit (symplectic) Euler stepper.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(pos, vel *mgl32.Vec3, dt float32, accel mgl32.Vec3) {
	*vel = vel.Add(accel.Mul(dt))
	*pos = pos.Add(vel.Mul(dt))
}
