package integrators

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/body"
)

// Stepper advances a position/velocity pair in place under an acceleration
// that is held constant for the whole step.
type Stepper interface {
	Step(pos, vel *mgl32.Vec3, dt float32, accel mgl32.Vec3)
}

// RK4 is the classical fourth-order Runge-Kutta stepper. With a constant
// acceleration the velocity stages coincide, but all four stages are still
// evaluated so the update keeps the general form.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(pos, vel *mgl32.Vec3, dt float32, accel mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		v, a := vel[i], accel[i]

		k1x := v * dt
		k1v := a * dt

		k2x := (v + 0.5*k1v) * dt
		k2v := a * dt

		k3x := (v + 0.5*k2v) * dt
		k3v := a * dt

		k4x := (v + k3v) * dt
		k4v := a * dt

		pos[i] += (k1x + 2*k2x + 2*k3x + k4x) / 6
		vel[i] += (k1v + 2*k2v + 2*k3v + k4v) / 6
	}
}

// ClampGround keeps the position on or above the y = 0 plane. Hitting the
// plane is fully inelastic.
func ClampGround(pos, vel *mgl32.Vec3) {
	if pos[1] < 0 {
		pos[1] = 0
		vel[1] = 0
	}
}

// Integrate runs one RK4 step followed by the ground clamp.
func Integrate(pos, vel *mgl32.Vec3, dt float32, accel mgl32.Vec3) {
	var r RK4
	r.Step(pos, vel, dt, accel)
	ClampGround(pos, vel)
}

// ApplyGravity integrates b under force plus its accumulated acceleration and
// then clears the acceleration. Static bodies are left untouched.
func ApplyGravity(b *body.Body, dt float32, force mgl32.Vec3) {
	if b.Flags.Static() {
		return
	}
	Integrate(&b.Position, &b.Velocity, dt, force.Add(b.Acceleration))
	b.Acceleration = mgl32.Vec3{}
}
