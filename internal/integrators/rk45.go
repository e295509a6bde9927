package integrators

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Dormand-Prince coefficients (RK45)
const (
	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// phase is (position, velocity) flattened for the stage arithmetic.
type phase [6]float32

func (x phase) deriv(accel mgl32.Vec3) phase {
	return phase{x[3], x[4], x[5], accel[0], accel[1], accel[2]}
}

func (x phase) add(dt float32, ks []phase, ws []float32) phase {
	out := x
	for i := range out {
		var sum float32
		for j, k := range ks {
			sum += ws[j] * k[i]
		}
		out[i] += dt * sum
	}
	return out
}

// RK45 is the Dormand-Prince embedded pair. Step takes the fixed dt it is
// given; StepAdaptive additionally suggests the next dt for a tolerance.
type RK45 struct {
	safety   float32
	minScale float32
	maxScale float32
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Step(pos, vel *mgl32.Vec3, dt float32, accel mgl32.Vec3) {
	r.StepAdaptive(pos, vel, dt, accel, 1e-6)
}

func (r *RK45) StepAdaptive(pos, vel *mgl32.Vec3, dt float32, accel mgl32.Vec3, tol float32) float32 {
	x := phase{pos[0], pos[1], pos[2], vel[0], vel[1], vel[2]}

	k1 := x.deriv(accel)
	k2 := x.add(dt, []phase{k1}, []float32{b21}).deriv(accel)
	k3 := x.add(dt, []phase{k1, k2}, []float32{b31, b32}).deriv(accel)
	k4 := x.add(dt, []phase{k1, k2, k3}, []float32{b41, b42, b43}).deriv(accel)
	k5 := x.add(dt, []phase{k1, k2, k3, k4}, []float32{b51, b52, b53, b54}).deriv(accel)
	k6 := x.add(dt, []phase{k1, k2, k3, k4, k5}, []float32{b61, b62, b63, b64, b65}).deriv(accel)

	xNew := x.add(dt, []phase{k1, k3, k4, k5, k6}, []float32{c1, c3, c4, c5, c6})
	k7 := xNew.deriv(accel)

	var errMax float32
	for i := range x {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math32.Abs(x[i]) + math32.Abs(dt*k1[i]) + 1e-10
		errMax = math32.Max(errMax, math32.Abs(errEst)/scale)
	}

	*pos = mgl32.Vec3{xNew[0], xNew[1], xNew[2]}
	*vel = mgl32.Vec3{xNew[3], xNew[4], xNew[5]}

	errRatio := errMax / tol
	switch {
	case errRatio > 1:
		return dt * math32.Max(r.minScale, r.safety*math32.Pow(errRatio, -0.25))
	case errRatio > 0:
		return dt * math32.Min(r.maxScale, r.safety*math32.Pow(errRatio, -0.2))
	default:
		return dt * r.maxScale
	}
}
