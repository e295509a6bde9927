package vmath

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Up is the world up axis.
var Up = mgl32.Vec3{0, 1, 0}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * (math32.Pi / 180)
}

// Degrees converts radians to degrees.
func Degrees(rad float32) float32 {
	return rad * (180 / math32.Pi)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize returns v scaled to unit length, or the zero vector when v has no length.
func Normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// Direction returns the forward vector for the given yaw and pitch.
func Direction(yaw, pitch float32) mgl32.Vec3 {
	sy, cy := math32.Sincos(Radians(yaw))
	sp, cp := math32.Sincos(Radians(pitch))
	return mgl32.Vec3{cy * cp, sp, sy * cp}
}

// DirectionBetween returns the unit vector pointing from `from` to `to`.
func DirectionBetween(to, from mgl32.Vec3) mgl32.Vec3 {
	return Normalize(to.Sub(from))
}

// Right returns the horizontal right vector for the given yaw, i.e. the
// forward direction rotated by 90 degrees around the up axis.
func Right(yaw float32) mgl32.Vec3 {
	s, c := math32.Sincos(Radians(yaw + 90))
	return mgl32.Vec3{c, 0, s}
}

// YawPitchFromDirection is the inverse of Direction. A zero vector yields (0, 0).
func YawPitchFromDirection(dir mgl32.Vec3) (yaw, pitch float32) {
	d := Normalize(dir)
	if d.Len() == 0 {
		return 0, 0
	}
	yaw = Degrees(math32.Atan2(d.Z(), d.X()))
	pitch = Degrees(math32.Asin(Clamp(d.Y(), -1, 1)))
	return yaw, pitch
}

// SizeFromVertices returns max-min over the xyz triple at the start of every
// vertex. stride is the number of floats per vertex (6 for position+normal).
func SizeFromVertices(verts []float32, stride int) mgl32.Vec3 {
	if stride < 3 {
		stride = 3
	}
	if len(verts) < 3 {
		return mgl32.Vec3{}
	}

	lo := mgl32.Vec3{verts[0], verts[1], verts[2]}
	hi := lo
	for i := 0; i+2 < len(verts); i += stride {
		for axis := 0; axis < 3; axis++ {
			v := verts[i+axis]
			if v < lo[axis] {
				lo[axis] = v
			}
			if v > hi[axis] {
				hi[axis] = v
			}
		}
	}
	return hi.Sub(lo)
}
