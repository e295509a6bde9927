// Package vmath provides the small set of vector helpers the physics core
// needs on top of [mgl32.Vec3]:
//
//   - [Direction]: forward vector from yaw/pitch angles in degrees
//   - [Right]: horizontal right vector from yaw
//   - [SizeFromVertices]: AABB extents of an interleaved vertex array
//
// All angles are degrees. Trigonometry runs in float32 through math32 so the
// host path matches the precision of the device kernel.
package vmath
