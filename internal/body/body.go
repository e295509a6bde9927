// Package body defines the kinematic body shared by the host and device physics paths.
package body

import "github.com/go-gl/mathgl/mgl32"

// Flags is the set of named capabilities a body carries.
type Flags struct {
	static  bool
	freeFly bool
}

func NewFlags(static, freeFly bool) Flags {
	return Flags{static: static, freeFly: freeFly}
}

func (f Flags) Static() bool       { return f.static }
func (f *Flags) SetStatic(v bool)  { f.static = v }
func (f Flags) FreeFly() bool      { return f.freeFly }
func (f *Flags) SetFreeFly(v bool) { f.freeFly = v }

// Body is an axis-aligned box moving under integration. Size holds the full
// extents; the box spans Position ± Size/2 on every axis.
//
// Acceleration is transient: it is consumed and zeroed by the next gravity pass.
type Body struct {
	Name         string
	Position     mgl32.Vec3
	Velocity     mgl32.Vec3
	Acceleration mgl32.Vec3
	Size         mgl32.Vec3
	Flags        Flags
}

func New(name string, position, size mgl32.Vec3) *Body {
	return &Body{
		Name:     name,
		Position: position,
		Size:     size,
	}
}

// NewStatic returns an immovable body.
func NewStatic(name string, position, size mgl32.Vec3) *Body {
	b := New(name, position, size)
	b.Flags.SetStatic(true)
	return b
}

// Bounds returns the min and max corners.
func (b *Body) Bounds() (lo, hi mgl32.Vec3) {
	half := b.Size.Mul(0.5)
	return b.Position.Sub(half), b.Position.Add(half)
}

// ApplyAcceleration accumulates a for the next step.
func (b *Body) ApplyAcceleration(a mgl32.Vec3) {
	b.Acceleration = b.Acceleration.Add(a)
}

func (b *Body) Clone() *Body {
	c := *b
	return &c
}
