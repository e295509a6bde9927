// Package collision detects overlap between axis-aligned boxes and pushes the
// moving box out along the single axis of least penetration.
//
// Face naming follows screen space on the y axis: Top is the face at the lower
// y value and Bottom the face at the higher one, so resolving on Bottom lifts
// the moving box onto the other box.
package collision

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/body"
)

type Axis int

const (
	Left Axis = iota
	Right
	Top
	Bottom
	Front
	Back
	numAxes
)

var axisNames = [numAxes]string{"left", "right", "top", "bottom", "front", "back"}

func (a Axis) String() string {
	if a < 0 || a >= numAxes {
		return fmt.Sprintf("axis(%d)", int(a))
	}
	return axisNames[a]
}

// Component returns the vector component (0=x, 1=y, 2=z) the axis moves along.
func (a Axis) Component() int {
	return int(a) / 2
}

// Box is the read-only view of a body the resolver needs.
type Box struct {
	Position mgl32.Vec3
	Size     mgl32.Vec3
}

func BoxOf(b *body.Body) Box {
	return Box{Position: b.Position, Size: b.Size}
}

func (b Box) lo(i int) float32 { return b.Position[i] - b.Size[i]/2 }
func (b Box) hi(i int) float32 { return b.Position[i] + b.Size[i]/2 }

// Overlapping reports whether the boxes intersect on all three axes. Touching
// faces count as overlapping.
func Overlapping(a, b Box) bool {
	for i := 0; i < 3; i++ {
		if a.hi(i) < b.lo(i) || a.lo(i) > b.hi(i) {
			return false
		}
	}
	return true
}

// Depths returns the distance a would have to travel along each axis to stop
// overlapping b.
func Depths(a, b Box) [numAxes]float32 {
	return [numAxes]float32{
		Left:   a.hi(0) - b.lo(0),
		Right:  b.hi(0) - a.lo(0),
		Top:    a.hi(1) - b.lo(1),
		Bottom: b.hi(1) - a.lo(1),
		Front:  a.hi(2) - b.lo(2),
		Back:   b.hi(2) - a.lo(2),
	}
}

// SelectAxis returns the axis whose depth is strictly smaller than every other
// depth. When the minimum is shared no axis is selected.
func SelectAxis(depths [numAxes]float32) (Axis, bool) {
	for candidate := Left; candidate < numAxes; candidate++ {
		least := true
		for other := Left; other < numAxes; other++ {
			if other != candidate && !(depths[candidate] < depths[other]) {
				least = false
				break
			}
		}
		if least {
			return candidate, true
		}
	}
	return 0, false
}

// Contact computes the axis a must be pushed out along, if any.
func Contact(a, b Box) (Axis, bool) {
	if !Overlapping(a, b) {
		return 0, false
	}
	return SelectAxis(Depths(a, b))
}

// flush returns the coordinate that places a against b's face on axis.
func flush(a, b Box, axis Axis) float32 {
	i := axis.Component()
	switch axis {
	case Left, Top, Front:
		return b.lo(i) - a.Size[i]/2
	default:
		return b.hi(i) + a.Size[i]/2
	}
}

// Resolve moves a flush against other along the least-penetration axis and
// zeroes a's velocity on that axis. other is never modified. It reports the
// corrected axis; ties and non-overlapping boxes leave a unchanged.
func Resolve(a *body.Body, other Box) (Axis, bool) {
	return Push(&a.Position, &a.Velocity, a.Size, other)
}

// Push is Resolve on bare state, for callers that do not hold a Body.
func Push(pos, vel *mgl32.Vec3, size mgl32.Vec3, other Box) (Axis, bool) {
	self := Box{Position: *pos, Size: size}
	axis, ok := Contact(self, other)
	if !ok {
		return 0, false
	}
	i := axis.Component()
	pos[i] = flush(self, other, axis)
	vel[i] = 0
	return axis, true
}

// ResolveAgainst resolves a against every static body in order, skipping a
// itself. It returns how many corrections were applied.
func ResolveAgainst(a *body.Body, bodies []*body.Body) int {
	if a.Flags.Static() {
		return 0
	}
	n := 0
	for _, other := range bodies {
		if other == a || !other.Flags.Static() {
			continue
		}
		if _, ok := Resolve(a, BoxOf(other)); ok {
			n++
		}
	}
	return n
}

// ResolveCamera is the viewer variant of Resolve. With snapLeftToOrigin set, a
// left-axis contact puts the camera at x = 0 and keeps its x velocity, which is
// how the viewer has always behaved; otherwise it resolves like Resolve.
func ResolveCamera(pos, vel *mgl32.Vec3, size mgl32.Vec3, other Box, snapLeftToOrigin bool) (Axis, bool) {
	if !snapLeftToOrigin {
		return Push(pos, vel, size, other)
	}
	axis, ok := Contact(Box{Position: *pos, Size: size}, other)
	if !ok {
		return 0, false
	}
	if axis == Left {
		pos[0] = 0
		return axis, true
	}
	return Push(pos, vel, size, other)
}
