// Package geometry holds the built-in vertex sets bodies derive their extents from.
// Vertices are interleaved position+normal, Stride floats each.
package geometry

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/vmath"
)

const Stride = 6

var Cube = []float32{
	// back
	-0.5, -0.5, -0.5, 0, 0, -1,
	0.5, -0.5, -0.5, 0, 0, -1,
	0.5, 0.5, -0.5, 0, 0, -1,
	-0.5, 0.5, -0.5, 0, 0, -1,
	// front
	-0.5, -0.5, 0.5, 0, 0, 1,
	0.5, -0.5, 0.5, 0, 0, 1,
	0.5, 0.5, 0.5, 0, 0, 1,
	-0.5, 0.5, 0.5, 0, 0, 1,
	// left
	-0.5, -0.5, -0.5, -1, 0, 0,
	-0.5, 0.5, -0.5, -1, 0, 0,
	-0.5, 0.5, 0.5, -1, 0, 0,
	-0.5, -0.5, 0.5, -1, 0, 0,
	// right
	0.5, -0.5, -0.5, 1, 0, 0,
	0.5, 0.5, -0.5, 1, 0, 0,
	0.5, 0.5, 0.5, 1, 0, 0,
	0.5, -0.5, 0.5, 1, 0, 0,
	// bottom
	-0.5, -0.5, -0.5, 0, -1, 0,
	-0.5, -0.5, 0.5, 0, -1, 0,
	0.5, -0.5, 0.5, 0, -1, 0,
	0.5, -0.5, -0.5, 0, -1, 0,
	// top
	-0.5, 0.5, -0.5, 0, 1, 0,
	-0.5, 0.5, 0.5, 0, 1, 0,
	0.5, 0.5, 0.5, 0, 1, 0,
	0.5, 0.5, -0.5, 0, 1, 0,
}

var Floor = []float32{
	-5, 0, -5, 0, 1, 0,
	5, 0, -5, 0, 1, 0,
	5, 0, 5, 0, 1, 0,
	-5, 0, 5, 0, 1, 0,
}

var Triangle = []float32{
	-0.5, -0.5, 0, 0, 0, 1,
	0.5, -0.5, 0, 0, 0, 1,
	0, 0.5, 0, 0, 0, 1,
}

var shapes = map[string][]float32{
	"cube":     Cube,
	"floor":    Floor,
	"triangle": Triangle,
}

// Size returns the extents of a named shape.
func Size(shape string) (mgl32.Vec3, error) {
	verts, ok := shapes[shape]
	if !ok {
		return mgl32.Vec3{}, fmt.Errorf("unknown shape: %s (available: %v)", shape, Shapes())
	}
	return vmath.SizeFromVertices(verts, Stride), nil
}

// Shapes lists the shape names accepted by Size.
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Step is one block of a staircase.
type Step struct {
	Position mgl32.Vec3
	Size     mgl32.Vec3
}

// Stairs lays out `steps` cube blocks of stepSize, each raised by stepSize.Y
// and pushed back by stepSize.Z from the previous one.
func Stairs(origin mgl32.Vec3, steps int, stepSize mgl32.Vec3) []Step {
	base := vmath.SizeFromVertices(Cube, Stride)
	size := mgl32.Vec3{base.X() * stepSize.X(), base.Y() * stepSize.Y(), base.Z() * stepSize.Z()}

	out := make([]Step, 0, steps)
	for i := 0; i < steps; i++ {
		out = append(out, Step{
			Position: mgl32.Vec3{
				origin.X(),
				origin.Y() + float32(i)*stepSize.Y(),
				origin.Z() + float32(i)*stepSize.Z(),
			},
			Size: size,
		})
	}
	return out
}
