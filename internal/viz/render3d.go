package viz

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/collision"
)

const (
	fovY  = 45.0
	zNear = 0.1
	zFar  = 100.0
)

// boxEdges indexes the corners produced by corners.
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Projector maps world points to canvas dots through a view matrix and a
// perspective sized to the canvas.
type Projector struct {
	mvp           mgl32.Mat4
	width, height int
}

func NewProjector(view mgl32.Mat4, c *Canvas) Projector {
	w, h := c.Dots()
	aspect := float32(1)
	if h > 0 {
		// Braille dots are roughly twice as tall as they are wide.
		aspect = float32(w) / float32(h) / 2
	}
	proj := mgl32.Perspective(mgl32.DegToRad(fovY), aspect, zNear, zFar)
	return Projector{mvp: proj.Mul4(view), width: w, height: h}
}

// Project returns the dot coordinates of p and whether p lies in front of
// the viewer.
func (p Projector) Project(pt mgl32.Vec3) (x, y int, ok bool) {
	clip := p.mvp.Mul4x1(pt.Vec4(1))
	if clip.W() <= zNear {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = int((ndc.X() + 1) / 2 * float32(p.width))
	y = int((1 - ndc.Y()) / 2 * float32(p.height))
	return x, y, true
}

// DrawBox draws the twelve edges of box. Edges with an endpoint behind the
// viewer are skipped.
func (p Projector) DrawBox(c *Canvas, box collision.Box) {
	pts := corners(box)
	var xs, ys [8]int
	var vis [8]bool
	for i, pt := range pts {
		xs[i], ys[i], vis[i] = p.Project(pt)
	}
	for _, e := range boxEdges {
		a, b := e[0], e[1]
		if !vis[a] || !vis[b] {
			continue
		}
		c.Line(xs[a], ys[a], xs[b], ys[b])
	}
}

func corners(box collision.Box) [8]mgl32.Vec3 {
	h := box.Size.Mul(0.5)
	lo, hi := box.Position.Sub(h), box.Position.Add(h)
	var out [8]mgl32.Vec3
	for i := range out {
		v := lo
		if i&1 != 0 {
			v[0] = hi[0]
		}
		if i&2 != 0 {
			v[1] = hi[1]
		}
		if i&4 != 0 {
			v[2] = hi[2]
		}
		out[i] = v
	}
	return out
}
