package export

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/sim"
	"github.com/mellw0101/3d-sim/internal/viz"
	. "github.com/onsi/gomega"
)

func TestCanvasToSVG(t *testing.T) {
	g := NewWithT(t)
	g.Expect(CanvasToSVG(nil, 2)).To(BeEmpty())

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	g.Expect(svg).To(HavePrefix("<?xml"))
	g.Expect(svg).To(ContainSubstring(`width="8" height="8"`))
	g.Expect(strings.Count(svg, "<circle")).To(Equal(2))
	g.Expect(svg).To(ContainSubstring(`cx="1.0" cy="1.0"`))
	g.Expect(svg).To(ContainSubstring(`cx="7.0" cy="7.0"`))
}

func frames() []sim.Frame {
	out := make([]sim.Frame, 3)
	for i := range out {
		y := float32(4 - i)
		out[i] = sim.Frame{Index: i, Bodies: []sim.BodyState{
			{Name: "cube", Position: mgl32.Vec3{0, y, 0}},
			{Name: "base", Static: true},
		}}
	}
	return out
}

func TestTracksFromFrames(t *testing.T) {
	g := NewWithT(t)
	g.Expect(TracksFromFrames(nil)).To(BeNil())

	tracks := TracksFromFrames(frames())
	g.Expect(tracks).To(HaveLen(2))
	g.Expect(tracks[0].Name).To(Equal("cube"))
	g.Expect(tracks[0].Points).To(Equal([]mgl32.Vec3{{0, 4, 0}, {0, 3, 0}, {0, 2, 0}}))
	g.Expect(tracks[1].Points).To(HaveLen(3))
}

func TestTracksToSVG(t *testing.T) {
	g := NewWithT(t)
	svg, err := TracksToSVG(TracksFromFrames(frames()), 0, 1, 200, 100)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(strings.Count(svg, "<path")).To(Equal(2))
	g.Expect(svg).To(ContainSubstring(">cube</text>"))
	g.Expect(svg).To(HaveSuffix("</svg>"))

	_, err = TracksToSVG(nil, 0, 1, 200, 100)
	g.Expect(err).To(HaveOccurred())
	_, err = TracksToSVG(TracksFromFrames(frames()), 1, 1, 200, 100)
	g.Expect(err).To(HaveOccurred())
}
