package viz

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestCanvasSet(t *testing.T) {
	g := NewWithT(t)
	c := NewCanvas(2, 1)
	w, h := c.Dots()
	g.Expect(w).To(Equal(4))
	g.Expect(h).To(Equal(4))

	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)
	g.Expect(c.String()).To(Equal(string([]rune{brailleBlank | 0x1, brailleBlank | 0x80})))

	c.Clear()
	g.Expect(c.String()).To(Equal(strings.Repeat(string(rune(brailleBlank)), 2)))
}

func TestCanvasLine(t *testing.T) {
	g := NewWithT(t)
	c := NewCanvas(1, 1)
	c.Line(0, 0, 0, 3)
	g.Expect(c.String()).To(Equal(string(rune(brailleBlank | 0x1 | 0x2 | 0x4 | 0x40))))
}

func TestCanvasRows(t *testing.T) {
	g := NewWithT(t)
	c := NewCanvas(3, 4)
	g.Expect(strings.Split(c.String(), "\n")).To(HaveLen(4))
}

func TestCanvasDot(t *testing.T) {
	g := NewWithT(t)
	c := NewCanvas(2, 2)
	c.Set(3, 5)
	g.Expect(c.Dot(3, 5)).To(BeTrue())
	g.Expect(c.Dot(2, 5)).To(BeFalse())
	g.Expect(c.Dot(-1, 0)).To(BeFalse())
	g.Expect(c.Dot(4, 0)).To(BeFalse())
}
