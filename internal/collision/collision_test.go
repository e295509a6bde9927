package collision

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/body"
	. "github.com/onsi/gomega"
)

// platform spans x,z in [-2, 2] and y in [-1, 1].
var platform = Box{Position: mgl32.Vec3{0, 0, 0}, Size: mgl32.Vec3{4, 2, 4}}

func TestResolveSingleAxis(t *testing.T) {
	tests := []struct {
		start    mgl32.Vec3
		axis     Axis
		expected mgl32.Vec3
	}{
		{mgl32.Vec3{-2.375, 0, 0}, Left, mgl32.Vec3{-2.5, 0, 0}},
		{mgl32.Vec3{2.375, 0, 0}, Right, mgl32.Vec3{2.5, 0, 0}},
		{mgl32.Vec3{0, -1.375, 0}, Top, mgl32.Vec3{0, -1.5, 0}},
		{mgl32.Vec3{0, 1.375, 0}, Bottom, mgl32.Vec3{0, 1.5, 0}},
		{mgl32.Vec3{0, 0, -2.375}, Front, mgl32.Vec3{0, 0, -2.5}},
		{mgl32.Vec3{0, 0, 2.375}, Back, mgl32.Vec3{0, 0, 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.axis.String(), func(t *testing.T) {
			g := NewWithT(t)
			a := body.New("a", tt.start, mgl32.Vec3{1, 1, 1})
			a.Velocity = mgl32.Vec3{1, -2, 3}

			axis, ok := Resolve(a, platform)
			g.Expect(ok).To(BeTrue())
			g.Expect(axis).To(Equal(tt.axis))
			g.Expect(a.Position).To(Equal(tt.expected))

			want := mgl32.Vec3{1, -2, 3}
			want[tt.axis.Component()] = 0
			g.Expect(a.Velocity).To(Equal(want))
		})
	}
}

func TestResolveTieIsNoop(t *testing.T) {
	g := NewWithT(t)
	a := body.New("a", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})
	a.Velocity = mgl32.Vec3{1, 1, 1}
	b := Box{Position: mgl32.Vec3{1.5, 1.75, 0.25}, Size: mgl32.Vec3{2, 2.5, 3}}

	depths := Depths(BoxOf(a), b)
	g.Expect(depths[Left]).To(Equal(float32(0.5)))
	g.Expect(depths[Top]).To(Equal(float32(0.5)))

	_, ok := Resolve(a, b)
	g.Expect(ok).To(BeFalse())
	g.Expect(a.Position).To(Equal(mgl32.Vec3{0, 0, 0}))
	g.Expect(a.Velocity).To(Equal(mgl32.Vec3{1, 1, 1}))
}

func TestResolveSeparated(t *testing.T) {
	g := NewWithT(t)
	a := body.New("a", mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 1, 1})
	a.Velocity = mgl32.Vec3{0, -3, 0}

	_, ok := Resolve(a, platform)
	g.Expect(ok).To(BeFalse())
	g.Expect(a.Position).To(Equal(mgl32.Vec3{0, 5, 0}))
	g.Expect(a.Velocity).To(Equal(mgl32.Vec3{0, -3, 0}))
}

func TestTouchingFacesStopMotion(t *testing.T) {
	g := NewWithT(t)
	a := body.New("a", mgl32.Vec3{0, 1.5, 0}, mgl32.Vec3{1, 1, 1})
	a.Velocity = mgl32.Vec3{0, -3, 0}

	g.Expect(Overlapping(BoxOf(a), platform)).To(BeTrue())
	axis, ok := Resolve(a, platform)
	g.Expect(ok).To(BeTrue())
	g.Expect(axis).To(Equal(Bottom))
	g.Expect(a.Position).To(Equal(mgl32.Vec3{0, 1.5, 0}))
	g.Expect(a.Velocity.Y()).To(BeZero())
}

func TestSelectAxis(t *testing.T) {
	tests := []struct {
		name   string
		depths [numAxes]float32
		axis   Axis
		ok     bool
	}{
		{"unique minimum", [numAxes]float32{3, 2, 1, 4, 5, 6}, Top, true},
		{"last axis", [numAxes]float32{3, 2, 4, 4, 5, 1}, Back, true},
		{"shared minimum", [numAxes]float32{1, 2, 3, 4, 5, 1}, 0, false},
		{"all equal", [numAxes]float32{1, 1, 1, 1, 1, 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			axis, ok := SelectAxis(tt.depths)
			g.Expect(ok).To(Equal(tt.ok))
			if tt.ok {
				g.Expect(axis).To(Equal(tt.axis))
			}
		})
	}
}

func TestResolveAgainst(t *testing.T) {
	g := NewWithT(t)
	a := body.New("a", mgl32.Vec3{0, 1.375, 0}, mgl32.Vec3{1, 1, 1})
	other := body.New("other", mgl32.Vec3{0, 1.375, 0}, mgl32.Vec3{1, 1, 1})
	ground := body.NewStatic("ground", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 2, 4})
	far := body.NewStatic("far", mgl32.Vec3{20, 0, 0}, mgl32.Vec3{1, 1, 1})

	n := ResolveAgainst(a, []*body.Body{a, other, ground, far})
	g.Expect(n).To(Equal(1))
	g.Expect(a.Position.Y()).To(Equal(float32(1.5)))
	g.Expect(other.Position.Y()).To(Equal(float32(1.375)))

	g.Expect(ResolveAgainst(ground, []*body.Body{a, ground})).To(BeZero())
}

func TestResolveCamera(t *testing.T) {
	t.Run("left snaps to origin", func(t *testing.T) {
		g := NewWithT(t)
		pos := mgl32.Vec3{-2.375, 0, 0}
		vel := mgl32.Vec3{1, 0, 0}
		axis, ok := ResolveCamera(&pos, &vel, mgl32.Vec3{1, 1, 1}, platform, true)
		g.Expect(ok).To(BeTrue())
		g.Expect(axis).To(Equal(Left))
		g.Expect(pos).To(Equal(mgl32.Vec3{0, 0, 0}))
		g.Expect(vel).To(Equal(mgl32.Vec3{1, 0, 0}))
	})

	t.Run("left flush when snapping is off", func(t *testing.T) {
		g := NewWithT(t)
		pos := mgl32.Vec3{-2.375, 0, 0}
		vel := mgl32.Vec3{1, 0, 0}
		_, ok := ResolveCamera(&pos, &vel, mgl32.Vec3{1, 1, 1}, platform, false)
		g.Expect(ok).To(BeTrue())
		g.Expect(pos).To(Equal(mgl32.Vec3{-2.5, 0, 0}))
		g.Expect(vel).To(Equal(mgl32.Vec3{0, 0, 0}))
	})

	t.Run("other axes match Resolve", func(t *testing.T) {
		g := NewWithT(t)
		pos := mgl32.Vec3{0, 1.375, 0}
		vel := mgl32.Vec3{0, -4, 0}
		axis, ok := ResolveCamera(&pos, &vel, mgl32.Vec3{1, 1, 1}, platform, true)
		g.Expect(ok).To(BeTrue())
		g.Expect(axis).To(Equal(Bottom))
		g.Expect(pos).To(Equal(mgl32.Vec3{0, 1.5, 0}))
		g.Expect(vel.Y()).To(BeZero())
	})
}

func TestAxisString(t *testing.T) {
	g := NewWithT(t)
	g.Expect(Bottom.String()).To(Equal("bottom"))
	g.Expect(Axis(9).String()).To(Equal("axis(9)"))
}
