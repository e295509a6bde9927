package sim

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/gomega"
)

func TestBodyStateIsValid(t *testing.T) {
	tests := []struct {
		name  string
		state BodyState
		valid bool
	}{
		{"zero", BodyState{}, true},
		{"normal", BodyState{Position: mgl32.Vec3{1, 2, 3}, Velocity: mgl32.Vec3{-1, 0, 4}}, true},
		{"NaN position", BodyState{Position: mgl32.Vec3{math32.NaN(), 0, 0}}, false},
		{"+Inf velocity", BodyState{Velocity: mgl32.Vec3{0, math32.Inf(1), 0}}, false},
		{"-Inf velocity", BodyState{Velocity: mgl32.Vec3{0, 0, math32.Inf(-1)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestResultFinalOnEmpty(t *testing.T) {
	g := NewWithT(t)
	r := &Result{}
	g.Expect(r.Final()).To(Equal(Frame{}))
	g.Expect(r.Track("anything")).To(BeEmpty())
}
