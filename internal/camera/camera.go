// Package camera integrates the viewer as a single body: yaw/pitch look,
// relative movement that is either free-flying or locked to the ground plane,
// gravity, and collision against static scenery.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/body"
	"github.com/mellw0101/3d-sim/internal/collision"
	"github.com/mellw0101/3d-sim/internal/integrators"
	"github.com/mellw0101/3d-sim/internal/vmath"
)

const (
	MinPitch = -89.9
	MaxPitch = 89.9
)

type Config struct {
	Position    mgl32.Vec3
	Size        mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Sensitivity float32
	FreeFly     bool
	MoveStep    float32
	JumpSpeed   float32
	// SnapLeftToOrigin keeps the viewer's historical left-face response:
	// x is reset to 0 and x velocity is kept.
	SnapLeftToOrigin bool
}

// DefaultConfig places a 1x2x1 viewer three units behind the origin, looking
// down the z axis.
func DefaultConfig() Config {
	yaw, pitch := vmath.YawPitchFromDirection(mgl32.Vec3{0, 0, -3})
	return Config{
		Position:         mgl32.Vec3{0, 0, -3},
		Size:             mgl32.Vec3{1, 2, 1},
		Yaw:              yaw,
		Pitch:            pitch,
		Sensitivity:      0.07,
		MoveStep:         0.02,
		JumpSpeed:        5,
		SnapLeftToOrigin: true,
	}
}

type Camera struct {
	body.Body

	yaw         float32
	pitch       float32
	sensitivity float32
	moveStep    float32
	jumpSpeed   float32
	snapLeft    bool

	direction mgl32.Vec3
	dirty     bool
	view      mgl32.Mat4
}

func New(cfg Config) *Camera {
	c := &Camera{
		Body:        *body.New("camera", cfg.Position, cfg.Size),
		yaw:         cfg.Yaw,
		pitch:       vmath.Clamp(cfg.Pitch, MinPitch, MaxPitch),
		sensitivity: cfg.Sensitivity,
		moveStep:    cfg.MoveStep,
		jumpSpeed:   cfg.JumpSpeed,
		snapLeft:    cfg.SnapLeftToOrigin,
	}
	c.Flags.SetFreeFly(cfg.FreeFly)
	c.recomputeDirection()
	c.updateView()
	return c
}

func (c *Camera) Yaw() float32      { return c.yaw }
func (c *Camera) Pitch() float32    { return c.pitch }
func (c *Camera) MoveStep() float32 { return c.moveStep }

// Dirty reports whether the angle changed since the last Update.
func (c *Camera) Dirty() bool { return c.dirty }

// Direction is the cached view direction. It lags ChangeAngle until Update.
func (c *Camera) Direction() mgl32.Vec3 { return c.direction }

func (c *Camera) View() mgl32.Mat4 { return c.view }

// ChangeAngle applies a look delta scaled by the sensitivity.
func (c *Camera) ChangeAngle(dx, dy float32) {
	c.yaw += dx * c.sensitivity
	c.pitch = vmath.Clamp(c.pitch+dy*c.sensitivity, MinPitch, MaxPitch)
	c.dirty = true
}

// ChangePosition moves the camera relative to where it faces. delta is
// (right, up, forward); on the ground the move stays in the xz plane.
func (c *Camera) ChangePosition(delta mgl32.Vec3) {
	var forward mgl32.Vec3
	right := vmath.Right(c.yaw)
	if c.Flags.FreeFly() {
		forward = vmath.Direction(c.yaw, c.pitch)
	} else {
		forward = vmath.Direction(c.yaw, 0)
		forward[1] = 0
		right[1] = 0
	}
	move := forward.Mul(delta.Z()).Add(right.Mul(delta.X())).Add(vmath.Up.Mul(delta.Y()))
	c.Position = c.Position.Sub(move)
}

// Jump sets the vertical velocity to the configured jump speed.
func (c *Camera) Jump() {
	c.Velocity[1] = c.jumpSpeed
}

// Update advances the camera one frame under force plus any accumulated
// acceleration, then refreshes the direction if needed and the view.
func (c *Camera) Update(dt float32, force mgl32.Vec3) {
	integrators.ApplyGravity(&c.Body, dt, force)
	if c.dirty {
		c.recomputeDirection()
	}
	c.updateView()
}

func (c *Camera) Box() collision.Box {
	return collision.BoxOf(&c.Body)
}

// ResolveAgainst pushes the camera out of every static body in order and
// returns the number of corrections.
func (c *Camera) ResolveAgainst(bodies []*body.Body) int {
	n := 0
	for _, b := range bodies {
		if !b.Flags.Static() {
			continue
		}
		if _, ok := collision.ResolveCamera(&c.Position, &c.Velocity, c.Size, collision.BoxOf(b), c.snapLeft); ok {
			n++
		}
	}
	if n > 0 {
		c.updateView()
	}
	return n
}

func (c *Camera) recomputeDirection() {
	c.direction = vmath.Normalize(vmath.Direction(c.yaw, c.pitch))
	c.dirty = false
}

func (c *Camera) updateView() {
	c.view = mgl32.LookAtV(c.Position, c.Position.Sub(c.direction), vmath.Up)
}
