package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/camera"
	"github.com/mellw0101/3d-sim/internal/geometry"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS     = 120
	DefaultGravity = 9.806
	DefaultFrames  = 600
)

const (
	ModeHost   = "host"
	ModeDevice = "device"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	FPS     int          `yaml:"fps"`
	Gravity float32      `yaml:"gravity"`
	Mode    string       `yaml:"mode"`
	Backend string       `yaml:"backend"`
	Workers int          `yaml:"workers"`
	Frames  int          `yaml:"frames"`
	Camera  CameraConfig `yaml:"camera"`
	Bodies  []BodyConfig `yaml:"bodies"`
}

type CameraConfig struct {
	Position         mgl32.Vec3 `yaml:"position,flow"`
	Size             mgl32.Vec3 `yaml:"size,flow"`
	Yaw              float32    `yaml:"yaw"`
	Pitch            float32    `yaml:"pitch"`
	Sensitivity      float32    `yaml:"sensitivity"`
	FreeFly          bool       `yaml:"free_fly"`
	MoveStep         float32    `yaml:"move_step"`
	JumpSpeed        float32    `yaml:"jump_speed"`
	SnapLeftToOrigin bool       `yaml:"snap_left_to_origin"`
}

type BodyConfig struct {
	Name     string     `yaml:"name"`
	Shape    string     `yaml:"shape,omitempty"`
	Position mgl32.Vec3 `yaml:"position,flow"`
	Velocity mgl32.Vec3 `yaml:"velocity,flow,omitempty"`
	Scale    mgl32.Vec3 `yaml:"scale,flow,omitempty"`
	// Size overrides the shape's extents when non-zero.
	Size   mgl32.Vec3 `yaml:"size,flow,omitempty"`
	Static bool       `yaml:"static,omitempty"`
}

func DefaultCamera() CameraConfig {
	c := camera.DefaultConfig()
	return CameraConfig{
		Position:         c.Position,
		Size:             c.Size,
		Yaw:              c.Yaw,
		Pitch:            c.Pitch,
		Sensitivity:      c.Sensitivity,
		FreeFly:          c.FreeFly,
		MoveStep:         c.MoveStep,
		JumpSpeed:        c.JumpSpeed,
		SnapLeftToOrigin: c.SnapLeftToOrigin,
	}
}

// DefaultConfig is a wide cube dropped onto a static cube at the origin.
func DefaultConfig() *Config {
	return &Config{
		FPS:     DefaultFPS,
		Gravity: DefaultGravity,
		Mode:    ModeHost,
		Backend: "auto",
		Frames:  DefaultFrames,
		Camera:  DefaultCamera(),
		Bodies: []BodyConfig{
			{Name: "cube", Shape: "cube", Position: mgl32.Vec3{0, 4, 0}, Scale: mgl32.Vec3{2, 1, 1}},
			{Name: "base", Shape: "cube", Position: mgl32.Vec3{0, 0, 0}, Static: true},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. A bodies list in the document
// replaces the default scene.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Timestep() float32 {
	return 1 / float32(c.FPS)
}

func (c *Config) Force() mgl32.Vec3 {
	return mgl32.Vec3{0, -c.Gravity, 0}
}

func (c *Config) CameraConfig() camera.Config {
	return camera.Config{
		Position:         c.Camera.Position,
		Size:             c.Camera.Size,
		Yaw:              c.Camera.Yaw,
		Pitch:            c.Camera.Pitch,
		Sensitivity:      c.Camera.Sensitivity,
		FreeFly:          c.Camera.FreeFly,
		MoveStep:         c.Camera.MoveStep,
		JumpSpeed:        c.Camera.JumpSpeed,
		SnapLeftToOrigin: c.Camera.SnapLeftToOrigin,
	}
}

// Extents returns the body's full size: Size when set, otherwise the shape's
// extents multiplied by Scale (an unset scale is 1).
func (b BodyConfig) Extents() (mgl32.Vec3, error) {
	if b.Size != (mgl32.Vec3{}) {
		return b.Size, nil
	}
	if b.Shape == "" {
		return mgl32.Vec3{}, fmt.Errorf("body %q: needs a shape or a size", b.Name)
	}
	base, err := geometry.Size(b.Shape)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("body %q: %w", b.Name, err)
	}
	scale := b.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	return mgl32.Vec3{base[0] * scale[0], base[1] * scale[1], base[2] * scale[2]}, nil
}

// Validate reports every problem at once, each wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.FPS <= 0 {
		bad("fps must be positive, got %d", c.FPS)
	}
	if c.Gravity < 0 {
		bad("gravity must not be negative, got %g", c.Gravity)
	}
	switch c.Mode {
	case ModeHost, ModeDevice:
	default:
		bad("mode must be %q or %q, got %q", ModeHost, ModeDevice, c.Mode)
	}
	switch c.Backend {
	case "", "auto", "cpu", "gl":
	default:
		bad("backend must be auto, cpu or gl, got %q", c.Backend)
	}
	if c.Workers < 0 {
		bad("workers must not be negative, got %d", c.Workers)
	}
	if c.Frames < 0 {
		bad("frames must not be negative, got %d", c.Frames)
	}
	if c.Camera.Sensitivity < 0 {
		bad("camera sensitivity must not be negative")
	}
	for i := 0; i < 3; i++ {
		if c.Camera.Size[i] <= 0 {
			bad("camera size must be positive on every axis, got %v", c.Camera.Size)
			break
		}
	}

	names := make(map[string]bool, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.Name == "" {
			bad("body %d has no name", i)
		} else if names[b.Name] {
			bad("duplicate body name %q", b.Name)
		}
		names[b.Name] = true

		size, err := b.Extents()
		if err != nil {
			bad("%v", err)
			continue
		}
		for j := 0; j < 3; j++ {
			if size[j] < 0 {
				bad("body %q has negative size %v", b.Name, size)
				break
			}
		}
	}
	return errors.Join(errs...)
}
