package config

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/geometry"
)

// Presets build a fresh scene each call so callers can override fields freely.
var Presets = map[string]func() *Config{
	"drop": DefaultConfig,
	"freefall": func() *Config {
		cfg := DefaultConfig()
		cfg.Frames = 120
		cfg.Bodies = []BodyConfig{
			{Name: "faller", Shape: "cube", Position: mgl32.Vec3{0, 10, 0}},
		}
		return cfg
	},
	"slide": func() *Config {
		cfg := DefaultConfig()
		cfg.Bodies = []BodyConfig{
			{Name: "puck", Shape: "cube", Position: mgl32.Vec3{-4, 1.5, 0}, Velocity: mgl32.Vec3{3, 0, 0}, Scale: mgl32.Vec3{0.5, 0.5, 0.5}},
			{Name: "wall", Position: mgl32.Vec3{2, 1, 0}, Size: mgl32.Vec3{1, 2, 4}, Static: true},
		}
		return cfg
	},
	"stack": func() *Config {
		cfg := DefaultConfig()
		cfg.Frames = 900
		cfg.Bodies = []BodyConfig{
			{Name: "low", Shape: "cube", Position: mgl32.Vec3{-2, 3, 0}},
			{Name: "mid", Shape: "cube", Position: mgl32.Vec3{0, 6, 0}},
			{Name: "high", Shape: "cube", Position: mgl32.Vec3{2, 9, 0}},
			{Name: "platform", Position: mgl32.Vec3{0, 0.5, 0}, Size: mgl32.Vec3{6, 1, 2}, Static: true},
		}
		return cfg
	},
	"stairs": func() *Config {
		cfg := DefaultConfig()
		cfg.Frames = 900
		cfg.Bodies = []BodyConfig{
			{Name: "ball", Shape: "cube", Position: mgl32.Vec3{0, 8, 2.5}, Scale: mgl32.Vec3{0.5, 0.5, 0.5}},
		}
		for i, step := range geometry.Stairs(mgl32.Vec3{0, 0.5, 0}, 4, mgl32.Vec3{3, 1, 1}) {
			cfg.Bodies = append(cfg.Bodies, BodyConfig{
				Name:     fmt.Sprintf("step%d", i),
				Position: step.Position,
				Size:     step.Size,
				Static:   true,
			})
		}
		return cfg
	},
	"flyover": func() *Config {
		cfg := DefaultConfig()
		cfg.Camera.FreeFly = true
		cfg.Camera.Position = mgl32.Vec3{0, 6, -6}
		cfg.Bodies = append(cfg.Bodies, BodyConfig{Name: "floor", Shape: "floor", Position: mgl32.Vec3{0, -2, 0}, Static: true})
		return cfg
	},
}

// GetPreset returns a new config for the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
