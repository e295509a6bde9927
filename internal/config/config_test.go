package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/gomega"
)

func TestDefaultConfig(t *testing.T) {
	g := NewWithT(t)
	cfg := DefaultConfig()

	g.Expect(cfg.Validate()).To(Succeed())
	g.Expect(cfg.Timestep()).To(BeNumerically("~", 1.0/120, 1e-9))
	g.Expect(cfg.Force()).To(Equal(mgl32.Vec3{0, -9.806, 0}))
	g.Expect(cfg.Bodies).To(HaveLen(2))
	g.Expect(cfg.Camera.Size).To(Equal(mgl32.Vec3{1, 2, 1}))
	g.Expect(cfg.Camera.SnapLeftToOrigin).To(BeTrue())
}

func TestExtents(t *testing.T) {
	tests := []struct {
		name     string
		body     BodyConfig
		expected mgl32.Vec3
		wantErr  bool
	}{
		{"shape", BodyConfig{Name: "a", Shape: "cube"}, mgl32.Vec3{1, 1, 1}, false},
		{"scaled shape", BodyConfig{Name: "a", Shape: "cube", Scale: mgl32.Vec3{2, 1, 0.5}}, mgl32.Vec3{2, 1, 0.5}, false},
		{"explicit size wins", BodyConfig{Name: "a", Shape: "cube", Size: mgl32.Vec3{3, 3, 3}}, mgl32.Vec3{3, 3, 3}, false},
		{"floor", BodyConfig{Name: "a", Shape: "floor"}, mgl32.Vec3{10, 0, 10}, false},
		{"unknown shape", BodyConfig{Name: "a", Shape: "torus"}, mgl32.Vec3{}, true},
		{"nothing", BodyConfig{Name: "a"}, mgl32.Vec3{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			size, err := tt.body.Extents()
			if tt.wantErr {
				g.Expect(err).To(HaveOccurred())
				return
			}
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(size).To(Equal(tt.expected))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"negative gravity", func(c *Config) { c.Gravity = -1 }},
		{"unknown mode", func(c *Config) { c.Mode = "remote" }},
		{"unknown backend", func(c *Config) { c.Backend = "cuda" }},
		{"duplicate names", func(c *Config) { c.Bodies[1].Name = c.Bodies[0].Name }},
		{"unnamed body", func(c *Config) { c.Bodies[0].Name = "" }},
		{"flat camera", func(c *Config) { c.Camera.Size = mgl32.Vec3{1, 0, 1} }},
		{"shapeless body", func(c *Config) { c.Bodies[0].Shape = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			cfg := DefaultConfig()
			tt.mutate(cfg)
			g.Expect(cfg.Validate()).To(MatchError(ErrInvalid))
		})
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	g := NewWithT(t)
	cfg, err := Parse([]byte(`
fps: 60
mode: device
camera:
  free_fly: true
bodies:
  - name: crate
    shape: cube
    position: [1, 2, 3]
  - name: ground
    size: [20, 1, 20]
    position: [0, -0.5, 0]
    static: true
`))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.FPS).To(Equal(60))
	g.Expect(cfg.Gravity).To(Equal(float32(DefaultGravity)))
	g.Expect(cfg.Mode).To(Equal(ModeDevice))
	g.Expect(cfg.Camera.FreeFly).To(BeTrue())
	g.Expect(cfg.Camera.Sensitivity).To(Equal(float32(0.07)))
	g.Expect(cfg.Bodies).To(HaveLen(2))
	g.Expect(cfg.Bodies[0].Position).To(Equal(mgl32.Vec3{1, 2, 3}))
	g.Expect(cfg.Bodies[1].Static).To(BeTrue())
	g.Expect(cfg.Validate()).To(Succeed())
}

func TestParseRejectsMalformed(t *testing.T) {
	g := NewWithT(t)
	_, err := Parse([]byte("bodies: [[["))
	g.Expect(err).To(MatchError(ErrInvalid))
}

func TestSaveLoad(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "scene.yaml")
	cfg := GetPreset("stairs")

	g.Expect(Save(path, cfg)).To(Succeed())
	_, err := os.Stat(path)
	g.Expect(err).NotTo(HaveOccurred())

	loaded, err := Load(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(loaded).To(Equal(cfg))
}

func TestPresets(t *testing.T) {
	g := NewWithT(t)
	names := ListPresets()
	g.Expect(names).To(ContainElements("drop", "stairs", "freefall"))

	for _, name := range names {
		cfg := GetPreset(name)
		g.Expect(cfg).NotTo(BeNil(), name)
		g.Expect(cfg.Validate()).To(Succeed(), name)
	}

	g.Expect(GetPreset("nonexistent")).To(BeNil())

	a, b := GetPreset("drop"), GetPreset("drop")
	a.Bodies[0].Position[1] = 100
	g.Expect(b.Bodies[0].Position.Y()).To(Equal(float32(4)))
}
