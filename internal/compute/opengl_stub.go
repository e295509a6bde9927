//go:build !gl

package compute

import "github.com/go-gl/mathgl/mgl32"

// GLDevice is unavailable in builds without the gl tag.
type GLDevice struct{}

func NewGLDevice() *GLDevice {
	return &GLDevice{}
}

func (d *GLDevice) Name() string                     { return "gl (not available)" }
func (d *GLDevice) Available() bool                  { return false }
func (d *GLDevice) Init() error                      { return ErrBackendUnavailable }
func (d *GLDevice) Upload([]byte) error              { return ErrBackendUnavailable }
func (d *GLDevice) SetFloat(string, float32) error   { return ErrBackendUnavailable }
func (d *GLDevice) SetVec3(string, mgl32.Vec3) error { return ErrBackendUnavailable }
func (d *GLDevice) SetUint(string, uint32) error     { return ErrBackendUnavailable }
func (d *GLDevice) Dispatch(int) error               { return ErrBackendUnavailable }
func (d *GLDevice) Barrier() error                   { return ErrBackendUnavailable }
func (d *GLDevice) Read() ([]byte, error)            { return nil, ErrBackendUnavailable }
func (d *GLDevice) Cleanup()                         {}
