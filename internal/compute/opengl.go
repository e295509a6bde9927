//go:build gl

package compute

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed kernel.comp
var kernelSource string

const (
	localSize           = 64
	paramRecordCount    = "record_count"
	recordBufferBinding = 1
)

// GLDevice runs the kernel as an OpenGL 4.3 compute shader. GL needs every
// call on the thread that owns the context, so the device keeps one locked
// goroutine and funnels all work through it.
type GLDevice struct {
	startOnce sync.Once
	startErr  error
	calls     chan func()

	mu     sync.Mutex
	closed bool

	window      *glfw.Window
	program     uint32
	ssbo        uint32
	size        int
	pending     bool
	initialized bool
}

func NewGLDevice() *GLDevice {
	return &GLDevice{}
}

func (d *GLDevice) Name() string { return "gl" }

func (d *GLDevice) Available() bool {
	return d.start() == nil
}

func (d *GLDevice) start() error {
	d.startOnce.Do(func() {
		d.calls = make(chan func())
		errc := make(chan error, 1)
		go d.loop(errc)
		d.startErr = <-errc
	})
	return d.startErr
}

func (d *GLDevice) loop(errc chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := glfw.Init(); err != nil {
		errc <- err
		return
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	window, err := glfw.CreateWindow(1, 1, "sim3d", nil, nil)
	if err != nil {
		glfw.Terminate()
		errc <- err
		return
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		errc <- err
		return
	}
	d.window = window
	errc <- nil

	for f := range d.calls {
		f()
	}
	window.Destroy()
	glfw.Terminate()
}

func (d *GLDevice) do(f func() error) error {
	if err := d.start(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrNotInitialized
	}
	errc := make(chan error, 1)
	d.calls <- func() { errc <- f() }
	return <-errc
}

func (d *GLDevice) Init() error {
	return d.do(func() error {
		program, err := createComputeProgram(kernelSource)
		if err != nil {
			return err
		}
		d.program = program
		gl.GenBuffers(1, &d.ssbo)
		d.initialized = true
		return nil
	})
}

func (d *GLDevice) Upload(buf []byte) error {
	return d.do(func() error {
		if err := d.ready(); err != nil {
			return err
		}
		if len(buf)%RecordSize != 0 {
			return fmt.Errorf("%w: upload of %d bytes", ErrBufferSize, len(buf))
		}
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, d.ssbo)
		var ptr unsafe.Pointer
		if len(buf) > 0 {
			ptr = gl.Ptr(buf)
		}
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(buf), ptr, gl.DYNAMIC_COPY)
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, recordBufferBinding, d.ssbo)
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
		d.size = len(buf)
		return nil
	})
}

func (d *GLDevice) SetFloat(name string, v float32) error {
	return d.setUniform(name, func(loc int32) { gl.Uniform1f(loc, v) })
}

func (d *GLDevice) SetVec3(name string, v mgl32.Vec3) error {
	return d.setUniform(name, func(loc int32) { gl.Uniform3f(loc, v[0], v[1], v[2]) })
}

func (d *GLDevice) SetUint(name string, v uint32) error {
	return d.setUniform(name, func(loc int32) { gl.Uniform1ui(loc, v) })
}

func (d *GLDevice) setUniform(name string, set func(loc int32)) error {
	return d.do(func() error {
		if err := d.ready(); err != nil {
			return err
		}
		gl.UseProgram(d.program)
		loc := gl.GetUniformLocation(d.program, gl.Str(name+"\x00"))
		if loc < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
		}
		set(loc)
		return nil
	})
}

func (d *GLDevice) Dispatch(n int) error {
	return d.do(func() error {
		if err := d.ready(); err != nil {
			return err
		}
		if n < 0 || n*RecordSize > d.size {
			return fmt.Errorf("%w: %d work items for %d bytes", ErrBufferSize, n, d.size)
		}
		gl.UseProgram(d.program)
		gl.Uniform1ui(gl.GetUniformLocation(d.program, gl.Str(paramRecordCount+"\x00")), uint32(n))
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, recordBufferBinding, d.ssbo)
		groups := (uint32(n) + localSize - 1) / localSize
		gl.DispatchCompute(groups, 1, 1)
		d.pending = true
		return nil
	})
}

func (d *GLDevice) Barrier() error {
	return d.do(func() error {
		if !d.pending {
			return nil
		}
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
		gl.Finish()
		d.pending = false
		return nil
	})
}

func (d *GLDevice) Read() ([]byte, error) {
	var out []byte
	err := d.do(func() error {
		if d.pending {
			return ErrReadBeforeBarrier
		}
		out = make([]byte, d.size)
		if d.size == 0 {
			return nil
		}
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, d.ssbo)
		ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, d.size, gl.MAP_READ_BIT)
		if ptr == nil {
			gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
			return fmt.Errorf("compute: map buffer failed: gl error 0x%x", gl.GetError())
		}
		copy(out, unsafe.Slice((*byte)(ptr), d.size))
		gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
		return nil
	})
	return out, err
}

func (d *GLDevice) Cleanup() {
	if d.start() != nil {
		return
	}
	_ = d.do(func() error {
		if d.initialized {
			gl.DeleteBuffers(1, &d.ssbo)
			gl.DeleteProgram(d.program)
			d.initialized = false
		}
		return nil
	})
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.calls)
	}
}

func (d *GLDevice) ready() error {
	if !d.initialized {
		return ErrNotInitialized
	}
	return nil
}

func createComputeProgram(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: compile: %s", ErrKernelBuild, strings.TrimRight(log, "\x00"))
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: link: %s", ErrKernelBuild, strings.TrimRight(log, "\x00"))
	}
	return program, nil
}
