package sim_test

import (
	"context"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mellw0101/3d-sim/internal/body"
	"github.com/mellw0101/3d-sim/internal/compute"
	"github.com/mellw0101/3d-sim/internal/config"
	"github.com/mellw0101/3d-sim/internal/sim"
)

type countingMetric struct {
	observed int
}

func (m *countingMetric) Name() string                      { return "count" }
func (m *countingMetric) Observe(frame int, _ []*body.Body) { m.observed++ }
func (m *countingMetric) Value() float64                    { return float64(m.observed) }
func (m *countingMetric) Reset()                            { m.observed = 0 }

func newWorld(cfg *config.Config) *sim.World {
	w, err := sim.NewWorld(cfg, nil)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	DeferCleanup(w.Close)
	return w
}

// cancelOnRead cancels the run the first time a pass is read back, i.e. in
// the middle of a frame.
type cancelOnRead struct {
	*compute.CPUDevice
	cancel context.CancelFunc
	reads  int
}

func (c *cancelOnRead) Read() ([]byte, error) {
	c.reads++
	c.cancel()
	return c.CPUDevice.Read()
}

func deviceConfig(cfg *config.Config) *config.Config {
	cfg.Mode = config.ModeDevice
	cfg.Backend = "cpu"
	cfg.Workers = 2
	return cfg
}

var _ = Describe("World", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	DescribeTable("settles the dropped cube on the static cube",
		func(cfg *config.Config, backend string) {
			w := newWorld(cfg)
			Expect(w.Backend()).To(Equal(backend))

			res, err := w.Run(ctx, 600)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(600))
			Expect(res.Frames).To(HaveLen(601))

			cube, err := w.Body("cube")
			Expect(err).NotTo(HaveOccurred())
			Expect(cube.Position.Y()).To(BeNumerically("~", 1.0, 1e-4))
			Expect(cube.Velocity.Y()).To(BeZero())

			base, err := w.Body("base")
			Expect(err).NotTo(HaveOccurred())
			Expect(base.Position).To(Equal(mgl32.Vec3{0, 0, 0}))
		},
		Entry("host", config.DefaultConfig(), "host"),
		Entry("device", deviceConfig(config.DefaultConfig()), "cpu"),
	)

	It("keeps host and device runs in agreement", func() {
		host := newWorld(config.GetPreset("stack"))
		device := newWorld(deviceConfig(config.GetPreset("stack")))

		for i := 0; i < 300; i++ {
			Expect(host.Step(ctx)).To(Succeed())
			Expect(device.Step(ctx)).To(Succeed())
		}
		for i := range host.Bodies {
			for axis := 0; axis < 3; axis++ {
				Expect(device.Bodies[i].Position[axis]).To(BeNumerically("~", host.Bodies[i].Position[axis], 1e-4))
				Expect(device.Bodies[i].Velocity[axis]).To(BeNumerically("~", host.Bodies[i].Velocity[axis], 1e-4))
			}
		}
	})

	It("drops the viewer to the ground", func() {
		w := newWorld(config.DefaultConfig())
		_, err := w.Run(ctx, 120)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Camera.Position.Y()).To(BeZero())
		Expect(w.Camera.Velocity.Y()).To(BeZero())
	})

	It("matches the analytic first step", func() {
		w := newWorld(config.GetPreset("freefall"))
		Expect(w.Step(ctx)).To(Succeed())

		faller, err := w.Body("faller")
		Expect(err).NotTo(HaveOccurred())
		dt := w.Timestep()
		Expect(faller.Position.Y()).To(BeNumerically("~", 10-0.5*9.806*dt*dt, 1e-4))
	})

	It("feeds metrics and observers every frame", func() {
		w := newWorld(config.DefaultConfig())
		m := &countingMetric{}
		w.AddMetric(m)

		var seen []int
		w.AddObserver(sim.ObserverFunc(func(f sim.Frame) {
			seen = append(seen, f.Index)
		}))

		res, err := w.Run(ctx, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(HaveKeyWithValue("count", 5.0))
		Expect(seen).To(Equal([]int{1, 2, 3, 4, 5}))
		Expect(res.Final().Index).To(Equal(5))
		Expect(res.Final().Time).To(BeNumerically("~", 5.0/120, 1e-6))
	})

	It("stops between frames on cancellation", func() {
		w := newWorld(config.DefaultConfig())
		cctx, cancel := context.WithCancel(ctx)
		w.AddObserver(sim.ObserverFunc(func(f sim.Frame) {
			if f.Index == 3 {
				cancel()
			}
		}))

		res, err := w.Run(cctx, 100)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.StepsTaken).To(Equal(3))
	})

	It("finishes a device frame cancelled between passes", func() {
		cctx, cancel := context.WithCancel(ctx)
		DeferCleanup(cancel)
		dev := &cancelOnRead{CPUDevice: compute.NewCPUDevice(2), cancel: cancel}

		cfg := config.DefaultConfig()
		cfg.Bodies[0].Position = mgl32.Vec3{0, 1, 0}
		w, err := sim.NewWorldWithBackend(cfg, dev, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(w.Close)
		Expect(w.Mode()).To(Equal(config.ModeDevice))

		Expect(w.Step(cctx)).To(Succeed())
		Expect(dev.reads).To(Equal(2))
		Expect(w.Frame()).To(Equal(1))

		cube, _ := w.Body("cube")
		Expect(cube.Position.Y()).To(BeNumerically("~", 1.0, 1e-5))
		Expect(cube.Velocity.Y()).To(BeZero())

		Expect(w.Step(cctx)).To(MatchError(context.Canceled))
		Expect(w.Frame()).To(Equal(1))
	})

	It("reports non-finite state", func() {
		w := newWorld(config.DefaultConfig())
		cube, _ := w.Body("cube")
		cube.Velocity[0] = math32.Inf(1)

		err := w.Step(ctx)
		Expect(err).To(MatchError(sim.ErrInvalidState))
		var se *sim.StepError
		Expect(err).To(BeAssignableToTypeOf(se))
	})

	It("refuses to step once closed", func() {
		w := newWorld(config.DefaultConfig())
		w.Close()
		Expect(w.Step(ctx)).To(MatchError(sim.ErrClosed))
	})

	It("rejects invalid configs", func() {
		cfg := config.DefaultConfig()
		cfg.FPS = 0
		_, err := sim.NewWorld(cfg, nil)
		Expect(err).To(MatchError(config.ErrInvalid))
	})

	It("looks up bodies by name", func() {
		w := newWorld(config.DefaultConfig())
		_, err := w.Body("ghost")
		Expect(err).To(MatchError(sim.ErrUnknownBody))
	})

	It("tracks one body across frames", func() {
		w := newWorld(config.GetPreset("freefall"))
		res, err := w.Run(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		track := res.Track("faller")
		Expect(track).To(HaveLen(11))
		Expect(track[0].Position.Y()).To(Equal(float32(10)))
		Expect(track[10].Position.Y()).To(BeNumerically("<", 10))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs every scene and keeps config order", func() {
		a := config.GetPreset("freefall")
		a.Frames = 30
		b := deviceConfig(config.GetPreset("drop"))
		b.Frames = 60

		results, err := sim.NewEnsemble([]*config.Config{a, b}, func() []sim.Metric {
			return []sim.Metric{&countingMetric{}}
		}, nil).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].StepsTaken).To(Equal(30))
		Expect(results[1].StepsTaken).To(Equal(60))
		Expect(results[1].Backend).To(Equal("cpu"))
		Expect(results[1].Metrics).To(HaveKeyWithValue("count", 60.0))
	})

	It("fails when any scene is invalid", func() {
		bad := config.DefaultConfig()
		bad.Mode = "remote"
		_, err := sim.NewEnsemble([]*config.Config{config.DefaultConfig(), bad}, nil, nil).Run(context.Background())
		Expect(err).To(MatchError(config.ErrInvalid))
	})
})
