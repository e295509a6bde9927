package compute_test

import (
	"bytes"
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mellw0101/3d-sim/internal/body"
	"github.com/mellw0101/3d-sim/internal/collision"
	"github.com/mellw0101/3d-sim/internal/compute"
	"github.com/mellw0101/3d-sim/internal/integrators"
	"github.com/mellw0101/3d-sim/internal/logging"
)

const (
	dt      = float32(1.0 / 120.0)
	gravity = float32(9.806)
)

var force = mgl32.Vec3{0, -gravity, 0}

func scene() []*body.Body {
	return []*body.Body{
		body.New("cube", mgl32.Vec3{0, 4, 0}, mgl32.Vec3{1, 1, 1}),
		body.NewStatic("base", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}),
		body.New("drifter", mgl32.Vec3{3, 2, -1}, mgl32.Vec3{0.5, 0.5, 0.5}),
	}
}

func hostStep(bodies []*body.Body) {
	for _, b := range bodies {
		integrators.ApplyGravity(b, dt, force)
	}
	for _, b := range bodies {
		collision.ResolveAgainst(b, bodies)
	}
}

func expectClose(a, b mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		ExpectWithOffset(1, a[i]).To(BeNumerically("~", b[i], 1e-4))
	}
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx context.Context
		d   *compute.Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		d, err = compute.NewDispatcher(compute.NewCPUDevice(4), dt, force, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(d.Close)
	})

	Describe("gravity", func() {
		It("matches the analytic first step", func() {
			b := body.New("faller", mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, 1, 1})
			Expect(d.Step(ctx, compute.OpGravity, []*body.Body{b})).To(Succeed())

			expected := 10 - 0.5*gravity*dt*dt
			Expect(b.Position.Y()).To(BeNumerically("~", expected, 1e-4))
			Expect(b.Velocity.Y()).To(BeNumerically("~", -gravity*dt, 1e-6))
		})

		It("consumes transient acceleration", func() {
			b := body.New("pushed", mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, 1, 1})
			b.ApplyAcceleration(mgl32.Vec3{6, 0, 0})
			Expect(d.Step(ctx, compute.OpGravity, []*body.Body{b})).To(Succeed())

			Expect(b.Acceleration).To(Equal(mgl32.Vec3{}))
			Expect(b.Velocity.X()).To(BeNumerically("~", 6*dt, 1e-6))
		})

		It("leaves static bodies alone", func() {
			b := body.NewStatic("floor", mgl32.Vec3{0, 5, 0}, mgl32.Vec3{10, 0, 10})
			Expect(d.Step(ctx, compute.OpGravity, []*body.Body{b})).To(Succeed())
			Expect(b.Position).To(Equal(mgl32.Vec3{0, 5, 0}))
		})
	})

	Describe("collision", func() {
		It("pushes a dynamic body onto a static one", func() {
			cube := body.New("cube", mgl32.Vec3{0, 0.875, 0}, mgl32.Vec3{1, 1, 1})
			cube.Velocity = mgl32.Vec3{0, -2, 0}
			base := body.NewStatic("base", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})

			Expect(d.Step(ctx, compute.OpCollision, []*body.Body{cube, base})).To(Succeed())
			Expect(cube.Position).To(Equal(mgl32.Vec3{0, 1, 0}))
			Expect(cube.Velocity.Y()).To(BeZero())
			Expect(base.Position).To(Equal(mgl32.Vec3{0, 0, 0}))
		})

		It("does not resolve dynamic bodies against each other", func() {
			a := body.New("a", mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 1, 1})
			b := body.New("b", mgl32.Vec3{0, 5.25, 0}, mgl32.Vec3{1, 1, 1})
			Expect(d.Step(ctx, compute.OpCollision, []*body.Body{a, b})).To(Succeed())
			Expect(a.Position.Y()).To(Equal(float32(5)))
			Expect(b.Position.Y()).To(Equal(float32(5.25)))
		})
	})

	It("agrees with the host path over many frames", func() {
		host, device := scene(), scene()
		for frame := 0; frame < 600; frame++ {
			hostStep(host)
			Expect(d.Step(ctx, compute.OpGravity, device)).To(Succeed())
			Expect(d.Step(ctx, compute.OpCollision, device)).To(Succeed())
		}
		for i := range host {
			expectClose(device[i].Position, host[i].Position)
			expectClose(device[i].Velocity, host[i].Velocity)
		}
		Expect(device[0].Position.Y()).To(BeNumerically("~", 1, 1e-4))
	})

	It("keeps record order", func() {
		records := []compute.Record{
			{Position: mgl32.Vec3{1, 20, 0}},
			{Position: mgl32.Vec3{2, 30, 0}},
			{Position: mgl32.Vec3{3, 40, 0}},
		}
		out, err := d.Dispatch(ctx, compute.OpGravity, records)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(3))
		for i, rec := range out {
			Expect(rec.Position.X()).To(Equal(records[i].Position.X()))
		}
	})

	It("returns an empty batch untouched", func() {
		out, err := d.Dispatch(ctx, compute.OpCollision, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("rejects unknown operations with dispatch context", func() {
		_, err := d.Dispatch(ctx, compute.Operation(9), []compute.Record{{}})
		Expect(err).To(MatchError(compute.ErrUnknownOperation))

		var de *compute.DispatchError
		Expect(err).To(BeAssignableToTypeOf(de))
	})

	It("does not issue work after cancellation", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		b := body.New("faller", mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, 1, 1})
		Expect(d.Step(cctx, compute.OpGravity, []*body.Body{b})).To(MatchError(context.Canceled))
		Expect(b.Position.Y()).To(Equal(float32(10)))
	})

	It("resolves many dynamic records across workers independently", func() {
		const n = 63
		records := make([]compute.Record, 0, n+1)
		for i := 0; i < n; i++ {
			records = append(records, compute.Record{
				Position: mgl32.Vec3{-9 + float32(i)*0.25, 0.55, 0},
				Velocity: mgl32.Vec3{0, -1, 0},
				Size:     mgl32.Vec3{0.2, 0.2, 0.2},
			})
		}
		static := compute.Record{Size: mgl32.Vec3{20, 1, 20}}
		static.Flags.SetStatic(true)
		records = append(records, static)

		wide, err := compute.NewDispatcher(compute.NewCPUDevice(8), dt, force, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(wide.Close)

		for round := 0; round < 20; round++ {
			records, err = wide.Dispatch(ctx, compute.OpCollision, records)
			Expect(err).NotTo(HaveOccurred())
		}
		for i, rec := range records[:n] {
			Expect(rec.Position.X()).To(Equal(-9 + float32(i)*0.25))
			Expect(rec.Position.Y()).To(BeNumerically("~", 0.6, 1e-5))
			Expect(rec.Velocity.Y()).To(BeZero())
		}
		Expect(records[n].Position).To(Equal(mgl32.Vec3{}))
	})
})

var errKernelFault = errors.New("kernel fault")

type faultyBarrier struct{ *compute.CPUDevice }

func (faultyBarrier) Barrier() error { return errKernelFault }

var _ = Describe("Dispatcher.Close", func() {
	It("logs a barrier error instead of dropping it", func() {
		var out bytes.Buffer
		logger, err := logging.New(logging.Options{Level: "warn", Output: &out})
		Expect(err).NotTo(HaveOccurred())

		d, err := compute.NewDispatcher(faultyBarrier{compute.NewCPUDevice(1)}, dt, force, logger)
		Expect(err).NotTo(HaveOccurred())
		d.Close()

		Expect(out.String()).To(ContainSubstring("barrier failed on close"))
		Expect(out.String()).To(ContainSubstring("kernel fault"))
	})
})
