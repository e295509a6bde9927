package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/config"
	"github.com/mellw0101/3d-sim/internal/metrics"
	"github.com/mellw0101/3d-sim/internal/sim"
)

// Parameters a sweep can vary.
const (
	ParamGravity = "gravity"
	ParamHeight  = "height"
	ParamFPS     = "fps"
)

const settleThreshold = 1e-3

// ParameterSweep runs a preset once per evenly spaced value of Param.
// ParamHeight offsets every dynamic body vertically.
type ParameterSweep struct {
	Preset string
	Param  string
	Min    float32
	Max    float32
	Steps  int
}

type SweepResult struct {
	Value       float32
	SettleFrame int
	EnergyLoss  float64
	Penetration float64
	Final       sim.Frame
}

func studyMetrics(gravity float32) func() []sim.Metric {
	return func() []sim.Metric {
		return []sim.Metric{
			metrics.NewSettle(settleThreshold),
			metrics.NewEnergyLoss(gravity),
			metrics.NewPenetration(),
		}
	}
}

func preset(name string) (*config.Config, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("%w: unknown preset %q", config.ErrInvalid, name)
	}
	return cfg, nil
}

func (s *ParameterSweep) values() []float32 {
	if s.Steps == 1 {
		return []float32{s.Min}
	}
	out := make([]float32, s.Steps)
	step := (s.Max - s.Min) / float32(s.Steps-1)
	for i := range out {
		out[i] = s.Min + float32(i)*step
	}
	return out
}

func (s *ParameterSweep) configure(v float32) (*config.Config, error) {
	cfg, err := preset(s.Preset)
	if err != nil {
		return nil, err
	}
	switch s.Param {
	case ParamGravity:
		cfg.Gravity = v
	case ParamFPS:
		cfg.FPS = int(v)
	case ParamHeight:
		for i := range cfg.Bodies {
			if !cfg.Bodies[i].Static {
				cfg.Bodies[i].Position = cfg.Bodies[i].Position.Add(mgl32.Vec3{0, v, 0})
			}
		}
	default:
		return nil, fmt.Errorf("%w: cannot sweep %q", config.ErrInvalid, s.Param)
	}
	return cfg, nil
}

// RunSweep runs every value concurrently and returns results in sweep order.
func RunSweep(ctx context.Context, s *ParameterSweep, logger *slog.Logger) ([]SweepResult, error) {
	if s.Steps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step", config.ErrInvalid)
	}
	values := s.values()
	configs := make([]*config.Config, len(values))
	for i, v := range values {
		cfg, err := s.configure(v)
		if err != nil {
			return nil, err
		}
		configs[i] = cfg
	}

	// Energy is measured against the preset's gravity so values stay comparable.
	results, err := sim.NewEnsemble(configs, studyMetrics(configs[0].Gravity), logger).Run(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SweepResult, len(results))
	for i, r := range results {
		out[i] = SweepResult{
			Value:       values[i],
			SettleFrame: int(r.Metrics["settle_frame"]),
			EnergyLoss:  r.Metrics["energy_loss"],
			Penetration: r.Metrics["penetration"],
			Final:       r.Final(),
		}
	}
	return out, nil
}

// MonteCarloConfig perturbs the start position of every dynamic body of a
// preset by up to Perturbation on each axis.
type MonteCarloConfig struct {
	Preset       string
	Perturbation float32
	Trials       int
	Seed         int64
}

type MonteCarloResult struct {
	Trial       int
	Offsets     map[string]mgl32.Vec3
	Settled     bool
	Penetration float64
	Final       sim.Frame
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, logger *slog.Logger) ([]MonteCarloResult, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("%w: monte carlo needs at least one trial", config.ErrInvalid)
	}
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	jitter := func() float32 { return (rng.Float32()*2 - 1) * mc.Perturbation }

	configs := make([]*config.Config, mc.Trials)
	offsets := make([]map[string]mgl32.Vec3, mc.Trials)
	for t := range configs {
		cfg, err := preset(mc.Preset)
		if err != nil {
			return nil, err
		}
		offsets[t] = make(map[string]mgl32.Vec3)
		for i := range cfg.Bodies {
			if cfg.Bodies[i].Static {
				continue
			}
			d := mgl32.Vec3{jitter(), jitter(), jitter()}
			cfg.Bodies[i].Position = cfg.Bodies[i].Position.Add(d)
			offsets[t][cfg.Bodies[i].Name] = d
		}
		configs[t] = cfg
	}

	results, err := sim.NewEnsemble(configs, studyMetrics(configs[0].Gravity), logger).Run(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MonteCarloResult, len(results))
	for t, r := range results {
		out[t] = MonteCarloResult{
			Trial:       t,
			Offsets:     offsets[t],
			Settled:     r.Metrics["settle_frame"] >= 0,
			Penetration: r.Metrics["penetration"],
			Final:       r.Final(),
		}
	}
	return out, nil
}

// MonteCarloStats counts settled and unsettled trials.
func MonteCarloStats(results []MonteCarloResult) (settled, unsettled int) {
	for _, r := range results {
		if r.Settled {
			settled++
		} else {
			unsettled++
		}
	}
	return
}
