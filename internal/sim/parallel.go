package sim

import (
	"context"
	"log/slog"

	"github.com/mellw0101/3d-sim/internal/config"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent scenes concurrently, one World per config.
type Ensemble struct {
	configs []*config.Config
	metrics func() []Metric
	logger  *slog.Logger
}

// NewEnsemble prepares a run of every config. metrics, when non-nil, is
// called once per world so each run gets its own accumulators.
func NewEnsemble(configs []*config.Config, metrics func() []Metric, logger *slog.Logger) *Ensemble {
	return &Ensemble{configs: configs, metrics: metrics, logger: logger}
}

// Run returns results in config order. The first failure cancels the rest.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.configs))
	g, ctx := errgroup.WithContext(ctx)
	for i, cfg := range e.configs {
		g.Go(func() error {
			w, err := NewWorld(cfg, e.logger)
			if err != nil {
				return err
			}
			defer w.Close()
			if e.metrics != nil {
				for _, m := range e.metrics() {
					w.AddMetric(m)
				}
			}
			res, err := w.Run(ctx, cfg.Frames)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
