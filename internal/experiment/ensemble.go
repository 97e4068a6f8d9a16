package experiment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/verletsim/internal/config"
)

// Ensemble runs the same configuration under consecutive spawner seeds.
// Every run owns its solver, so runs proceed in parallel.
type Ensemble struct {
	base      *config.Config
	numRuns   int
	seedStart int64
	// Limit caps concurrent runs. Zero means no limit.
	Limit     int
}

func NewEnsemble(base *config.Config, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: base, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.Limit > 0 {
		g.SetLimit(e.Limit)
	}
	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			cfg := e.base.Clone()
			cfg.Spawner.Seed = e.seedStart + int64(i)

			exp, err := New(cfg)
			if err != nil {
				return err
			}
			results[i], err = exp.Run(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary aggregates one metric over an ensemble.
type Summary struct {
	Name string
	Mean float64
	Min  float64
	Max  float64
}

func Summarize(results []*Result, metric string) Summary {
	s := Summary{Name: metric}
	for i, r := range results {
		v := r.Metrics[metric]
		if i == 0 || v < s.Min {
			s.Min = v
		}
		if i == 0 || v > s.Max {
			s.Max = v
		}
		s.Mean += v
	}
	if len(results) > 0 {
		s.Mean /= float64(len(results))
	}
	return s
}
