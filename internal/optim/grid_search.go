// Package optim sweeps solver parameters for the setting that minimizes a
// run metric.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/verletsim/internal/experiment"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d params but %d ranges", len(params), len(ranges))
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs one experiment per grid point and returns the point with the
// lowest value of metricName, along with every trial in visiting order.
// Trials whose experiment fails are recorded but never chosen. Search stops
// early when ctx is done.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Trial, error) {

	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams, &trials)

	if err := ctx.Err(); err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, best, trials, fmt.Errorf("grid search: no trial produced %s", metricName)
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	trials *[]Trial,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		trial := Trial{Params: current}
		defer func() { *trials = append(*trials, trial) }()

		exp, err := buildExperiment(current)
		if err != nil {
			trial.Err = err
			return
		}

		result, err := exp.Run(ctx)
		if err != nil {
			trial.Err = err
			return
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			trial.Err = fmt.Errorf("metric %s not recorded", metricName)
			return
		}
		trial.Value = val
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams, trials)
	}
}

// SolverParams returns a builder that creates experiments with build and
// applies each swept value through the solver's SetParam.
func SolverParams(build func() (*experiment.Experiment, error)) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		exp, err := build()
		if err != nil {
			return nil, err
		}
		for k, v := range params {
			if err := exp.Solver().SetParam(k, v); err != nil {
				return nil, err
			}
		}
		return exp, nil
	}
}
