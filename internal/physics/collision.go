package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/particle"
)

const (
	DefaultResponse   = 0.75
	DefaultThreshold  = 200
	DefaultIterations = 1
)

// Strategy names how a resolution pass enumerates candidate pairs.
type Strategy int

const (
	BruteForce Strategy = iota
	GridBroadPhase
)

func (s Strategy) String() string {
	switch s {
	case BruteForce:
		return "brute-force"
	case GridBroadPhase:
		return "grid"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// EdgeMode selects how grid cells on the outer ring find their neighbors.
type EdgeMode int

const (
	// EdgeClamp tests every cell against the part of its 3x3 neighborhood
	// that lies inside the grid. Nothing near the edge is skipped.
	EdgeClamp EdgeMode = iota

	// EdgeRingPatch tests interior cells against their full neighborhood
	// and outer-ring cells against themselves only. Particles on the ring
	// miss contacts with particles in adjacent cells.
	EdgeRingPatch
)

func (m EdgeMode) String() string {
	switch m {
	case EdgeClamp:
		return "clamp"
	case EdgeRingPatch:
		return "ring-patch"
	default:
		return fmt.Sprintf("edge(%d)", int(m))
	}
}

func ParseEdgeMode(s string) (EdgeMode, error) {
	switch s {
	case "", "clamp":
		return EdgeClamp, nil
	case "ring-patch", "ring":
		return EdgeRingPatch, nil
	}
	return EdgeClamp, fmt.Errorf("%w: unknown edge mode %q", dynamo.ErrInvalidConfig, s)
}

// Resolver pushes overlapping circles apart along their center line. A
// brute-force pass relaxes every pair once. A grid pass visits each
// neighboring pair from both cells, so it relaxes the pair twice. Neither
// iterates to equilibrium unless Iterations > 1.
type Resolver struct {
	// Response damps each correction (0, 1].
	Response float64
	// Threshold is the population from which the grid strategy is used.
	Threshold  int
	Iterations int
	Edge       EdgeMode
}

func NewResolver() *Resolver {
	return &Resolver{
		Response:   DefaultResponse,
		Threshold:  DefaultThreshold,
		Iterations: DefaultIterations,
		Edge:       EdgeClamp,
	}
}

func (r *Resolver) Validate() error {
	if !(r.Response > 0 && r.Response <= 1) {
		return fmt.Errorf("%w: response coefficient must be in (0, 1], got %f", dynamo.ErrInvalidConfig, r.Response)
	}
	if r.Threshold < 0 {
		return fmt.Errorf("%w: grid threshold must not be negative, got %d", dynamo.ErrInvalidConfig, r.Threshold)
	}
	if r.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be at least 1, got %d", dynamo.ErrInvalidConfig, r.Iterations)
	}
	if r.Edge != EdgeClamp && r.Edge != EdgeRingPatch {
		return fmt.Errorf("%w: unknown edge mode %d", dynamo.ErrInvalidConfig, r.Edge)
	}
	return nil
}

// Collide separates a and b if they overlap and reports whether it did.
// The smaller particle takes the larger share of the correction.
func (r *Resolver) Collide(a, b *particle.Particle) bool {
	v := a.Position.Sub(b.Position)
	dist2 := v.Len2()
	minDist := a.Radius + b.Radius
	if dist2 >= minDist*minDist {
		return false
	}

	dist := math.Sqrt(dist2)
	n := dynamo.AxisX
	if dist > 0 {
		n = v.Scale(1 / dist)
	}
	ratioA := a.Radius / minDist
	ratioB := b.Radius / minDist
	delta := 0.5 * r.Response * (dist - minDist)

	a.Position = a.Position.Sub(n.Scale(ratioB * delta))
	b.Position = b.Position.Add(n.Scale(ratioA * delta))
	return true
}

// Choose returns the strategy used for a population of n particles.
func (r *Resolver) Choose(n int) Strategy {
	if n < r.Threshold {
		return BruteForce
	}
	return GridBroadPhase
}

// Resolve runs Iterations passes with the strategy chosen for len(ps) and
// returns the strategy and the number of corrected contacts. g is only
// touched by the grid strategy.
func (r *Resolver) Resolve(ps []particle.Particle, g *grid.Grid) (Strategy, int) {
	strategy := r.Choose(len(ps))
	if strategy == GridBroadPhase && g == nil {
		strategy = BruteForce
	}

	contacts := 0
	for it := 0; it < r.Iterations; it++ {
		var c int
		if strategy == BruteForce {
			c = r.BruteForce(ps)
		} else {
			c = r.Grid(ps, g)
		}
		contacts += c
		if c == 0 {
			break
		}
	}
	return strategy, contacts
}

// BruteForce tests every unordered pair exactly once.
func (r *Resolver) BruteForce(ps []particle.Particle) int {
	contacts := 0
	for i := range ps {
		for k := i + 1; k < len(ps); k++ {
			if r.Collide(&ps[i], &ps[k]) {
				contacts++
			}
		}
	}
	return contacts
}

// Grid rebuilds g from the current positions and tests each cell against
// its neighbors according to r.Edge.
func (r *Resolver) Grid(ps []particle.Particle, g *grid.Grid) int {
	g.Rebuild(ps)
	if r.Edge == EdgeRingPatch {
		return r.gridRingPatch(ps, g)
	}
	return r.gridClamp(ps, g)
}

func (r *Resolver) gridClamp(ps []particle.Particle, g *grid.Grid) int {
	w, h := g.Width(), g.Height()
	contacts := 0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			cell := g.Cell(x, y)
			if len(cell) == 0 {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if nx < 0 || nx >= w {
					continue
				}
				for dy := -1; dy <= 1; dy++ {
					ny := y + dy
					if ny < 0 || ny >= h {
						continue
					}
					contacts += r.cells(ps, cell, g.Cell(nx, ny))
				}
			}
		}
	}
	return contacts
}

func (r *Resolver) gridRingPatch(ps []particle.Particle, g *grid.Grid) int {
	w, h := g.Width(), g.Height()
	contacts := 0
	for x := 1; x < w-1; x++ {
		for y := 1; y < h-1; y++ {
			cell := g.Cell(x, y)
			if len(cell) == 0 {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					contacts += r.cells(ps, cell, g.Cell(x+dx, y+dy))
				}
			}
		}
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if x != 0 && x != w-1 && y != 0 && y != h-1 {
				continue
			}
			cell := g.Cell(x, y)
			contacts += r.cells(ps, cell, cell)
		}
	}
	return contacts
}

// cells pairs every index of a with every index of b, skipping self-pairs.
func (r *Resolver) cells(ps []particle.Particle, a, b []int) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	contacts := 0
	for _, i := range a {
		for _, k := range b {
			if i == k {
				continue
			}
			if r.Collide(&ps[i], &ps[k]) {
				contacts++
			}
		}
	}
	return contacts
}

func (r *Resolver) GetParams() map[string]float64 {
	return map[string]float64{
		"response":   r.Response,
		"threshold":  float64(r.Threshold),
		"iterations": float64(r.Iterations),
	}
}

// paramInt converts an integer-valued parameter, rejecting values that
// do not fit in an int.
func paramInt(name string, value float64) (int, error) {
	if math.IsNaN(value) || value < math.MinInt32 || value > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s out of range, got %g", dynamo.ErrInvalidConfig, name, value)
	}
	return int(value), nil
}

func (r *Resolver) SetParam(name string, value float64) error {
	next := *r
	switch name {
	case "response":
		next.Response = value
	case "threshold", "iterations":
		n, err := paramInt(name, value)
		if err != nil {
			return err
		}
		if name == "threshold" {
			next.Threshold = n
		} else {
			next.Iterations = n
		}
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*r = next
	return nil
}
