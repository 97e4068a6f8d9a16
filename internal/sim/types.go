package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/physics"
)

type Metric interface {
	Name() string
	Observe(ps []particle.Particle, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(ps []particle.Particle, t float64)
}

type Config struct {
	BoundaryCenter dynamo.Vec2
	BoundaryRadius float64
	SubSteps       int
	// UpdateRate fixes the frame delta at 1/UpdateRate seconds.
	UpdateRate float64
	Gravity    dynamo.Vec2

	Response      float64
	GridThreshold int
	Iterations    int
	Edge          physics.EdgeMode

	GridWidth  int
	GridHeight int
	CellSize   float64

	// ParallelMin is the particle count from which per-particle phases fan
	// out over Workers goroutines. Zero keeps every phase serial.
	ParallelMin int
	Workers     int
	Capacity    int
}

func DefaultConfig() Config {
	return Config{
		BoundaryCenter: dynamo.V(500, 500),
		BoundaryRadius: 450,
		SubSteps:       8,
		UpdateRate:     60,
		Gravity:        physics.DefaultGravity,
		Response:       physics.DefaultResponse,
		GridThreshold:  physics.DefaultThreshold,
		Iterations:     physics.DefaultIterations,
		Edge:           physics.EdgeClamp,
		GridWidth:      10,
		GridHeight:     10,
		CellSize:       grid.DefaultCellSize,
		ParallelMin:    4096,
	}
}

func (c Config) Validate() error {
	if c.SubSteps <= 0 {
		return fmt.Errorf("%w: sub-steps must be positive, got %d", dynamo.ErrInvalidConfig, c.SubSteps)
	}
	if !(c.UpdateRate > 0) || math.IsInf(c.UpdateRate, 0) {
		return fmt.Errorf("%w: update rate must be positive, got %f", dynamo.ErrInvalidConfig, c.UpdateRate)
	}
	if !c.Gravity.IsValid() {
		return fmt.Errorf("%w: gravity %v", dynamo.ErrInvalidConfig, c.Gravity)
	}
	if c.ParallelMin < 0 {
		return fmt.Errorf("%w: parallel threshold must not be negative, got %d", dynamo.ErrInvalidConfig, c.ParallelMin)
	}
	return nil
}

func (c Config) FrameDt() float64 { return 1 / c.UpdateRate }

func (c Config) SubDt() float64 { return c.FrameDt() / float64(c.SubSteps) }

// StepStats describes the most recent call to Step.
type StepStats struct {
	Frame    int
	Count    int
	Strategy physics.Strategy
	Contacts int
	SubSteps int
}
