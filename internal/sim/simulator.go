// Package sim orchestrates the particle solver.
//
// A [Solver] exclusively owns the particle store and the broad-phase grid.
// Each call to [Solver.Step] advances one frame, split into fixed
// sub-steps that always run the same phases in order: gravity, collision
// resolution, boundary containment, Verlet integration.
//
// Solver instances are NOT thread-safe. Run independent solvers in
// separate goroutines instead.
package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/integrators"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/physics"
)

type Solver struct {
	cfg        Config
	store      *particle.Store
	grid       *grid.Grid
	gravity    *physics.Gravity
	boundary   *physics.Boundary
	resolver   *physics.Resolver
	integrator *integrators.Verlet

	time    float64
	frameDt float64
	subDt   float64
	frame   int
	last    StepStats

	metrics   []Metric
	observers []Observer
}

// New validates cfg and builds a solver. Every invalid value is reported
// as dynamo.ErrInvalidConfig.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g, err := grid.New(cfg.GridWidth, cfg.GridHeight, cfg.CellSize)
	if err != nil {
		return nil, err
	}

	boundary, err := physics.NewBoundary(cfg.BoundaryCenter, cfg.BoundaryRadius)
	if err != nil {
		return nil, err
	}

	resolver := &physics.Resolver{
		Response:   cfg.Response,
		Threshold:  cfg.GridThreshold,
		Iterations: cfg.Iterations,
		Edge:       cfg.Edge,
	}
	if err := resolver.Validate(); err != nil {
		return nil, err
	}

	par := physics.Parallel{Min: cfg.ParallelMin, Workers: cfg.Workers}
	boundary.Parallel = par
	gravity := physics.NewGravity(cfg.Gravity)
	gravity.Parallel = par

	return &Solver{
		cfg:        cfg,
		store:      particle.NewStore(cfg.Capacity),
		grid:       g,
		gravity:    gravity,
		boundary:   boundary,
		resolver:   resolver,
		integrator: &integrators.Verlet{ParallelMin: cfg.ParallelMin, Workers: cfg.Workers},
		frameDt:    cfg.FrameDt(),
		subDt:      cfg.SubDt(),
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}, nil
}

func (s *Solver) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// AddParticle appends a particle at rest at pos.
func (s *Solver) AddParticle(pos dynamo.Vec2, radius float64) (particle.ID, error) {
	return s.store.Add(pos, radius)
}

// SetVelocity gives a particle velocity v in world units per second.
func (s *Solver) SetVelocity(id particle.ID, v dynamo.Vec2) error {
	p, err := s.store.Get(id)
	if err != nil {
		return err
	}
	p.SetVelocity(v, s.subDt)
	return nil
}

func (s *Solver) AddVelocity(id particle.ID, v dynamo.Vec2) error {
	p, err := s.store.Get(id)
	if err != nil {
		return err
	}
	p.AddVelocity(v, s.subDt)
	return nil
}

func (s *Solver) Velocity(id particle.ID) (dynamo.Vec2, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return dynamo.Vec2{}, err
	}
	return p.Velocity(s.subDt), nil
}

func (s *Solver) SetPayload(id particle.ID, payload any) error {
	p, err := s.store.Get(id)
	if err != nil {
		return err
	}
	p.Payload = payload
	return nil
}

// Step advances the simulation by one frame.
func (s *Solver) Step() {
	s.time += s.frameDt
	ps := s.store.All()

	stats := StepStats{Frame: s.frame, Count: len(ps), SubSteps: s.cfg.SubSteps}
	for i := 0; i < s.cfg.SubSteps; i++ {
		s.gravity.Apply(ps)
		strategy, contacts := s.resolver.Resolve(ps, s.grid)
		s.boundary.Apply(ps)
		s.integrator.Step(s.store, s.subDt)

		stats.Strategy = strategy
		stats.Contacts += contacts
	}
	s.frame++
	s.last = stats

	for _, m := range s.metrics {
		m.Observe(ps, s.time)
	}
	for _, obs := range s.observers {
		obs.OnStep(ps, s.time)
	}
}

// Check returns ErrInvalidState if any particle position holds NaN or Inf.
func (s *Solver) Check() error {
	for i, p := range s.store.All() {
		if !p.Position.IsValid() || !p.LastPosition.IsValid() {
			return fmt.Errorf("%w: particle %d at %v", dynamo.ErrInvalidState, i, p.Position)
		}
	}
	return nil
}

// Particles returns the live particle slice. Callers must not modify it.
func (s *Solver) Particles() []particle.Particle { return s.store.All() }

func (s *Solver) Snapshot() []particle.Particle { return s.store.Snapshot() }

func (s *Solver) Count() int { return s.store.Len() }

func (s *Solver) Boundary() (center dynamo.Vec2, radius float64) {
	return s.boundary.Center, s.boundary.Radius
}

func (s *Solver) Time() float64        { return s.time }
func (s *Solver) FrameDt() float64     { return s.frameDt }
func (s *Solver) SubDt() float64       { return s.subDt }
func (s *Solver) Frame() int           { return s.frame }
func (s *Solver) Stats() StepStats     { return s.last }
func (s *Solver) Config() Config       { return s.cfg }
func (s *Solver) Grid() *grid.Grid     { return s.grid }
func (s *Solver) Gravity() dynamo.Vec2 { return s.gravity.Accel }

// Metrics returns the current value of every registered metric.
func (s *Solver) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Solver) GetParams() map[string]float64 {
	params := s.resolver.GetParams()
	params["gravity"] = s.gravity.Accel.Y
	return params
}

func (s *Solver) SetParam(name string, value float64) error {
	if name == "gravity" {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: gravity must be finite, got %f", dynamo.ErrInvalidConfig, value)
		}
		s.gravity.Accel.Y = value
		s.cfg.Gravity.Y = value
		return nil
	}
	if err := s.resolver.SetParam(name, value); err != nil {
		return err
	}
	s.cfg.Response = s.resolver.Response
	s.cfg.GridThreshold = s.resolver.Threshold
	s.cfg.Iterations = s.resolver.Iterations
	return nil
}
