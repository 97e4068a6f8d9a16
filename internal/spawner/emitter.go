// Package spawner feeds particles into a running solver at a fixed cadence.
package spawner

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/sim"
)

type Config struct {
	Position  dynamo.Vec2 `yaml:"position"`
	Speed     float64     `yaml:"speed"`
	Delay     float64     `yaml:"delay"`
	MinRadius float64     `yaml:"min_radius"`
	MaxRadius float64     `yaml:"max_radius"`
	MaxCount  int         `yaml:"max_count"`
	MaxAngle  float64     `yaml:"max_angle"`
	Seed      int64       `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Position:  dynamo.V(500, 200),
		Speed:     1200,
		Delay:     0.02,
		MinRadius: 1,
		MaxRadius: 20,
		MaxCount:  1200,
		MaxAngle:  1,
		Seed:      1,
	}
}

func (c Config) Validate() error {
	if !c.Position.IsValid() {
		return fmt.Errorf("%w: emitter position %v", dynamo.ErrInvalidConfig, c.Position)
	}
	if !(c.MinRadius > 0) || c.MaxRadius < c.MinRadius {
		return fmt.Errorf("%w: emitter radius range [%f, %f]", dynamo.ErrInvalidConfig, c.MinRadius, c.MaxRadius)
	}
	if c.Delay < 0 || math.IsNaN(c.Delay) {
		return fmt.Errorf("%w: emitter delay %f", dynamo.ErrInvalidConfig, c.Delay)
	}
	if c.MaxCount < 0 {
		return fmt.Errorf("%w: emitter max count %d", dynamo.ErrInvalidConfig, c.MaxCount)
	}
	if math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("%w: emitter speed %f", dynamo.ErrInvalidConfig, c.Speed)
	}
	return nil
}

// Emitter sweeps a stream of particles back and forth around straight
// down, tinting each one by the simulation time it was born at.
type Emitter struct {
	cfg       Config
	rng       *rand.Rand
	lastSpawn float64
	spawned   int
}

func New(cfg Config) (*Emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Emitter{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		lastSpawn: math.Inf(-1),
	}, nil
}

// Update adds at most one particle to s. It reports the new handle and
// whether a particle was spawned.
func (e *Emitter) Update(s *sim.Solver) (particle.ID, bool, error) {
	if s.Count() >= e.cfg.MaxCount {
		return 0, false, nil
	}
	t := s.Time()
	if t-e.lastSpawn < e.cfg.Delay {
		return 0, false, nil
	}

	radius := e.cfg.MinRadius + e.rng.Float64()*(e.cfg.MaxRadius-e.cfg.MinRadius)
	id, err := s.AddParticle(e.cfg.Position, radius)
	if err != nil {
		return 0, false, fmt.Errorf("spawn at t=%.3f: %w", t, err)
	}
	if err := s.SetVelocity(id, Launch(t, e.cfg.MaxAngle, e.cfg.Speed)); err != nil {
		return 0, false, err
	}
	if err := s.SetPayload(id, Rainbow(t)); err != nil {
		return 0, false, err
	}

	e.lastSpawn = t
	e.spawned++
	return id, true, nil
}

func (e *Emitter) Spawned() int { return e.spawned }

func (e *Emitter) Config() Config { return e.cfg }

// Launch returns the launch velocity at time t.
func Launch(t, maxAngle, speed float64) dynamo.Vec2 {
	angle := maxAngle*dynamo.FastSin(t) + math.Pi/2
	return dynamo.FastDirection(angle).Scale(speed)
}

func Rainbow(t float64) colorful.Color {
	r := math.Sin(t)
	g := math.Sin(t + 0.33*2*math.Pi)
	b := math.Sin(t + 0.66*2*math.Pi)
	return colorful.Color{R: r * r, G: g * g, B: b * b}
}
