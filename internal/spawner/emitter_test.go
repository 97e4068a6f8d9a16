package spawner

import (
	"errors"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/sim"
)

func newSolver(t *testing.T) *sim.Solver {
	t.Helper()
	s, err := sim.New(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero min radius", func(c *Config) { c.MinRadius = 0 }},
		{"inverted range", func(c *Config) { c.MaxRadius = 0.5 }},
		{"negative delay", func(c *Config) { c.Delay = -1 }},
		{"negative max count", func(c *Config) { c.MaxCount = -1 }},
		{"nan position", func(c *Config) { c.Position.X = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if _, err := New(cfg); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestEmitterRespectsDelay(t *testing.T) {
	s := newSolver(t)
	cfg := DefaultConfig()
	cfg.Delay = 0.05
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// 60 frames at 60 Hz is one second of simulation time.
	for i := 0; i < 60; i++ {
		if _, _, err := e.Update(s); err != nil {
			t.Fatal(err)
		}
		s.Step()
	}

	// Roughly one spawn every 3 frames; rounding of the accumulated
	// time may push some to the 4th.
	if e.Spawned() < 15 || e.Spawned() > 21 {
		t.Errorf("expected 15-21 spawns, got %d", e.Spawned())
	}
	if s.Count() != e.Spawned() {
		t.Errorf("solver has %d particles, emitter spawned %d", s.Count(), e.Spawned())
	}
}

func TestEmitterStopsAtMaxCount(t *testing.T) {
	s := newSolver(t)
	cfg := DefaultConfig()
	cfg.Delay = 0
	cfg.MaxCount = 5
	e, _ := New(cfg)

	for i := 0; i < 20; i++ {
		e.Update(s)
		s.Step()
	}
	if s.Count() != 5 {
		t.Errorf("expected 5 particles, got %d", s.Count())
	}
}

func TestEmitterSpawnsWithinRadiusRange(t *testing.T) {
	s := newSolver(t)
	cfg := DefaultConfig()
	cfg.Delay = 0
	cfg.MinRadius = 3
	cfg.MaxRadius = 7
	e, _ := New(cfg)

	for i := 0; i < 50; i++ {
		id, ok, err := e.Update(s)
		if err != nil || !ok {
			t.Fatalf("expected spawn, got ok=%v err=%v", ok, err)
		}
		p := s.Particles()[id]
		if p.Radius < 3 || p.Radius > 7 {
			t.Errorf("radius %f outside [3, 7]", p.Radius)
		}
		if _, isColor := p.Payload.(colorful.Color); !isColor {
			t.Errorf("expected color payload, got %T", p.Payload)
		}
	}
}

func TestEmitterIsDeterministic(t *testing.T) {
	run := func() []float64 {
		s := newSolver(t)
		cfg := DefaultConfig()
		cfg.Delay = 0
		e, _ := New(cfg)
		var radii []float64
		for i := 0; i < 10; i++ {
			id, _, _ := e.Update(s)
			radii = append(radii, s.Particles()[id].Radius)
		}
		return radii
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("spawn %d: %f != %f", i, a[i], b[i])
		}
	}
}

func TestLaunchPointsDownAtTimeZero(t *testing.T) {
	v := Launch(0, 1, 1200)
	if math.Abs(v.X) > 1e-6 || math.Abs(v.Y-1200) > 1e-6 {
		t.Errorf("expected (0, 1200), got %v", v)
	}

	v = Launch(math.Pi/2, 1, 1)
	want := dynamo.V(math.Cos(1+math.Pi/2), math.Sin(1+math.Pi/2))
	if !v.ApproxEqual(want, 1e-3) {
		t.Errorf("expected %v, got %v", want, v)
	}
}

func TestRainbow(t *testing.T) {
	c := Rainbow(0)
	g := math.Sin(0.33 * 2 * math.Pi)
	b := math.Sin(0.66 * 2 * math.Pi)
	if c.R != 0 || math.Abs(c.G-g*g) > 1e-9 || math.Abs(c.B-b*b) > 1e-9 {
		t.Errorf("unexpected color at t=0: %+v", c)
	}
	if c.G == c.B {
		t.Errorf("green and blue phases should differ at t=0: %+v", c)
	}

	c = Rainbow(math.Pi / 2)
	if math.Abs(c.R-1) > 1e-9 {
		t.Errorf("expected full red at pi/2, got %f", c.R)
	}
}
