package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
)

func smallConfig() *config.Config {
	cfg := config.GetPreset("gentle")
	cfg.Spawner.MaxCount = 40
	cfg.Run.Frames = 120
	return cfg
}

func TestRun(t *testing.T) {
	exp, err := New(smallConfig())
	if err != nil {
		t.Fatal(err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Frames) != 120 {
		t.Fatalf("expected 120 frames, got %d", len(res.Frames))
	}
	if len(res.Particles) != 40 {
		t.Errorf("expected 40 particles, got %d", len(res.Particles))
	}
	last := res.Frames[len(res.Frames)-1]
	if last.Frame != 119 || last.Count != 40 {
		t.Errorf("unexpected last frame %+v", last)
	}
	if last.Strategy != "brute-force" {
		t.Errorf("expected brute-force below threshold, got %s", last.Strategy)
	}
	for _, name := range []string{"kinetic_energy", "max_overlap", "containment"} {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
}

func TestRunCountsGrow(t *testing.T) {
	exp, _ := New(smallConfig())
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(res.Frames); i++ {
		if res.Frames[i].Count < res.Frames[i-1].Count {
			t.Fatalf("count shrank at frame %d", i)
		}
	}
}

func TestRunOnFrame(t *testing.T) {
	exp, _ := New(smallConfig())
	calls := 0
	exp.OnFrame = func(FrameStats) { calls++ }

	if _, err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 120 {
		t.Errorf("expected 120 callbacks, got %d", calls)
	}
}

func TestRunCanceled(t *testing.T) {
	exp, _ := New(smallConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := exp.Run(ctx)
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Fatalf("expected ErrContextCanceled, got %v", err)
	}
	if len(res.Frames) != 0 {
		t.Errorf("expected no frames, got %d", len(res.Frames))
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Solver.SubSteps = 0
	if _, err := New(cfg); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() *Result {
		exp, _ := New(smallConfig())
		res, err := exp.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	a, b := run(), run()
	for i := range a.Particles {
		if a.Particles[i].Position != b.Particles[i].Position {
			t.Fatalf("particle %d diverged: %v vs %v", i, a.Particles[i].Position, b.Particles[i].Position)
		}
	}
}

func TestEnsemble(t *testing.T) {
	ens := NewEnsemble(smallConfig(), 4, 10)
	ens.Limit = 2

	results, err := ens.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Seed != int64(10+i) {
			t.Errorf("run %d: expected seed %d, got %d", i, 10+i, r.Seed)
		}
	}

	s := Summarize(results, "kinetic_energy")
	if s.Min > s.Mean || s.Mean > s.Max {
		t.Errorf("inconsistent summary %+v", s)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, "x")
	if s.Mean != 0 || s.Min != 0 || s.Max != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}
