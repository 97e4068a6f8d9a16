package particle

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/verletsim/internal/dynamo"
)

func TestStoreAdd(t *testing.T) {
	s := NewStore(0)

	id, err := s.Add(dynamo.V(10, 20), 5)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if id != 0 {
		t.Errorf("expected id 0, got %d", id)
	}

	p := s.At(id)
	if p.Position != p.LastPosition {
		t.Errorf("new particle should be at rest, got pos %v last %v", p.Position, p.LastPosition)
	}
	if p.Acceleration != (dynamo.Vec2{}) {
		t.Errorf("expected zero acceleration, got %v", p.Acceleration)
	}

	id2, _ := s.Add(dynamo.V(0, 0), 1)
	if id2 != 1 || s.Len() != 2 {
		t.Errorf("expected second id 1 and len 2, got %d and %d", id2, s.Len())
	}
}

func TestStoreAddInvalidRadius(t *testing.T) {
	s := NewStore(0)

	tests := []struct {
		name   string
		radius float64
	}{
		{"zero", 0},
		{"negative", -1},
		{"NaN", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Add(dynamo.V(0, 0), tt.radius); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if s.Len() != 0 {
		t.Errorf("rejected particles must not be stored, len=%d", s.Len())
	}
}

func TestStoreIndexStability(t *testing.T) {
	s := NewStore(1)
	first, _ := s.Add(dynamo.V(1, 1), 1)
	for i := 0; i < 100; i++ {
		s.Add(dynamo.V(float64(i), 0), 1)
	}

	if got := s.At(first).Position; got != dynamo.V(1, 1) {
		t.Errorf("particle moved after growth: %v", got)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore(0)
	s.Add(dynamo.V(0, 0), 1)

	for _, id := range []ID{-1, 1, 42} {
		if _, err := s.Get(id); !errors.Is(err, dynamo.ErrUnknownParticle) {
			t.Errorf("id %d: expected ErrUnknownParticle, got %v", id, err)
		}
	}
}

func TestParticleVelocity(t *testing.T) {
	p := New(dynamo.V(100, 100), 2)
	dt := 1.0 / 480

	p.SetVelocity(dynamo.V(120, -60), dt)
	if v := p.Velocity(dt); !v.ApproxEqual(dynamo.V(120, -60), 1e-9) {
		t.Errorf("SetVelocity/Velocity mismatch: %v", v)
	}

	p.AddVelocity(dynamo.V(-20, 60), dt)
	if v := p.Velocity(dt); !v.ApproxEqual(dynamo.V(100, 0), 1e-9) {
		t.Errorf("AddVelocity mismatch: %v", v)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewStore(0)
	s.Add(dynamo.V(1, 2), 1)

	snap := s.Snapshot()
	snap[0].Position = dynamo.V(9, 9)

	if s.At(0).Position != dynamo.V(1, 2) {
		t.Error("Snapshot shares memory with the store")
	}
}

func TestStoreEach(t *testing.T) {
	s := NewStore(0)
	for i := 0; i < 5; i++ {
		if _, err := s.Add(dynamo.V(float64(i), 0), 1); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	var seen []ID
	s.Each(func(id ID, p *Particle) {
		seen = append(seen, id)
		p.Position = p.Position.Add(dynamo.V(0, 10))
	})

	if len(seen) != s.Len() {
		t.Fatalf("expected %d visits, got %d", s.Len(), len(seen))
	}
	for i, id := range seen {
		if id != ID(i) {
			t.Errorf("visit %d: expected id %d, got %d", i, i, id)
		}
		if got := s.At(id).Position; got != dynamo.V(float64(i), 10) {
			t.Errorf("mutation through Each not kept for %d: %v", id, got)
		}
	}
}
