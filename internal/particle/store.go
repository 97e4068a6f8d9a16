package particle

import (
	"fmt"

	"github.com/san-kum/verletsim/internal/dynamo"
)

// Store is an ordered, append-only sequence of particles. Indices are
// stable for the lifetime of the store.
type Store struct {
	items []Particle
}

func NewStore(capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{items: make([]Particle, 0, capacity)}
}

// Add appends a particle at rest at pos.
func (s *Store) Add(pos dynamo.Vec2, radius float64) (ID, error) {
	if !(radius > 0) {
		return -1, fmt.Errorf("%w: radius must be positive, got %f", dynamo.ErrInvalidConfig, radius)
	}
	if !pos.IsValid() {
		return -1, fmt.Errorf("%w: position %v", dynamo.ErrInvalidState, pos)
	}
	s.items = append(s.items, New(pos, radius))
	return ID(len(s.items) - 1), nil
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) Valid(id ID) bool { return id >= 0 && int(id) < len(s.items) }

// At returns a pointer for in-place mutation. The pointer is invalidated by
// the next Add; hold the ID instead.
func (s *Store) At(id ID) *Particle {
	return &s.items[id]
}

// Get returns the particle for id or ErrUnknownParticle.
func (s *Store) Get(id ID) (*Particle, error) {
	if !s.Valid(id) {
		return nil, fmt.Errorf("%w: id %d (have %d)", dynamo.ErrUnknownParticle, id, len(s.items))
	}
	return &s.items[id], nil
}

// All exposes the backing slice. Callers outside the solver must treat it
// as read-only.
func (s *Store) All() []Particle { return s.items }

func (s *Store) Each(fn func(id ID, p *Particle)) {
	for i := range s.items {
		fn(ID(i), &s.items[i])
	}
}

// Range applies fn to the particles in [start, end).
func (s *Store) Range(start, end int, fn func(p *Particle)) {
	for i := start; i < end; i++ {
		fn(&s.items[i])
	}
}

// Snapshot returns an independent copy of the particles.
func (s *Store) Snapshot() []Particle {
	out := make([]Particle, len(s.items))
	copy(out, s.items)
	return out
}
