// Package particle holds the append-only particle store owned by the solver.
package particle

import "github.com/san-kum/verletsim/internal/dynamo"

// ID is a stable handle into a Store. It never changes and is never reused.
type ID int

// Particle is a circle advanced by position Verlet. Velocity is implied by
// Position - LastPosition.
type Particle struct {
	Position     dynamo.Vec2
	LastPosition dynamo.Vec2
	Acceleration dynamo.Vec2
	Radius       float64
	// Payload is carried for callers (display color, tags) and never read
	// by the solver.
	Payload any
}

func New(pos dynamo.Vec2, radius float64) Particle {
	return Particle{
		Position:     pos,
		LastPosition: pos,
		Radius:       radius,
	}
}

func (p *Particle) Accelerate(a dynamo.Vec2) {
	p.Acceleration = p.Acceleration.Add(a)
}

// SetVelocity rewrites the position history so that the implied velocity
// over one step of length dt equals v.
func (p *Particle) SetVelocity(v dynamo.Vec2, dt float64) {
	p.LastPosition = p.Position.Sub(v.Scale(dt))
}

func (p *Particle) AddVelocity(v dynamo.Vec2, dt float64) {
	p.LastPosition = p.LastPosition.Sub(v.Scale(dt))
}

func (p *Particle) Velocity(dt float64) dynamo.Vec2 {
	if dt <= 0 {
		return dynamo.Vec2{}
	}
	return p.Position.Sub(p.LastPosition).Scale(1 / dt)
}
