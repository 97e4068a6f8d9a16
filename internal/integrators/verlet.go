// Package integrators advances particle positions through time.
package integrators

import (
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
)

// Verlet is explicit position Verlet:
//
//	displacement = position - last
//	last         = position
//	position     = position + displacement + acceleration*dt²
//	acceleration = 0
//
// Velocity is never stored, so positional corrections made by constraints
// carry over into the implied velocity of the next step.
type Verlet struct {
	// ParallelMin is the particle count from which the update fans out over
	// Workers goroutines. Zero disables fan-out.
	ParallelMin int
	Workers     int
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(store *particle.Store, dt float64) {
	dt2 := dt * dt
	n := store.Len()
	update := func(start, end int) {
		store.Range(start, end, func(p *particle.Particle) {
			displacement := p.Position.Sub(p.LastPosition)
			p.LastPosition = p.Position
			p.Position = p.Position.Add(displacement).Add(p.Acceleration.Scale(dt2))
			p.Acceleration = dynamo.Vec2{}
		})
	}

	if v.ParallelMin <= 0 || n < v.ParallelMin {
		update(0, n)
		return
	}
	dynamo.ParallelFor(n, v.ParallelMin/4, v.Workers, update)
}

func (v *Verlet) Name() string { return "verlet" }
