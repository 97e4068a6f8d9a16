package physics

import (
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
)

// DefaultGravity points down the screen (y grows downwards).
var DefaultGravity = dynamo.V(0, 1000)

type Gravity struct {
	Accel dynamo.Vec2
	Parallel
}

func NewGravity(accel dynamo.Vec2) *Gravity {
	return &Gravity{Accel: accel}
}

func (g *Gravity) Apply(ps []particle.Particle) {
	a := g.Accel
	g.each(ps, func(p *particle.Particle) { p.Accelerate(a) })
}
