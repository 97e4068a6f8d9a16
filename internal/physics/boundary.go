package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
)

// Boundary is a fixed circular container. It is set once and never moves.
type Boundary struct {
	Center dynamo.Vec2
	Radius float64
	Parallel
}

func NewBoundary(center dynamo.Vec2, radius float64) (*Boundary, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: boundary radius must be positive, got %f", dynamo.ErrInvalidConfig, radius)
	}
	if !center.IsValid() {
		return nil, fmt.Errorf("%w: boundary center %v", dynamo.ErrInvalidConfig, center)
	}
	return &Boundary{Center: center, Radius: radius}, nil
}

// Constrain clamps p so that its whole disc lies inside the boundary and
// reports whether it had to move.
func (b *Boundary) Constrain(p *particle.Particle) bool {
	v := b.Center.Sub(p.Position)
	dist := v.Len()
	limit := b.Radius - p.Radius
	if dist <= limit {
		return false
	}
	n := v.Normalize()
	p.Position = b.Center.Sub(n.Scale(limit))
	return true
}

func (b *Boundary) Apply(ps []particle.Particle) {
	b.each(ps, func(p *particle.Particle) { b.Constrain(p) })
}

// Contains reports whether p lies within the boundary up to eps.
func (b *Boundary) Contains(p particle.Particle, eps float64) bool {
	return b.Center.Dist(p.Position) <= b.Radius-p.Radius+eps
}
