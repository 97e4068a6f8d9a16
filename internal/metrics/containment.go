package metrics

import (
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
)

// Containment is the fraction of observed frames in which every particle
// was within the boundary (up to tolerance).
type Containment struct {
	name       string
	center     dynamo.Vec2
	radius     float64
	tolerance  float64
	violations int
	escaped    int
	samples    int
}

func NewContainment(center dynamo.Vec2, radius, tolerance float64) *Containment {
	return &Containment{
		name:      "containment",
		center:    center,
		radius:    radius,
		tolerance: tolerance,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(ps []particle.Particle, t float64) {
	c.samples++
	c.escaped = 0
	for i := range ps {
		if c.center.Dist(ps[i].Position) > c.radius-ps[i].Radius+c.tolerance {
			c.escaped++
		}
	}
	if c.escaped > 0 {
		c.violations++
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

// Escaped is the number of particles outside at the last observation.
func (c *Containment) Escaped() int { return c.escaped }

func (c *Containment) Reset() {
	c.violations = 0
	c.escaped = 0
	c.samples = 0
}
