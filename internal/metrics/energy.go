package metrics

import (
	"github.com/san-kum/verletsim/internal/particle"
)

// KineticEnergy tracks sum(0.5 * m * |v|²) with mass proportional to
// radius, matching the mass ratio used by the collision resolver. Velocity
// is recovered from the Verlet position history over dt.
type KineticEnergy struct {
	name    string
	dt      float64
	last    float64
	total   float64
	samples int
}

func NewKineticEnergy(dt float64) *KineticEnergy {
	return &KineticEnergy{
		name: "kinetic_energy",
		dt:   dt,
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(ps []particle.Particle, t float64) {
	e.last = Kinetic(ps, e.dt)
	e.total += e.last
	e.samples++
}

// Value is the mean over all observed frames.
func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.last = 0
	e.total = 0
	e.samples = 0
}

func Kinetic(ps []particle.Particle, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	ke := 0.0
	for i := range ps {
		v := ps[i].Velocity(dt)
		ke += 0.5 * ps[i].Radius * v.Len2()
	}
	return ke
}
