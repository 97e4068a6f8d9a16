package physics

import (
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
)

// Parallel controls fan-out for per-particle phases. The zero value runs
// serially.
type Parallel struct {
	Min     int
	Workers int
}

func (par Parallel) each(ps []particle.Particle, fn func(p *particle.Particle)) {
	n := len(ps)
	body := func(start, end int) {
		for i := start; i < end; i++ {
			fn(&ps[i])
		}
	}
	if par.Min <= 0 || n < par.Min {
		body(0, n)
		return
	}
	dynamo.ParallelFor(n, par.Min/4, par.Workers, body)
}
