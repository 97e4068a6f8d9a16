package metrics

import (
	"math"

	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/particle"
)

// Overlap reports the deepest interpenetration between any two particles.
// With a grid it only inspects neighboring cells, which is exact as long as
// the cell size is at least twice the largest radius.
type Overlap struct {
	name  string
	grid  *grid.Grid
	last  float64
	worst float64
}

func NewOverlap(g *grid.Grid) *Overlap {
	return &Overlap{
		name: "max_overlap",
		grid: g,
	}
}

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(ps []particle.Particle, t float64) {
	if o.grid == nil {
		o.last = MaxOverlap(ps)
	} else {
		o.last = MaxOverlapGrid(ps, o.grid)
	}
	o.worst = math.Max(o.worst, o.last)
}

// Value is the worst overlap seen since the last reset.
func (o *Overlap) Value() float64 { return o.worst }

func (o *Overlap) Last() float64 { return o.last }

func (o *Overlap) Reset() {
	o.last = 0
	o.worst = 0
}

func depth(a, b *particle.Particle) float64 {
	return a.Radius + b.Radius - a.Position.Dist(b.Position)
}

// MaxOverlap checks every pair.
func MaxOverlap(ps []particle.Particle) float64 {
	worst := 0.0
	for i := range ps {
		for k := i + 1; k < len(ps); k++ {
			worst = math.Max(worst, depth(&ps[i], &ps[k]))
		}
	}
	return worst
}

// MaxOverlapGrid rebuilds g and checks each pair in neighboring cells once.
func MaxOverlapGrid(ps []particle.Particle, g *grid.Grid) float64 {
	g.Rebuild(ps)
	w, h := g.Width(), g.Height()
	worst := 0.0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			cell := g.Cell(x, y)
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					for _, i := range cell {
						for _, k := range g.Cell(nx, ny) {
							if i < k {
								worst = math.Max(worst, depth(&ps[i], &ps[k]))
							}
						}
					}
				}
			}
		}
	}
	return worst
}
