// Package grid implements the uniform broad-phase grid used by the
// collision resolver.
//
// Cells are stored flat (index y*width+x) as windows into one shared index
// arena. A rebuild is a counting sort of particle indices by cell, so after
// the first rebuild at a given population no allocation takes place.
// Membership reflects positions at the last Rebuild only.
package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
)

// DefaultCellSize is the edge length of a cell in world units.
const DefaultCellSize = 100.0

type Grid struct {
	width, height int
	cellSize      float64
	invCellSize   float64

	// start[c]..start[c+1] is cell c's window into arena.
	start  []int
	arena  []int
	cellOf []int
}

func New(width, height int, cellSize float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions must be positive, got %dx%d", dynamo.ErrInvalidConfig, width, height)
	}
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: cell size must be positive, got %f", dynamo.ErrInvalidConfig, cellSize)
	}
	return &Grid{
		width:       width,
		height:      height,
		cellSize:    cellSize,
		invCellSize: 1 / cellSize,
		start:       make([]int, width*height+1),
	}, nil
}

func (g *Grid) Width() int         { return g.width }
func (g *Grid) Height() int        { return g.height }
func (g *Grid) CellSize() float64  { return g.cellSize }
func (g *Grid) NumCells() int      { return g.width * g.height }
func (g *Grid) index(x, y int) int { return y*g.width + x }

// CellOf returns floor(pos / cellSize) clamped to the grid extent. NaN
// coordinates land in column/row 0.
func (g *Grid) CellOf(pos dynamo.Vec2) (x, y int) {
	return clampBin(pos.X*g.invCellSize, g.width), clampBin(pos.Y*g.invCellSize, g.height)
}

func clampBin(v float64, n int) int {
	f := math.Floor(v)
	if !(f >= 0) {
		return 0
	}
	if f >= float64(n-1) {
		return n - 1
	}
	return int(f)
}

// Rebuild clears every cell and bins each particle by its current position.
func (g *Grid) Rebuild(particles []particle.Particle) {
	n := len(particles)
	if cap(g.arena) < n {
		g.arena = make([]int, n)
		g.cellOf = make([]int, n)
	}
	g.arena = g.arena[:n]
	g.cellOf = g.cellOf[:n]

	for i := range g.start {
		g.start[i] = 0
	}

	for i := range particles {
		x, y := g.CellOf(particles[i].Position)
		c := g.index(x, y)
		g.cellOf[i] = c
		g.start[c+1]++
	}

	for c := 1; c < len(g.start); c++ {
		g.start[c] += g.start[c-1]
	}

	// Fill in index order so each cell lists ascending indices. start[c] is
	// used as the write cursor and shifted back afterwards.
	for i, c := range g.cellOf {
		g.arena[g.start[c]] = i
		g.start[c]++
	}
	for c := len(g.start) - 1; c > 0; c-- {
		g.start[c] = g.start[c-1]
	}
	g.start[0] = 0
}

// Cell returns the particle indices binned into (x, y) at the last rebuild.
// The slice aliases grid storage and is valid until the next Rebuild.
func (g *Grid) Cell(x, y int) []int {
	c := g.index(x, y)
	return g.arena[g.start[c]:g.start[c+1]]
}

// Len reports how many particles were binned at the last rebuild.
func (g *Grid) Len() int { return len(g.arena) }

// Clear empties every cell without releasing memory.
func (g *Grid) Clear() {
	for i := range g.start {
		g.start[i] = 0
	}
	g.arena = g.arena[:0]
	g.cellOf = g.cellOf[:0]
}
