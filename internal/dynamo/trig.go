package dynamo

import "math"

// TrigTable provides precomputed sin/cos values for fast lookup.
// Uses linear interpolation for values between table entries.
type TrigTable struct {
	sin []float64
	cos []float64
	n   int
}

// DefaultTrigTable has 4096 entries (~0.0015 rad resolution).
var DefaultTrigTable = NewTrigTable(4096)

func NewTrigTable(n int) *TrigTable {
	if n < 4 {
		n = 4
	}
	t := &TrigTable{
		sin: make([]float64, n),
		cos: make([]float64, n),
		n:   n,
	}

	for i := 0; i < n; i++ {
		angle := float64(i) * 2 * math.Pi / float64(n)
		t.sin[i] = math.Sin(angle)
		t.cos[i] = math.Cos(angle)
	}

	return t
}

// lookup maps x onto the table and returns the bracketing entries and the
// interpolation weight.
func (t *TrigTable) lookup(x float64) (i0, i1 int, frac float64) {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}

	idx := x * float64(t.n) / (2 * math.Pi)
	i := int(idx)
	frac = idx - float64(i)
	return i % t.n, (i + 1) % t.n, frac
}

func (t *TrigTable) Sin(x float64) float64 {
	i0, i1, frac := t.lookup(x)
	return t.sin[i0]*(1-frac) + t.sin[i1]*frac
}

func (t *TrigTable) Cos(x float64) float64 {
	i0, i1, frac := t.lookup(x)
	return t.cos[i0]*(1-frac) + t.cos[i1]*frac
}

// Direction returns the unit vector (cos x, sin x).
func (t *TrigTable) Direction(x float64) Vec2 {
	i0, i1, frac := t.lookup(x)
	return Vec2{
		X: t.cos[i0]*(1-frac) + t.cos[i1]*frac,
		Y: t.sin[i0]*(1-frac) + t.sin[i1]*frac,
	}
}

func FastSin(x float64) float64 { return DefaultTrigTable.Sin(x) }

func FastDirection(x float64) Vec2 { return DefaultTrigTable.Direction(x) }
