// Package export renders particle snapshots as SVG.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
)

const defaultFill = "#00ff88"

// SnapshotSVG draws the boundary and every particle into a size x size
// image. World coordinates are mapped so the boundary fills the frame.
func SnapshotSVG(w io.Writer, ps []particle.Particle, center dynamo.Vec2, radius float64, size int) error {
	if size <= 0 || !(radius > 0) {
		return fmt.Errorf("%w: svg size %d, radius %f", dynamo.ErrInvalidConfig, size, radius)
	}

	half := float64(size) / 2
	scale := half / radius

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#161616" stroke="#444466"/>
<g>
`, size, size, size, size, half, half, half)

	for i := range ps {
		p := &ps[i]
		fill := defaultFill
		if c, ok := p.Payload.(colorful.Color); ok {
			fill = c.Clamped().Hex()
		}
		cx := half + (p.Position.X-center.X)*scale
		cy := half + (p.Position.Y-center.Y)*scale
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>
`, cx, cy, p.Radius*scale, fill)
	}

	sb.WriteString("</g>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
