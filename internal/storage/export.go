package storage

import (
	"encoding/json"
	"io"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/experiment"
	"github.com/san-kum/verletsim/internal/particle"
)

type ExportData struct {
	Run     RunMetadata             `json:"run"`
	Frames  []experiment.FrameStats `json:"frames"`
	Metrics map[string]float64      `json:"metrics"`
}

// Export writes a stored run as a single JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: *meta, Frames: frames, Metrics: meta.Metrics})
}

type ParticleRecord struct {
	Position dynamo.Vec2 `json:"position"`
	Velocity dynamo.Vec2 `json:"velocity"`
	Radius   float64     `json:"radius"`
	Color    string      `json:"color,omitempty"`
}

type Snapshot struct {
	Time      float64          `json:"time"`
	Count     int              `json:"count"`
	Particles []ParticleRecord `json:"particles"`
}

// ExportSnapshot writes the particle state at time t. Velocities are
// recovered over dt. Color payloads are written as hex.
func ExportSnapshot(w io.Writer, ps []particle.Particle, t, dt float64) error {
	snap := Snapshot{
		Time:      t,
		Count:     len(ps),
		Particles: make([]ParticleRecord, len(ps)),
	}
	for i := range ps {
		rec := ParticleRecord{
			Position: ps[i].Position,
			Velocity: ps[i].Velocity(dt),
			Radius:   ps[i].Radius,
		}
		if c, ok := ps[i].Payload.(colorful.Color); ok {
			rec.Color = c.Clamped().Hex()
		}
		snap.Particles[i] = rec
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
