package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/sim"
	"github.com/san-kum/verletsim/internal/spawner"
)

// escapeTolerance absorbs the last sub-step's integration, which runs after
// the boundary clamp and may carry a fast particle a little past the wall.
const escapeTolerance = 5.0

// FrameStats is one row of a run's frame log.
type FrameStats struct {
	Frame      int     `json:"frame"`
	Time       float64 `json:"time"`
	Count      int     `json:"count"`
	Strategy   string  `json:"strategy"`
	Contacts   int     `json:"contacts"`
	Kinetic    float64 `json:"kinetic"`
	MaxOverlap float64 `json:"max_overlap"`
	Escaped    int     `json:"escaped"`
}

type Result struct {
	Seed      int64               `json:"seed"`
	Frames    []FrameStats        `json:"frames"`
	Metrics   map[string]float64  `json:"metrics"`
	Particles []particle.Particle `json:"-"`
	Elapsed   time.Duration       `json:"elapsed"`
}

// Experiment drives a solver headlessly: one emitter update and one solver
// step per frame.
type Experiment struct {
	cfg     *config.Config
	solver  *sim.Solver
	emitter *spawner.Emitter

	kinetic     *metrics.KineticEnergy
	overlap     *metrics.Overlap
	containment *metrics.Containment

	// OnFrame, if set, is called after every recorded frame.
	OnFrame func(FrameStats)
}

func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sc, err := cfg.SolverConfig()
	if err != nil {
		return nil, err
	}
	solver, err := sim.New(sc)
	if err != nil {
		return nil, err
	}
	emitter, err := spawner.New(cfg.Spawner)
	if err != nil {
		return nil, err
	}
	g, err := grid.New(sc.GridWidth, sc.GridHeight, sc.CellSize)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:         cfg,
		solver:      solver,
		emitter:     emitter,
		kinetic:     metrics.NewKineticEnergy(solver.SubDt()),
		overlap:     metrics.NewOverlap(g),
		containment: metrics.NewContainment(sc.BoundaryCenter, sc.BoundaryRadius, escapeTolerance),
	}
	solver.AddMetric(e.kinetic)
	solver.AddMetric(e.overlap)
	solver.AddMetric(e.containment)
	return e, nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		Seed:   e.cfg.Spawner.Seed,
		Frames: make([]FrameStats, 0, e.cfg.Run.Frames),
	}

	for i := 0; i < e.cfg.Run.Frames; i++ {
		select {
		case <-ctx.Done():
			return res, fmt.Errorf("%w at frame %d: %v", dynamo.ErrContextCanceled, i, ctx.Err())
		default:
		}

		fs, err := e.Frame()
		if err != nil {
			return res, err
		}
		res.Frames = append(res.Frames, fs)
	}

	res.Metrics = e.solver.Metrics()
	res.Particles = e.solver.Snapshot()
	res.Elapsed = time.Since(start)
	return res, nil
}

// Frame advances one frame and returns its stats.
func (e *Experiment) Frame() (FrameStats, error) {
	if _, _, err := e.emitter.Update(e.solver); err != nil {
		return FrameStats{}, err
	}
	e.solver.Step()
	if err := e.solver.Check(); err != nil {
		return FrameStats{}, &dynamo.StepError{Frame: e.solver.Frame(), Time: e.solver.Time(), Wrapped: err}
	}

	st := e.solver.Stats()
	fs := FrameStats{
		Frame:      st.Frame,
		Time:       e.solver.Time(),
		Count:      st.Count,
		Strategy:   st.Strategy.String(),
		Contacts:   st.Contacts,
		Kinetic:    e.kinetic.Last(),
		MaxOverlap: e.overlap.Last(),
		Escaped:    e.containment.Escaped(),
	}
	if e.OnFrame != nil {
		e.OnFrame(fs)
	}
	return fs, nil
}

func (e *Experiment) Solver() *sim.Solver { return e.solver }

func (e *Experiment) Emitter() *spawner.Emitter { return e.emitter }

func (e *Experiment) Config() *config.Config { return e.cfg }
