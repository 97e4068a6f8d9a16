package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/sim"
	"github.com/san-kum/verletsim/internal/spawner"
)

const (
	DefaultFrames  = 600
	DefaultDataDir = ".verletsim"
	EnvPrefix      = "VERLETSIM_"
)

type Config struct {
	Name    string         `yaml:"name,omitempty"`
	Solver  SolverConfig   `yaml:"solver"`
	Spawner spawner.Config `yaml:"spawner"`
	Run     RunConfig      `yaml:"run"`
}

type SolverConfig struct {
	Center     dynamo.Vec2 `yaml:"center"`
	Radius     float64     `yaml:"radius"`
	SubSteps   int         `yaml:"sub_steps"`
	UpdateRate float64     `yaml:"update_rate"`
	Gravity    dynamo.Vec2 `yaml:"gravity"`

	Response   float64 `yaml:"response"`
	Threshold  int     `yaml:"threshold"`
	Iterations int     `yaml:"iterations"`
	Edge       string  `yaml:"edge"`

	GridWidth  int     `yaml:"grid_width"`
	GridHeight int     `yaml:"grid_height"`
	CellSize   float64 `yaml:"cell_size"`

	ParallelMin int `yaml:"parallel_min"`
	Workers     int `yaml:"workers"`
}

type RunConfig struct {
	Frames  int    `yaml:"frames"`
	DataDir string `yaml:"data_dir"`
}

// Overrides are the settings that may come from the environment.
type Overrides struct {
	SubSteps   int     `env:"SUBSTEPS"`
	UpdateRate float64 `env:"RATE"`
	Threshold  int     `env:"THRESHOLD"`
	Iterations int     `env:"ITERATIONS"`
	Edge       string  `env:"EDGE"`
	Seed       int64   `env:"SEED"`
	Frames     int     `env:"FRAMES"`
	DataDir    string  `env:"DATA_DIR"`
}

func DefaultConfig() *Config {
	sc := sim.DefaultConfig()
	return &Config{
		Name: "default",
		Solver: SolverConfig{
			Center:      sc.BoundaryCenter,
			Radius:      sc.BoundaryRadius,
			SubSteps:    sc.SubSteps,
			UpdateRate:  sc.UpdateRate,
			Gravity:     sc.Gravity,
			Response:    sc.Response,
			Threshold:   sc.GridThreshold,
			Iterations:  sc.Iterations,
			Edge:        sc.Edge.String(),
			GridWidth:   sc.GridWidth,
			GridHeight:  sc.GridHeight,
			CellSize:    grid.DefaultCellSize,
			ParallelMin: sc.ParallelMin,
		},
		Spawner: spawner.DefaultConfig(),
		Run: RunConfig{
			Frames:  DefaultFrames,
			DataDir: DefaultDataDir,
		},
	}
}

// Load reads a YAML file on top of base. A nil base starts from the
// defaults.
func Load(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if base != nil {
		cfg = base.Clone()
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ApplyEnv overwrites fields whose VERLETSIM_* variable is set.
func (c *Config) ApplyEnv() error {
	o := Overrides{
		SubSteps:   c.Solver.SubSteps,
		UpdateRate: c.Solver.UpdateRate,
		Threshold:  c.Solver.Threshold,
		Iterations: c.Solver.Iterations,
		Edge:       c.Solver.Edge,
		Seed:       c.Spawner.Seed,
		Frames:     c.Run.Frames,
		DataDir:    c.Run.DataDir,
	}
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}

	c.Solver.SubSteps = o.SubSteps
	c.Solver.UpdateRate = o.UpdateRate
	c.Solver.Threshold = o.Threshold
	c.Solver.Iterations = o.Iterations
	c.Solver.Edge = o.Edge
	c.Spawner.Seed = o.Seed
	c.Run.Frames = o.Frames
	c.Run.DataDir = o.DataDir
	return nil
}

func (c *Config) SolverConfig() (sim.Config, error) {
	edge, err := physics.ParseEdgeMode(c.Solver.Edge)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		BoundaryCenter: c.Solver.Center,
		BoundaryRadius: c.Solver.Radius,
		SubSteps:       c.Solver.SubSteps,
		UpdateRate:     c.Solver.UpdateRate,
		Gravity:        c.Solver.Gravity,
		Response:       c.Solver.Response,
		GridThreshold:  c.Solver.Threshold,
		Iterations:     c.Solver.Iterations,
		Edge:           edge,
		GridWidth:      c.Solver.GridWidth,
		GridHeight:     c.Solver.GridHeight,
		CellSize:       c.Solver.CellSize,
		ParallelMin:    c.Solver.ParallelMin,
		Workers:        c.Solver.Workers,
		Capacity:       c.Spawner.MaxCount,
	}, nil
}

// Validate checks everything New would reject, without building a solver.
func (c *Config) Validate() error {
	sc, err := c.SolverConfig()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	r := physics.Resolver{
		Response:   sc.Response,
		Threshold:  sc.GridThreshold,
		Iterations: sc.Iterations,
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if _, err := physics.NewBoundary(sc.BoundaryCenter, sc.BoundaryRadius); err != nil {
		return err
	}
	if _, err := grid.New(sc.GridWidth, sc.GridHeight, sc.CellSize); err != nil {
		return err
	}
	if err := c.Spawner.Validate(); err != nil {
		return err
	}
	if c.Run.Frames < 0 {
		return fmt.Errorf("%w: frames must not be negative, got %d", dynamo.ErrInvalidConfig, c.Run.Frames)
	}
	return nil
}
