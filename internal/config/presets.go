package config

import (
	"sort"

	"github.com/san-kum/verletsim/internal/physics"
)

// Presets are modifications of DefaultConfig.
var Presets = map[string]func(*Config){
	// The reference scene: a fountain filling the arena with 1200 particles.
	"fountain": func(c *Config) {},
	"gentle": func(c *Config) {
		c.Spawner.MaxCount = 150
		c.Spawner.Speed = 600
		c.Spawner.MaxAngle = 0.5
		c.Spawner.MinRadius = 8
		c.Spawner.MaxRadius = 14
		c.Run.Frames = 900
	},
	"dense": func(c *Config) {
		c.Spawner.MaxCount = 2000
		c.Spawner.Delay = 0.01
		c.Spawner.MinRadius = 2
		c.Spawner.MaxRadius = 10
		c.Solver.Iterations = 4
		c.Run.Frames = 1500
	},
	"edge": func(c *Config) {
		c.Solver.Edge = physics.EdgeRingPatch.String()
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = name
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
