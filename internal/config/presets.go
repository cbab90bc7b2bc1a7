package config

import "sort"

var Presets = map[string]*Config{
	"binary": DefaultConfig(),
	"cluster": {
		Name: "cluster", FPS: DefaultFPS, Ticks: 300, Seed: 1,
		Solver:     SolverConfig{RegionWidth: DefaultRegionWidth, Threshold: 3, MaxDepth: 20, Substeps: DefaultSubsteps},
		Constraint: ConstraintConfig{Radius: DefaultRegionWidth / 2},
		Spawn: []SpawnConfig{
			{Pattern: "random", Count: 5000, Spread: 3800, MinRadius: 15, MaxRadius: 45, Mass: DefaultMass, MassScale: 5},
		},
	},
	"galaxy": {
		Name: "galaxy", FPS: DefaultFPS, Ticks: 1500, Seed: 7,
		Solver:     SolverConfig{RegionWidth: DefaultRegionWidth, Threshold: 4, MaxDepth: 20, Substeps: 4, Gravity: 1},
		Constraint: ConstraintConfig{Radius: DefaultRegionWidth / 2},
		Spawn: []SpawnConfig{
			{Pattern: "point", Count: 1, MinRadius: 60, MaxRadius: 60, Mass: 5000 * DefaultMass, Anchored: true},
			{Pattern: "disk", Count: 800, Spread: 3000, MinRadius: 10, MaxRadius: 20, Mass: DefaultMass, Speed: 1},
		},
	},
	"stress": {
		Name: "stress", FPS: DefaultFPS, Ticks: 200, Seed: 3,
		Solver:     SolverConfig{RegionWidth: DefaultRegionWidth, Threshold: 3, MaxDepth: 20, Substeps: DefaultSubsteps},
		Constraint: ConstraintConfig{Radius: 1200},
		Spawn: []SpawnConfig{
			{Pattern: "grid", Count: 2500, Spread: 1600, MinRadius: 12, MaxRadius: 12, Mass: DefaultMass},
		},
	},
	"ring": {
		Name: "ring", FPS: DefaultFPS, Ticks: 600, Seed: 2,
		Solver:     SolverConfig{RegionWidth: DefaultRegionWidth, Threshold: 3, MaxDepth: 20, Substeps: DefaultSubsteps},
		Constraint: ConstraintConfig{Radius: DefaultRegionWidth / 2},
		Spawn: []SpawnConfig{
			{Pattern: "ring", Count: 400, Spread: 2000, MinRadius: 20, MaxRadius: 20, Mass: DefaultMass, Speed: -200},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Clone() *Config {
	out := *c
	out.Spawn = append([]SpawnConfig(nil), c.Spawn...)
	return &out
}
