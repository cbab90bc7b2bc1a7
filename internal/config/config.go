package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/orbiter/internal/quadtree"
	"github.com/san-kum/orbiter/internal/solver"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS         = 75
	DefaultMass        = 2000000.0
	DefaultRegionWidth = 8000.0
	DefaultSubsteps    = 8
	DefaultTicks       = 750
	DefaultSpawnRadius = 30.0
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Name       string           `yaml:"name" toml:"name"`
	FPS        int              `yaml:"fps" toml:"fps"`
	Ticks      int              `yaml:"ticks" toml:"ticks"`
	Seed       int64            `yaml:"seed" toml:"seed"`
	Solver     SolverConfig     `yaml:"solver" toml:"solver"`
	Constraint ConstraintConfig `yaml:"constraint" toml:"constraint"`
	Spawn      []SpawnConfig    `yaml:"spawn" toml:"spawn"`
}

type SolverConfig struct {
	RegionX      float64 `yaml:"region_x" toml:"region_x"`
	RegionY      float64 `yaml:"region_y" toml:"region_y"`
	RegionWidth  float64 `yaml:"region_width" toml:"region_width"`
	Threshold    int     `yaml:"threshold" toml:"threshold"`
	MaxDepth     int     `yaml:"max_depth" toml:"max_depth"`
	Substeps     int     `yaml:"substeps" toml:"substeps"`
	Gravity      float64 `yaml:"gravity" toml:"gravity"`
	Theta        float64 `yaml:"theta" toml:"theta"`
	Workers      int     `yaml:"workers" toml:"workers"`
	StrictChecks bool    `yaml:"strict_checks" toml:"strict_checks"`
}

type ConstraintConfig struct {
	X      float64 `yaml:"x" toml:"x"`
	Y      float64 `yaml:"y" toml:"y"`
	Radius float64 `yaml:"radius" toml:"radius"`
}

// SpawnConfig describes a group of bodies laid out by a named pattern.
type SpawnConfig struct {
	Pattern   string  `yaml:"pattern" toml:"pattern"`
	Count     int     `yaml:"count" toml:"count"`
	X         float64 `yaml:"x" toml:"x"`
	Y         float64 `yaml:"y" toml:"y"`
	Spread    float64 `yaml:"spread" toml:"spread"`
	MinRadius float64 `yaml:"min_radius" toml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius" toml:"max_radius"`
	Mass      float64 `yaml:"mass" toml:"mass"`
	MassScale int     `yaml:"mass_scale" toml:"mass_scale"`
	Speed     float64 `yaml:"speed" toml:"speed"`
	Anchored  bool    `yaml:"anchored" toml:"anchored"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:  "binary",
		FPS:   DefaultFPS,
		Ticks: DefaultTicks,
		Solver: SolverConfig{
			RegionWidth: DefaultRegionWidth,
			Threshold:   quadtree.DefaultThreshold,
			MaxDepth:    quadtree.DefaultMaxDepth,
			Substeps:    DefaultSubsteps,
		},
		Constraint: ConstraintConfig{Radius: DefaultRegionWidth / 2},
		Spawn: []SpawnConfig{
			{Pattern: "point", Count: 1, MinRadius: 15, MaxRadius: 15, Mass: DefaultMass},
			{Pattern: "point", Count: 1, X: 80, MinRadius: 30, MaxRadius: 30, Mass: 2 * DefaultMass},
		},
	}
}

// Load reads a YAML file, or TOML when the extension is .toml, on top of
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		defaults := cfg.Spawn
		cfg.Spawn = nil
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if !md.IsDefined("spawn") {
			cfg.Spawn = defaults
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return toml.NewEncoder(f).Encode(cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) Validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalid, c.FPS)
	case c.Solver.RegionWidth <= 0:
		return fmt.Errorf("%w: region width must be positive, got %f", ErrInvalid, c.Solver.RegionWidth)
	case c.Solver.Threshold < 1:
		return fmt.Errorf("%w: threshold must be at least 1, got %d", ErrInvalid, c.Solver.Threshold)
	case c.Solver.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalid, c.Solver.MaxDepth)
	case c.Solver.Substeps < 1:
		return fmt.Errorf("%w: substeps must be at least 1, got %d", ErrInvalid, c.Solver.Substeps)
	case c.Solver.Theta < 0:
		return fmt.Errorf("%w: theta must not be negative, got %f", ErrInvalid, c.Solver.Theta)
	case c.Solver.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Solver.Workers)
	case c.Constraint.Radius <= 0:
		return fmt.Errorf("%w: constraint radius must be positive, got %f", ErrInvalid, c.Constraint.Radius)
	}
	for i, sp := range c.Spawn {
		if sp.Count < 0 {
			return fmt.Errorf("%w: spawn %d: negative count", ErrInvalid, i)
		}
		if sp.MinRadius <= 0 || sp.MaxRadius < sp.MinRadius {
			return fmt.Errorf("%w: spawn %d: radius range [%f, %f]", ErrInvalid, i, sp.MinRadius, sp.MaxRadius)
		}
	}
	return nil
}

// Dt is the fixed frame time.
func (c *Config) Dt() float64 { return 1 / float64(c.FPS) }

func (c *Config) SolverConfig() solver.Config {
	return solver.Config{
		RegionCenter: r2.Vec{X: c.Solver.RegionX, Y: c.Solver.RegionY},
		RegionWidth:  c.Solver.RegionWidth,
		Threshold:    c.Solver.Threshold,
		MaxDepth:     c.Solver.MaxDepth,
		Substeps:     c.Solver.Substeps,
		Gravity:      c.Solver.Gravity,
		Theta:        c.Solver.Theta,
		Workers:      c.Solver.Workers,
		StrictChecks: c.Solver.StrictChecks,
	}
}

func (c *Config) ConstraintCenter() r2.Vec {
	return r2.Vec{X: c.Constraint.X, Y: c.Constraint.Y}
}
