// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Sim       SimConfig       `yaml:"sim"`
	Compute   ComputeConfig   `yaml:"compute"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Render    RenderConfig    `yaml:"render"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GridConfig holds spatial index parameters.
type GridConfig struct {
	Bound     float64 `yaml:"bound"`      // Quantization bound B
	Dims      int     `yaml:"dims"`       // 2 or 3
	Tolerance float64 `yaml:"tolerance"`  // Max per-axis decode error
	TableSize int     `yaml:"table_size"` // 0 = sized from particle count
}

// SimConfig holds scene and physics parameters.
type SimConfig struct {
	Particles    int     `yaml:"particles"`
	Radius       float64 `yaml:"radius"` // Cell size and interaction radius
	Scene        string  `yaml:"scene"`
	Extent       float64 `yaml:"extent"` // Walls at +-extent
	DT           float64 `yaml:"dt"`
	Gravity      float64 `yaml:"gravity"`
	Repulsion    float64 `yaml:"repulsion"`
	Damping      float64 `yaml:"damping"`     // Velocity decay per second
	Restitution  float64 `yaml:"restitution"` // Wall bounce energy kept
	MaxNeighbors int     `yaml:"max_neighbors"`
	Seed         int64   `yaml:"seed"`
}

// ComputeConfig holds worker pool parameters.
type ComputeConfig struct {
	Workers           int `yaml:"workers"`
	ParallelThreshold int `yaml:"parallel_threshold"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow    int `yaml:"perf_window"`
	ValidateEvery int `yaml:"validate_every"`
	LogEvery      int `yaml:"log_every"`
}

// RenderConfig holds visualization parameters.
type RenderConfig struct {
	PointSize      float64 `yaml:"point_size"`
	ShowCells      bool    `yaml:"show_cells"`
	ShowCollisions bool    `yaml:"show_collisions"`
	WorldScale     float64 `yaml:"world_scale"` // Pixels per world unit (0 = fit)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32 // Sim.DT as float32
	Radius32    float32 // Sim.Radius as float32
	Bound32     float32 // Grid.Bound as float32
	Extent32    float32 // Sim.Extent clamped inside the bound
	Tolerance32 float32 // Grid.Tolerance as float32
	WorldScale  float32 // Pixels per world unit
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the simulation cannot run with. Grid table size
// and radius are checked again by the index itself.
func (c *Config) validate() error {
	if c.Grid.Bound <= 0 {
		return fmt.Errorf("grid.bound must be positive, got %v", c.Grid.Bound)
	}
	if c.Grid.Dims != 2 && c.Grid.Dims != 3 {
		return fmt.Errorf("grid.dims must be 2 or 3, got %d", c.Grid.Dims)
	}
	if c.Sim.Particles < 0 {
		return fmt.Errorf("sim.particles must not be negative, got %d", c.Sim.Particles)
	}
	if c.Sim.DT <= 0 {
		return fmt.Errorf("sim.dt must be positive, got %v", c.Sim.DT)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)
	c.Derived.Radius32 = float32(c.Sim.Radius)
	c.Derived.Bound32 = float32(c.Grid.Bound)
	c.Derived.Tolerance32 = float32(c.Grid.Tolerance)

	// Walls must stay inside the quantization bound
	extent := c.Sim.Extent
	if extent <= 0 || extent > c.Grid.Bound {
		extent = c.Grid.Bound
	}
	c.Derived.Extent32 = float32(extent)

	// Fit the walled region to the shorter screen side
	scale := c.Render.WorldScale
	if scale <= 0 {
		side := min(c.Screen.Width, c.Screen.Height)
		scale = float64(side) / (2 * extent) * 0.95
	}
	c.Derived.WorldScale = float32(scale)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
