// Package config loads and saves run configuration for the simulator.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avrelian/sphflow/internal/fluid"
)

const (
	DefaultDt        = 1.0 / 120
	DefaultSteps     = 600
	DefaultParticles = 2000
	DefaultBoxSize   = 2.0
	DefaultMargin    = 0.05
)

// Config combines run parameters with the engine's fluid parameters.
type Config struct {
	Dt        float64      `yaml:"dt"`
	Steps     int          `yaml:"steps"`
	Seed      int64        `yaml:"seed"`
	Particles int          `yaml:"particles"`
	Spawn     SpawnConfig  `yaml:"spawn"`
	Fluid     fluid.Config `yaml:"fluid"`
}

// SpawnConfig describes the initial particle box.
type SpawnConfig struct {
	BoxSize        float64 `yaml:"box_size"`
	Margin         float64 `yaml:"margin"`
	MinHeightRatio float64 `yaml:"min_height_ratio"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:        DefaultDt,
		Steps:     DefaultSteps,
		Particles: DefaultParticles,
		Spawn: SpawnConfig{
			BoxSize: DefaultBoxSize,
			Margin:  DefaultMargin,
		},
		Fluid: fluid.DefaultConfig(),
	}
}

// Load reads a yaml config from path, layered over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// Validate checks the run parameters and the embedded fluid parameters.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Steps < 0 {
		return fmt.Errorf("config: steps must be non-negative, got %d", c.Steps)
	}
	if c.Particles < 0 {
		return fmt.Errorf("config: particles must be non-negative, got %d", c.Particles)
	}
	if c.Spawn.BoxSize <= 0 {
		return fmt.Errorf("config: spawn box size must be positive, got %g", c.Spawn.BoxSize)
	}
	return c.Fluid.Validate()
}

// SpawnParticles seeds the initial particle set described by the config.
func (c *Config) SpawnParticles() []fluid.Particle {
	return fluid.SpawnParticlesInBox(c.Particles, c.Spawn.BoxSize, c.Spawn.Margin, c.Spawn.MinHeightRatio, c.Seed)
}
