package fluid

import (
	"errors"
	"fmt"
)

// Domain errors for engine configuration.
var (
	// ErrInvalidRadius indicates a non-positive smoothing radius.
	ErrInvalidRadius = errors.New("fluid: smoothing radius must be positive")

	// ErrInvalidDamping indicates a collision damping factor outside [0, 1].
	ErrInvalidDamping = errors.New("fluid: collision damping must be in [0, 1]")
)

// Bounds holds the per-axis half-extents of the simulation box, which is
// centered at the origin.
type Bounds struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Config holds the simulation parameters. Changing the smoothing radius
// forces a kernel-constant rebuild before the next step; the engine handles
// that in SetConfig. Config changes must never race an in-flight Step.
type Config struct {
	// Gravity is the vertical acceleration; negative pulls downward.
	Gravity float64 `yaml:"gravity"`
	// SmoothingRadius is the kernel support cutoff. Must be positive.
	SmoothingRadius float64 `yaml:"smoothing_radius"`
	// TargetDensity is the rest density the pressure term relaxes toward.
	TargetDensity          float64 `yaml:"target_density"`
	PressureMultiplier     float64 `yaml:"pressure_multiplier"`
	NearPressureMultiplier float64 `yaml:"near_pressure_multiplier"`
	// ViscosityStrength of zero disables the viscosity phase entirely.
	ViscosityStrength float64 `yaml:"viscosity_strength"`
	// CollisionDamping scales reflected velocity on boundary contact.
	CollisionDamping float64 `yaml:"collision_damping"`
	Bounds           Bounds  `yaml:"bounds"`
}

// DefaultConfig returns the reference water-like parameter set.
func DefaultConfig() Config {
	return Config{
		Gravity:                -9.81,
		SmoothingRadius:        0.2,
		TargetDensity:          1000,
		PressureMultiplier:     30,
		NearPressureMultiplier: 25,
		ViscosityStrength:      0.035,
		CollisionDamping:       0.85,
		Bounds:                 Bounds{X: 1, Y: 1, Z: 1},
	}
}

// Validate rejects parameter sets the engine cannot run with.
func (c Config) Validate() error {
	if c.SmoothingRadius <= 0 {
		return fmt.Errorf("%w, got %g", ErrInvalidRadius, c.SmoothingRadius)
	}
	if c.CollisionDamping < 0 || c.CollisionDamping > 1 {
		return fmt.Errorf("%w, got %g", ErrInvalidDamping, c.CollisionDamping)
	}
	return nil
}

// PressureFromDensity maps a density to its pressure contribution.
func (c Config) PressureFromDensity(density float64) float64 {
	return (density - c.TargetDensity) * c.PressureMultiplier
}

// NearPressureFromDensity maps a near-density to its near-pressure. The near
// term has no rest density; it only ever pushes particles apart.
func (c Config) NearPressureFromDensity(nearDensity float64) float64 {
	return nearDensity * c.NearPressureMultiplier
}
