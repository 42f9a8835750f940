package config

import (
	"sort"

	"github.com/avrelian/sphflow/internal/fluid"
)

var Presets = map[string]*Config{
	"dam-break": {
		Dt: DefaultDt, Steps: 1200, Particles: 4000,
		Spawn: SpawnConfig{BoxSize: 2.0, Margin: 0.05, MinHeightRatio: 0.2},
		Fluid: fluid.DefaultConfig(),
	},
	"droplet": {
		Dt: DefaultDt, Steps: 600, Particles: 800,
		Spawn: SpawnConfig{BoxSize: 0.8, Margin: 0.05, MinHeightRatio: 0.5},
		Fluid: fluid.Config{
			Gravity:                -9.81,
			SmoothingRadius:        0.15,
			TargetDensity:          1500,
			PressureMultiplier:     40,
			NearPressureMultiplier: 30,
			ViscosityStrength:      0.02,
			CollisionDamping:       0.7,
			Bounds:                 fluid.Bounds{X: 1, Y: 1, Z: 1},
		},
	},
	"rest": {
		Dt: DefaultDt, Steps: 600, Particles: 1000,
		Spawn: SpawnConfig{BoxSize: 1.5, Margin: 0.1},
		Fluid: fluid.Config{
			Gravity:                0,
			SmoothingRadius:        0.2,
			TargetDensity:          0,
			PressureMultiplier:     10,
			NearPressureMultiplier: 10,
			ViscosityStrength:      0.05,
			CollisionDamping:       1,
			Bounds:                 fluid.Bounds{X: 1, Y: 1, Z: 1},
		},
	},
	"syrup": {
		Dt: DefaultDt, Steps: 900, Particles: 2000,
		Spawn: SpawnConfig{BoxSize: 2.0, Margin: 0.05, MinHeightRatio: 0.3},
		Fluid: fluid.Config{
			Gravity:                -9.81,
			SmoothingRadius:        0.25,
			TargetDensity:          1200,
			PressureMultiplier:     20,
			NearPressureMultiplier: 15,
			ViscosityStrength:      0.35,
			CollisionDamping:       0.4,
			Bounds:                 fluid.Bounds{X: 1, Y: 1, Z: 1},
		},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
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
