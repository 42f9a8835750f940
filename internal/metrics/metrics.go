// Package metrics computes summary statistics over particle snapshots,
// observed once per simulation step.
package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/avrelian/sphflow/internal/fluid"
)

// Metric observes the particle buffer after each step and reduces it to a
// single value at the end of a run.
type Metric interface {
	Name() string
	Observe(particles []fluid.Particle, t float64)
	Value() float64
	Reset()
}

// KineticEnergy tracks the mean per-particle kinetic energy across a run.
type KineticEnergy struct {
	samples int
	total   float64
}

func NewKineticEnergy() *KineticEnergy { return &KineticEnergy{} }

func (k *KineticEnergy) Name() string { return "kinetic_energy" }

func (k *KineticEnergy) Observe(particles []fluid.Particle, t float64) {
	if len(particles) == 0 {
		return
	}
	sum := 0.0
	for i := range particles {
		sum += 0.5 * r3.Norm2(particles[i].Velocity)
	}
	k.total += sum / float64(len(particles))
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.samples = 0
	k.total = 0
}

// DensityError tracks how far the density field sits from the target
// density, as the mean relative error of the latest observation.
type DensityError struct {
	target  float64
	current float64
	spread  float64
	scratch []float64
}

func NewDensityError(target float64) *DensityError {
	return &DensityError{target: target}
}

func (d *DensityError) Name() string { return "density_error" }

func (d *DensityError) Observe(particles []fluid.Particle, t float64) {
	if len(particles) == 0 || d.target == 0 {
		return
	}
	d.scratch = d.scratch[:0]
	for i := range particles {
		err := particles[i].Density - d.target
		if err < 0 {
			err = -err
		}
		d.scratch = append(d.scratch, err/d.target)
	}
	d.current = stat.Mean(d.scratch, nil)
	d.spread = stat.StdDev(d.scratch, nil)
}

func (d *DensityError) Value() float64 { return d.current }

// Spread returns the standard deviation of the latest relative errors.
func (d *DensityError) Spread() float64 { return d.spread }

func (d *DensityError) Reset() {
	d.current = 0
	d.spread = 0
}

// MaxSpeed records the fastest particle speed seen during a run.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(particles []fluid.Particle, t float64) {
	for i := range particles {
		if v := r3.Norm(particles[i].Velocity); v > m.max {
			m.max = v
		}
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
