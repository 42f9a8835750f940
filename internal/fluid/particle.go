package fluid

import "gonum.org/v1/gonum/spatial/r3"

// Particle is a single SPH particle. Position is the resolved position;
// Predicted is the tentative position after velocity integration, used only
// for the current tick's neighbor search. Density and NearDensity are
// recomputed every step.
type Particle struct {
	Position    r3.Vec
	Predicted   r3.Vec
	Velocity    r3.Vec
	Density     float64
	NearDensity float64
}

// NewParticle returns a particle at the given position and velocity. The
// predicted position starts at the true position.
func NewParticle(position, velocity r3.Vec) Particle {
	return Particle{Position: position, Predicted: position, Velocity: velocity}
}
