package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// applyExternalForces integrates gravity into velocity and predicts the
// position used by this tick's neighbor search.
func (e *Engine) applyExternalForces(start, end int, dt float64) {
	for i := start; i < end; i++ {
		p := &e.particles[i]
		p.Velocity.Y += e.cfg.Gravity * dt
		p.Predicted = r3.Add(p.Position, r3.Scale(dt, p.Velocity))
	}
}

// calculateDensities accumulates kernel-weighted density and near-density
// over the 27-cell neighborhood. The particle's own zero-distance
// contribution is included deliberately: an isolated particle has
// density = Density(0), not zero.
func (e *Engine) calculateDensities(start, end int) {
	h := e.cfg.SmoothingRadius
	for i := start; i < end; i++ {
		p := &e.particles[i]
		var density, nearDensity float64
		e.grid.forEachNeighbor(e.particles, p.Predicted, h, func(_ int, _ r3.Vec, distSq float64) {
			d := math.Sqrt(distSq)
			density += e.kernels.Density(d)
			nearDensity += e.kernels.NearDensity(d)
		})
		p.Density = density
		p.NearDensity = nearDensity
	}
}

// calculatePressureForce turns the density field into a velocity update. The
// pair force averages both particles' pressures, weights by the kernel
// derivatives, and is divided by the neighbor's (floored) density; the
// accumulated force divided by own (floored) density gives the acceleration.
func (e *Engine) calculatePressureForce(start, end int, dt float64) {
	h := e.cfg.SmoothingRadius
	for i := start; i < end; i++ {
		p := &e.particles[i]
		pressure := e.cfg.PressureFromDensity(p.Density)
		nearPressure := e.cfg.NearPressureFromDensity(p.NearDensity)

		var force r3.Vec
		neighborCount := 0
		e.grid.forEachNeighbor(e.particles, p.Predicted, h, func(j int, delta r3.Vec, distSq float64) {
			if j == i {
				return
			}
			neighbor := &e.particles[j]
			sharedPressure := (pressure + e.cfg.PressureFromDensity(neighbor.Density)) * 0.5
			sharedNearPressure := (nearPressure + e.cfg.NearPressureFromDensity(neighbor.NearDensity)) * 0.5

			dist := math.Sqrt(distSq)
			var dir r3.Vec
			if dist > densityFloor {
				dir = r3.Scale(1/dist, delta)
			}
			// Coincident pairs keep the zero direction: no defined push axis.

			force = r3.Add(force, r3.Scale(
				e.kernels.DensityDerivative(dist)*sharedPressure/math.Max(densityFloor, neighbor.Density), dir))
			force = r3.Add(force, r3.Scale(
				e.kernels.NearDensityDerivative(dist)*sharedNearPressure/math.Max(densityFloor, neighbor.NearDensity), dir))
			neighborCount++
		})

		accel := r3.Scale(1/math.Max(densityFloor, p.Density), force)
		p.Velocity = r3.Add(p.Velocity, r3.Scale(dt, accel))

		// Airborne drag: free-surface heuristic, not a physical term. A
		// particle with few neighbors sheds velocity instead of flying off.
		if neighborCount < 8 {
			p.Velocity = r3.Sub(p.Velocity, r3.Scale(dt*0.75, p.Velocity))
		}
	}
}

// snapshotVelocities copies this range's velocities into the snapshot buffer.
// Viscosity must read a frozen copy: reading in-progress pressure-phase
// output would make results order-dependent across workers.
func (e *Engine) snapshotVelocities(start, end int) {
	for i := start; i < end; i++ {
		e.velocitySnapshot[i] = e.particles[i].Velocity
	}
}

// calculateViscosity applies poly6-weighted velocity smoothing against the
// snapshot taken after the pressure phase.
func (e *Engine) calculateViscosity(start, end int, dt float64) {
	h := e.cfg.SmoothingRadius
	for i := start; i < end; i++ {
		p := &e.particles[i]
		own := e.velocitySnapshot[i]
		var force r3.Vec
		e.grid.forEachNeighbor(e.particles, p.Predicted, h, func(j int, _ r3.Vec, distSq float64) {
			if j == i {
				return
			}
			w := e.kernels.Poly6(math.Sqrt(distSq))
			force = r3.Add(force, r3.Scale(w, r3.Sub(e.velocitySnapshot[j], own)))
		})
		p.Velocity = r3.Add(p.Velocity, r3.Scale(e.cfg.ViscosityStrength*dt, force))
	}
}

// updatePositions integrates velocity into position and resolves boundary
// collisions.
func (e *Engine) updatePositions(start, end int, dt float64) {
	for i := start; i < end; i++ {
		p := &e.particles[i]
		p.Position = r3.Add(p.Position, r3.Scale(dt, p.Velocity))
		e.resolveCollisions(p)
	}
}

// resolveCollisions clamps the particle inside the bounds box and reflects
// the velocity, with damping, on each penetrated axis independently.
func (e *Engine) resolveCollisions(p *Particle) {
	b := e.cfg.Bounds
	d := e.cfg.CollisionDamping
	p.Position.X, p.Velocity.X = reflectAxis(p.Position.X, p.Velocity.X, b.X, d)
	p.Position.Y, p.Velocity.Y = reflectAxis(p.Position.Y, p.Velocity.Y, b.Y, d)
	p.Position.Z, p.Velocity.Z = reflectAxis(p.Position.Z, p.Velocity.Z, b.Z, d)
}

func reflectAxis(pos, vel, halfBound, damping float64) (float64, float64) {
	if halfBound-math.Abs(pos) <= 0 {
		pos = math.Copysign(halfBound, pos)
		vel *= -damping
	}
	return pos, vel
}
