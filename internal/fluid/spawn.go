package fluid

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// SpawnParticlesInBox samples count particles uniformly inside an
// axis-aligned box of side boxSize centered at the origin, keeping margin
// from every wall. minHeightRatio lifts the lower Y bound to that fraction of
// the half-extent, so a dam-break column can start in the upper part of the
// box. All particles start at rest. Pure generator; feed the result to Init.
func SpawnParticlesInBox(count int, boxSize, margin, minHeightRatio float64, seed int64) []Particle {
	rng := rand.New(rand.NewSource(seed))

	half := boxSize * 0.5
	m := math.Min(math.Max(margin, 0), half)
	maxY := half - m
	minY := math.Max(-half+m, minHeightRatio*half)
	if minY > maxY {
		minY = maxY
	}

	uniform := func(lo, hi float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}

	particles := make([]Particle, 0, count)
	for i := 0; i < count; i++ {
		pos := r3.Vec{
			X: uniform(-half+m, half-m),
			Y: uniform(minY, maxY),
			Z: uniform(-half+m, half-m),
		}
		particles = append(particles, NewParticle(pos, r3.Vec{}))
	}
	return particles
}
