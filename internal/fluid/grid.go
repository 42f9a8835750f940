package fluid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Hash primes for the three cell coordinates.
const (
	hashX = 73856093
	hashY = 19349663
	hashZ = 83492791
)

type cell struct{ x, y, z int }

func (c cell) add(o cell) cell { return cell{c.x + o.x, c.y + o.y, c.z + o.z} }

// offsets3D enumerates the 3x3x3 block of cells centered on a particle's own
// cell, the full support neighborhood when the cell size equals the radius.
var offsets3D = func() [27]cell {
	var o [27]cell
	i := 0
	for z := -1; z <= 1; z++ {
		for y := -1; y <= 1; y++ {
			for x := -1; x <= 1; x++ {
				o[i] = cell{x, y, z}
				i++
			}
		}
	}
	return o
}()

// cellOf maps a position to its grid cell at cell size h.
func cellOf(p r3.Vec, h float64) cell {
	return cell{
		x: int(math.Floor(p.X / h)),
		y: int(math.Floor(p.Y / h)),
		z: int(math.Floor(p.Z / h)),
	}
}

// hashCell folds a cell coordinate into a signed integer hash. Wraparound is
// expected and harmless.
func hashCell(c cell) int {
	return c.x*hashX ^ c.y*hashY ^ c.z*hashZ
}

// spatialHash indexes particles by a hash of their predicted-position cell.
// The bucket table is sized to the particle count rather than the grid
// extent, so two spatially distant cells may alias into one bucket. Scans
// accept the extra candidates and rely on the squared-distance test: aliasing
// costs work, never correctness.
//
// After build, particles sharing a bucket key occupy a contiguous run of the
// particle buffer and offsets[key] is the run's start (or len(particles) as a
// sentinel for unused buckets).
type spatialHash struct {
	keys          []uint32
	keyScratch    []uint32
	sortedIndices []int
	offsets       []uint32
	scratch       []Particle
}

// resize reallocates the working buffers for a particle count of n. Called
// only when the count changes.
func (g *spatialHash) resize(n int) {
	g.keys = make([]uint32, n)
	g.keyScratch = make([]uint32, n)
	g.sortedIndices = make([]int, n)
	g.offsets = make([]uint32, n)
	g.scratch = make([]Particle, n)
}

// keyFromHash folds a cell hash into a bucket index. The hash is truncated to
// 32 bits first, matching the wraparound arithmetic of hashCell.
func (g *spatialHash) keyFromHash(h int) uint32 {
	return uint32(h) % uint32(len(g.keys))
}

// build recomputes the index for the current predicted positions: bucket keys
// in the present physical order, a stable argsort by key, a physical reorder
// of the particles into key runs, and the first-occurrence offset table.
// It returns the reordered particle slice, which the caller must adopt; the
// previous buffer becomes the next build's scratch space.
func (g *spatialHash) build(particles []Particle, h float64) []Particle {
	n := len(particles)
	for i := range particles {
		g.keys[i] = g.keyFromHash(hashCell(cellOf(particles[i].Predicted, h)))
	}

	for i := range g.sortedIndices {
		g.sortedIndices[i] = i
	}
	// Stable sort: particles sharing a key keep their pre-sort order, so a
	// run with a fixed worker count replays the same reorder every time.
	sort.SliceStable(g.sortedIndices, func(a, b int) bool {
		return g.keys[g.sortedIndices[a]] < g.keys[g.sortedIndices[b]]
	})

	for i, src := range g.sortedIndices {
		g.scratch[i] = particles[src]
		g.keyScratch[i] = g.keys[src]
	}
	reordered := g.scratch
	g.scratch = particles
	g.keys, g.keyScratch = g.keyScratch, g.keys

	for i := range g.offsets {
		g.offsets[i] = uint32(n)
	}
	for i := 0; i < n; i++ {
		if k := g.keys[i]; g.offsets[k] > uint32(i) {
			g.offsets[k] = uint32(i)
		}
	}

	return reordered
}

// forEachNeighbor invokes fn exactly once for every particle whose predicted
// position lies within radius h of pos, including the particle at pos itself.
// delta points from pos to the neighbor. Callers that must exclude self
// compare indices; physical reordering makes any pointer-based identity
// meaningless.
func (g *spatialHash) forEachNeighbor(particles []Particle, pos r3.Vec, h float64, fn func(j int, delta r3.Vec, distSq float64)) {
	origin := cellOf(pos, h)
	radiusSq := h * h
	// Two of the 27 cells can alias to the same bucket. Scanning a run twice
	// would double-count its particles, so each key is visited once.
	var seen [27]uint32
	nseen := 0
scan:
	for _, off := range offsets3D {
		key := g.keyFromHash(hashCell(origin.add(off)))
		for i := 0; i < nseen; i++ {
			if seen[i] == key {
				continue scan
			}
		}
		seen[nseen] = key
		nseen++
		for j := g.offsets[key]; int(j) < len(particles) && g.keys[j] == key; j++ {
			delta := r3.Sub(particles[j].Predicted, pos)
			if distSq := r3.Norm2(delta); distSq <= radiusSq {
				fn(int(j), delta, distSq)
			}
		}
	}
}
