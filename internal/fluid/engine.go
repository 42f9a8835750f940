// Package fluid implements a concurrent Smoothed Particle Hydrodynamics
// engine. Each Step drives the particle buffer through a fixed phase
// pipeline: external forces, spatial-hash rebuild, density, pressure,
// optional viscosity, and integration with boundary collisions. Parallel
// phases run over disjoint index ranges on a persistent worker pool with a
// reusable barrier between phases.
package fluid

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// densityFloor clamps density denominators before division.
const densityFloor = 1e-6

// Engine owns the particle buffer and the spatial index. Step is a blocking,
// non-reentrant call: the buffers are not safe for external access while a
// step is in flight, and configuration changes must land between steps.
type Engine struct {
	cfg     Config
	kernels Kernels

	particles        []Particle
	grid             spatialHash
	velocitySnapshot []r3.Vec

	workers int
	chunk   int
	barrier *barrier
	work    chan float64
	stop    chan struct{}
	wg      sync.WaitGroup

	useViscosity bool
}

// New returns an engine with default configuration and no particles. Init
// must be called before the first Step.
func New() *Engine {
	return &Engine{cfg: DefaultConfig()}
}

// Init (re)allocates the working buffers for the given particle set,
// recomputes the kernel constants, and (re)starts the worker pool. The worker
// count is min(CPU count, particle count), fixed until the next Init.
func (e *Engine) Init(cfg Config, particles []Particle) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.shutdown()

	e.cfg = cfg
	e.kernels = NewKernels(cfg.SmoothingRadius)
	e.particles = particles

	n := len(particles)
	e.grid.resize(n)
	e.velocitySnapshot = make([]r3.Vec, n)

	e.workers = min(runtime.NumCPU(), n)
	if e.workers == 0 {
		// Zero particles: Step degrades to a no-op.
		return nil
	}
	e.chunk = (n + e.workers - 1) / e.workers
	e.barrier = newBarrier(e.workers + 1)
	e.work = make(chan float64)
	e.stop = make(chan struct{})
	e.wg.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(i)
	}
	return nil
}

// Close stops the worker pool. Workers exit between steps, never mid-phase.
// The engine can be reused after another Init.
func (e *Engine) Close() { e.shutdown() }

func (e *Engine) shutdown() {
	if e.stop == nil {
		return
	}
	close(e.stop)
	e.wg.Wait()
	e.stop = nil
	e.workers = 0
}

// Step advances the simulation by dt seconds. It blocks until every phase has
// completed. Calling Step before Init, or with zero particles, is a no-op.
// Overlapping calls are undefined.
func (e *Engine) Step(dt float64) {
	if e.workers == 0 || len(e.particles) == 0 {
		return
	}
	// Decided once per step; workers read it after the dispatch below.
	e.useViscosity = e.cfg.ViscosityStrength != 0

	for i := 0; i < e.workers; i++ {
		e.work <- dt
	}

	e.barrier.wait() // external forces applied on every range
	e.particles = e.grid.build(e.particles, e.cfg.SmoothingRadius)
	e.barrier.wait() // index rebuilt; workers enter the density phase
	e.barrier.wait() // densities final
	if e.useViscosity {
		e.barrier.wait() // pressure done, snapshot may begin
		e.barrier.wait() // snapshot complete
	}
	e.barrier.wait() // velocity updates final
	e.barrier.wait() // positions integrated, collisions resolved
}

// worker runs the per-range side of the phase pipeline until stopped.
func (e *Engine) worker(id int) {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case dt := <-e.work:
			e.runPhases(id, dt)
		}
	}
}

// runPhases executes one step's parallel phases over this worker's index
// range. The range is recomputed per step but only changes across Init; it
// always indexes the current physical ordering, which the orchestrator
// replaces during the rebuild gate between the first two barriers.
func (e *Engine) runPhases(id int, dt float64) {
	start := min(id*e.chunk, len(e.particles))
	end := min(start+e.chunk, len(e.particles))

	e.applyExternalForces(start, end, dt)
	e.barrier.wait() // orchestrator rebuilds the spatial hash
	e.barrier.wait() // rebuild finished; buffer is in key order

	e.calculateDensities(start, end)
	e.barrier.wait() // pressure reads neighbor densities across ranges

	e.calculatePressureForce(start, end, dt)
	if e.useViscosity {
		e.barrier.wait() // all pressure writes landed
		e.snapshotVelocities(start, end)
		e.barrier.wait() // no reads before every snapshot write lands
		e.calculateViscosity(start, end, dt)
	}
	e.barrier.wait()

	e.updatePositions(start, end, dt)
	e.barrier.wait()
}

// SetConfig applies new parameters. A radius change rebuilds the kernel
// constants before the next step. Must not race an in-flight Step.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.SmoothingRadius != e.cfg.SmoothingRadius {
		e.kernels = NewKernels(cfg.SmoothingRadius)
	}
	e.cfg = cfg
	return nil
}

// Config returns the current parameters.
func (e *Engine) Config() Config { return e.cfg }

// Kernels returns the kernel constants for the current smoothing radius.
func (e *Engine) Kernels() Kernels { return e.kernels }

// Particles exposes the live particle buffer for collaborators such as a
// rendering pass. The engine physically reorders the buffer every step, so
// element indices are not stable across Step. Access during an in-flight Step
// is not synchronized; mutation between steps is the caller's responsibility.
func (e *Engine) Particles() []Particle { return e.particles }

// Workers reports the fixed worker count derived at Init.
func (e *Engine) Workers() int { return e.workers }
