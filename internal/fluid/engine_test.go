package fluid_test

import (
	"math"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/avrelian/sphflow/internal/fluid"
)

// quietConfig turns off every force so only the behavior under test moves the
// particles.
func quietConfig() fluid.Config {
	cfg := fluid.DefaultConfig()
	cfg.Gravity = 0
	cfg.TargetDensity = 0
	cfg.PressureMultiplier = 0
	cfg.NearPressureMultiplier = 0
	cfg.ViscosityStrength = 0
	return cfg
}

var _ = Describe("Engine", func() {
	const dt = 1.0 / 120

	var engine *fluid.Engine

	BeforeEach(func() {
		engine = fluid.New()
	})

	AfterEach(func() {
		engine.Close()
	})

	Describe("Init", func() {
		It("rejects a non-positive smoothing radius", func() {
			cfg := fluid.DefaultConfig()
			cfg.SmoothingRadius = 0
			Expect(engine.Init(cfg, nil)).To(MatchError(fluid.ErrInvalidRadius))
		})

		It("rejects damping outside [0, 1]", func() {
			cfg := fluid.DefaultConfig()
			cfg.CollisionDamping = 1.5
			Expect(engine.Init(cfg, nil)).To(MatchError(fluid.ErrInvalidDamping))
		})

		It("degrades to a no-op with zero particles", func() {
			Expect(engine.Init(fluid.DefaultConfig(), nil)).To(Succeed())
			Expect(engine.Workers()).To(BeZero())
			engine.Step(dt) // must not block
		})

		It("caps workers at the particle count", func() {
			particles := []fluid.Particle{fluid.NewParticle(r3.Vec{}, r3.Vec{})}
			Expect(engine.Init(quietConfig(), particles)).To(Succeed())
			Expect(engine.Workers()).To(Equal(1))
		})
	})

	Describe("density", func() {
		It("gives an isolated particle its own zero-distance contribution", func() {
			particles := []fluid.Particle{fluid.NewParticle(r3.Vec{}, r3.Vec{})}
			Expect(engine.Init(quietConfig(), particles)).To(Succeed())

			engine.Step(dt)

			want := engine.Kernels().Density(0)
			Expect(engine.Particles()[0].Density).To(BeNumerically("~", want, 1e-12))
			Expect(engine.Particles()[0].NearDensity).To(BeNumerically("~", engine.Kernels().NearDensity(0), 1e-12))
		})

		It("doubles for a coincident pair", func() {
			pos := r3.Vec{X: 0.1, Y: 0.2, Z: -0.1}
			particles := []fluid.Particle{
				fluid.NewParticle(pos, r3.Vec{}),
				fluid.NewParticle(pos, r3.Vec{}),
			}
			Expect(engine.Init(quietConfig(), particles)).To(Succeed())

			engine.Step(dt)

			want := 2 * engine.Kernels().Density(0)
			for _, p := range engine.Particles() {
				Expect(p.Density).To(BeNumerically("~", want, 1e-12))
			}
		})
	})

	Describe("airborne drag", func() {
		It("bleeds velocity from a particle with few neighbors", func() {
			v0 := 1.0
			particles := []fluid.Particle{fluid.NewParticle(r3.Vec{}, r3.Vec{X: v0})}
			Expect(engine.Init(quietConfig(), particles)).To(Succeed())

			engine.Step(dt)

			wantV := v0 * (1 - 0.75*dt)
			p := engine.Particles()[0]
			Expect(p.Velocity.X).To(BeNumerically("~", wantV, 1e-12))
			Expect(p.Position.X).To(BeNumerically("~", wantV*dt, 1e-12))
		})
	})

	Describe("gravity", func() {
		It("integrates into velocity before position", func() {
			cfg := quietConfig()
			cfg.Gravity = -9.81
			particles := []fluid.Particle{fluid.NewParticle(r3.Vec{}, r3.Vec{})}
			Expect(engine.Init(cfg, particles)).To(Succeed())

			engine.Step(dt)

			wantV := cfg.Gravity * dt * (1 - 0.75*dt) // drag applies, no neighbors
			p := engine.Particles()[0]
			Expect(p.Velocity.Y).To(BeNumerically("~", wantV, 1e-12))
			Expect(p.Position.Y).To(BeNumerically("~", wantV*dt, 1e-12))
		})
	})

	Describe("boundary collision", func() {
		It("clamps to the wall and reflects with damping", func() {
			cfg := quietConfig()
			cfg.CollisionDamping = 0.85
			v0 := 20.0
			particles := []fluid.Particle{fluid.NewParticle(r3.Vec{X: 0.9}, r3.Vec{X: v0})}
			Expect(engine.Init(cfg, particles)).To(Succeed())

			engine.Step(0.01)

			vDragged := v0 * (1 - 0.75*0.01)
			p := engine.Particles()[0]
			Expect(p.Position.X).To(Equal(cfg.Bounds.X))
			Expect(p.Velocity.X).To(BeNumerically("~", -cfg.CollisionDamping*vDragged, 1e-12))
		})
	})

	Describe("viscosity", func() {
		It("pulls a closing pair toward the shared velocity", func() {
			cfg := quietConfig()
			cfg.ViscosityStrength = 0.5
			particles := []fluid.Particle{
				fluid.NewParticle(r3.Vec{X: -0.05}, r3.Vec{X: 1}),
				fluid.NewParticle(r3.Vec{X: 0.05}, r3.Vec{X: -1}),
			}
			Expect(engine.Init(cfg, particles)).To(Succeed())

			engine.Step(dt)

			// Predicted positions close the gap by 2*dt before the search.
			d := 0.1 - 2*dt
			w := engine.Kernels().Poly6(d)
			u := 1 * (1 - 0.75*dt) // post-drag speed of either particle
			wantV := u - 2*u*cfg.ViscosityStrength*dt*w

			buf := engine.Particles()
			var left, right fluid.Particle
			if buf[0].Velocity.X > 0 {
				left, right = buf[0], buf[1]
			} else {
				left, right = buf[1], buf[0]
			}
			Expect(left.Velocity.X).To(BeNumerically("~", wantV, 1e-9))
			Expect(right.Velocity.X).To(BeNumerically("~", -wantV, 1e-9))
			Expect(math.Abs(left.Velocity.X)).To(BeNumerically("<", u))
		})
	})

	Describe("rest state", func() {
		It("leaves a force-free cloud exactly in place", func() {
			particles := fluid.SpawnParticlesInBox(300, 1.5, 0.1, 0, 42)
			before := positionMultiset(particles)

			Expect(engine.Init(quietConfig(), particles)).To(Succeed())
			for i := 0; i < 5; i++ {
				engine.Step(dt)
			}

			after := positionMultiset(engine.Particles())
			Expect(after).To(Equal(before))
			for _, p := range engine.Particles() {
				Expect(p.Velocity).To(Equal(r3.Vec{}))
			}
		})
	})

	Describe("determinism", func() {
		It("replays identically for the same seed and config", func() {
			cfg := fluid.DefaultConfig()
			run := func() []fluid.Particle {
				e := fluid.New()
				defer e.Close()
				Expect(e.Init(cfg, fluid.SpawnParticlesInBox(500, 2, 0.05, 0, 7))).To(Succeed())
				for i := 0; i < 20; i++ {
					e.Step(dt)
				}
				out := make([]fluid.Particle, len(e.Particles()))
				copy(out, e.Particles())
				return out
			}

			first := run()
			second := run()
			Expect(second).To(Equal(first))
		})
	})

	Describe("SetConfig", func() {
		It("rebuilds kernels when the radius changes", func() {
			particles := fluid.SpawnParticlesInBox(10, 1, 0.05, 0, 1)
			Expect(engine.Init(fluid.DefaultConfig(), particles)).To(Succeed())

			cfg := engine.Config()
			cfg.SmoothingRadius = 0.3
			Expect(engine.SetConfig(cfg)).To(Succeed())
			Expect(engine.Kernels().Radius()).To(Equal(0.3))
		})

		It("keeps the previous config on validation failure", func() {
			particles := fluid.SpawnParticlesInBox(10, 1, 0.05, 0, 1)
			Expect(engine.Init(fluid.DefaultConfig(), particles)).To(Succeed())

			bad := engine.Config()
			bad.SmoothingRadius = -1
			Expect(engine.SetConfig(bad)).To(MatchError(fluid.ErrInvalidRadius))
			Expect(engine.Config().SmoothingRadius).To(Equal(fluid.DefaultConfig().SmoothingRadius))
		})
	})

	Describe("Close", func() {
		It("stops the pool and makes further steps no-ops", func() {
			particles := fluid.SpawnParticlesInBox(50, 1, 0.05, 0, 3)
			Expect(engine.Init(quietConfig(), particles)).To(Succeed())
			engine.Step(dt)

			engine.Close()
			Expect(engine.Workers()).To(BeZero())
			engine.Step(dt) // must not block

			// The engine is reusable after another Init.
			Expect(engine.Init(quietConfig(), particles)).To(Succeed())
			engine.Step(dt)
		})
	})
})

// positionMultiset returns the positions in a canonical order so that physical
// reordering by the spatial hash does not affect comparison.
func positionMultiset(particles []fluid.Particle) []r3.Vec {
	out := make([]r3.Vec, len(particles))
	for i, p := range particles {
		out[i] = p.Position
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].X != out[b].X {
			return out[a].X < out[b].X
		}
		if out[a].Y != out[b].Y {
			return out[a].Y < out[b].Y
		}
		return out[a].Z < out[b].Z
	})
	return out
}
