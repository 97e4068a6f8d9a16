package sim_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/sim"
)

type countingObserver struct {
	calls int
	times []float64
}

func (c *countingObserver) OnStep(ps []particle.Particle, t float64) {
	c.calls++
	c.times = append(c.times, t)
}

type countMetric struct{ last float64 }

func (c *countMetric) Name() string                              { return "count" }
func (c *countMetric) Observe(ps []particle.Particle, t float64) { c.last = float64(len(ps)) }
func (c *countMetric) Value() float64                            { return c.last }
func (c *countMetric) Reset()                                    { c.last = 0 }

var _ = Describe("Solver", func() {
	var (
		cfg    sim.Config
		solver *sim.Solver
	)

	BeforeEach(func() {
		cfg = sim.DefaultConfig()
	})

	JustBeforeEach(func() {
		var err error
		solver, err = sim.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("configuration", func() {
		DescribeTable("rejects invalid values",
			func(mutate func(c *sim.Config)) {
				c := sim.DefaultConfig()
				mutate(&c)
				s, err := sim.New(c)
				Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
				Expect(s).To(BeNil())
			},
			Entry("zero sub-steps", func(c *sim.Config) { c.SubSteps = 0 }),
			Entry("negative sub-steps", func(c *sim.Config) { c.SubSteps = -2 }),
			Entry("zero update rate", func(c *sim.Config) { c.UpdateRate = 0 }),
			Entry("zero grid width", func(c *sim.Config) { c.GridWidth = 0 }),
			Entry("negative grid height", func(c *sim.Config) { c.GridHeight = -1 }),
			Entry("zero cell size", func(c *sim.Config) { c.CellSize = 0 }),
			Entry("zero boundary radius", func(c *sim.Config) { c.BoundaryRadius = 0 }),
			Entry("response above one", func(c *sim.Config) { c.Response = 1.2 }),
			Entry("zero iterations", func(c *sim.Config) { c.Iterations = 0 }),
			Entry("NaN gravity", func(c *sim.Config) { c.Gravity = dynamo.V(math.NaN(), 0) }),
		)

		It("derives frame and sub-step deltas from the update rate", func() {
			Expect(solver.FrameDt()).To(BeNumerically("~", 1.0/60, 1e-15))
			Expect(solver.SubDt()).To(BeNumerically("~", 1.0/480, 1e-15))
			center, radius := solver.Boundary()
			Expect(center).To(Equal(dynamo.V(500, 500)))
			Expect(radius).To(Equal(450.0))
		})
	})

	Describe("particles", func() {
		It("rejects non-positive radii", func() {
			_, err := solver.AddParticle(dynamo.V(500, 500), 0)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(solver.Count()).To(BeZero())
		})

		It("converts velocities through the sub-step delta", func() {
			id, err := solver.AddParticle(dynamo.V(500, 200), 5)
			Expect(err).NotTo(HaveOccurred())

			Expect(solver.SetVelocity(id, dynamo.V(1200, 0))).To(Succeed())
			v, err := solver.Velocity(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.X).To(BeNumerically("~", 1200, 1e-9))

			Expect(solver.AddVelocity(id, dynamo.V(0, 60))).To(Succeed())
			v, _ = solver.Velocity(id)
			Expect(v.Y).To(BeNumerically("~", 60, 1e-9))

			p := solver.Particles()[id]
			Expect(p.Position.Sub(p.LastPosition).X).To(BeNumerically("~", 1200*solver.SubDt(), 1e-12))
		})

		It("reports unknown handles", func() {
			Expect(solver.SetVelocity(7, dynamo.V(1, 0))).To(MatchError(dynamo.ErrUnknownParticle))
			Expect(solver.SetPayload(-1, "x")).To(MatchError(dynamo.ErrUnknownParticle))
			_, err := solver.Velocity(0)
			Expect(err).To(MatchError(dynamo.ErrUnknownParticle))
		})

		It("carries payloads untouched", func() {
			type tag struct{ name string }
			id, _ := solver.AddParticle(dynamo.V(500, 500), 5)
			Expect(solver.SetPayload(id, tag{"blue"})).To(Succeed())

			for i := 0; i < 10; i++ {
				solver.Step()
			}
			Expect(solver.Particles()[id].Payload).To(Equal(tag{"blue"}))
		})
	})

	Describe("stepping", func() {
		It("follows the discrete Verlet trajectory under gravity", func() {
			id, _ := solver.AddParticle(dynamo.V(500, 200), 5)

			frames := 30
			for i := 0; i < frames; i++ {
				solver.Step()
			}

			n := float64(frames * cfg.SubSteps)
			dt := solver.SubDt()
			want := 200 + cfg.Gravity.Y*dt*dt*n*(n+1)/2
			p := solver.Particles()[id]
			Expect(p.Position.Y).To(BeNumerically("~", want, 1e-6))
			Expect(p.Position.X).To(BeNumerically("~", 500, 1e-9))
			Expect(solver.Time()).To(BeNumerically("~", 0.5, 1e-12))
			Expect(solver.Frame()).To(Equal(frames))
		})

		It("stays close to continuous free fall", func() {
			id, _ := solver.AddParticle(dynamo.V(500, 200), 5)
			for i := 0; i < 30; i++ {
				solver.Step()
			}
			fall := solver.Particles()[id].Position.Y - 200
			Expect(fall).To(BeNumerically("~", 0.5*1000*0.25, 1))
		})

		It("keeps a resting particle on the boundary", func() {
			id, _ := solver.AddParticle(dynamo.V(500, 900), 10)
			for i := 0; i < 120; i++ {
				solver.Step()
			}
			p := solver.Particles()[id]
			center, radius := solver.Boundary()
			Expect(p.Position.Dist(center)).To(BeNumerically("<=", radius-p.Radius+1))
			Expect(p.Position.Y).To(BeNumerically(">", 880))
		})

		It("notifies observers and metrics once per frame", func() {
			obs := &countingObserver{}
			m := &countMetric{}
			solver.AddObserver(obs)
			solver.AddMetric(m)
			solver.AddParticle(dynamo.V(500, 500), 5)

			solver.Step()
			solver.Step()

			Expect(obs.calls).To(Equal(2))
			Expect(obs.times[1]).To(BeNumerically("~", 2.0/60, 1e-12))
			Expect(solver.Metrics()).To(HaveKeyWithValue("count", 1.0))
		})
	})

	Describe("strategy selection", func() {
		addRandom := func(s *sim.Solver, n int) {
			rng := rand.New(rand.NewSource(1))
			for i := 0; i < n; i++ {
				angle := rng.Float64() * 2 * math.Pi
				r := math.Sqrt(rng.Float64()) * 400
				pos := dynamo.V(500+r*math.Cos(angle), 500+r*math.Sin(angle))
				_, err := s.AddParticle(pos, 2+rng.Float64()*6)
				Expect(err).NotTo(HaveOccurred())
			}
		}

		It("uses brute force below the threshold", func() {
			addRandom(solver, 199)
			solver.Step()
			Expect(solver.Stats().Strategy).To(Equal(physics.BruteForce))
			Expect(solver.Stats().Count).To(Equal(199))
		})

		It("switches to the grid at the threshold", func() {
			addRandom(solver, 200)
			solver.Step()
			Expect(solver.Stats().Strategy).To(Equal(physics.GridBroadPhase))
		})

		It("never produces invalid state in a dense pile", func() {
			addRandom(solver, 1200)
			for i := 0; i < 120; i++ {
				solver.Step()
			}
			Expect(solver.Check()).To(Succeed())

			center, radius := solver.Boundary()
			for _, p := range solver.Particles() {
				Expect(p.Position.Dist(center)).To(BeNumerically("<=", radius-p.Radius+5))
			}
		})
	})

	Describe("parameters", func() {
		It("exposes and updates tuning parameters", func() {
			params := solver.GetParams()
			Expect(params).To(HaveKeyWithValue("response", 0.75))
			Expect(params).To(HaveKeyWithValue("gravity", 1000.0))

			Expect(solver.SetParam("iterations", 3)).To(Succeed())
			Expect(solver.Config().Iterations).To(Equal(3))

			Expect(solver.SetParam("gravity", 500)).To(Succeed())
			Expect(solver.Gravity()).To(Equal(dynamo.V(0, 500)))

			Expect(solver.SetParam("response", 0)).To(MatchError(dynamo.ErrInvalidConfig))
		})

		DescribeTable("rejects non-finite gravity",
			func(value float64) {
				before := solver.Gravity()
				Expect(solver.SetParam("gravity", value)).To(MatchError(dynamo.ErrInvalidConfig))
				Expect(solver.Gravity()).To(Equal(before))
				Expect(solver.Config().Gravity).To(Equal(before))

				_, err := solver.AddParticle(dynamo.V(500, 500), 10)
				Expect(err).NotTo(HaveOccurred())
				solver.Step()
				Expect(solver.Check()).To(Succeed())
			},
			Entry("NaN", math.NaN()),
			Entry("+Inf", math.Inf(1)),
			Entry("-Inf", math.Inf(-1)),
		)
	})

	Context("with parallel phases", func() {
		BeforeEach(func() {
			cfg.ParallelMin = 64
			cfg.Workers = 4
		})

		It("matches the serial solver exactly", func() {
			serialCfg := sim.DefaultConfig()
			serial, err := sim.New(serialCfg)
			Expect(err).NotTo(HaveOccurred())

			for _, s := range []*sim.Solver{solver, serial} {
				for i := 0; i < 150; i++ {
					s.AddParticle(dynamo.V(200+float64(i%15)*40, 300+float64(i/15)*30), 8)
				}
			}
			for i := 0; i < 20; i++ {
				solver.Step()
				serial.Step()
			}

			for i, p := range serial.Particles() {
				Expect(solver.Particles()[i].Position).To(Equal(p.Position))
			}
		})
	})
})
