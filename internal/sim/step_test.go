package sim

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

type constController struct {
	force float64
	err   error
	seen  []physics.PlantState
}

func (c *constController) Compute(snapshot physics.PlantState) (float64, error) {
	c.seen = append(c.seen, snapshot)
	return c.force, c.err
}

func mustPlant(opts ...physics.Option) physics.PlantState {
	p, err := physics.New(opts...)
	Expect(err).NotTo(HaveOccurred())
	return p
}

var _ = Describe("Step", func() {
	It("advances time and records the applied force", func() {
		plant := mustPlant()
		next, err := Step(plant, &constController{force: 2}, 0.02)

		Expect(err).NotTo(HaveOccurred())
		Expect(next.Time).To(Equal(0.02))
		Expect(next.Force).To(Equal(2.0))
		Expect(next.Velocity).To(BeNumerically(">", 0))
		Expect(next.CartPendulum).To(Equal(plant.CartPendulum))
	})

	It("never mutates its input", func() {
		plant := mustPlant(physics.WithAngle(0.2), physics.WithVelocity(1))
		before := plant

		_, err := Step(plant, &constController{force: 5}, 0.05)

		Expect(err).NotTo(HaveOccurred())
		Expect(plant).To(Equal(before))
	})

	It("hands the controller the pre-step snapshot", func() {
		plant := mustPlant()
		ctrl := &constController{}

		p := plant
		for i := 0; i < 3; i++ {
			var err error
			p, err = Step(p, ctrl, 0.1)
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(ctrl.seen).To(HaveLen(3))
		Expect(ctrl.seen[0].Time).To(Equal(0.0))
		Expect(ctrl.seen[2].Time).To(BeNumerically("~", 0.2, 1e-12))
	})

	It("returns the state unchanged for a zero step", func() {
		plant := mustPlant(physics.WithAngle(0.3), physics.WithAngularVelocity(-1))

		next, err := Step(plant, &constController{force: 7}, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(next.Vector()).To(Equal(plant.Vector()))
		Expect(next.Time).To(Equal(plant.Time))
	})

	It("rejects a non-finite control force", func() {
		plant := mustPlant()
		for _, force := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			next, err := Step(plant, &constController{force: force}, 0.02)

			Expect(errors.Is(err, dynamo.ErrInvalidControlOutput)).To(BeTrue())
			Expect(next).To(Equal(plant))
		}
	})

	It("propagates fatal controller errors", func() {
		boom := errors.New("sensor offline")
		_, err := Step(mustPlant(), &constController{err: boom}, 0.02)

		Expect(err).To(MatchError(boom))
	})

	It("carries a recoverable gain error alongside the new plant", func() {
		plant := mustPlant()
		pid := control.NewPID(10, 0, 0, 0, control.WithBounds(-5, 5), control.WithAntiWindup(true))

		next, err := Step(plant, pid, 0.02)

		Expect(errors.Is(err, dynamo.ErrInvalidGain)).To(BeTrue())
		Expect(next.Force).To(Equal(-10.0))
		Expect(next.Time).To(Equal(0.02))
	})

	It("reports integration failures", func() {
		_, err := Step(mustPlant(), &constController{}, -0.1)

		Expect(errors.Is(err, dynamo.ErrIntegration)).To(BeTrue())
	})
})

var _ = Describe("Closed loop", func() {
	It("keeps the upright equilibrium with zero gains", func() {
		plant := mustPlant()
		pid := control.NewPID(0, 0, 0, 0)

		for i := 0; i < 200; i++ {
			var err error
			plant, err = Step(plant, pid, 0.02)
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(plant.Angle).To(BeNumerically("~", 0, 1e-12))
		Expect(plant.AngularVelocity).To(BeNumerically("~", 0, 1e-12))
		Expect(plant.Position).To(BeNumerically("~", 1, 1e-12))
		Expect(plant.Velocity).To(BeNumerically("~", 0, 1e-12))
		Expect(plant.Time).To(BeNumerically("~", 4, 1e-9))
	})

	It("holds the hanging fixed point", func() {
		plant := mustPlant(physics.WithAngle(math.Pi))
		ctrl := control.NewNone()

		for i := 0; i < 100; i++ {
			var err error
			plant, err = Step(plant, ctrl, 0.01)
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(plant.Angle).To(BeNumerically("~", math.Pi, 1e-9))
		Expect(plant.AngularVelocity).To(BeNumerically("~", 0, 1e-9))
		Expect(plant.Position).To(BeNumerically("~", 1, 1e-9))
		Expect(plant.Velocity).To(BeNumerically("~", 0, 1e-9))
	})

	It("runs the cart position loop for ten seconds", func() {
		plant := mustPlant(physics.WithAngle(0.01), physics.WithPosition(0))
		pid := control.NewPID(2, 0.0001, 1.5, 0)

		for i := 0; i < 500; i++ {
			var err error
			plant, err = Step(plant, pid, 0.02)
			Expect(err).NotTo(HaveOccurred())
			Expect(plant.Vector().IsValid()).To(BeTrue())
		}

		Expect(plant.Time).To(BeNumerically("~", 10, 1e-9))
	})

	It("balances the pole with an angle loop", func() {
		plant := mustPlant(physics.WithAngle(0.01))
		pid := control.NewPID(-150, -0.0001, -40, 0, control.WithSignal(control.PoleAngle))

		peaks := make([]float64, 5)
		for i := 0; i < 500; i++ {
			var err error
			plant, err = Step(plant, pid, 0.02)
			Expect(err).NotTo(HaveOccurred())
			w := i / 100
			peaks[w] = math.Max(peaks[w], math.Abs(plant.Angle))
		}

		for w := 1; w < len(peaks); w++ {
			Expect(peaks[w]).To(BeNumerically("<", peaks[w-1]))
		}
		Expect(math.Abs(plant.Angle)).To(BeNumerically("<", 1e-6))
	})

	It("balances and recentres the cart with full-state feedback", func() {
		plant := mustPlant(physics.WithAngle(0.1))
		lqr := control.NewCartPendulumLQR(0)

		for i := 0; i < 500; i++ {
			var err error
			plant, err = Step(plant, lqr, 0.02)
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(math.Abs(plant.Angle)).To(BeNumerically("<", 1e-6))
		Expect(math.Abs(plant.Position)).To(BeNumerically("<", 1e-5))
	})
})
