package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
)

// LyapunovExponent estimates the largest Lyapunov exponent of the closed loop
// started at plant.
//
// Two copies of the loop run side by side, the second with its angle offset by
// perturbation and each driven by its own controller from newController. After
// every step the separation d of the state vectors is measured, ln(d/d0) is
// accumulated and the perturbed state is pulled back to distance d0. The
// exponent is the accumulated log growth divided by the simulated time.
// A nil stepper selects Dormand-Prince.
func LyapunovExponent(
	plant physics.PlantState,
	newController func() sim.Controller,
	stepper dynamo.Stepper,
	dt float64,
	steps int,
	perturbation float64,
) (float64, error) {
	if dt <= 0 || steps <= 0 || perturbation <= 0 {
		return 0, fmt.Errorf("dt=%g steps=%d perturbation=%g: %w", dt, steps, perturbation, dynamo.ErrParameterBounds)
	}
	if err := plant.Validate(); err != nil {
		return 0, err
	}

	s := sim.New(stepper)
	base, perturbed := plant, plant
	perturbed.Angle += perturbation
	baseCtrl, perturbedCtrl := newController(), newController()

	sumLog := 0.0
	for i := 0; i < steps; i++ {
		var err error
		if base, err = stepLoop(s, base, baseCtrl, dt); err != nil {
			return 0, fmt.Errorf("step %d: %w", i, err)
		}
		if perturbed, err = stepLoop(s, perturbed, perturbedCtrl, dt); err != nil {
			return 0, fmt.Errorf("step %d (perturbed): %w", i, err)
		}

		x, xp := base.Vector(), perturbed.Vector()
		sep := xp.Sub(x).Norm()
		if sep == 0 {
			return math.Inf(-1), nil
		}
		sumLog += math.Log(sep / perturbation)

		scale := perturbation / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
		perturbed = perturbed.WithVector(xp)
	}

	return sumLog / (float64(steps) * dt), nil
}

// stepLoop is a closed-loop step that tolerates saturation warnings.
func stepLoop(s *sim.Simulator, plant physics.PlantState, ctrl sim.Controller, dt float64) (physics.PlantState, error) {
	next, err := s.Step(plant, ctrl, dt)
	if err != nil && !errors.Is(err, dynamo.ErrInvalidGain) {
		return plant, err
	}
	return next, nil
}
