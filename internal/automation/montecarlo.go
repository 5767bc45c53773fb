package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
)

// MonteCarloConfig describes a robustness check: the base plant's angle and
// position are perturbed uniformly within the spreads for every trial.
type MonteCarloConfig struct {
	Trials         int
	Seed           int64 // 0 seeds from the clock
	AngleSpread    float64
	PositionSpread float64
	// Threshold is the largest final |angle| (wrapped) that counts as stable.
	Threshold float64
}

type Trial struct {
	ID      int
	Initial physics.PlantState
	Final   physics.PlantState
	Stable  bool
	Err     error
}

// RunMonteCarlo runs all trials concurrently through sim.Sweep. A trial that
// fails is reported as unstable with its error; it does not stop the others.
func RunMonteCarlo(
	ctx context.Context,
	mc MonteCarloConfig,
	base physics.PlantState,
	newController func() sim.Controller,
	newStepper func() dynamo.Stepper,
	cfg sim.Config,
) ([]Trial, error) {
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d: %w", mc.Trials, dynamo.ErrParameterBounds)
	}
	if mc.AngleSpread < 0 || mc.PositionSpread < 0 || mc.Threshold < 0 {
		return nil, fmt.Errorf("spreads and threshold must be non-negative: %w", dynamo.ErrParameterBounds)
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	cases := make([]sim.Case, mc.Trials)
	for i := range cases {
		p := base
		p.Angle += (rng.Float64()*2 - 1) * mc.AngleSpread
		p.Position += (rng.Float64()*2 - 1) * mc.PositionSpread
		cases[i] = sim.Case{
			Name:       fmt.Sprintf("trial %d", i),
			Plant:      p,
			Controller: newController,
			Stepper:    newStepper,
		}
	}

	outcomes := sim.Sweep(ctx, cases, cfg)

	trials := make([]Trial, len(outcomes))
	for i, o := range outcomes {
		t := Trial{ID: i, Initial: cases[i].Plant, Err: o.Err}
		if o.Result != nil && len(o.Result.States) > 0 {
			t.Final = o.Result.Final()
		}
		t.Stable = o.Err == nil && t.Final.Vector().IsValid() &&
			math.Abs(physics.WrapAngle(t.Final.Angle)) <= mc.Threshold
		trials[i] = t
	}
	return trials, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(trials []Trial) (stable, unstable int) {
	for _, t := range trials {
		if t.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
