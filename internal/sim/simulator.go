package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/sirupsen/logrus"
)

var defaultStepper = integrators.NewDormandPrince()

// Step advances plant by dt under ctrl using the Dormand-Prince stepper.
//
// The controller sees a copy of plant; its force is held constant over the
// interval. The returned plant carries that force and Time = plant.Time + dt.
// plant itself is never modified. When the controller reports a recoverable
// dynamo.ErrInvalidGain the new plant is returned together with that error.
func Step(plant physics.PlantState, ctrl Controller, dt float64) (physics.PlantState, error) {
	return advance(defaultStepper, plant, ctrl, dt)
}

func advance(stepper dynamo.Stepper, plant physics.PlantState, ctrl Controller, dt float64) (physics.PlantState, error) {
	snapshot := plant

	force, err := ctrl.Compute(snapshot)
	var warning error
	if err != nil {
		if !errors.Is(err, dynamo.ErrInvalidGain) {
			return plant, fmt.Errorf("control: %w", err)
		}
		warning = err
	}
	if !dynamo.IsFinite(force) {
		return plant, fmt.Errorf("control: force %g: %w", force, dynamo.ErrInvalidControlOutput)
	}

	next := plant
	next.Force = force

	x, err := stepper.Advance(next.DerivFunc(), 0, dt, plant.Vector())
	if err != nil {
		return plant, fmt.Errorf("advance: %w", err)
	}

	next = next.WithVector(x)
	next.Time = plant.Time + dt
	return next, warning
}

type Simulator struct {
	stepper   dynamo.Stepper
	metrics   []Metric
	observers []Observer
}

// New returns a simulator using stepper, or Dormand-Prince when nil.
func New(stepper dynamo.Stepper) *Simulator {
	if stepper == nil {
		stepper = integrators.NewDormandPrince()
	}
	return &Simulator{
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Step is the package Step with this simulator's stepper.
func (s *Simulator) Step(plant physics.PlantState, ctrl Controller, dt float64) (physics.PlantState, error) {
	return advance(s.stepper, plant, ctrl, dt)
}

// Run steps plant cfg.Steps times. Recoverable gain errors are logged and
// counted; any other failure stops the run with a *dynamo.SimulationError
// and the history gathered so far.
func (s *Simulator) Run(ctx context.Context, plant physics.PlantState, ctrl Controller, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := plant.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		States:  make([]physics.PlantState, 0, cfg.Steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.States = append(result.States, plant)
	initialEnergy := plant.Energy()

	logrus.Debugf("run: %d steps of %gs from θ=%.5f x=%.5f", cfg.Steps, cfg.Dt, plant.Angle, plant.Position)

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		next, err := s.Step(plant, ctrl, cfg.Dt)
		if err != nil {
			if !errors.Is(err, dynamo.ErrInvalidGain) {
				return result, &dynamo.SimulationError{Step: i, Time: plant.Time, State: plant.Vector(), Wrapped: err}
			}
			result.Warnings++
			logrus.Warnf("[step %05d] t=%.4f: %v", i, plant.Time, err)
		}

		if !next.Vector().IsValid() {
			return result, &dynamo.SimulationError{Step: i, Time: next.Time, State: next.Vector(), Wrapped: dynamo.ErrInvalidState}
		}

		plant = next
		result.StepsTaken++
		result.States = append(result.States, plant)

		for _, m := range s.metrics {
			m.Observe(plant)
		}
		for _, obs := range s.observers {
			obs.OnStep(plant)
		}
	}

	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(plant.Energy()-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	logrus.Debugf("run: done at t=%.4f θ=%.5f x=%.5f, %d warnings", plant.Time, plant.Angle, plant.Position, result.Warnings)

	return result, nil
}

// RunWithCallback steps until the callback returns false, the context ends
// or a step fails. It keeps no history.
func (s *Simulator) RunWithCallback(ctx context.Context, plant physics.PlantState, ctrl Controller, dt float64, callback func(physics.PlantState) bool) error {
	if dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %g: %w", dt, dynamo.ErrParameterBounds)
	}

	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		next, err := s.Step(plant, ctrl, dt)
		if err != nil && !errors.Is(err, dynamo.ErrInvalidGain) {
			return &dynamo.SimulationError{Step: step, Time: plant.Time, State: plant.Vector(), Wrapped: err}
		}
		plant = next

		if !callback(plant) {
			return nil
		}
	}
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 1) {
		return fmt.Errorf("sim: dt must be positive, got %g: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("sim: steps must be positive, got %d: %w", cfg.Steps, dynamo.ErrParameterBounds)
	}
	return nil
}
