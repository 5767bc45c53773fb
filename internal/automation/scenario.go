package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Scenario scripts one continuous run as a sequence of phases. Each phase
// starts from the plant and controller the previous one left behind.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Phases      []Phase `yaml:"phases"`
}

// Phase changes the loop at its start and then runs Steps steps.
type Phase struct {
	Name  string `yaml:"name"`
	Steps int    `yaml:"steps"`
	// Disturbance replaces the constant force on the cart; nil keeps it.
	Disturbance *float64 `yaml:"disturbance,omitempty"`
	// Kick is added to the angular velocity, like a tap on the pole.
	Kick float64 `yaml:"kick,omitempty"`
	// Params are set on the controller by name (Kp, Setpoint, ...).
	Params map[string]float64 `yaml:"params,omitempty"`
}

type PhaseResult struct {
	Name   string
	Result *sim.Result
}

// LoadScenario loads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("no phases: %w", dynamo.ErrParameterBounds)
	}
	for i, p := range s.Phases {
		if p.Steps <= 0 {
			return fmt.Errorf("phase %d: steps must be positive, got %d: %w", i+1, p.Steps, dynamo.ErrParameterBounds)
		}
		if p.Disturbance != nil && !dynamo.IsFinite(*p.Disturbance) {
			return fmt.Errorf("phase %d: disturbance %g: %w", i+1, *p.Disturbance, dynamo.ErrParameterBounds)
		}
		if !dynamo.IsFinite(p.Kick) {
			return fmt.Errorf("phase %d: kick %g: %w", i+1, p.Kick, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// RunScenario executes the phases in order on one plant and controller. On
// failure it returns the phases completed so far, including the failing one
// when it produced any history.
func RunScenario(ctx context.Context, scenario *Scenario, s *sim.Simulator, plant physics.PlantState, ctrl sim.Controller, dt float64) ([]PhaseResult, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	results := make([]PhaseResult, 0, len(scenario.Phases))
	for i, phase := range scenario.Phases {
		name := phase.Name
		if name == "" {
			name = fmt.Sprintf("phase %d", i+1)
		}
		logrus.Infof("scenario %s: %s (%d steps)", scenario.Name, name, phase.Steps)

		if err := applyParams(ctrl, phase.Params); err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		if phase.Disturbance != nil {
			plant.Disturbance = *phase.Disturbance
		}
		plant.AngularVelocity += phase.Kick

		res, err := s.Run(ctx, plant, ctrl, sim.Config{Dt: dt, Steps: phase.Steps})
		if res != nil {
			results = append(results, PhaseResult{Name: name, Result: res})
		}
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		plant = res.Final()
	}

	return results, nil
}

func applyParams(ctrl sim.Controller, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	tunable, ok := ctrl.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("controller has no tunable parameters: %w", dynamo.ErrUnknownParameter)
	}
	for name, v := range params {
		if err := tunable.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}
