package sim

import "github.com/san-kum/cartpend/internal/physics"

// Controller decides the cart force from a snapshot of the plant taken
// before the step. An error wrapping dynamo.ErrInvalidGain is recoverable;
// any other error aborts the step.
type Controller interface {
	Compute(snapshot physics.PlantState) (float64, error)
}

type Metric interface {
	Name() string
	Observe(p physics.PlantState)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(p physics.PlantState)
}

type Config struct {
	Dt    float64
	Steps int
}

func (c Config) Duration() float64 {
	return c.Dt * float64(c.Steps)
}

type Result struct {
	// States holds the initial plant followed by one entry per step taken.
	States      []physics.PlantState
	Metrics     map[string]float64
	StepsTaken  int
	Warnings    int
	EnergyDrift float64
}

// Final is the last plant in the history.
func (r *Result) Final() physics.PlantState {
	return r.States[len(r.States)-1]
}

// Series extracts one observable from the history.
func (r *Result) Series(f func(physics.PlantState) float64) []float64 {
	out := make([]float64, len(r.States))
	for i, p := range r.States {
		out[i] = f(p)
	}
	return out
}
