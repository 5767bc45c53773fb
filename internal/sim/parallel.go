package sim

import (
	"context"
	"sync"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

// Case is one independent run of a sweep. Controller, Stepper and Metrics
// are factories so that no state is shared between goroutines.
type Case struct {
	Name       string
	Plant      physics.PlantState
	Controller func() Controller
	Stepper    func() dynamo.Stepper
	Metrics    func() []Metric
}

type Outcome struct {
	Name   string
	Result *Result
	Err    error
}

// Sweep runs every case concurrently. Outcomes are returned in case order;
// a failing case does not stop the others.
func Sweep(ctx context.Context, cases []Case, cfg Config) []Outcome {
	outcomes := make([]Outcome, len(cases))

	var wg sync.WaitGroup
	for i := range cases {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			c := cases[idx]
			var stepper dynamo.Stepper
			if c.Stepper != nil {
				stepper = c.Stepper()
			}

			sim := New(stepper)
			if c.Metrics != nil {
				for _, m := range c.Metrics() {
					sim.AddMetric(m)
				}
			}

			res, err := sim.Run(ctx, c.Plant, c.Controller(), cfg)
			outcomes[idx] = Outcome{Name: c.Name, Result: res, Err: err}
		}(i)
	}

	wg.Wait()
	return outcomes
}
