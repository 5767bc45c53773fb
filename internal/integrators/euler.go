package integrators

import "github.com/san-kum/cartpend/internal/dynamo"

type Euler struct {
	SubSteps int
}

func NewEuler() *Euler {
	return &Euler{SubSteps: 100}
}

func (e *Euler) Advance(f dynamo.DerivFunc, t0, dt float64, x0 dynamo.State) (dynamo.State, error) {
	return fixedSteps(f, t0, dt, x0, e.SubSteps, e.step)
}

func (e *Euler) step(f dynamo.DerivFunc, x dynamo.State, t, h float64) (dynamo.State, error) {
	dx, err := eval(f, t, x)
	if err != nil {
		return nil, err
	}
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + h*dx[i]
	}
	return result, nil
}
