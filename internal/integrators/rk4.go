package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
)

// RK4 is the classic fixed-step fourth order method. Advance splits dt into
// SubSteps equal steps.
type RK4 struct {
	SubSteps int
}

func NewRK4() *RK4 {
	return &RK4{SubSteps: 10}
}

func (r *RK4) Advance(f dynamo.DerivFunc, t0, dt float64, x0 dynamo.State) (dynamo.State, error) {
	return fixedSteps(f, t0, dt, x0, r.SubSteps, r.step)
}

func (r *RK4) step(f dynamo.DerivFunc, x dynamo.State, t, h float64) (dynamo.State, error) {
	n := len(x)
	scratch := make(dynamo.State, n)

	k1, err := eval(f, t, x)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + h*0.5*k1[i]
	}
	k2, err := eval(f, t+h*0.5, scratch)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + h*0.5*k2[i]
	}
	k3, err := eval(f, t+h*0.5, scratch)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + h*k3[i]
	}
	k4, err := eval(f, t+h, scratch)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + h6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result, nil
}

type stepFunc func(f dynamo.DerivFunc, x dynamo.State, t, h float64) (dynamo.State, error)

func fixedSteps(f dynamo.DerivFunc, t0, dt float64, x0 dynamo.State, subSteps int, step stepFunc) (dynamo.State, error) {
	if dt == 0 {
		return x0.Clone(), nil
	}
	if !(dt > 0) || math.IsInf(dt, 1) {
		return nil, fmt.Errorf("dt %g must be positive and finite: %w", dt, dynamo.ErrIntegration)
	}
	if subSteps < 1 {
		subSteps = 1
	}

	h := dt / float64(subSteps)
	x := x0.Clone()
	for i := 0; i < subSteps; i++ {
		next, err := step(f, x, t0+float64(i)*h, h)
		if err != nil {
			return nil, err
		}
		if !next.IsValid() {
			return nil, fmt.Errorf("state diverged at t=%g: %w", t0+float64(i+1)*h, dynamo.ErrIntegration)
		}
		x = next
	}
	return x, nil
}
