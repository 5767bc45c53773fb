package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cartpend/internal/dynamo"
)

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	var err error
	for i := 0; i < steps; i++ {
		x, err = integ.Advance(harmonic, float64(i)*dt, dt, x)
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-10 {
		t.Errorf("position error too large: got %.12f, expected %.12f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-10 {
		t.Errorf("velocity error too large: got %.12f, expected %.12f", x[1], expectedV)
	}
}

func TestEulerAccuracy(t *testing.T) {
	integ := NewEuler()

	x, err := integ.Advance(harmonic, 0, 1, dynamo.State{1.0, 0.0})
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if math.Abs(x[0]-math.Cos(1)) > 1e-2 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], math.Cos(1))
	}
}

func TestFixedStepZeroDt(t *testing.T) {
	for _, s := range []dynamo.Stepper{NewRK4(), NewEuler()} {
		x0 := dynamo.State{0.5, 0.25}
		x, err := s.Advance(harmonic, 0, 0, x0)
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if x[0] != x0[0] || x[1] != x0[1] {
			t.Errorf("%T changed state for dt=0: %v", s, x)
		}
	}
}

func TestFixedStepDivergence(t *testing.T) {
	blowUp := func(t float64, x dynamo.State) (dynamo.State, error) {
		return dynamo.State{x[0] * x[0] * 1e200}, nil
	}
	_, err := NewEuler().Advance(blowUp, 0, 1, dynamo.State{1e100})
	if !errors.Is(err, dynamo.ErrIntegration) {
		t.Errorf("expected ErrIntegration, got %v", err)
	}
}
