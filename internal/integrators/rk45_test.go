package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cartpend/internal/dynamo"
)

func harmonic(t float64, x dynamo.State) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func harmonicEnergy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestDormandPrince_Accuracy(t *testing.T) {
	integrator := NewDormandPrince()
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	var err error
	for i := 0; i < 1000; i++ {
		x, err = integrator.Advance(harmonic, float64(i)*dt, dt, x)
		if err != nil {
			t.Fatalf("Advance failed at step %d: %v", i, err)
		}
	}

	if math.Abs(x[0]-math.Cos(10)) > 1e-8 {
		t.Errorf("position %.12f, exact %.12f", x[0], math.Cos(10))
	}
	if math.Abs(x[1]+math.Sin(10)) > 1e-8 {
		t.Errorf("velocity %.12f, exact %.12f", x[1], -math.Sin(10))
	}
}

func TestDormandPrince_LongIntervalSubSteps(t *testing.T) {
	integrator := NewDormandPrince()
	x, err := integrator.Advance(harmonic, 0, 10, dynamo.State{1.0, 0.0})
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	if math.Abs(x[0]-math.Cos(10)) > 1e-8 {
		t.Errorf("position %.12f, exact %.12f", x[0], math.Cos(10))
	}
	if drift := math.Abs(harmonicEnergy(x) - 0.5); drift > 1e-8 {
		t.Errorf("energy drift too high: %e", drift)
	}
}

func TestDormandPrince_ZeroDtReturnsInitialState(t *testing.T) {
	integrator := NewDormandPrince()
	x0 := dynamo.State{0.3, -1.2, 4.0, 0.5}
	calls := 0
	f := func(t float64, x dynamo.State) (dynamo.State, error) {
		calls++
		return dynamo.State{1, 1, 1, 1}, nil
	}

	x, err := integrator.Advance(f, 2.5, 0, x0)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	for i := range x0 {
		if x[i] != x0[i] {
			t.Errorf("x[%d] = %g, want %g", i, x[i], x0[i])
		}
	}
	if calls != 0 {
		t.Errorf("derivative evaluated %d times for dt=0", calls)
	}

	x[0] = 99
	if x0[0] != 0.3 {
		t.Error("result aliases the initial state")
	}
}

func TestDormandPrince_SamplesWithinInterval(t *testing.T) {
	integrator := NewDormandPrince()
	t0, dt := 1.0, 0.37
	maxT, minT := math.Inf(-1), math.Inf(1)
	f := func(t float64, x dynamo.State) (dynamo.State, error) {
		maxT = math.Max(maxT, t)
		minT = math.Min(minT, t)
		return dynamo.State{x[1], -25 * x[0]}, nil
	}

	if _, err := integrator.Advance(f, t0, dt, dynamo.State{1, 0}); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if minT < t0 || maxT > t0+dt+1e-12 {
		t.Errorf("derivative sampled on [%g, %g], outside [%g, %g]", minT, maxT, t0, t0+dt)
	}
}

func TestDormandPrince_Errors(t *testing.T) {
	custom := errors.New("boom")

	tests := []struct {
		name  string
		f     dynamo.DerivFunc
		dt    float64
		x0    dynamo.State
		steps int
		also  error
	}{
		{
			name: "NaN derivative",
			f: func(t float64, x dynamo.State) (dynamo.State, error) {
				return dynamo.State{math.NaN()}, nil
			},
			dt: 0.1, x0: dynamo.State{1},
		},
		{
			name: "Inf derivative after first stage",
			f: func(t float64, x dynamo.State) (dynamo.State, error) {
				if t > 0 {
					return dynamo.State{math.Inf(1)}, nil
				}
				return dynamo.State{1}, nil
			},
			dt: 0.1, x0: dynamo.State{1},
		},
		{
			name: "derivative error",
			f: func(t float64, x dynamo.State) (dynamo.State, error) {
				return nil, custom
			},
			dt: 0.1, x0: dynamo.State{1}, also: custom,
		},
		{
			name: "wrong derivative length",
			f: func(t float64, x dynamo.State) (dynamo.State, error) {
				return dynamo.State{1, 2, 3}, nil
			},
			dt: 0.1, x0: dynamo.State{1},
		},
		{name: "negative dt", f: harmonic, dt: -0.1, x0: dynamo.State{1, 0}},
		{name: "NaN dt", f: harmonic, dt: math.NaN(), x0: dynamo.State{1, 0}},
		{name: "invalid initial state", f: harmonic, dt: 0.1, x0: dynamo.State{math.Inf(1), 0}},
		{name: "step budget", f: harmonic, dt: 10, x0: dynamo.State{1, 0}, steps: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integrator := NewDormandPrince()
			if tt.steps > 0 {
				integrator.MaxSteps = tt.steps
			}

			_, err := integrator.Advance(tt.f, 0, tt.dt, tt.x0)
			if !errors.Is(err, dynamo.ErrIntegration) {
				t.Fatalf("expected ErrIntegration, got %v", err)
			}
			if tt.also != nil && !errors.Is(err, tt.also) {
				t.Errorf("expected error chain to contain %v, got %v", tt.also, err)
			}
		})
	}
}

func TestDormandPrince_StatelessAcrossCalls(t *testing.T) {
	integrator := NewDormandPrince()
	x0 := dynamo.State{1, 0}

	first, err := integrator.Advance(harmonic, 0, 3, x0)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if _, err := integrator.Advance(harmonic, 0, 0.001, x0); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	second, err := integrator.Advance(harmonic, 0, 3, x0)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("x[%d]: %v then %v for identical calls", i, first[i], second[i])
		}
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		s, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", name, err)
		}
		x, err := s.Advance(harmonic, 0, 0.1, dynamo.State{1, 0})
		if err != nil {
			t.Fatalf("%s: Advance failed: %v", name, err)
		}
		if math.Abs(x[0]-math.Cos(0.1)) > 1e-4 {
			t.Errorf("%s: position %.8f, exact %.8f", name, x[0], math.Cos(0.1))
		}
	}

	if _, err := Get("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
