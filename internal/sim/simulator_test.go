package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(p physics.PlantState) {
	t.count++
	t.sum += p.Force
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

type testObserver struct {
	times []float64
}

func (o *testObserver) OnStep(p physics.PlantState) { o.times = append(o.times, p.Time) }

type nanAfter struct {
	calls, limit int
}

func (n *nanAfter) Compute(physics.PlantState) (float64, error) {
	n.calls++
	if n.calls > n.limit {
		return math.NaN(), nil
	}
	return 0, nil
}

func TestSimulatorRun(t *testing.T) {
	s := New(nil)
	plant := physics.Default()

	result, err := s.Run(context.Background(), plant, control.NewNone(), Config{Dt: 0.1, Steps: 10})
	require.NoError(t, err)

	assert.Len(t, result.States, 11)
	assert.Equal(t, 10, result.StepsTaken)
	assert.Zero(t, result.Warnings)
	assert.Equal(t, plant, result.States[0])
	assert.InDelta(t, 1.0, result.Final().Time, 1e-12)

	times := result.Series(func(p physics.PlantState) float64 { return p.Time })
	for i := 1; i < len(times); i++ {
		assert.Greater(t, times[i], times[i-1])
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Steps: 10}},
		{"negative dt", Config{Dt: -0.1, Steps: 10}},
		{"nan dt", Config{Dt: math.NaN(), Steps: 10}},
		{"zero steps", Config{Dt: 0.1, Steps: 0}},
		{"negative steps", Config{Dt: 0.1, Steps: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), physics.Default(), control.NewNone(), tt.cfg)
			assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
		})
	}
}

func TestSimulatorRejectsInvalidPlant(t *testing.T) {
	plant := physics.Default()
	plant.Angle = math.Inf(1)

	_, err := New(nil).Run(context.Background(), plant, control.NewNone(), Config{Dt: 0.1, Steps: 1})
	assert.ErrorIs(t, err, dynamo.ErrInvalidState)
}

func TestSimulatorMetricsAndObservers(t *testing.T) {
	s := New(integrators.NewRK4())
	metric := &testMetric{}
	obs := &testObserver{}
	s.AddMetric(metric)
	s.AddObserver(obs)

	plant := physics.Default()
	pid := control.NewPID(1, 0, 0, 0)

	result, err := s.Run(context.Background(), plant, pid, Config{Dt: 0.05, Steps: 20})
	require.NoError(t, err)

	assert.Equal(t, 20, metric.count)
	assert.Contains(t, result.Metrics, "test")
	assert.Less(t, result.Metrics["test"], 0.0)
	require.Len(t, obs.times, 20)
	assert.InDelta(t, 0.05, obs.times[0], 1e-12)
}

func TestSimulatorCountsGainWarnings(t *testing.T) {
	pid := control.NewPID(10, 0, 0, 0, control.WithBounds(-5, 5), control.WithAntiWindup(true))

	result, err := New(nil).Run(context.Background(), physics.Default(), pid, Config{Dt: 0.02, Steps: 10})
	require.NoError(t, err)

	assert.Equal(t, 10, result.Warnings)
	assert.Equal(t, 10, result.StepsTaken)
	assert.Less(t, result.Final().Force, -5.0)
}

func TestSimulatorStopsOnInvalidControl(t *testing.T) {
	ctrl := &nanAfter{limit: 3}

	result, err := New(nil).Run(context.Background(), physics.Default(), ctrl, Config{Dt: 0.02, Steps: 10})
	require.Error(t, err)

	var simErr *dynamo.SimulationError
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, 3, simErr.Step)
	assert.InDelta(t, 0.06, simErr.Time, 1e-12)
	assert.ErrorIs(t, err, dynamo.ErrInvalidControlOutput)

	assert.Equal(t, 3, result.StepsTaken)
	assert.Len(t, result.States, 4)
}

func TestSimulatorContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(nil).Run(ctx, physics.Default(), control.NewNone(), Config{Dt: 0.02, Steps: 10})
	assert.ErrorIs(t, err, dynamo.ErrContextCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.StepsTaken)
}

func TestSimulatorEnergyDrift(t *testing.T) {
	plant, err := physics.New(physics.WithAngle(0.5))
	require.NoError(t, err)

	result, err := New(nil).Run(context.Background(), plant, control.NewNone(), Config{Dt: 0.02, Steps: 250})
	require.NoError(t, err)
	assert.Less(t, result.EnergyDrift, 1e-8)
}

func TestRunWithCallback(t *testing.T) {
	var seen int
	err := New(nil).RunWithCallback(context.Background(), physics.Default(), control.NewNone(), 0.02, func(p physics.PlantState) bool {
		seen++
		return p.Time < 0.1-1e-9
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)

	err = New(nil).RunWithCallback(context.Background(), physics.Default(), control.NewNone(), 0, func(physics.PlantState) bool { return true })
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
}

func TestSweep(t *testing.T) {
	hanging, err := physics.New(physics.WithAngle(math.Pi))
	require.NoError(t, err)

	cases := []Case{
		{
			Name:       "balance",
			Plant:      physics.Default(),
			Controller: func() Controller { return control.NewCartPendulumLQR(1) },
			Metrics:    func() []Metric { return []Metric{&testMetric{}} },
		},
		{
			Name:       "hanging",
			Plant:      hanging,
			Controller: func() Controller { return control.NewNone() },
			Stepper:    func() dynamo.Stepper { return integrators.NewRK4() },
		},
		{
			Name:       "broken",
			Plant:      physics.Default(),
			Controller: func() Controller { return &nanAfter{limit: 1} },
		},
	}

	outcomes := Sweep(context.Background(), cases, Config{Dt: 0.02, Steps: 25})
	require.Len(t, outcomes, 3)

	assert.Equal(t, "balance", outcomes[0].Name)
	require.NoError(t, outcomes[0].Err)
	assert.Contains(t, outcomes[0].Result.Metrics, "test")

	require.NoError(t, outcomes[1].Err)
	assert.InDelta(t, math.Pi, outcomes[1].Result.Final().Angle, 1e-9)

	assert.ErrorIs(t, outcomes[2].Err, dynamo.ErrInvalidControlOutput)
}
