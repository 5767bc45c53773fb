package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/cartpend/internal/physics"
)

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	if m.Value() != 0 {
		t.Fatal("expected zero effort before samples")
	}

	for _, f := range []float64{2, -4, 0} {
		m.Observe(physics.PlantState{Force: f})
	}

	if m.Value() != 2 {
		t.Errorf("expected mean effort 2, got %g", m.Value())
	}
	if m.Peak() != 4 {
		t.Errorf("expected peak 4, got %g", m.Peak())
	}

	m.Reset()
	if m.Value() != 0 || m.Peak() != 0 {
		t.Error("expected reset to clear effort")
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name   string
		angles []float64
		want   float64
	}{
		{"no samples", nil, 1},
		{"upright", []float64{0, 0.05, -0.1}, 1},
		{"fallen", []float64{0, 1, -1, 0}, 0.5},
		{"full turn is upright", []float64{2 * math.Pi, -2 * math.Pi}, 1},
		{"hanging", []float64{math.Pi}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStability(0.2)
			for _, a := range tt.angles {
				m.Observe(physics.PlantState{Angle: a})
			}
			if got := m.Value(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %g, got %g", tt.want, got)
			}
		})
	}
}

func TestStandard(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Standard() {
		names[m.Name()] = true
	}

	for _, want := range []string{"control_effort", "stability", "energy", "energy_drift"} {
		if !names[want] {
			t.Errorf("missing metric %q", want)
		}
	}
}
