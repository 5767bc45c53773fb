package analysis

import (
	"math"

	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
)

// Response summarises how an observed signal approached a setpoint.
type Response struct {
	Initial  float64
	Peak     float64 // largest |setpoint - value| after the first sample
	PeakTime float64
	// Overshoot is the furthest excursion past the setpoint, relative to the
	// initial error. Zero when the run started on the setpoint.
	Overshoot        float64
	SettlingTime     float64
	Settled          bool
	SteadyStateError float64
}

// StepResponse measures signal over r against setpoint. The run counts as
// settled once every later sample stays within band of the setpoint.
func StepResponse(r *sim.Result, signal func(physics.PlantState) float64, setpoint, band float64) Response {
	var resp Response
	if r == nil || len(r.States) == 0 {
		return resp
	}

	resp.Initial = signal(r.States[0])
	initialErr := setpoint - resp.Initial
	direction := math.Copysign(1, initialErr)

	lastOutside := -1
	past := 0.0
	for i, p := range r.States {
		e := setpoint - signal(p)
		if i > 0 && math.Abs(e) > resp.Peak {
			resp.Peak = math.Abs(e)
			resp.PeakTime = p.Time
		}
		if initialErr != 0 {
			past = max(past, -e*direction)
		}
		if math.Abs(e) > band {
			lastOutside = i
		}
	}

	if initialErr != 0 {
		resp.Overshoot = past / math.Abs(initialErr)
	}

	final := r.States[len(r.States)-1]
	resp.SteadyStateError = setpoint - signal(final)
	if lastOutside < len(r.States)-1 {
		resp.Settled = true
		resp.SettlingTime = r.States[lastOutside+1].Time
	}
	return resp
}
