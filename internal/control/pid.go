package control

import (
	"fmt"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

// Signal extracts the regulated variable from a snapshot.
type Signal func(physics.PlantState) float64

var (
	CartPosition Signal = func(p physics.PlantState) float64 { return p.Position }
	PoleAngle    Signal = func(p physics.PlantState) float64 { return p.Angle }
)

// Bounds are output saturation limits. The pair (0, 0), NoSaturation, is a
// sentinel meaning "no saturation"; a symmetric zero band cannot be expressed.
type Bounds struct {
	Lower float64
	Upper float64
}

var NoSaturation = Bounds{}

func (b Bounds) Active() bool { return b != NoSaturation }

type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// State is the complete controller memory. Integral changes only inside
// Compute: it accumulates error over time and is back-calculated whenever
// anti-windup clamps the output.
type State struct {
	Setpoint float64
	Gains
	Bounds
	AntiWindup bool

	Integral  float64
	PrevTime  float64
	PrevError float64
}

// Terms describes the most recent Compute call.
type Terms struct {
	Error      float64
	Derivative float64
	P, I, D    float64
	Raw        float64
	Output     float64
	Clamped    bool
}

type PID struct {
	state  State
	signal Signal
	last   Terms
}

type Option func(*PID)

func WithBounds(lower, upper float64) Option {
	return func(p *PID) { p.state.Bounds = Bounds{Lower: lower, Upper: upper} }
}

func WithAntiWindup(enabled bool) Option {
	return func(p *PID) { p.state.AntiWindup = enabled }
}

// WithSignal selects the regulated variable. The default is CartPosition.
func WithSignal(s Signal) Option {
	return func(p *PID) { p.signal = s }
}

func NewPID(kp, ki, kd, setpoint float64, opts ...Option) *PID {
	p := &PID{
		state: State{
			Setpoint: setpoint,
			Gains:    Gains{Kp: kp, Ki: ki, Kd: kd},
		},
		signal: CartPosition,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compute returns the control force for snapshot, whose Time must be the
// plant time before the step being decided.
//
// With anti-windup enabled, active bounds and Ki == 0 an out-of-bounds
// output cannot be back-calculated: the unclamped output is returned along
// with an error wrapping dynamo.ErrInvalidGain.
func (p *PID) Compute(snapshot physics.PlantState) (float64, error) {
	s := &p.state

	e := s.Setpoint - p.signal(snapshot)
	dt := snapshot.Time - s.PrevTime

	derivative := 0.0
	if dt != 0 {
		derivative = (e - s.PrevError) / dt
	}

	s.Integral += dt * e

	raw := s.Kp*e + s.Ki*s.Integral + s.Kd*derivative
	out := raw
	clamped := false

	var err error
	if s.Bounds.Active() && s.AntiWindup {
		outside := raw > s.Upper || raw < s.Lower
		switch {
		case s.Ki != 0:
			if raw > s.Upper {
				out = s.Upper
			} else if raw < s.Lower {
				out = s.Lower
			}
			clamped = outside
			s.Integral = (out - s.Kp*e - s.Kd*derivative) / s.Ki
		case outside:
			err = fmt.Errorf("pid: output %g outside [%g, %g] left unclamped: %w", raw, s.Lower, s.Upper, dynamo.ErrInvalidGain)
		}
	}

	s.PrevTime = snapshot.Time
	s.PrevError = e

	p.last = Terms{
		Error:      e,
		Derivative: derivative,
		P:          s.Kp * e,
		I:          s.Ki * s.Integral,
		D:          s.Kd * derivative,
		Raw:        raw,
		Output:     out,
		Clamped:    clamped,
	}

	return out, err
}

// State returns a copy of the controller memory.
func (p *PID) State() State { return p.state }

// Last returns the terms of the most recent Compute call.
func (p *PID) Last() Terms { return p.last }

// Reset clears integral and derivative memory; gains and bounds are kept.
func (p *PID) Reset() {
	p.state.Integral = 0
	p.state.PrevError = 0
	p.state.PrevTime = 0
	p.last = Terms{}
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":       p.state.Kp,
		"Ki":       p.state.Ki,
		"Kd":       p.state.Kd,
		"Setpoint": p.state.Setpoint,
		"Lower":    p.state.Lower,
		"Upper":    p.state.Upper,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.state.Kp = value
	case "Ki":
		p.state.Ki = value
	case "Kd":
		p.state.Kd = value
	case "Setpoint":
		p.state.Setpoint = value
	case "Lower":
		p.state.Lower = value
	case "Upper":
		p.state.Upper = value
	default:
		return fmt.Errorf("pid: %q: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}
