package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/cartpend/internal/dynamo"
)

// Nominal plant values used for every option that is not supplied.
const (
	DefaultCartMass        = 10.0
	DefaultPendulumMass    = 0.5
	DefaultLength          = 1.0
	DefaultGravity         = 9.81
	DefaultAngle           = 0.0
	DefaultAngularVelocity = 0.0
	DefaultPosition        = 1.0
	DefaultVelocity        = 0.0
	DefaultDisturbance     = 0.0
)

// PlantState is one snapshot of the plant. It is a plain value: every
// hand-off copies it, and a step produces a new PlantState instead of
// modifying the old one.
type PlantState struct {
	CartPendulum

	Angle           float64 // rad from upright, unwrapped
	AngularVelocity float64 // rad/s
	Position        float64 // m
	Velocity        float64 // m/s

	Force       float64 // N, control force applied during the step that produced this state
	Disturbance float64 // N, added to Force
	Time        float64 // s
}

type Option func(*PlantState)

func WithCartMass(v float64) Option        { return func(p *PlantState) { p.CartMass = v } }
func WithPendulumMass(v float64) Option    { return func(p *PlantState) { p.PendulumMass = v } }
func WithLength(v float64) Option          { return func(p *PlantState) { p.Length = v } }
func WithGravity(v float64) Option         { return func(p *PlantState) { p.Gravity = v } }
func WithAngle(v float64) Option           { return func(p *PlantState) { p.Angle = v } }
func WithAngularVelocity(v float64) Option { return func(p *PlantState) { p.AngularVelocity = v } }
func WithPosition(v float64) Option        { return func(p *PlantState) { p.Position = v } }
func WithVelocity(v float64) Option        { return func(p *PlantState) { p.Velocity = v } }
func WithDisturbance(v float64) Option     { return func(p *PlantState) { p.Disturbance = v } }

var mapOptions = map[string]func(float64) Option{
	"cart_mass":         WithCartMass,
	"pendulum_mass":     WithPendulumMass,
	"length":            WithLength,
	"gravity":           WithGravity,
	"angle":             WithAngle,
	"angular_velocity":  WithAngularVelocity,
	"position":          WithPosition,
	"velocity":          WithVelocity,
	"disturbance_force": WithDisturbance,
}

// Default returns the nominal plant at rest at t = 0.
func Default() PlantState {
	return PlantState{
		CartPendulum: CartPendulum{
			CartMass:     DefaultCartMass,
			PendulumMass: DefaultPendulumMass,
			Length:       DefaultLength,
			Gravity:      DefaultGravity,
		},
		Angle:           DefaultAngle,
		AngularVelocity: DefaultAngularVelocity,
		Position:        DefaultPosition,
		Velocity:        DefaultVelocity,
		Disturbance:     DefaultDisturbance,
	}
}

// New builds the initial plant from the nominal values overridden by opts.
func New(opts ...Option) (PlantState, error) {
	p := Default()
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return PlantState{}, err
	}
	return p, nil
}

// FromMap is New driven by option names (cart_mass, pendulum_mass, length,
// gravity, angle, angular_velocity, position, velocity, disturbance_force).
func FromMap(values map[string]float64) (PlantState, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]Option, 0, len(values))
	for _, k := range keys {
		mk, ok := mapOptions[k]
		if !ok {
			return PlantState{}, fmt.Errorf("physics: option %q: %w", k, dynamo.ErrUnknownParameter)
		}
		opts = append(opts, mk(values[k]))
	}
	return New(opts...)
}

// OptionNames lists the names FromMap recognises, sorted.
func OptionNames() []string {
	names := make([]string, 0, len(mapOptions))
	for k := range mapOptions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (p PlantState) Validate() error {
	if err := p.CartPendulum.Validate(); err != nil {
		return err
	}
	if !p.Vector().IsValid() || !dynamo.IsFinite(p.Disturbance) || !dynamo.IsFinite(p.Force) || !dynamo.IsFinite(p.Time) {
		return fmt.Errorf("physics: initial conditions must be finite: %w", dynamo.ErrInvalidState)
	}
	return nil
}

// Vector returns the integrable part [θ, ω, x, v] as a fresh slice.
func (p PlantState) Vector() dynamo.State {
	return dynamo.State{p.Angle, p.AngularVelocity, p.Position, p.Velocity}
}

// WithVector returns a copy of p whose dynamic variables are taken from x.
func (p PlantState) WithVector(x dynamo.State) PlantState {
	p.Angle = x[IdxAngle]
	p.AngularVelocity = x[IdxAngularVelocity]
	p.Position = x[IdxPosition]
	p.Velocity = x[IdxVelocity]
	return p
}

// TotalForce is the horizontal force acting on the cart.
func (p PlantState) TotalForce() float64 {
	return p.Force + p.Disturbance
}

// DerivFunc closes over the plant parameters and the current total force,
// giving the right-hand side the steppers integrate.
func (p PlantState) DerivFunc() dynamo.DerivFunc {
	model := p.CartPendulum
	force := p.TotalForce()
	return func(_ float64, x dynamo.State) (dynamo.State, error) {
		return model.Derive(x, force)
	}
}

// Energy is the mechanical energy of this snapshot.
func (p PlantState) Energy() float64 {
	return p.CartPendulum.Energy(p.Vector())
}

// WrapAngle maps an angle into (-π, π]. The model never wraps; this is for
// reporting and display.
func WrapAngle(theta float64) float64 {
	w := math.Mod(theta+math.Pi, 2*math.Pi)
	if w <= 0 {
		w += 2 * math.Pi
	}
	return w - math.Pi
}
