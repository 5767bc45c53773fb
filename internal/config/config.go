package config

import (
	"fmt"
	"os"

	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt    = 0.02
	DefaultSteps = 500
	DefaultKp    = 2.0
	DefaultKi    = 0.0001
	DefaultKd    = 1.5
)

// Controller kinds.
const (
	ControllerPID  = "pid"
	ControllerLQR  = "lqr"
	ControllerNone = "none"
)

// Signals a PID can regulate.
const (
	SignalPosition = "position"
	SignalAngle    = "angle"
)

type Config struct {
	Integrator string      `yaml:"integrator"`
	Controller string      `yaml:"controller"`
	Dt         float64     `yaml:"dt"`
	Steps      int         `yaml:"steps"`
	Plant      PlantConfig `yaml:"plant"`
	PID        PIDConfig   `yaml:"pid"`
	LQR        LQRConfig   `yaml:"lqr"`
}

type PlantConfig struct {
	CartMass        float64 `yaml:"cart_mass"`
	PendulumMass    float64 `yaml:"pendulum_mass"`
	Length          float64 `yaml:"length"`
	Gravity         float64 `yaml:"gravity"`
	Angle           float64 `yaml:"angle"`
	AngularVelocity float64 `yaml:"angular_velocity"`
	Position        float64 `yaml:"position"`
	Velocity        float64 `yaml:"velocity"`
	Disturbance     float64 `yaml:"disturbance_force"`
}

// PIDConfig mirrors control.State. Lower and Upper both zero means no
// saturation.
type PIDConfig struct {
	Kp         float64 `yaml:"kp"`
	Ki         float64 `yaml:"ki"`
	Kd         float64 `yaml:"kd"`
	Setpoint   float64 `yaml:"setpoint"`
	Lower      float64 `yaml:"lower"`
	Upper      float64 `yaml:"upper"`
	AntiWindup bool    `yaml:"anti_windup"`
	Signal     string  `yaml:"signal"`
}

// LQRConfig holds full-state gains; empty K selects the nominal gains.
type LQRConfig struct {
	K      []float64 `yaml:"k,flow,omitempty"`
	Target float64   `yaml:"target"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: "dopri",
		Controller: ControllerPID,
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Plant:      defaultPlant(),
		PID: PIDConfig{
			Kp:     DefaultKp,
			Ki:     DefaultKi,
			Kd:     DefaultKd,
			Signal: SignalPosition,
		},
	}
}

func defaultPlant() PlantConfig {
	return PlantConfig{
		CartMass:     physics.DefaultCartMass,
		PendulumMass: physics.DefaultPendulumMass,
		Length:       physics.DefaultLength,
		Gravity:      physics.DefaultGravity,
		Position:     physics.DefaultPosition,
	}
}

// Load reads a YAML file over DefaultConfig, so omitted keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.LQR.K = append([]float64(nil), c.LQR.K...)
	return &out
}

func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("config: dt must be positive, got %g: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("config: steps must be positive, got %d: %w", c.Steps, dynamo.ErrParameterBounds)
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.NewPlant(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch c.Controller {
	case ControllerPID:
		if c.PID.Lower > c.PID.Upper {
			return fmt.Errorf("config: pid bounds [%g, %g] are reversed: %w", c.PID.Lower, c.PID.Upper, dynamo.ErrParameterBounds)
		}
		if _, err := c.signal(); err != nil {
			return err
		}
	case ControllerLQR:
		if n := len(c.LQR.K); n != 0 && n != physics.StateDim {
			return fmt.Errorf("config: lqr needs %d gains, got %d: %w", physics.StateDim, n, dynamo.ErrDimensionMismatch)
		}
	case ControllerNone:
	default:
		return fmt.Errorf("config: unknown controller %q", c.Controller)
	}
	return nil
}

// PlantOptions converts the plant section into physics options.
func (c *Config) PlantOptions() []physics.Option {
	p := c.Plant
	return []physics.Option{
		physics.WithCartMass(p.CartMass),
		physics.WithPendulumMass(p.PendulumMass),
		physics.WithLength(p.Length),
		physics.WithGravity(p.Gravity),
		physics.WithAngle(p.Angle),
		physics.WithAngularVelocity(p.AngularVelocity),
		physics.WithPosition(p.Position),
		physics.WithVelocity(p.Velocity),
		physics.WithDisturbance(p.Disturbance),
	}
}

func (c *Config) NewPlant() (physics.PlantState, error) {
	return physics.New(c.PlantOptions()...)
}

// BuildController returns a fresh controller; each run needs its own.
func (c *Config) BuildController() (sim.Controller, error) {
	switch c.Controller {
	case ControllerPID:
		signal, err := c.signal()
		if err != nil {
			return nil, err
		}
		p := c.PID
		return control.NewPID(p.Kp, p.Ki, p.Kd, p.Setpoint,
			control.WithBounds(p.Lower, p.Upper),
			control.WithAntiWindup(p.AntiWindup),
			control.WithSignal(signal),
		), nil
	case ControllerLQR:
		if len(c.LQR.K) == 0 {
			return control.NewCartPendulumLQR(c.LQR.Target), nil
		}
		k := append([]float64(nil), c.LQR.K...)
		return control.NewLQR(k, dynamo.State{0, 0, c.LQR.Target, 0}), nil
	case ControllerNone:
		return control.NewNone(), nil
	default:
		return nil, fmt.Errorf("config: unknown controller %q", c.Controller)
	}
}

func (c *Config) NewStepper() (dynamo.Stepper, error) {
	return integrators.Get(c.Integrator)
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{Dt: c.Dt, Steps: c.Steps}
}

// Objective returns the variable the configured controller regulates and its
// setpoint: the PID signal, the LQR cart target, or the upright angle when
// the loop is open.
func (c *Config) Objective() (control.Signal, float64, error) {
	switch c.Controller {
	case ControllerPID:
		s, err := c.signal()
		return s, c.PID.Setpoint, err
	case ControllerLQR:
		return control.CartPosition, c.LQR.Target, nil
	default:
		return control.PoleAngle, 0, nil
	}
}

func (c *Config) signal() (control.Signal, error) {
	switch c.PID.Signal {
	case "", SignalPosition:
		return control.CartPosition, nil
	case SignalAngle:
		return control.PoleAngle, nil
	default:
		return nil, fmt.Errorf("config: unknown pid signal %q", c.PID.Signal)
	}
}
