package main

import (
	"fmt"

	"github.com/san-kum/cartpend/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagOverrides are applied on top of preset and config file, but only for
// flags the user actually set.
type flagOverrides struct {
	dt          float64
	steps       int
	integrator  string
	controller  string
	kp, ki, kd  float64
	setpoint    float64
	lower       float64
	upper       float64
	antiWindup  bool
	signal      string
	target      float64
	angle       float64
	omega       float64
	pos         float64
	vel         float64
	disturbance float64
	cartMass    float64
	bobMass     float64
	length      float64
}

func addSimFlags(cmd *cobra.Command, o *flagOverrides) {
	f := cmd.Flags()
	f.Float64Var(&o.dt, "dt", config.DefaultDt, "outer timestep (s)")
	f.IntVar(&o.steps, "steps", config.DefaultSteps, "number of steps")
	f.StringVar(&o.integrator, "integrator", "dopri", "integrator (dopri, rk4, euler)")
	f.StringVar(&o.controller, "controller", config.ControllerPID, "controller (pid, lqr, none)")
	f.Float64Var(&o.kp, "kp", config.DefaultKp, "pid kp")
	f.Float64Var(&o.ki, "ki", config.DefaultKi, "pid ki")
	f.Float64Var(&o.kd, "kd", config.DefaultKd, "pid kd")
	f.Float64Var(&o.setpoint, "setpoint", 0, "pid setpoint")
	f.Float64Var(&o.lower, "lower", 0, "pid lower output bound")
	f.Float64Var(&o.upper, "upper", 0, "pid upper output bound (lower=upper=0 disables saturation)")
	f.BoolVar(&o.antiWindup, "anti-windup", false, "enable back-calculation anti-windup")
	f.StringVar(&o.signal, "signal", config.SignalPosition, "pid regulated variable (position, angle)")
	f.Float64Var(&o.target, "target", 0, "lqr target cart position")
	f.Float64Var(&o.angle, "angle", 0, "initial pole angle (rad, 0 = upright)")
	f.Float64Var(&o.omega, "omega", 0, "initial angular velocity")
	f.Float64Var(&o.pos, "pos", 1, "initial cart position")
	f.Float64Var(&o.vel, "vel", 0, "initial cart velocity")
	f.Float64Var(&o.disturbance, "disturbance", 0, "constant disturbance force on the cart (N)")
	f.Float64Var(&o.cartMass, "cart-mass", 10, "cart mass (kg)")
	f.Float64Var(&o.bobMass, "bob-mass", 0.5, "pendulum bob mass (kg)")
	f.Float64Var(&o.length, "length", 1, "rod length (m)")
}

func (o *flagOverrides) apply(flags *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("dt", func() { cfg.Dt = o.dt })
	set("steps", func() { cfg.Steps = o.steps })
	set("integrator", func() { cfg.Integrator = o.integrator })
	set("controller", func() { cfg.Controller = o.controller })
	set("kp", func() { cfg.PID.Kp = o.kp })
	set("ki", func() { cfg.PID.Ki = o.ki })
	set("kd", func() { cfg.PID.Kd = o.kd })
	set("setpoint", func() { cfg.PID.Setpoint = o.setpoint })
	set("lower", func() { cfg.PID.Lower = o.lower })
	set("upper", func() { cfg.PID.Upper = o.upper })
	set("anti-windup", func() { cfg.PID.AntiWindup = o.antiWindup })
	set("signal", func() { cfg.PID.Signal = o.signal })
	set("target", func() { cfg.LQR.Target = o.target })
	set("angle", func() { cfg.Plant.Angle = o.angle })
	set("omega", func() { cfg.Plant.AngularVelocity = o.omega })
	set("pos", func() { cfg.Plant.Position = o.pos })
	set("vel", func() { cfg.Plant.Velocity = o.vel })
	set("disturbance", func() { cfg.Plant.Disturbance = o.disturbance })
	set("cart-mass", func() { cfg.Plant.CartMass = o.cartMass })
	set("bob-mass", func() { cfg.Plant.PendulumMass = o.bobMass })
	set("length", func() { cfg.Plant.Length = o.length })
}

// resolveConfig layers defaults, preset, config file and flags, in that
// order, and validates the result.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	overrides.apply(cmd.Flags(), cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
