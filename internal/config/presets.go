package config

import (
	"math"
	"sort"
)

func preset(controller string, dt float64, steps int, plant func(*PlantConfig)) *Config {
	cfg := DefaultConfig()
	cfg.Controller = controller
	cfg.Dt = dt
	cfg.Steps = steps
	plant(&cfg.Plant)
	return cfg
}

// Presets are named starting points, keyed by name.
var Presets = map[string]*Config{
	// cart position loop from a small lean
	"track": preset(ControllerPID, 0.02, 500, func(p *PlantConfig) {
		p.Angle = 0.01
		p.Position = 0
	}),
	// angle loop holding the pole upright
	"balance": func() *Config {
		cfg := preset(ControllerPID, 0.02, 500, func(p *PlantConfig) { p.Angle = 0.01 })
		cfg.PID = PIDConfig{Kp: -150, Ki: -0.0001, Kd: -40, Signal: SignalAngle}
		return cfg
	}(),
	// full-state feedback returning the cart to the origin
	"recentre": preset(ControllerLQR, 0.02, 500, func(p *PlantConfig) { p.Angle = 0.1 }),
	// angle loop with the actuator limited to 12 N
	"saturated": func() *Config {
		cfg := preset(ControllerPID, 0.02, 500, func(p *PlantConfig) { p.Angle = 0.1 })
		cfg.PID = PIDConfig{Kp: -150, Ki: -0.5, Kd: -40, Lower: -12, Upper: 12, AntiWindup: true, Signal: SignalAngle}
		return cfg
	}(),
	"hanging":  preset(ControllerNone, 0.01, 1000, func(p *PlantConfig) { p.Angle = math.Pi }),
	"freefall": preset(ControllerNone, 0.01, 500, func(p *PlantConfig) { p.Angle = 0.1 }),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
