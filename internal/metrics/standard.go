package metrics

import "github.com/san-kum/cartpend/internal/sim"

// DefaultStabilityThreshold is the upright band, in radians, used by Standard.
const DefaultStabilityThreshold = 0.2

// Standard returns a fresh set of the metrics reported by the CLI.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewControlEffort(),
		NewStability(DefaultStabilityThreshold),
		NewEnergy(),
		NewEnergyDrift(),
	}
}
