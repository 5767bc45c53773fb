package report

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
)

// Series names a plotted observable.
type Series struct {
	Key   string
	Name  string
	Unit  string
	Value func(physics.PlantState) float64
}

var (
	Position        = Series{"position", "cart position", "m", func(p physics.PlantState) float64 { return p.Position }}
	Velocity        = Series{"velocity", "cart velocity", "m/s", func(p physics.PlantState) float64 { return p.Velocity }}
	Angle           = Series{"angle", "pole angle", "rad", func(p physics.PlantState) float64 { return p.Angle }}
	AngularVelocity = Series{"omega", "pole angular velocity", "rad/s", func(p physics.PlantState) float64 { return p.AngularVelocity }}
	Force           = Series{"force", "control force", "N", func(p physics.PlantState) float64 { return p.Force }}
	Energy          = Series{"energy", "mechanical energy", "J", func(p physics.PlantState) float64 { return p.Energy() }}
)

// AllSeries lists the series in display order.
var AllSeries = []Series{Position, Velocity, Angle, AngularVelocity, Force, Energy}

func SeriesByName(name string) (Series, bool) {
	for _, s := range AllSeries {
		if s.Key == name {
			return s, true
		}
	}
	return Series{}, false
}

// Chart draws one series of the run as a terminal line graph.
func Chart(r *sim.Result, s Series, width, height int) string {
	data := r.Series(s.Value)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s (%s) vs time", s.Name, s.Unit)),
	)
}

// Summary is a short text table of the run's final state and metrics.
func Summary(r *sim.Result) string {
	var b strings.Builder
	final := r.Final()
	fmt.Fprintf(&b, "steps: %d  warnings: %d  t=%.2fs\n", r.StepsTaken, r.Warnings, final.Time)
	b.WriteString(InfoText(final))
	b.WriteString("\n")
	for _, name := range sortedKeys(r.Metrics) {
		fmt.Fprintf(&b, "%-16s %.6g\n", name, r.Metrics[name])
	}
	return b.String()
}
