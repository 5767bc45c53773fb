package report

import (
	"fmt"
	"strings"

	"github.com/san-kum/cartpend/internal/physics"
)

// InfoText formats the observable state of p, one quantity per line.
func InfoText(p physics.PlantState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "position          x  = %.2f m\n", p.Position)
	fmt.Fprintf(&b, "velocity          dx = %.2f m/s\n", p.Velocity)
	fmt.Fprintf(&b, "angle             θ  = %.5f rad\n", p.Angle)
	fmt.Fprintf(&b, "angular velocity  dθ = %.2f rad/s\n", p.AngularVelocity)
	fmt.Fprintf(&b, "time              t  = %.2f s\n", p.Time)
	fmt.Fprintf(&b, "control effort    F  = %.2f N\n", p.Force)
	fmt.Fprintf(&b, "disturbance       d  = %.2f N", p.Disturbance)
	return b.String()
}
