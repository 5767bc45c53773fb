package control

import (
	"fmt"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

// LQR is linear full-state feedback u = -K·(x - Target) on the plant vector
// [angle, angular velocity, position, velocity].
type LQR struct {
	K      []float64
	Target dynamo.State
}

func NewLQR(k []float64, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(snapshot physics.PlantState) (float64, error) {
	x := snapshot.Vector()
	if len(l.K) != len(x) {
		return 0, fmt.Errorf("lqr: %d gains for %d states: %w", len(l.K), len(x), dynamo.ErrDimensionMismatch)
	}

	u := 0.0
	for j := range x {
		target := 0.0
		if j < len(l.Target) {
			target = l.Target[j]
		}
		u -= l.K[j] * (x[j] - target)
	}
	return u, nil
}

// Closed-loop poles at -2, -2.5, -3, -3.5 for the nominal plant
// (cart 10 kg, bob 0.5 kg, rod 1 m) linearised about upright.
var cartPendulumGains = []float64{-604.0, -191.3, -53.5, -81.3}

// NewCartPendulumLQR balances the nominal plant upright with the cart
// returned to position.
func NewCartPendulumLQR(position float64) *LQR {
	k := append([]float64(nil), cartPendulumGains...)
	return NewLQR(k, dynamo.State{0, 0, position, 0})
}
