package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/linalg"
)

// State vector layout used by Derive and by the steppers.
const (
	IdxAngle = iota
	IdxAngularVelocity
	IdxPosition
	IdxVelocity
	StateDim
)

type CartPendulum struct {
	CartMass     float64
	PendulumMass float64
	Length       float64
	Gravity      float64
}

// Accelerations is the full solution of the equations of motion.
type Accelerations struct {
	Cart     float64 // horizontal cart acceleration
	Angular  float64 // rod angular acceleration
	BobX     float64
	BobY     float64
	RodForce float64 // tension along the rod, positive pulls bob toward cart
}

func (c CartPendulum) Validate() error {
	switch {
	case !(c.CartMass > 0):
		return fmt.Errorf("cart_mass %v must be positive: %w", c.CartMass, dynamo.ErrParameterBounds)
	case !(c.PendulumMass > 0):
		return fmt.Errorf("pendulum_mass %v must be positive: %w", c.PendulumMass, dynamo.ErrParameterBounds)
	case !(c.Length > 0):
		return fmt.Errorf("length %v must be positive: %w", c.Length, dynamo.ErrParameterBounds)
	case !dynamo.IsFinite(c.CartMass) || !dynamo.IsFinite(c.PendulumMass) || !dynamo.IsFinite(c.Length):
		return fmt.Errorf("plant parameters must be finite: %w", dynamo.ErrParameterBounds)
	case !dynamo.IsFinite(c.Gravity):
		return fmt.Errorf("gravity %v must be finite: %w", c.Gravity, dynamo.ErrParameterBounds)
	}
	return nil
}

// equations builds M·a = b for a = [ẍc, θ̈, ẍb, ÿb, T].
//
// Rows: cart and bob Newton's law (x, x, y), then the second derivatives of
// the rod constraints xb = xc + L·sinθ and yb = L·cosθ.
func (c CartPendulum) equations(angle, angularVelocity, force float64) ([][]float64, []float64) {
	s, co := math.Sincos(angle)
	w2 := angularVelocity * angularVelocity
	l := c.Length

	m := [][]float64{
		{c.CartMass, 0, 0, 0, -s},
		{0, 0, c.PendulumMass, 0, s},
		{0, 0, 0, c.PendulumMass, co},
		{1, l * co, -1, 0, 0},
		{0, -l * s, 0, -1, 0},
	}
	b := []float64{
		force,
		0,
		-c.PendulumMass * c.Gravity,
		l * s * w2,
		l * co * w2,
	}
	return m, b
}

// Solve returns every acceleration and the rod force for the given angle,
// angular velocity and total horizontal force on the cart.
func (c CartPendulum) Solve(angle, angularVelocity, force float64) (Accelerations, error) {
	m, b := c.equations(angle, angularVelocity, force)
	a, err := linalg.Solve(m, b)
	if err != nil {
		return Accelerations{}, fmt.Errorf("physics: equations of motion at angle %g: %w", angle, err)
	}
	return Accelerations{
		Cart:     a[0],
		Angular:  a[1],
		BobX:     a[2],
		BobY:     a[3],
		RodForce: a[4],
	}, nil
}

// Derive returns [dθ, dω, dx, dv] for x = [θ, ω, x, v] under a total
// horizontal force (applied plus disturbance).
func (c CartPendulum) Derive(x dynamo.State, force float64) (dynamo.State, error) {
	if len(x) != StateDim {
		return nil, fmt.Errorf("physics: state has %d entries, want %d: %w", len(x), StateDim, dynamo.ErrDimensionMismatch)
	}

	acc, err := c.Solve(x[IdxAngle], x[IdxAngularVelocity], force)
	if err != nil {
		return nil, err
	}

	return dynamo.State{
		x[IdxAngularVelocity],
		acc.Angular,
		x[IdxVelocity],
		acc.Cart,
	}, nil
}

// Energy is the mechanical energy with the potential zero at pivot height.
func (c CartPendulum) Energy(x dynamo.State) float64 {
	s, co := math.Sincos(x[IdxAngle])
	w := x[IdxAngularVelocity]
	v := x[IdxVelocity]

	bobVX := v + c.Length*co*w
	bobVY := -c.Length * s * w

	ke := 0.5*c.CartMass*v*v + 0.5*c.PendulumMass*(bobVX*bobVX+bobVY*bobVY)
	pe := c.PendulumMass * c.Gravity * c.Length * co
	return ke + pe
}
