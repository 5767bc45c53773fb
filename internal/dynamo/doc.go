// Package dynamo provides the numerical vocabulary shared by the plant,
// the steppers and the controllers.
//
//   - [State]: integrable state vector
//   - [DerivFunc]: right-hand side dX/dt = f(t, X)
//   - [Stepper]: advances a state across one output interval
//   - [Configurable]: live-tunable parameters
//
// # Example
//
//	f := func(t float64, x dynamo.State) (dynamo.State, error) {
//	    return dynamo.State{x[1], -x[0]}, nil
//	}
//	x1, err := integrators.NewDormandPrince().Advance(f, 0, 0.01, dynamo.State{1, 0})
//
// # Thread Safety
//
// Nothing in this package holds mutable state. Steppers built on it are
// stateless across Advance calls and can be shared between goroutines.
package dynamo
