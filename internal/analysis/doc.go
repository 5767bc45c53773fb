// Package analysis characterises closed-loop runs of the cart-pendulum.
//
//   - [Phase]: angle against angular velocity, with an ASCII rendering
//   - [StepResponse]: peak, overshoot, settling time and steady-state error
//   - [LyapunovExponent]: largest exponent of the loop via trajectory separation
//
// A negative exponent means nearby trajectories converge under the controller:
//
//	lambda, err := analysis.LyapunovExponent(plant, newController, nil, 0.02, 250, 1e-8)
//	if err == nil && lambda < 0 {
//	    // the loop is locally stable around this trajectory
//	}
package analysis
