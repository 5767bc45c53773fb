// Package control provides feedback controllers for the cart and pendulum.
//
// Every controller maps a [physics.PlantState] snapshot to a horizontal
// force on the cart:
//
//   - [PID]: parallel-form PID with back-calculation anti-windup
//   - [LQR]: full-state feedback on [angle, angular velocity, position, velocity]
//   - [None]: zero force
//
// # Usage
//
//	pid := control.NewPID(2, 0.0001, 1.5, 0,
//	    control.WithBounds(-50, 50), control.WithAntiWindup(true))
//	force, err := pid.Compute(plant)
//
// A controller instance owns its memory (integral, previous error and
// time); use one instance per simulation run. [PID] implements
// [dynamo.Configurable] for live tuning.
package control
