// Package physics provides the cart-and-pendulum plant.
//
// [CartPendulum] holds the constant parameters and evaluates the equations of
// motion; [PlantState] is the value snapshot handed between steps:
//
//	plant, err := physics.New(physics.WithAngle(0.01), physics.WithPosition(0))
//	dx, err := plant.Derive(plant.Vector(), plant.Force+plant.Disturbance)
//
// # Equations of Motion
//
// The bob is a point mass on a massless rigid rod pivoted on a cart that
// slides without friction. Newton's law for the cart and the bob plus the two
// rod constraints give five equations in five unknowns, solved with
// [linalg.Solve] on every evaluation. Angular and cart accelerations are read
// off that solution; no separate closed form is used.
//
// Angle is measured in radians from upright and is never wrapped here.
package physics
