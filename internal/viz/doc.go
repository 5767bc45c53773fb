// Package viz is a terminal view of a running cart and pendulum built on
// Bubble Tea.
//
// The scene is drawn on a braille [Canvas]: track, cart, rod, bob and the
// control force arrow. The cart wraps around a fixed track window.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	←/→   - Push the cart (one-step disturbance)
//	Tab   - Select controller parameter
//	↑/↓   - Tune selected parameter (±5%)
//	[/]   - Time travel (rewind/forward)
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
