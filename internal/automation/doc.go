// Package automation drives the closed loop without a user at the keyboard:
// scripted scenarios loaded from YAML and Monte Carlo robustness checks over
// perturbed initial conditions.
package automation
