// Package report renders read-only views of plant snapshots and run
// histories: a text panel, display geometry, terminal charts and PNG plots.
// Nothing here feeds back into the simulation.
package report
