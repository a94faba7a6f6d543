// Package processor drives pipeline runs. Every run is owned by a single
// driver goroutine that executes tasks in declared order, parks on human
// checkpoints and finishes with an optional downstream handoff.
package processor
