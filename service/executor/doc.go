// Package executor defines the closed set of executor variants that turn a
// task's instructions and the run's accumulated outputs into a task output.
// Variants are selected by a tagged lookup in a Registry when a pipeline is
// built, never by reflection at run time.
package executor
