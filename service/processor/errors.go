package processor

import "errors"

var (
	// ErrRunNotFound is returned for an unknown run id.
	ErrRunNotFound = errors.New("run not found")
	// ErrNotPending is returned when a decision targets a checkpoint the run is not parked on.
	ErrNotPending = errors.New("checkpoint not pending")
	// ErrConflict is returned when a checkpoint was already resolved with a different verdict.
	ErrConflict = errors.New("checkpoint already resolved with a different verdict")
	// ErrInvalidVerdict is returned for anything but approve or reject.
	ErrInvalidVerdict = errors.New("verdict must be approve or reject")
	// ErrUnknownTask is returned when a task id is not part of the pipeline.
	ErrUnknownTask = errors.New("unknown task")
	// ErrInvalidInput is returned when the input document cannot be converted to a map.
	ErrInvalidInput = errors.New("invalid input document")
)
