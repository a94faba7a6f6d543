package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a run stopped or what went wrong around it.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "ConfigurationError"
	KindExhausted     ErrorKind = "ExecutorExhausted"
	KindRejected      ErrorKind = "CheckpointRejected"
	KindHandoff       ErrorKind = "HandoffError"
	KindCancelled     ErrorKind = "CancellationRequested"
	KindExecutor      ErrorKind = "ExecutorError"
)

// ConfigurationError is returned when a pipeline cannot be built. It is
// always raised before any task runs.
type ConfigurationError struct {
	Pipeline string
	Issues   []error
}

func (e *ConfigurationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Error())
	}
	if e.Pipeline == "" {
		return "configuration error: " + strings.Join(msgs, "; ")
	}
	return fmt.Sprintf("configuration error in pipeline %s: %s", e.Pipeline, strings.Join(msgs, "; "))
}

// Unwrap exposes individual issues to errors.Is/As.
func (e *ConfigurationError) Unwrap() []error { return e.Issues }

// NewConfigurationError builds a ConfigurationError from one or more issues.
func NewConfigurationError(pipeline string, issues ...error) *ConfigurationError {
	return &ConfigurationError{Pipeline: pipeline, Issues: issues}
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
