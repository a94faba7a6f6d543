package idgen

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// NewRunID returns a run identifier prefixed with the pipeline name.
func NewRunID(pipeline string) string {
	id := New()
	if pipeline == "" {
		return id
	}
	return strings.ToLower(strings.ReplaceAll(pipeline, " ", "-")) + "-" + id
}

// Sequence returns a deterministic generator producing prefix-1, prefix-2, ...
// It is meant to be assigned to NewFunc in tests.
func Sequence(prefix string) func() string {
	var n int
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
