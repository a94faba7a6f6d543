package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned when an executor used up its iteration budget
	// without producing a final answer.
	ErrExhausted = errors.New("executor: max iterations exhausted")
	// ErrUnknownKind is returned for a profile whose variant has no builder.
	ErrUnknownKind = errors.New("executor: unknown variant")
)

// Exhausted wraps ErrExhausted with the iteration limit.
func Exhausted(limit int) error {
	return fmt.Errorf("%w: max iterations (%d) reached", ErrExhausted, limit)
}
