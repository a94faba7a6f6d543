// Package dao defines the generic persistence contract used for runs and
// any other keyed entity.
package dao

import (
	"context"
)

// Service persists entities of type T keyed by K. Implementations return
// ErrNotFound from Load and Delete for unknown keys.
type Service[K comparable, T any] interface {
	// Save inserts or replaces t.
	Save(ctx context.Context, t *T) error
	// Load returns a copy of the stored entity.
	Load(ctx context.Context, id K) (*T, error)
	Delete(ctx context.Context, id K) error
	// List returns entities matching every parameter.
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
