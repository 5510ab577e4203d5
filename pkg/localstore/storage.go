// Package localstore persists small client-side values (orchestrator
// sessions, picker preferences) under string keys.
package localstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written or
// was deleted.
var ErrNotFound = errors.New("localstore: key not found")

type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
