// Package blob defines the key-value blob store the day store is built on.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("blob: key not found")

// Store is a string-keyed byte store. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// List returns every key starting with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Batcher is implemented by stores that can write several keys atomically.
type Batcher interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close() error
}
