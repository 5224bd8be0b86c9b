package storage

import (
	"context"
	"errors"
)

// Persisted keys, matching what the browser front end kept in local storage.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrEmptyNamespace = errors.New("storage namespace is empty")

// Store is namespaced key/value storage standing in for browser local storage.
// A namespace is one browser session. Values are opaque strings; there is no
// versioning and no migration of stored values.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, namespace, key string) (string, bool, error)

	// Set writes (or overwrites) a value.
	Set(ctx context.Context, namespace, key, value string) error

	// Delete removes a value; deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// Close releases the underlying connection, if any.
	Close() error
}
