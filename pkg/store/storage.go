package store

import (
	"context"
)

// Storage is the persistence contract behind the History. A backend keeps
// opaque slots addressed by key and must be safe for concurrent use.
type Storage interface {
	// Write replaces the slot under key with data.
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the slot under key. A missing slot is reported with an
	// error matching os.IsNotExist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns the keys starting with prefix in descending
	// lexicographic order, newest backup first.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the slot under key, deleting a missing slot is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases the resources held by the backend.
	Close() error
}
