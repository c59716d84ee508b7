package domain

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by SnapshotStorage when a key is absent.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStorage is the key-value persistence layer behind named snapshots.
// Values are opaque byte payloads; the store writes JSON encoded State.
type SnapshotStorage interface {
	// Get returns the payload stored under key or ErrSnapshotNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous payload.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. It returns ErrSnapshotNotFound when key is absent.
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys that start with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases backend resources.
	Close() error
}
