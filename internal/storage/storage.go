// Package storage holds the durable key-value backends the Entity Store
// persists its snapshot through.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrLockNotAcquired = errors.New("storage_lock_not_acquired")

// KV is a durable single-key document store.
type KV interface {
	// Get returns ok=false when key was never written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Put completes only once the value is durable.
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Name identifies the backend in logs and metrics.
	Name() string
	Close() error
}

// Locker is implemented by backends shared between processes. The store
// holds the lock around every read-modify-write of the snapshot.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, err error)
}
