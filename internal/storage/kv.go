// Package storage provides the durable key-value layer that holds the
// preference blob and the two detection history logs.
package storage

import (
	"context"
	"errors"
)

// DefaultQuota mirrors the per-origin budget of browser local storage.
const DefaultQuota int64 = 5 << 20

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Set when the write would exceed the store quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// KV is a string-keyed byte store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// entrySize is the number of bytes a key/value pair counts against the quota.
func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}
