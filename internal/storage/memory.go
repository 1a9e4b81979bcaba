package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryKV is an in-process KV with the same quota semantics as SQLiteKV.
type MemoryKV struct {
	mu    sync.RWMutex
	data  map[string][]byte
	used  int64
	quota int64
}

// NewMemoryKV creates an empty store. A quota <= 0 means DefaultQuota.
func NewMemoryKV(quota int64) *MemoryKV {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &MemoryKV{
		data:  make(map[string][]byte),
		quota: quota,
	}
}

// Get returns a copy of the stored value.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores value under key, replacing any previous value.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used
	if old, ok := m.data[key]; ok {
		used -= entrySize(key, old)
	}
	size := entrySize(key, value)
	if used+size > m.quota {
		return fmt.Errorf("set %q (%d bytes): %w", key, len(value), ErrQuotaExceeded)
	}

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	m.used = used + size
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

// Used returns the number of bytes counted against the quota.
func (m *MemoryKV) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

// Close is a no-op.
func (m *MemoryKV) Close() error {
	return nil
}
