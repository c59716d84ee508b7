// Package memory provides an in-memory implementation of the snapshot
// key-value store used for tests and ephemeral environments. The SQL-backed
// stores embed it and write through to their tables.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"dashcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.SnapshotStorage = (*Store)(nil)

// Store keeps snapshot payloads in process memory.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{entries: make(map[string][]byte)}
}

// Get returns a copy of the payload stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, key)
	}
	return cloneBytes(v), nil
}

// Set stores value under key, replacing any previous payload.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("memory store: empty key")
	}
	s.mu.Lock()
	s.entries[key] = cloneBytes(value)
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, key)
	}
	delete(s.entries, key)
	return nil
}

// Keys lists keys starting with prefix in sorted order.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ExportState returns a deep copy of every entry.
func (s *Store) ExportState() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.entries))
	for k, v := range s.entries {
		out[k] = cloneBytes(v)
	}
	return out
}

// ImportState replaces the store content with a copy of entries.
func (s *Store) ImportState(entries map[string][]byte) {
	next := make(map[string][]byte, len(entries))
	for k, v := range entries {
		next[k] = cloneBytes(v)
	}
	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
