package core

import (
	"context"
	"errors"
	"sort"
	"strings"

	"dashcore/pkg/domain"

	"go.uber.org/zap"
)

func (s *Store) snapshotKey(name string) string {
	return s.prefix + "_" + name
}

// SaveState stores the current state under name in memory and, when snapshot
// storage is configured, persists it. Persistence failures are logged and
// counted but never returned; the in-memory copy always succeeds.
func (s *Store) SaveState(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptySnapshotName
	}
	s.mu.Lock()
	state := s.state
	s.snapshots[name] = state
	storage := s.storage
	s.mu.Unlock()

	if storage == nil {
		return nil
	}
	payload, err := domain.MarshalState(state)
	if err == nil {
		err = storage.Set(ctx, s.snapshotKey(name), payload)
	}
	if err != nil {
		s.metrics.snapshotPersistFailed()
		s.logger.Warn("persist snapshot failed", zap.String("snapshot", name), zap.Error(err))
		return nil
	}
	s.logger.Debug("snapshot persisted", zap.String("snapshot", name))
	return nil
}

// LoadState applies the named snapshot as a new transaction carrying every
// field. The in-memory copy is consulted first, then persistent storage. A
// missing or malformed snapshot leaves the store untouched and reports false.
func (s *Store) LoadState(ctx context.Context, name string) bool {
	state, ok := s.lookupSnapshot(ctx, name)
	if !ok {
		s.metrics.snapshotLoaded("missing")
		return false
	}
	s.metrics.snapshotLoaded("hit")
	s.mu.Lock()
	s.commitLocked(state.AsUpdate(), domain.SourceSnapshotPrefix+name)
	return true
}

// Snapshot returns the named snapshot without applying it.
func (s *Store) Snapshot(ctx context.Context, name string) (domain.State, bool) {
	return s.lookupSnapshot(ctx, name)
}

func (s *Store) lookupSnapshot(ctx context.Context, name string) (domain.State, bool) {
	if name == "" {
		return domain.State{}, false
	}
	s.mu.RLock()
	state, ok := s.snapshots[name]
	storage := s.storage
	s.mu.RUnlock()
	if ok {
		return state, true
	}
	if storage == nil {
		return domain.State{}, false
	}
	payload, err := storage.Get(ctx, s.snapshotKey(name))
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.Warn("read snapshot failed", zap.String("snapshot", name), zap.Error(err))
		}
		return domain.State{}, false
	}
	state, err = domain.UnmarshalState(payload)
	if err != nil {
		s.logger.Warn("malformed snapshot ignored", zap.String("snapshot", name), zap.Error(err))
		return domain.State{}, false
	}
	s.mu.Lock()
	s.snapshots[name] = state
	s.mu.Unlock()
	return state, true
}

// SavedStates lists snapshot names known in memory or in persistent storage,
// sorted and de-duplicated.
func (s *Store) SavedStates(ctx context.Context) []string {
	s.mu.RLock()
	seen := make(map[string]struct{}, len(s.snapshots))
	for name := range s.snapshots {
		seen[name] = struct{}{}
	}
	storage := s.storage
	s.mu.RUnlock()

	if storage != nil {
		prefix := s.snapshotKey("")
		keys, err := storage.Keys(ctx, prefix)
		if err != nil {
			s.logger.Warn("list snapshots failed", zap.Error(err))
		}
		for _, key := range keys {
			if name := strings.TrimPrefix(key, prefix); name != "" && name != key {
				seen[name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeleteState forgets the named snapshot in memory and storage. It reports
// whether the snapshot existed in either place.
func (s *Store) DeleteState(ctx context.Context, name string) bool {
	s.mu.Lock()
	_, existed := s.snapshots[name]
	delete(s.snapshots, name)
	storage := s.storage
	s.mu.Unlock()

	if storage == nil || name == "" {
		return existed
	}
	err := storage.Delete(ctx, s.snapshotKey(name))
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return existed
	default:
		s.logger.Warn("delete snapshot failed", zap.String("snapshot", name), zap.Error(err))
		return existed
	}
}
