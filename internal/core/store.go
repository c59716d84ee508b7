package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dashcore/pkg/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSnapshotPrefix is the key prefix for persisted snapshots.
const DefaultSnapshotPrefix = "dashboard_state"

// ErrEmptySnapshotName is returned when a snapshot is saved without a name.
var ErrEmptySnapshotName = errors.New("snapshot name required")

// ErrInvalidListener is returned when a listener cannot be registered.
type ErrInvalidListener struct {
	ID     string
	Reason string
}

func (e ErrInvalidListener) Error() string {
	if e.ID == "" {
		return "invalid listener: " + e.Reason
	}
	return fmt.Sprintf("invalid listener %q: %s", e.ID, e.Reason)
}

// ErrHistoryDiverged reports that replaying the transaction log does not
// reproduce the materialised state.
type ErrHistoryDiverged struct {
	Position int
	Replayed domain.State
	Current  domain.State
}

func (e ErrHistoryDiverged) Error() string {
	return fmt.Sprintf("history diverged at position %d: replayed %+v, current %+v", e.Position, e.Replayed, e.Current)
}

// Store is the single source of truth for dashboard selection state. It
// records every mutation in a linear transaction log, resolves filter
// cascades before recording, keeps named snapshots and notifies listeners
// after each committed change.
//
// Construct independent instances with NewStore; there is no global store.
type Store struct {
	mu        sync.RWMutex
	defaults  domain.State
	state     domain.State
	log       transactionLog
	deps      domain.DependencyTable
	listeners *callbackRegistry
	snapshots map[string]domain.State
	storage   domain.SnapshotStorage
	prefix    string
	datasets  domain.Datasets

	logger  *zap.Logger
	metrics *Metrics
	nowFn   func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithDependencies replaces the default filter dependency table.
func WithDependencies(table domain.DependencyTable) Option {
	return func(s *Store) { s.deps = table }
}

// WithDefaults replaces the initial default state.
func WithDefaults(state domain.State) Option {
	return func(s *Store) { s.defaults = state }
}

// WithSnapshotStorage sets the persistence layer for named snapshots.
func WithSnapshotStorage(storage domain.SnapshotStorage) Option {
	return func(s *Store) { s.storage = storage }
}

// WithSnapshotPrefix overrides DefaultSnapshotPrefix.
func WithSnapshotPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithDatasets seeds the raw datasets used for filter options and views.
func WithDatasets(ds domain.Datasets) Option {
	return func(s *Store) { s.datasets = ds.Clone() }
}

// NewStore constructs a store seeded with the default state.
func NewStore(opts ...Option) *Store {
	s := &Store{
		defaults:  domain.DefaultState(),
		log:       newTransactionLog(),
		deps:      domain.DefaultDependencies(),
		listeners: newCallbackRegistry(),
		snapshots: make(map[string]domain.State),
		prefix:    DefaultSnapshotPrefix,
		datasets:  domain.Datasets{},
		logger:    zap.NewNop(),
		nowFn:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.defaults
	return s
}

// State returns the current complete state.
func (s *Store) State() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Defaults returns the state the store was seeded with.
func (s *Store) Defaults() domain.State {
	return s.defaults
}

// Update resolves cascades for u, merges the result onto the current state,
// records it as a transaction tagged with source and notifies listeners. An
// update touching no field changes nothing and records nothing.
func (s *Store) Update(u domain.Update, source string) domain.State {
	s.mu.Lock()
	if u.IsEmpty() {
		current := s.state
		s.mu.Unlock()
		return current
	}
	resolved := s.deps.Resolve(u)
	return s.commitLocked(resolved, source)
}

// commitLocked records updates (already cascade-resolved) as a transaction,
// commits the new state, releases the lock and notifies listeners.
func (s *Store) commitLocked(updates domain.Update, source string) domain.State {
	prev := s.state
	next := prev.Apply(updates)
	tx := domain.Transaction{
		ID:        s.newID(),
		CreatedAt: s.nowFn(),
		Updates:   updates.Clone(),
		Source:    source,
	}
	s.log.append(tx)
	s.state = next
	listeners := s.listeners.snapshot()
	length := s.log.len()
	s.mu.Unlock()

	s.metrics.transactionRecorded(source, length)
	s.logger.Debug("dashboard transaction recorded",
		zap.String("id", tx.ID),
		zap.String("source", source),
		zap.Stringer("updates", tx.Updates),
		zap.Int("history", length))
	s.notify(listeners, next, prev)
	return next
}

// ResetToDefault records a transaction restoring every default field. Earlier
// history remains undoable.
func (s *Store) ResetToDefault() domain.State {
	s.mu.Lock()
	return s.commitLocked(s.defaults.AsUpdate(), domain.SourceReset)
}

// Undo steps back one transaction and rebuilds the state by replaying the log
// from the defaults. It reports false when already at the initial state.
func (s *Store) Undo() bool {
	s.mu.Lock()
	if !s.log.canUndo() {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.log.position--
	s.state = s.log.replay(s.defaults, s.log.position)
	next := s.state
	listeners := s.listeners.snapshot()
	position := s.log.position
	s.mu.Unlock()

	s.metrics.undone()
	s.logger.Debug("dashboard undo", zap.Int("position", position))
	s.notify(listeners, next, prev)
	return true
}

// Redo re-applies the next transaction by merging its recorded updates onto
// the current state. It reports false when there is nothing to redo.
func (s *Store) Redo() bool {
	s.mu.Lock()
	if !s.log.canRedo() {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.log.position++
	s.state = s.state.Apply(s.log.entries[s.log.position].Updates)
	next := s.state
	listeners := s.listeners.snapshot()
	position := s.log.position
	s.mu.Unlock()

	s.metrics.redone()
	s.logger.Debug("dashboard redo", zap.Int("position", position))
	s.notify(listeners, next, prev)
	return true
}

// CanUndo reports whether Undo would change the state.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.canUndo()
}

// CanRedo reports whether Redo would change the state.
func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.canRedo()
}

// History returns a copy of the full transaction log, including entries
// after the current position that are still redoable.
func (s *Store) History() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.snapshot()
}

// Position returns the index of the transaction representing the current
// state, or -1 when the defaults are materialised.
func (s *Store) Position() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.position
}

// VerifyHistory replays the log up to the current position and checks the
// result against the materialised state. Redo merges transactions directly
// onto the current state, which is only sound while every recorded update
// carries its cascade resets; this check catches any drift.
func (s *Store) VerifyHistory() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	replayed := s.log.replay(s.defaults, s.log.position)
	if replayed != s.state {
		return ErrHistoryDiverged{Position: s.log.position, Replayed: replayed, Current: s.state}
	}
	return nil
}
