package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dashcore/pkg/domain"

	"github.com/google/go-cmp/cmp"
)

var testEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestStore returns a store with a deterministic clock and sequential ids.
func newTestStore(opts ...Option) *Store {
	var (
		mu  sync.Mutex
		seq int
	)
	base := []Option{
		WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return testEpoch.Add(time.Duration(seq) * time.Second)
		}),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("tx-%d", seq)
		}),
	}
	return NewStore(append(base, opts...)...)
}

func assertState(t *testing.T, want, got domain.State) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func mustVerify(t *testing.T, s *Store) {
	t.Helper()
	if err := s.VerifyHistory(); err != nil {
		t.Fatalf("verify history: %v", err)
	}
}

// failingStorage rejects every write and read.
type failingStorage struct{}

var errStorageDown = errors.New("storage down")

func (failingStorage) Get(context.Context, string) ([]byte, error)    { return nil, errStorageDown }
func (failingStorage) Set(context.Context, string, []byte) error      { return errStorageDown }
func (failingStorage) Delete(context.Context, string) error           { return errStorageDown }
func (failingStorage) Keys(context.Context, string) ([]string, error) { return nil, errStorageDown }
func (failingStorage) Close() error                                   { return nil }
