package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dashcore/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := store.Set(ctx, "dashboard_state_q3", []byte(`{"selectedRegion":"Europe"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "dashboard_state_q3", []byte(`{"selectedRegion":"APAC"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	got, err := reloaded.Get(ctx, "dashboard_state_q3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"selectedRegion":"APAC"}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if reloaded.Path() != path {
		t.Fatalf("path %s", reloaded.Path())
	}
}

func TestSQLiteStoreDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Delete(ctx, "missing"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Set(ctx, "k", []byte("{}")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty table, got %d rows", n)
	}
	keys, _ := store.Keys(ctx, "")
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}
