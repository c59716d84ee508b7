package memory

import (
	"context"
	"errors"
	"testing"

	"dashcore/pkg/domain"
)

func TestStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if err := s.Set(ctx, "dashboard_state_a", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "dashboard_state_a")
	if err != nil || string(got) != `{"x":1}` {
		t.Fatalf("get: %q %v", got, err)
	}
	got[0] = 'X'
	again, _ := s.Get(ctx, "dashboard_state_a")
	if again[0] != '{' {
		t.Fatalf("Get must return a copy")
	}
	if err := s.Delete(ctx, "dashboard_state_a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "dashboard_state_a"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(ctx, "dashboard_state_a"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestStoreKeysFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, k := range []string{"p_b", "other", "p_a"} {
		if err := s.Set(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := s.Keys(ctx, "p_")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "p_a" || keys[1] != "p_b" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if err := s.Set(ctx, "", nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestStoreExportImportIsolated(t *testing.T) {
	s := NewStore()
	s.ImportState(map[string][]byte{"k": []byte("v")})
	exported := s.ExportState()
	exported["k"][0] = 'x'
	got, err := s.Get(context.Background(), "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("export must deep copy: %q %v", got, err)
	}
}
