package blobkv

import (
	"context"
	"errors"
	"testing"

	"dashcore/internal/blob"
	"dashcore/pkg/domain"
)

func TestBlobKVRoundTripAcrossDrivers(t *testing.T) {
	fsStore, err := blob.Open(context.Background(), blob.Config{Driver: blob.DriverFilesystem, FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	backends := map[string]blob.Store{
		"memory": blob.NewMemory(),
		"fs":     fsStore,
		"s3":     blob.NewS3Mock(),
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := New(backend, "")
			if kv.Driver() != backend.Driver() {
				t.Fatalf("driver mismatch")
			}
			if err := kv.Set(ctx, "dashboard_state_q3", []byte(`{"selectedRegion":"Europe"}`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := kv.Set(ctx, "dashboard_state_q4", []byte(`{}`)); err != nil {
				t.Fatalf("set q4: %v", err)
			}
			if err := kv.Set(ctx, "other", []byte(`{}`)); err != nil {
				t.Fatalf("set other: %v", err)
			}
			got, err := kv.Get(ctx, "dashboard_state_q3")
			if err != nil || string(got) != `{"selectedRegion":"Europe"}` {
				t.Fatalf("get: %s %v", got, err)
			}
			keys, err := kv.Keys(ctx, "dashboard_state_")
			if err != nil {
				t.Fatalf("keys: %v", err)
			}
			if len(keys) != 2 || keys[0] != "dashboard_state_q3" || keys[1] != "dashboard_state_q4" {
				t.Fatalf("unexpected keys %v", keys)
			}
			if err := kv.Delete(ctx, "dashboard_state_q3"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := kv.Get(ctx, "dashboard_state_q3"); !errors.Is(err, domain.ErrSnapshotNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
			if err := kv.Delete(ctx, "dashboard_state_q3"); !errors.Is(err, domain.ErrSnapshotNotFound) {
				t.Fatalf("expected not found on delete, got %v", err)
			}
		})
	}
}

func TestNewNormalisesDir(t *testing.T) {
	kv := New(blob.NewMemory(), "state")
	if kv.objectKey("a") != "state/a.json" {
		t.Fatalf("unexpected object key %s", kv.objectKey("a"))
	}
	if err := kv.Set(context.Background(), "", nil); err == nil {
		t.Fatalf("expected empty key error")
	}
}
