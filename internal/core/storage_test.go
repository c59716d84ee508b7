package core

import (
	"context"
	"path/filepath"
	"testing"

	"dashcore/internal/config"
	"dashcore/pkg/domain"
)

func TestOpenSnapshotStorageDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cases := []config.Config{
		{StorageDriver: config.StorageMemory},
		{StorageDriver: config.StorageSQLite, SQLitePath: filepath.Join(dir, "snap.db")},
		{StorageDriver: config.StorageBlob, Blob: config.BlobConfig{Driver: "memory"}},
		{StorageDriver: config.StorageBlob, Blob: config.BlobConfig{Driver: "fs", FSRoot: filepath.Join(dir, "blobs")}},
	}
	for _, cfg := range cases {
		storage, err := OpenSnapshotStorage(ctx, cfg)
		if err != nil {
			t.Fatalf("%s: open: %v", cfg.StorageDriver, err)
		}
		s := newTestStore(WithSnapshotStorage(storage))
		s.Update(domain.NewUpdate().WithRegion("Europe"), "control")
		if err := s.SaveState(ctx, "eu"); err != nil {
			t.Fatalf("%s: save: %v", cfg.StorageDriver, err)
		}
		reader := newTestStore(WithSnapshotStorage(storage))
		if !reader.LoadState(ctx, "eu") || reader.State().Region != "Europe" {
			t.Fatalf("%s/%s: round trip failed", cfg.StorageDriver, cfg.Blob.Driver)
		}
		if err := storage.Close(); err != nil {
			t.Fatalf("%s: close: %v", cfg.StorageDriver, err)
		}
	}
}

func TestOpenSnapshotStorageUnknown(t *testing.T) {
	if _, err := OpenSnapshotStorage(context.Background(), config.Config{StorageDriver: "redis"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := OpenSnapshotStorage(context.Background(), config.Config{StorageDriver: config.StorageBlob, Blob: config.BlobConfig{Driver: "gcs"}}); err == nil {
		t.Fatalf("expected unknown blob driver error")
	}
}
