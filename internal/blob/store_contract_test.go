package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func contractStores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := Open(context.Background(), Config{Driver: DriverFilesystem, FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	return map[string]Store{
		"fs":     fsStore,
		"memory": NewMemory(),
		"s3":     NewS3Mock(),
	}
}

func readAll(t *testing.T, s Store, key string) string {
	t.Helper()
	_, rc, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(b)
}

func TestStoreContract(t *testing.T) {
	for name, store := range contractStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			info, err := store.Put(ctx, "snapshots/a.json", strings.NewReader(`{"v":1}`), PutOptions{ContentType: "application/json"})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Key != "snapshots/a.json" || info.Size != int64(len(`{"v":1}`)) {
				t.Fatalf("unexpected info %+v", info)
			}
			if _, err := store.Put(ctx, "snapshots/a.json", strings.NewReader(`{"v":2}`), PutOptions{ContentType: "application/json"}); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if got := readAll(t, store, "snapshots/a.json"); got != `{"v":2}` {
				t.Fatalf("expected overwritten payload, got %s", got)
			}
			if _, err := store.Put(ctx, "other/b.json", strings.NewReader("{}"), PutOptions{}); err != nil {
				t.Fatalf("put other: %v", err)
			}
			head, err := store.Head(ctx, "snapshots/a.json")
			if err != nil || head.ContentType != "application/json" {
				t.Fatalf("head: %+v %v", head, err)
			}
			list, err := store.List(ctx, "snapshots/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 1 || list[0].Key != "snapshots/a.json" {
				t.Fatalf("unexpected list %+v", list)
			}
			if _, _, err := store.Get(ctx, "snapshots/missing.json"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound from get, got %v", err)
			}
			if _, err := store.Head(ctx, "snapshots/missing.json"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound from head, got %v", err)
			}
			existed, err := store.Delete(ctx, "snapshots/a.json")
			if err != nil || !existed {
				t.Fatalf("delete: %v %v", existed, err)
			}
			existed, err = store.Delete(ctx, "snapshots/a.json")
			if err != nil || existed {
				t.Fatalf("second delete should report absence: %v %v", existed, err)
			}
		})
	}
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	if s, err := Open(ctx, Config{Driver: DriverMemory}); err != nil || s.Driver() != DriverMemory {
		t.Fatalf("memory driver: %v", err)
	}
	if s, err := Open(ctx, Config{FSRoot: t.TempDir()}); err != nil || s.Driver() != DriverFilesystem {
		t.Fatalf("default driver should be fs: %v", err)
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected bucket error")
	}
	if _, err := Open(ctx, Config{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
