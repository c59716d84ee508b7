// Package blobkv adapts a blob.Store into snapshot storage. Each key becomes
// one JSON object under a fixed directory prefix.
package blobkv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"dashcore/internal/blob"
	"dashcore/pkg/domain"
)

var _ domain.SnapshotStorage = (*Store)(nil)

const (
	// DefaultDir is the object prefix snapshots are written under.
	DefaultDir  = "snapshots/"
	objectExt   = ".json"
	contentType = "application/json"
)

// Store keeps snapshot payloads as blob objects.
type Store struct {
	blobs blob.Store
	dir   string
}

// New wraps blobs. An empty dir selects DefaultDir.
func New(blobs blob.Store, dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return &Store{blobs: blobs, dir: dir}
}

func (s *Store) objectKey(key string) string { return s.dir + key + objectExt }

// Get reads the object for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := s.blobs.Get(ctx, s.objectKey(key))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, key)
		}
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// Set writes or replaces the object for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("blob kv: empty key")
	}
	_, err := s.blobs.Put(ctx, s.objectKey(key), bytes.NewReader(value), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"snapshot-key": key},
	})
	return err
}

// Delete removes the object for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	existed, err := s.blobs.Delete(ctx, s.objectKey(key))
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, key)
	}
	return nil
}

// Keys lists snapshot keys starting with prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	infos, err := s.blobs.List(ctx, s.dir+prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, objectExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(info.Key, s.dir), objectExt))
	}
	return keys, nil
}

// Close is a no-op; blob stores hold no long-lived resources.
func (s *Store) Close() error { return nil }

// Driver reports the underlying blob driver.
func (s *Store) Driver() blob.Driver { return s.blobs.Driver() }
