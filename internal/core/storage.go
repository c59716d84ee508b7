package core

import (
	"context"
	"fmt"

	"dashcore/internal/blob"
	"dashcore/internal/config"
	"dashcore/internal/infra/persistence/blobkv"
	"dashcore/internal/infra/persistence/memory"
	"dashcore/internal/infra/persistence/postgres"
	"dashcore/internal/infra/persistence/sqlite"
	"dashcore/pkg/domain"
)

// OpenSnapshotStorage selects a snapshot storage backend from cfg. An empty
// driver defaults to sqlite.
func OpenSnapshotStorage(ctx context.Context, cfg config.Config) (domain.SnapshotStorage, error) {
	driver := cfg.StorageDriver
	if driver == "" {
		driver = config.StorageSQLite
	}
	switch driver {
	case config.StorageMemory:
		return memory.NewStore(), nil
	case config.StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case config.StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	case config.StorageBlob:
		store, err := blob.Open(ctx, blob.Config{
			Driver:      blob.Driver(cfg.Blob.Driver),
			FSRoot:      cfg.Blob.FSRoot,
			S3Bucket:    cfg.Blob.S3Bucket,
			S3Region:    cfg.Blob.S3Region,
			S3Endpoint:  cfg.Blob.S3Endpoint,
			S3PathStyle: cfg.Blob.S3PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return blobkv.New(store, ""), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
