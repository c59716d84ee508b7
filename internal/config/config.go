// Package config loads runtime configuration from DASHCORE_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// StorageDriver identifies a snapshot storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // blob store (fs, s3, memory)
)

// Config is the full runtime configuration.
type Config struct {
	StorageDriver  StorageDriver `env:"DASHCORE_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath     string        `env:"DASHCORE_SQLITE_PATH" envDefault:"dashcore.db"`
	PostgresDSN    string        `env:"DASHCORE_POSTGRES_DSN" envDefault:"postgres://localhost/dashcore?sslmode=disable"`
	Blob           BlobConfig
	SnapshotPrefix string        `env:"DASHCORE_SNAPSHOT_PREFIX" envDefault:"dashboard_state"`
	ScriptTimeout  time.Duration `env:"DASHCORE_SCRIPT_TIMEOUT" envDefault:"5s"`
	DataSeed       uint64        `env:"DASHCORE_DATA_SEED" envDefault:"42"`
}

// BlobConfig configures the blob-backed snapshot driver.
type BlobConfig struct {
	Driver      string `env:"DASHCORE_BLOB_DRIVER" envDefault:"fs"`
	FSRoot      string `env:"DASHCORE_BLOB_FS_ROOT" envDefault:"./blobdata"`
	S3Bucket    string `env:"DASHCORE_BLOB_S3_BUCKET"`
	S3Region    string `env:"DASHCORE_BLOB_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"DASHCORE_BLOB_S3_ENDPOINT"`
	S3PathStyle bool   `env:"DASHCORE_BLOB_S3_PATH_STYLE" envDefault:"false"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the supplied variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	case StorageBlob:
		switch c.Blob.Driver {
		case "fs", "memory":
		case "s3":
			if c.Blob.S3Bucket == "" {
				return fmt.Errorf("DASHCORE_BLOB_S3_BUCKET required for s3 blob driver")
			}
		default:
			return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("script timeout must be positive, got %s", c.ScriptTimeout)
	}
	return nil
}
