// Package objectstore selects and opens the configured pixo.ObjectStore.
package objectstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/filesystem"
	"github.com/pixoapp/pixo/objectstore/awss3"
	"github.com/pixoapp/pixo/objectstore/minio"
)

// Drivers.
const (
	DriverFilesystem = "filesystem"
	DriverMinIO      = "minio"
	DriverS3         = "s3"
)

// Config selects a driver and carries its settings.
type Config struct {
	Driver string

	// Dir and PublicURL configure the filesystem driver.
	Dir       string
	PublicURL string

	MinIO minio.Config
	S3    awss3.Config
}

// Backend is an opened object store.
type Backend struct {
	pixo.ObjectStore

	// Files is set for the filesystem driver so objects can be served locally.
	Files *filesystem.Store

	closeFn func() error
}

// Close releases resources held by the backend.
func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// Open builds the object store named by cfg.Driver.
func Open(cfg Config) (*Backend, error) {
	switch cfg.Driver {
	case DriverFilesystem:
		if cfg.Dir == "" {
			return nil, errors.New("open object store: filesystem dir cannot be empty")
		}
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("open object store: %w", err)
		}
		root, err := os.OpenRoot(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open object store: %w", err)
		}
		files := filesystem.NewFileStorage(root, cfg.PublicURL)
		return &Backend{ObjectStore: files, Files: files, closeFn: root.Close}, nil

	case DriverMinIO:
		store, err := minio.New(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("open object store: %w", err)
		}
		return &Backend{ObjectStore: store}, nil

	case DriverS3:
		return &Backend{ObjectStore: awss3.Connect(cfg.S3)}, nil

	default:
		return nil, fmt.Errorf("open object store: unsupported driver: %q", cfg.Driver)
	}
}
