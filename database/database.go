package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/database/postgres"
	"github.com/pixoapp/pixo/database/sqlite"
	"github.com/pixoapp/pixo/jsonfile"
)

// Backend types.
const (
	TypeFile     = "file"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Config holds the configuration for connecting to a document backend.
type Config struct {
	// Type specifies the backend: "file", "sqlite" or "postgres"
	Type string
	// DSN is the data source name for sqlite and postgres
	DSN string
	// Table is the name of the documents table for sqlite and postgres
	Table string
	// Dir is the storage directory for the file backend
	Dir string
}

// Documents is a document store that can also enumerate its documents.
type Documents interface {
	pixo.DocumentStore
	pixo.DocumentLister
}

// Database is a connected document backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	Documents() Documents
	Close() error
}

// Connect establishes a connection to the configured backend.
// Migrations are not run.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	switch cfg.Type {
	case TypeFile:
		return connectFile(cfg.Dir)
	case TypeSQLite:
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		return adapt[*sqlite.Documents](db), nil
	case TypePostgres:
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		return adapt[*postgres.Documents](db), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects, pings, migrates and validates the configured backend.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	return db, nil
}

type backend[D Documents] interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	Documents() D
	Close() error
}

// adapted exposes a backend's concrete repository as Documents.
type adapted[D Documents] struct {
	backend[D]
}

func adapt[D Documents](b backend[D]) Database {
	return adapted[D]{backend: b}
}

func (a adapted[D]) Documents() Documents {
	return a.backend.Documents()
}

type fileDatabase struct {
	store *jsonfile.Store
	close func() error
}

func connectFile(dir string) (*fileDatabase, error) {
	if dir == "" {
		return nil, errors.New("connect file: storage dir cannot be empty")
	}

	store, closeFn, err := jsonfile.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("connect file: %w", err)
	}

	return &fileDatabase{store: store, close: closeFn}, nil
}

func (f *fileDatabase) Ping(ctx context.Context) error {
	_, err := f.store.List(ctx)
	return err
}

// Migrate is a no-op: the directory is created on connect and documents on first write.
func (f *fileDatabase) Migrate(context.Context) error { return nil }

func (f *fileDatabase) Validate(context.Context) error { return nil }

func (f *fileDatabase) Documents() Documents { return f.store }

func (f *fileDatabase) Close() error { return f.close() }
