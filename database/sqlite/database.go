// Package sqlite stores pixo collection documents in a SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pixoapp/pixo"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db    *sql.DB
	table string
}

// Connect opens a SQLite database. The table name is validated but the table
// is not created until Migrate is called.
func Connect(ctx context.Context, dsn, table string) (*database, error) {
	if !pixo.IsValidTableName(table) {
		return nil, fmt.Errorf("connect sqlite: invalid table name: %s", table)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// Every pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	return &database{
		db:    db,
		table: table,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.table)
}

// Documents returns the document repository.
func (d *database) Documents() *Documents {
	return &Documents{db: d.db, table: d.table}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
