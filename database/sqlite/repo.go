package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pixoapp/pixo"
)

// Documents is a pixo.DocumentStore keeping one row per document.
type Documents struct {
	db    *sql.DB
	table string
}

// Read returns the body of the named document, or pixo.ErrNotFound.
func (r *Documents) Read(ctx context.Context, name string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE name = ?`, quoteIdentifier(r.table))

	var body string
	err := r.db.QueryRowContext(ctx, query, name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pixo.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return []byte(body), nil
}

// Write inserts or replaces the named document.
func (r *Documents) Write(ctx context.Context, name string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET body = excluded.body,
			updated_at = excluded.updated_at
	`, quoteIdentifier(r.table))

	if _, err := r.db.ExecContext(ctx, query, name, string(data), pixo.Timestamp(time.Now())); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// List returns every stored document, sorted by name.
func (r *Documents) List(ctx context.Context) ([]pixo.DocumentInfo, error) {
	query := fmt.Sprintf(`SELECT name, length(CAST(body AS BLOB)), updated_at FROM %s ORDER BY name`, quoteIdentifier(r.table))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]pixo.DocumentInfo, 0)
	for rows.Next() {
		var d pixo.DocumentInfo
		if err := rows.Scan(&d.Name, &d.Size, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list documents: scan: %w", err)
		}
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}
