package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pixoapp/pixo"
)

// Documents is a pixo.DocumentStore keeping one row per document.
type Documents struct {
	pool  *pgxpool.Pool
	table string
}

// Read returns the body of the named document, or pixo.ErrNotFound.
func (r *Documents) Read(ctx context.Context, name string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE name = $1`, pgx.Identifier{r.table}.Sanitize())

	var body string
	err := r.pool.QueryRow(ctx, query, name).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pixo.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return []byte(body), nil
}

// Write inserts or replaces the named document.
func (r *Documents) Write(ctx context.Context, name string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, body)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET body = EXCLUDED.body,
			updated_at = NOW()
	`, pgx.Identifier{r.table}.Sanitize())

	if _, err := r.pool.Exec(ctx, query, name, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// List returns every stored document, sorted by name.
func (r *Documents) List(ctx context.Context) ([]pixo.DocumentInfo, error) {
	query := fmt.Sprintf(`SELECT name, octet_length(body), updated_at FROM %s ORDER BY name`, pgx.Identifier{r.table}.Sanitize())

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]pixo.DocumentInfo, 0)
	for rows.Next() {
		var d pixo.DocumentInfo
		var updatedAt time.Time
		if err := rows.Scan(&d.Name, &d.Size, &updatedAt); err != nil {
			return nil, fmt.Errorf("list documents: scan: %w", err)
		}
		d.UpdatedAt = pixo.Timestamp(updatedAt)
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}
