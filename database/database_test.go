package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Type:  database.TypeSQLite,
		DSN:   ":memory:",
		Table: "pixo_documents",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, db.Ping(ctx))
	exerciseDocuments(t, db.Documents())
}

func TestOpen_File(t *testing.T) {
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Type: database.TypeFile,
		Dir:  filepath.Join(t.TempDir(), "storage"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, db.Ping(ctx))
	exerciseDocuments(t, db.Documents())
}

func TestConnect_SQLiteValidateBeforeMigrate(t *testing.T) {
	ctx := context.Background()

	db, err := database.Connect(ctx, database.Config{
		Type:  database.TypeSQLite,
		DSN:   ":memory:",
		Table: "pixo_documents",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Error(t, db.Validate(ctx))
	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Validate(ctx))
}

func TestConnect_Invalid(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  database.Config
	}{
		{name: "unknown type", cfg: database.Config{Type: "mysql"}},
		{name: "empty type", cfg: database.Config{}},
		{name: "file without dir", cfg: database.Config{Type: database.TypeFile}},
		{name: "invalid table", cfg: database.Config{Type: database.TypeSQLite, DSN: ":memory:", Table: "Bad Table"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := database.Connect(ctx, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func exerciseDocuments(t *testing.T, docs database.Documents) {
	t.Helper()
	ctx := context.Background()

	_, err := docs.Read(ctx, "users.json")
	assert.ErrorIs(t, err, pixo.ErrNotFound)

	require.NoError(t, docs.Write(ctx, "users.json", []byte("[]\n")))

	data, err := docs.Read(ctx, "users.json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	list, err := docs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "users.json", list[0].Name)
}
