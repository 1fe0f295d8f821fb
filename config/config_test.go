package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/config"
	"github.com/pixoapp/pixo/database"
	"github.com/pixoapp/pixo/objectstore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, pixo.DefaultMaxUploadSize, cfg.Server.MaxUploadSize)
	assert.Equal(t, 30*time.Second, cfg.CleanupTimeout())
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, "./storage", cfg.Storage.Path)
	assert.False(t, cfg.Storage.RecoverCorrupt)
	assert.Equal(t, pixo.DefaultCollections(), cfg.Storage.Collections)
	assert.Equal(t, "file", cfg.Database.Type)
	assert.Equal(t, "filesystem", cfg.Objects.Driver)
	assert.Equal(t, "./uploads", cfg.Objects.Path)
	assert.Equal(t, "http://localhost:5000/files", cfg.Objects.PublicURL)
	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, "", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
env: prod
server:
  port: 8080
  max_upload_size: 1048576
storage:
  path: /var/lib/pixo
  recover_corrupt: true
  collections:
    guests: guests.json
database:
  type: postgres
  dsn: postgres://localhost/pixo
  table: documents
objects:
  driver: minio
  endpoint: minio:9000
  bucket: photos
  access_key: minioadmin
  secret_key: minioadmin
  use_ssl: true
log:
  level: debug
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(1048576), cfg.Server.MaxUploadSize)
	assert.True(t, cfg.Storage.RecoverCorrupt)
	assert.Equal(t, "guests.json", cfg.Storage.Collections.Guests)
	assert.Equal(t, "users.json", cfg.Storage.Collections.Users)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Equal(t, database.Config{
		Type:  "postgres",
		DSN:   "postgres://localhost/pixo",
		Table: "documents",
		Dir:   "/var/lib/pixo",
	}, cfg.DatabaseConfig())

	objects := cfg.ObjectStoreConfig()
	assert.Equal(t, objectstore.DriverMinIO, objects.Driver)
	assert.Equal(t, "minio:9000", objects.MinIO.Endpoint)
	assert.Equal(t, "photos", objects.MinIO.Bucket)
	assert.True(t, objects.MinIO.UseSSL)
	assert.Equal(t, "photos", objects.S3.Bucket)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	base := writeConfig(t, `
server:
  port: 7000
database:
  type: sqlite
  dsn: base.db
`)
	override := writeConfig(t, `
database:
  dsn: override.db
`)

	cfg, err := config.Load([]string{base, override}, nil)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "override.db", cfg.Database.DSN)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid port", content: "server:\n  port: 70000\n"},
		{name: "invalid database type", content: "database:\n  type: mysql\n"},
		{name: "sqlite without dsn", content: "database:\n  type: sqlite\n  dsn: \"\"\n"},
		{name: "invalid objects driver", content: "objects:\n  driver: ftp\n"},
		{name: "s3 without bucket", content: "objects:\n  driver: s3\n"},
		{name: "invalid log level", content: "log:\n  level: verbose\n"},
		{name: "invalid env", content: "env: staging\n"},
		{name: "shared collection document", content: "storage:\n  collections:\n    albums: users.json\n"},
		{name: "unsafe collection name", content: "storage:\n  collections:\n    users: ../users.json\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load([]string{writeConfig(t, tt.content)}, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("PIXO_SERVER_PORT", "9090")
	t.Setenv("PIXO_DATABASE_TYPE", "sqlite")
	t.Setenv("PIXO_OBJECTS_PUBLIC_URL", "https://cdn.example.com")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "https://cdn.example.com", cfg.Objects.PublicURL)
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("PIXO_SERVER_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("db-type", "", "")
	flags.String("storage-path", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "6000", "--storage-path", "/tmp/pixo"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Server.Port, "flags override env")
	assert.Equal(t, "/tmp/pixo", cfg.Storage.Path)
	assert.Equal(t, "file", cfg.Database.Type, "unset flags keep defaults")
}

func TestLoad_UnmappedFlagsIgnored(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("objects", false, "")
	flags.String("output", "yaml", "")
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--objects", "--output", "json"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, "filesystem", cfg.Objects.Driver)
	assert.Equal(t, "./uploads", cfg.Objects.Path)
}

func TestFromContext_Missing(t *testing.T) {
	_, err := config.FromContext(context.Background())
	assert.Error(t, err)
}
