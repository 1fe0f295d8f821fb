package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/database"
	pixohttp "github.com/pixoapp/pixo/http"
	"github.com/pixoapp/pixo/objectstore"
	"github.com/pixoapp/pixo/objectstore/awss3"
	"github.com/pixoapp/pixo/objectstore/minio"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for pixo.
type Config struct {
	Env      string              `mapstructure:"env" validate:"required,oneof=dev prod production"`
	Server   ServerConfig        `mapstructure:"server"`
	Service  ServiceConfig       `mapstructure:"service"`
	Storage  StorageConfig       `mapstructure:"storage"`
	Database DatabaseConfig      `mapstructure:"database"`
	Objects  ObjectsConfig       `mapstructure:"objects"`
	CORS     pixohttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig           `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize   int64 `mapstructure:"max_upload_size" validate:"min=1"`
	ShutdownTimeout int   `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// StorageConfig holds collection document configuration.
type StorageConfig struct {
	// Path is the document directory of the file database.
	Path           string           `mapstructure:"path" validate:"required"`
	RecoverCorrupt bool             `mapstructure:"recover_corrupt"`
	Collections    pixo.Collections `mapstructure:"collections"`
}

// DatabaseConfig selects the document backend.
type DatabaseConfig struct {
	Type  string `mapstructure:"type" validate:"required,oneof=file sqlite postgres"`
	DSN   string `mapstructure:"dsn" validate:"required_unless=Type file"`
	Table string `mapstructure:"table" validate:"required_unless=Type file"`
}

// ObjectsConfig selects the object store.
type ObjectsConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=filesystem minio s3"`
	Path         string `mapstructure:"path" validate:"required_if=Driver filesystem"`
	PublicURL    string `mapstructure:"public_url" validate:"required_if=Driver filesystem"`
	Endpoint     string `mapstructure:"endpoint" validate:"required_if=Driver minio"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket" validate:"required_unless=Driver filesystem"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// IsProd reports whether the production environment is selected.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// DatabaseConfig converts the database and storage sections for database.Open.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Type:  c.Database.Type,
		DSN:   c.Database.DSN,
		Table: c.Database.Table,
		Dir:   c.Storage.Path,
	}
}

// ObjectStoreConfig converts the objects section for objectstore.Open.
func (c *Config) ObjectStoreConfig() objectstore.Config {
	o := c.Objects
	return objectstore.Config{
		Driver:    o.Driver,
		Dir:       o.Path,
		PublicURL: o.PublicURL,
		MinIO: minio.Config{
			Endpoint:  o.Endpoint,
			AccessKey: o.AccessKey,
			SecretKey: o.SecretKey,
			Bucket:    o.Bucket,
			UseSSL:    o.UseSSL,
			PublicURL: o.PublicURL,
		},
		S3: awss3.Config{
			Endpoint:     o.Endpoint,
			Region:       o.Region,
			Bucket:       o.Bucket,
			AccessKey:    o.AccessKey,
			SecretKey:    o.SecretKey,
			UsePathStyle: o.UsePathStyle,
			PublicURL:    o.PublicURL,
		},
	}
}

// CleanupTimeout returns the orphan cleanup timeout as a duration.
func (c *Config) CleanupTimeout() time.Duration {
	return time.Duration(c.Service.CleanupTimeout) * time.Second
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-path": "storage.path",
	"port":         "server.port",
	"objects-path": "objects.path",
	"public-url":   "objects.public_url",
}

// bindFlags binds the CLI flags listed in flagToViperKey to their viper keys.
// Other flags are command options such as inspect's --objects and stay unbound.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey, ok := flagToViperKey[f.Name]
		if !ok {
			return
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
// Every key has a default so environment variables can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_upload_size", pixo.DefaultMaxUploadSize)
	v.SetDefault("server.shutdown_timeout", 30) // seconds

	v.SetDefault("service.cleanup_timeout", 30) // seconds

	collections := pixo.DefaultCollections()
	v.SetDefault("storage.path", "./storage")
	v.SetDefault("storage.recover_corrupt", false)
	v.SetDefault("storage.collections.users", collections.Users)
	v.SetDefault("storage.collections.albums", collections.Albums)
	v.SetDefault("storage.collections.images", collections.Images)
	v.SetDefault("storage.collections.guests", collections.Guests)

	v.SetDefault("database.type", "file")
	v.SetDefault("database.dsn", "pixo.db")
	v.SetDefault("database.table", "pixo_documents")

	v.SetDefault("objects.driver", "filesystem")
	v.SetDefault("objects.path", "./uploads")
	v.SetDefault("objects.public_url", "http://localhost:5000/files")
	v.SetDefault("objects.endpoint", "")
	v.SetDefault("objects.region", "us-east-1")
	v.SetDefault("objects.bucket", "")
	v.SetDefault("objects.access_key", "")
	v.SetDefault("objects.secret_key", "")
	v.SetDefault("objects.use_ssl", false)
	v.SetDefault("objects.use_path_style", true)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("PIXO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.Storage.Collections.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
