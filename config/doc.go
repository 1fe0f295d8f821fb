// Package config provides configuration loading and validation for pixo.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (PIXO_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with PIXO_ prefix:
//   - server.port → PIXO_SERVER_PORT
//   - database.type → PIXO_DATABASE_TYPE
//   - objects.secret_key → PIXO_OBJECTS_SECRET_KEY
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev (colored text logs) or prod (JSON logs)
//   - Server: port, max_upload_size and shutdown_timeout
//   - Service: cleanup_timeout for orphan object removal
//   - Storage: document directory, corrupt-document recovery and collection names
//   - Database: document backend type (file, sqlite, postgres), DSN and table
//   - Objects: object store driver (filesystem, minio, s3) and its settings
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Database type must be file, sqlite, or postgres; the others need dsn and table
//   - Objects driver must be filesystem, minio, or s3; remote drivers need a bucket
//   - Log level, when set, must be debug, info, warn, or error
//
// Collection document names must be non-empty, distinct and safe file names.
package config
