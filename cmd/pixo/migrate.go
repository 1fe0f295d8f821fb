package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pixoapp/pixo/config"
	"github.com/pixoapp/pixo/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the documents table",
	Long: `Create the documents table of the sqlite or postgres backend and
validate its schema. The file backend only needs its directory, which
is created when missing.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	dbCfg := cfg.DatabaseConfig()

	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("database migration complete", "type", dbCfg.Type, "table", dbCfg.Table)
	return nil
}
