package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pixoapp/pixo/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "pixo",
	Short:   "Minimal photo hosting backend",
	Long: `Pixo is a small photo hosting server. It keeps user accounts, albums
and image records as JSON collection documents and stores the image files
in a local directory, MinIO or Amazon S3.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "document backend: file, sqlite, postgres (default: file, env: PIXO_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: pixo.db, env: PIXO_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "document directory of the file backend (default: ./storage, env: PIXO_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
