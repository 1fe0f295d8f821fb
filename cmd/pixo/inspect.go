package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/config"
	"github.com/pixoapp/pixo/filesystem"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print collection counts and stored documents",
	Long: `Print the record counts of every collection, the collection documents
held by the document backend and, for the filesystem driver, the stored
objects.

Examples:
  pixo inspect
  pixo inspect --output json --objects`,
	RunE: runInspect,
}

var (
	inspectOutput  string
	inspectObjects bool
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "yaml", "output format: yaml, json")
	inspectCmd.Flags().BoolVar(&inspectObjects, "objects", false, "list stored objects (filesystem driver only)")
	rootCmd.AddCommand(inspectCmd)
}

// report is the output of the inspect command.
type report struct {
	Stats     pixo.Stats          `json:"stats" yaml:"stats"`
	Documents []pixo.DocumentInfo `json:"documents" yaml:"documents"`
	Objects   []filesystem.Object `json:"objects,omitempty" yaml:"objects,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectOutput != "yaml" && inspectOutput != "json" {
		return fmt.Errorf("unsupported output format: %q", inspectOutput)
	}

	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var r report

	r.Stats, err = a.service.Stats(ctx)
	if err != nil {
		return err
	}

	r.Documents, err = a.db.Documents().List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if inspectObjects {
		if a.objects.Files == nil {
			return fmt.Errorf("listing objects needs the filesystem driver, got %s", cfg.Objects.Driver)
		}
		r.Objects, err = a.objects.Files.List(ctx)
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}
	}

	return writeReport(cmd.OutOrStdout(), inspectOutput, r)
}

func writeReport(w io.Writer, format string, r report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
}
