package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/puzzlecrawl/internal/config"
	"github.com/nao1215/puzzlecrawl/internal/database"
	"github.com/nao1215/puzzlecrawl/internal/registry"
	"github.com/nao1215/puzzlecrawl/internal/report"
	"github.com/nao1215/puzzlecrawl/internal/store"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the store",
		Long: `Status counts, per year, the days present, the inputs, the curated examples
and the answers of each part, together with provenance totals.

Examples:
  puzzlecrawl status
  puzzlecrawl status --markdown -o STATUS.md

With -o the chosen format goes to the file and the plain summary is still
printed.`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}
	addStoreFlags(cmd)
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	status, err := collectStatus(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outputPath == "" {
		w, err := statusWriter(cmd, cmd.OutOrStdout(), cfg.Verbose)
		if err != nil {
			return err
		}
		_, err = w.Write(status)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(outputPath) //nolint:gosec // user-chosen output path
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	// The file gets the requested format, the terminal the summary.
	fileWriter, err := statusWriter(cmd, f, cfg.Verbose)
	if err != nil {
		return err
	}
	w := report.NewMultiWriter(fileWriter, report.NewSimpleWriter(cmd.OutOrStdout()))
	if _, err := w.Write(status); err != nil {
		return err
	}
	logger.Info("status written", "file", outputPath)
	return nil
}

func statusWriter(cmd *cobra.Command, out io.Writer, verbose bool) (report.Writer, error) {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	switch {
	case asJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint()), nil
	case asMarkdown:
		return report.NewMarkdownWriter(out), nil
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(verbose)), nil
	}
}

// collectStatus reads the store inventory, the registry and, when it
// exists, the ledger. A missing registry or ledger is not an error.
func collectStatus(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*report.Status, error) {
	st := store.New(cfg.StoreDir, store.WithLogger(logger))
	inv, err := st.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	status := report.NewStatus(st.Root(), inv)

	reg, err := registry.LoadOrEmpty(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}
	status.Identities = reg.Identities()
	if primary, err := reg.Primary(); err == nil {
		status.Primary = primary
	}

	path := ledgerPath(cfg)
	if path == "" {
		return status, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return status, nil
	}

	ledger, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer ledger.Close()

	stats, err := ledger.Stats(ctx)
	if err != nil {
		return nil, err
	}
	status.Ledger = &stats

	runID, ok, err := ledger.LastRunID(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		counts, err := ledger.CountFetches(ctx, runID)
		if err != nil {
			return nil, err
		}
		status.LastRun = &counts
	}
	return status, nil
}
