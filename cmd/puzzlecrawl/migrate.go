package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/puzzlecrawl/internal/migrate"
	"github.com/nao1215/puzzlecrawl/internal/store"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import a legacy data directory into the store",
		Long: `Migrate copies a legacy data directory, laid out as
inputs/{year}/{day}/{name}.txt plus answers.json, into the content-addressed
store. Curated examples keep an upper-case name; everything else is filed
under the hash of its input. Existing files are never replaced, so the
command can be run again safely.

Examples:
  puzzlecrawl migrate --legacy-dir ./data.bak`,
		Args: cobra.NoArgs,
		RunE: runMigrateCmd,
	}
	addStoreFlags(cmd)
	cmd.Flags().String("legacy-dir", "", "Legacy data directory")
	_ = cmd.MarkFlagRequired("legacy-dir")
	return cmd
}

func runMigrateCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	legacyDir, err := cmd.Flags().GetString("legacy-dir")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	st := store.New(cfg.StoreDir, store.WithLogger(logger))
	res, err := migrate.New(legacyDir, st, migrate.WithLogger(logger)).Run(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Inputs:  %d created, %d unchanged, %d collisions\n",
		res.Inputs.Created, res.Inputs.Unchanged, res.Inputs.Collision)
	fmt.Fprintf(out, "Answers: %d created, %d unchanged, %d collisions, %d skipped\n",
		res.Answers.Created, res.Answers.Unchanged, res.Answers.Collision, res.Answers.Skipped)
	return nil
}
