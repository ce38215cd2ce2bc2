package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "puzzlecrawl",
		Short: "Collect puzzle inputs and answers into a content-addressed store",
		Long: `puzzlecrawl crawls the puzzle calendar for every registered session and
stores each input and accepted answer once, addressed by the hash of the
input it belongs to. Downloads are cached, paced with a jittered delay and
never repeated.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .puzzlecrawl in current or home directory)")

	cmd.AddCommand(NewSessionCmd())
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewTodayCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
