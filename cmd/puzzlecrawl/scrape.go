package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/pipeline"
	"github.com/nao1215/puzzlecrawl/internal/registry"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape {inputs|answers|all}",
		Short: "Crawl inputs and answers for every registered session",
		Long: `Scrape walks the puzzle calendar from the first event onward for every
registered session, one session at a time.

  inputs   store every available puzzle input
  answers  store every accepted answer, keyed by the input it answers
  all      inputs, then answers

A crawl ends at the first puzzle the site does not offer yet, or after the
last year. Any other failure ends that session's crawl, the remaining
sessions still run, and the command exits non-zero.

Examples:
  puzzlecrawl scrape all
  puzzlecrawl scrape answers --last-year 2023`,
		ValidArgs: []string{string(pipeline.ModeInputs), string(pipeline.ModeAnswers), string(pipeline.ModeAll)},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE:      runScrapeCmd,
	}
	addRemoteFlags(cmd)
	cmd.Flags().Int("last-year", 0, "Last event year to crawl (default: current year)")
	return cmd
}

func runScrapeCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	mode := pipeline.Mode(args[0])

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	env, err := openCrawlEnv(cfg, logger)
	if err != nil {
		return err
	}

	crawlErr := scrapeAll(ctx, env, reg, mode, cmd.OutOrStdout(), logger)
	if err := env.Close(); err != nil {
		logger.Error("failed to close crawl environment", "error", err)
	}
	return crawlErr
}

// scrapeAll crawls every identity in turn. A failing identity does not stop
// the others; all failures are returned together.
func scrapeAll(ctx context.Context, env *crawlEnv, reg *registry.Registry, mode pipeline.Mode, out io.Writer, logger *slog.Logger) error {
	var failures []error
	for _, id := range reg.Identities() {
		if err := ctx.Err(); err != nil {
			return err
		}
		credential, _ := reg.Credential(id)

		p, err := pipeline.DefaultPipeline(env.controller(id, credential), mode, logger)
		if err != nil {
			return err
		}

		report := model.NewCrawlReport(id)
		if err := p.Execute(ctx, report); err != nil {
			if errors.Is(err, context.Canceled) {
				writeCrawlReport(out, report)
				return err
			}
			logger.Error("crawl failed", "identity", id, "error", err)
			failures = append(failures, fmt.Errorf("identity %s: %w", id, err))
		}
		writeCrawlReport(out, report)
	}
	return errors.Join(failures...)
}

// writeCrawlReport prints a one-line summary of a session's crawl.
func writeCrawlReport(out io.Writer, r *model.CrawlReport) {
	status := "ok"
	if r.ErrorMessage != "" {
		status = "error: " + r.ErrorMessage
	}
	stopped := ""
	if r.StoppedAt != nil {
		stopped = ", stopped at " + r.StoppedAt.String()
	}
	fmt.Fprintf(out, "%s: inputs %d new/%d seen, answers %d new/%d seen, %d unsolved, %d collisions%s in %s [%s]\n",
		r.Identity,
		r.InputsStored, r.InputsSeen,
		r.AnswersStored, r.AnswersSeen,
		r.AnswersMissing, r.Collisions,
		stopped,
		time.Since(r.Started).Round(time.Second),
		status,
	)
}
