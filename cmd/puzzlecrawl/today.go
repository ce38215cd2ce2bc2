package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/pipeline"
	"github.com/nao1215/puzzlecrawl/internal/registry"
)

// releaseZone is the fixed UTC-5 offset puzzles unlock in.
var releaseZone = time.FixedZone("UTC-5", -5*60*60)

// ErrNoPuzzleToday is returned outside the event without --year and --day.
var ErrNoPuzzleToday = errors.New("no puzzle is released today: pass --year and --day")

// NewTodayCmd creates the today command.
func NewTodayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Prepare today's puzzle for manual work",
		Long: `Today fetches the primary session's input for one day and creates the files
used while solving it by hand:

  inputs/EXAMPLE.txt       empty, paste the example here
  inputs/INPUT.txt         a copy of the real input
  answers/{1,2}/EXAMPLE.txt and answers/{1,2}/INPUT.txt  empty

Existing files are never overwritten. Without flags the day is the current
date in the puzzle release time zone.`,
		Args: cobra.NoArgs,
		RunE: runTodayCmd,
	}
	addRemoteFlags(cmd)
	cmd.Flags().Int("year", 0, "Event year (default: today)")
	cmd.Flags().Int("day", 0, "Event day (default: today)")
	return cmd
}

func runTodayCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	year, err := cmd.Flags().GetInt("year")
	if err != nil {
		return err
	}
	day, err := cmd.Flags().GetInt("day")
	if err != nil {
		return err
	}
	key, err := todayKey(time.Now(), year, day)
	if err != nil {
		return err
	}

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return err
	}
	id, err := reg.Primary()
	if err != nil {
		return err
	}
	credential, err := reg.PrimaryCredential()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	env, err := openCrawlEnv(cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close() //nolint:errcheck // best effort

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewTodayStep(env.controller(id, credential), key.Year, key.Day))
	if err := p.Execute(ctx, model.NewCrawlReport(id)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Prepared %04d day %d in %s\n", key.Year, key.Day, cfg.StoreDir)
	return nil
}

// todayKey picks the day to prepare: the flags when given, else the
// release date of now, which must fall within the event.
func todayKey(now time.Time, year, day int) (model.PuzzleKey, error) {
	local := now.In(releaseZone)
	if year == 0 {
		year = local.Year()
	}
	if day == 0 {
		if local.Month() != time.December || local.Day() > model.LastDay {
			return model.PuzzleKey{}, ErrNoPuzzleToday
		}
		day = local.Day()
	}
	key := model.DayKey(year, day)
	if err := key.Validate(); err != nil {
		return model.PuzzleKey{}, err
	}
	return key, nil
}
