package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/puzzlecrawl/internal/crawler"
	"github.com/nao1215/puzzlecrawl/internal/model"
)

// Crawler is the part of *crawler.Controller the steps drive.
type Crawler interface {
	ScrapeInputs(ctx context.Context, report *model.CrawlReport) error
	ScrapeAnswers(ctx context.Context, report *model.CrawlReport) error
	Today(ctx context.Context, year, day int) error
}

// InputsStep runs the input crawl.
type InputsStep struct {
	crawler Crawler
}

// NewInputsStep creates an InputsStep.
func NewInputsStep(c Crawler) *InputsStep {
	return &InputsStep{crawler: c}
}

// Name implements Step.
func (s *InputsStep) Name() string {
	return crawler.ModeInputs
}

// Do implements Step.
func (s *InputsStep) Do(ctx context.Context, report *model.CrawlReport) error {
	return s.crawler.ScrapeInputs(ctx, report)
}

// AnswersStep runs the answer crawl.
type AnswersStep struct {
	crawler Crawler
}

// NewAnswersStep creates an AnswersStep.
func NewAnswersStep(c Crawler) *AnswersStep {
	return &AnswersStep{crawler: c}
}

// Name implements Step.
func (s *AnswersStep) Name() string {
	return crawler.ModeAnswers
}

// Do implements Step.
func (s *AnswersStep) Do(ctx context.Context, report *model.CrawlReport) error {
	return s.crawler.ScrapeAnswers(ctx, report)
}

// TodayStep prepares one day for manual work.
type TodayStep struct {
	crawler Crawler
	year    int
	day     int
}

// NewTodayStep creates a TodayStep for the given day.
func NewTodayStep(c Crawler, year, day int) *TodayStep {
	return &TodayStep{crawler: c, year: year, day: day}
}

// Name implements Step.
func (s *TodayStep) Name() string {
	return crawler.ModeToday
}

// Do implements Step.
func (s *TodayStep) Do(ctx context.Context, _ *model.CrawlReport) error {
	return s.crawler.Today(ctx, s.year, s.day)
}

// Mode selects which sub-modes DefaultPipeline runs.
type Mode string

const (
	// ModeInputs crawls inputs only.
	ModeInputs Mode = crawler.ModeInputs
	// ModeAnswers crawls answers only.
	ModeAnswers Mode = crawler.ModeAnswers
	// ModeAll crawls inputs, then answers.
	ModeAll Mode = "all"
)

// DefaultPipeline builds the pipeline for a scrape mode.
func DefaultPipeline(c Crawler, mode Mode, logger *slog.Logger) (*Pipeline, error) {
	switch mode {
	case ModeInputs:
		p := New(WithLogger(logger))
		p.AddStep(NewInputsStep(c))
		return p, nil
	case ModeAnswers:
		p := New(WithLogger(logger))
		p.AddStep(NewAnswersStep(c))
		return p, nil
	case ModeAll:
		p := New(WithLogger(logger), WithContinueOnError(true))
		p.AddSteps(NewInputsStep(c), NewAnswersStep(c))
		return p, nil
	default:
		return nil, fmt.Errorf("unknown scrape mode %q", mode)
	}
}
