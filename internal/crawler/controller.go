package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/puzzlecrawl/internal/database"
	"github.com/nao1215/puzzlecrawl/internal/extract"
	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/remote"
	"github.com/nao1215/puzzlecrawl/internal/store"
)

// Sub-mode names, used in reports, logs and metrics.
const (
	ModeInputs  = "inputs"
	ModeAnswers = "answers"
	ModeToday   = "today"
)

// Reasons a sub-mode ended.
const (
	StopNotAvailable = "not_available"
	StopError        = "error"
	StopLastYear     = "last_year"
	StopCanceled     = "canceled"
)

// Cache file suffixes of the two page kinds.
const (
	inputSuffix  = ".txt"
	puzzleSuffix = ".html"
)

// PageFetcher fetches pages as an identity. *remote.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, path string, identity model.Identity, suffix string) (model.Page, error)
}

// Provenance records when an identity first obtained an artifact.
// *database.Ledger satisfies it.
type Provenance interface {
	RecordArtifact(ctx context.Context, a database.Artifact) error
}

// Recorder counts crawl events. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveWrite(kind, result string)
	ObserveMissingAnswer()
	ObserveStop(mode, reason string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveWrite(string, string) {}
func (nopRecorder) ObserveMissingAnswer()       {}
func (nopRecorder) ObserveStop(string, string)  {}

// Controller crawls the calendar for a single identity.
// It is not safe for concurrent use; one controller is one logical worker.
type Controller struct {
	fetcher    PageFetcher
	store      *store.Store
	identity   model.Identity
	provenance Provenance
	recorder   Recorder
	runID      string
	lastYear   int
	logger     *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLedger records provenance for every stored or confirmed artifact.
func WithLedger(p Provenance) Option {
	return func(c *Controller) {
		c.provenance = p
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithRunID stamps provenance rows with the invocation's run id.
func WithRunID(runID string) Option {
	return func(c *Controller) {
		c.runID = runID
	}
}

// WithLastYear bounds the crawl. Years after it are never requested.
func WithLastYear(year int) Option {
	return func(c *Controller) {
		c.lastYear = year
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller for identity. The fetcher must send
// the identity's credential.
func NewController(fetcher PageFetcher, st *store.Store, identity model.Identity, opts ...Option) *Controller {
	c := &Controller{
		fetcher:  fetcher,
		store:    st,
		identity: identity,
		recorder: nopRecorder{},
		lastYear: time.Now().Year(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("identity", string(identity))
	return c
}

// Identity returns the identity the controller crawls as.
func (c *Controller) Identity() model.Identity {
	return c.identity
}

// Input fetches the input of a day and stores it under its content hash.
func (c *Controller) Input(ctx context.Context, year, day int) (model.ContentBlob, store.WriteResult, error) {
	key := model.DayKey(year, day)
	if err := key.Validate(); err != nil {
		return model.ContentBlob{}, 0, err
	}

	page, err := c.fetcher.Fetch(ctx, key.InputPath(), c.identity, inputSuffix)
	if err != nil {
		return model.ContentBlob{}, 0, err
	}

	blob := model.NewHashedBlob(model.KindInput, key, page.Body)
	result, path, err := c.store.Put(blob)
	if err != nil {
		return model.ContentBlob{}, 0, err
	}
	c.recorder.ObserveWrite(string(model.KindInput), result.String())
	c.logger.Debug("input resolved", "key", key.String(), "path", path, "result", result.String())

	if result != store.ResultCollision {
		c.recordProvenance(ctx, blob, page.FetchedAt)
	}
	return blob, result, nil
}

// Answer fetches the puzzle page of a day and stores the answer announced
// for part under the stem of the identity's input. An unsolved part yields
// extract.ErrAnswerNotFound unless another identity with the same input
// already stored the answer, in which case that answer is returned.
func (c *Controller) Answer(ctx context.Context, year, day, part int) (string, store.WriteResult, error) {
	key := model.PartKey(year, day, part)
	if err := key.Validate(); err != nil {
		return "", 0, err
	}
	if part == 0 {
		return "", 0, model.ErrInvalidPart
	}

	page, input, err := c.answerSources(ctx, year, day)
	if err != nil {
		return "", 0, err
	}
	return c.storeAnswer(ctx, key, page, input)
}

// answerSources fetches the puzzle page of a day and resolves the
// identity's input for it. The page comes first so an unreleased day ends
// the crawl without an input request.
func (c *Controller) answerSources(ctx context.Context, year, day int) (model.Page, model.ContentBlob, error) {
	page, err := c.fetcher.Fetch(ctx, model.DayKey(year, day).PuzzlePath(), c.identity, puzzleSuffix)
	if err != nil {
		return model.Page{}, model.ContentBlob{}, err
	}
	input, _, err := c.Input(ctx, year, day)
	if err != nil {
		return model.Page{}, model.ContentBlob{}, err
	}
	return page, input, nil
}

// storeAnswer extracts the answer of key from page and stores it under the
// stem of input.
func (c *Controller) storeAnswer(ctx context.Context, key model.PuzzleKey, page model.Page, input model.ContentBlob) (string, store.WriteResult, error) {
	path, err := c.store.PathFor(model.KindAnswer, key, input.Stem)
	if err != nil {
		return "", 0, err
	}

	answer, err := extract.Answer(page.Body, key.Part)
	if errors.Is(err, extract.ErrAnswerNotFound) {
		existing, ok, readErr := c.store.Read(path)
		if readErr != nil {
			return "", 0, readErr
		}
		if ok {
			c.logger.Debug("reusing answer stored for the same input", "key", key.String(), "path", path)
			return string(existing), store.ResultUnchanged, nil
		}
		return "", 0, err
	}

	result, err := c.store.WriteIfAbsent(path, []byte(answer))
	if err != nil {
		return "", 0, err
	}
	c.recorder.ObserveWrite(string(model.KindAnswer), result.String())
	c.logger.Debug("answer resolved", "key", key.String(), "path", path, "result", result.String())

	if result == store.ResultCollision {
		return answer, result, nil
	}
	c.recordProvenance(ctx, model.ContentBlob{
		Kind: model.KindAnswer, Key: key, Stem: input.Stem, Content: []byte(answer),
	}, page.FetchedAt)
	return answer, result, nil
}

// ScrapeInputs stores every released input in calendar order and stops at
// the first gap.
func (c *Controller) ScrapeInputs(ctx context.Context, report *model.CrawlReport) error {
	if report == nil {
		report = model.NewCrawlReport(c.identity)
	}
	c.logger.Info("scraping inputs")

	for year := model.FirstYear; year <= c.lastYear; year++ {
		for day := model.FirstDay; day <= model.LastDay; day++ {
			_, result, err := c.Input(ctx, year, day)
			if err != nil {
				return c.stop(ModeInputs, model.DayKey(year, day), err, report)
			}

			report.InputsSeen++
			switch result {
			case store.ResultCreated:
				report.InputsStored++
			case store.ResultCollision:
				report.Collisions++
			}
		}
	}

	c.recorder.ObserveStop(ModeInputs, StopLastYear)
	c.logger.Info("input crawl reached the last year", "last_year", c.lastYear)
	return nil
}

// ScrapeAnswers stores every announced answer in calendar order. The page
// and the input of a day are resolved once for both parts. Unsolved parts
// are skipped; the crawl stops at the first fetch failure.
func (c *Controller) ScrapeAnswers(ctx context.Context, report *model.CrawlReport) error {
	if report == nil {
		report = model.NewCrawlReport(c.identity)
	}
	c.logger.Info("scraping answers")

	for year := model.FirstYear; year <= c.lastYear; year++ {
		for day := model.FirstDay; day <= model.LastDay; day++ {
			page, input, err := c.answerSources(ctx, year, day)
			if err != nil {
				return c.stop(ModeAnswers, model.PartKey(year, day, model.Parts[0]), err, report)
			}

			for _, part := range model.Parts {
				key := model.PartKey(year, day, part)
				_, result, err := c.storeAnswer(ctx, key, page, input)
				if errors.Is(err, extract.ErrAnswerNotFound) {
					c.logger.Debug("no answer found", "key", key.String())
					report.AnswersMissing++
					c.recorder.ObserveMissingAnswer()
					continue
				}
				if err != nil {
					return c.stop(ModeAnswers, key, err, report)
				}

				report.AnswersSeen++
				switch result {
				case store.ResultCreated:
					report.AnswersStored++
				case store.ResultCollision:
					report.Collisions++
				}
			}
		}
	}

	c.recorder.ObserveStop(ModeAnswers, StopLastYear)
	c.logger.Info("answer crawl reached the last year", "last_year", c.lastYear)
	return nil
}

// Today prepares a day for manual work: empty EXAMPLE input, an INPUT copy
// of the identity's real input, and EXAMPLE and INPUT placeholders for both
// answer parts. Existing files are kept.
func (c *Controller) Today(ctx context.Context, year, day int) error {
	key := model.DayKey(year, day)
	if err := key.Validate(); err != nil {
		return err
	}

	examplePath, err := c.store.PathFor(model.KindInput, key, model.StemExample)
	if err != nil {
		return err
	}
	if _, err := c.store.CreatePlaceholder(examplePath); err != nil {
		return err
	}

	input, _, err := c.Input(ctx, year, day)
	if err != nil {
		return fmt.Errorf("failed to fetch input for %s: %w", key, err)
	}
	inputPath, err := c.store.PathFor(model.KindInput, key, model.StemInput)
	if err != nil {
		return err
	}
	if _, err := c.store.CreateCurated(inputPath, input.Content); err != nil {
		return err
	}

	for _, part := range model.Parts {
		for _, stem := range []model.Stem{model.StemExample, model.StemInput} {
			path, err := c.store.PathFor(model.KindAnswer, model.PartKey(year, day, part), stem)
			if err != nil {
				return err
			}
			if _, err := c.store.CreatePlaceholder(path); err != nil {
				return err
			}
		}
	}

	c.logger.Info("prepared day", "key", key.String())
	return nil
}

// stop ends a sub-mode at key. A 404 ends it cleanly; cancellation and
// other failures are returned.
func (c *Controller) stop(mode string, key model.PuzzleKey, err error, report *model.CrawlReport) error {
	report.StoppedAt = &key

	switch {
	case ctxErr(err):
		c.recorder.ObserveStop(mode, StopCanceled)
		return err
	case remote.IsNotAvailable(err):
		c.recorder.ObserveStop(mode, StopNotAvailable)
		c.logger.Info("crawl reached an unreleased day", "mode", mode, "key", key.String())
		return nil
	default:
		c.recorder.ObserveStop(mode, StopError)
		c.logger.Warn("crawl stopped on failure", "mode", mode, "key", key.String(), "error", err)
		return fmt.Errorf("%s crawl stopped at %s: %w", mode, key, err)
	}
}

func (c *Controller) recordProvenance(ctx context.Context, blob model.ContentBlob, fetchedAt time.Time) {
	if c.provenance == nil {
		return
	}
	err := c.provenance.RecordArtifact(ctx, database.Artifact{
		Identity:  c.identity,
		Kind:      blob.Kind,
		Key:       blob.Key,
		Stem:      blob.Stem,
		FirstSeen: fetchedAt,
		RunID:     c.runID,
	})
	if err != nil {
		c.logger.Warn("failed to record provenance", "key", blob.Key.String(), "error", err)
	}
}

func ctxErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
