package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/puzzlecrawl/internal/model"
)

// Step is one crawl sub-mode.
//
// Design decision: steps are an interface rather than plain functions so a
// step can carry its controller and its target day, and so every step has a
// Name for logs and for the report's list of performed steps.
type Step interface {
	// Do executes the step, recording its outcome in report.
	// Recoverable conditions are recorded in the report and return nil.
	Do(ctx context.Context, report *model.CrawlReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	// steps run in the order they were added.
	steps []Step

	// logger receives one line per step, tagged with the identity.
	logger *slog.Logger

	// continueOnError keeps running later steps after one fails.
	// The first failure is still recorded and returned.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue after a failed
// step.
//
// Design decision: "scrape all" uses this because the answer crawl does not
// depend on the input crawl having reached its end; a server error halfway
// through the inputs should not cost the answers of the days already
// crawled. The default stays stop-on-error: a single step that fails has
// nothing left to protect, and the caller learns of the failure at once.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked between steps;
// a step that is already running handles cancellation itself, which lets a
// crawl stop after the page it is fetching instead of mid-write.
//
// Returns the first error encountered if continueOnError is false. With
// continueOnError, the first error is returned after all steps ran. Either
// way the first error is also recorded in the report.
func (p *Pipeline) Execute(ctx context.Context, report *model.CrawlReport) error {
	logger := p.logger.With("identity", string(report.Identity))
	var firstErr error

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("crawl cancelled before step", "step", step.Name(), "reason", err)
			p.recordError(report, err)
			return err
		}

		logger.Info("executing step", "step", step.Name())
		began := time.Now()
		err := step.Do(ctx, report)
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
		if err == nil {
			logger.Debug("step completed", "step", step.Name(), "elapsed", time.Since(began))
			continue
		}

		logger.Error("step failed", "step", step.Name(), "elapsed", time.Since(began), "error", err)
		p.recordError(report, err)
		if firstErr == nil {
			firstErr = err
		}
		if !p.continueOnError {
			return err
		}
	}
	return firstErr
}

func (p *Pipeline) recordError(report *model.CrawlReport, err error) {
	if report.Error != nil {
		return
	}
	report.Error = err
	report.ErrorMessage = err.Error()
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
