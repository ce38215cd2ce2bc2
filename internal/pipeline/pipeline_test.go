package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/puzzlecrawl/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.CrawlReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.CrawlReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func quietPipeline(opts ...Option) *Pipeline {
	return New(append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)...)
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.continueOnError {
			t.Error("expected continueOnError to default to false")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)
		record := func(name string) func(context.Context, *model.CrawlReport) error {
			return func(context.Context, *model.CrawlReport) error {
				executionOrder = append(executionOrder, name)
				return nil
			}
		}

		p := quietPipeline()
		p.AddSteps(
			&mockStep{name: "inputs", doFunc: record("inputs")},
			&mockStep{name: "answers", doFunc: record("answers")},
		)

		report := model.NewCrawlReport("7")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executionOrder) != 2 || executionOrder[0] != "inputs" || executionOrder[1] != "answers" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
		if len(report.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %v", report.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := quietPipeline()
		p.AddSteps(
			&mockStep{
				name:   "failing-step",
				doFunc: func(context.Context, *model.CrawlReport) error { return expectedErr },
			},
			second,
		)

		report := model.NewCrawlReport("7")
		err := p.Execute(context.Background(), report)
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if report.ErrorMessage != expectedErr.Error() {
			t.Errorf("expected error message %q, got %q", expectedErr.Error(), report.ErrorMessage)
		}
	})

	t.Run("continues on error when configured and reports the first", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first")
		second := &mockStep{
			name:   "fails-too",
			doFunc: func(context.Context, *model.CrawlReport) error { return errors.New("second") },
		}

		p := quietPipeline(WithContinueOnError(true))
		p.AddSteps(
			&mockStep{
				name:   "failing-step",
				doFunc: func(context.Context, *model.CrawlReport) error { return first },
			},
			second,
		)

		report := model.NewCrawlReport("7")
		err := p.Execute(context.Background(), report)
		if !errors.Is(err, first) {
			t.Errorf("expected first error, got %v", err)
		}
		if second.callCount != 1 {
			t.Error("second step should have been called")
		}
		if !errors.Is(report.Error, first) {
			t.Errorf("report.Error = %v, want first error", report.Error)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := quietPipeline()
		p.AddStep(step)

		report := model.NewCrawlReport("7")
		err := p.Execute(ctx, report)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if !errors.Is(report.Error, context.Canceled) {
			t.Errorf("report.Error = %v", report.Error)
		}
	})
}

// TestPipelineStepNames tests the StepNames method.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	t.Run("returns empty slice for empty pipeline", func(t *testing.T) {
		t.Parallel()

		if names := New().StepNames(); len(names) != 0 {
			t.Errorf("expected empty slice, got %v", names)
		}
	})

	t.Run("returns names in order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&mockStep{name: "alpha"}, &mockStep{name: "beta"}, &mockStep{name: "gamma"})

		names := p.StepNames()
		if len(names) != 3 || names[0] != "alpha" || names[1] != "beta" || names[2] != "gamma" {
			t.Errorf("unexpected names: %v", names)
		}
	})
}
