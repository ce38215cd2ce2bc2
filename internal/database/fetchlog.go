package database

import (
	"context"
	"log/slog"

	"github.com/nao1215/puzzlecrawl/internal/remote"
)

// FetchLog writes every fetch of one run to the ledger.
// It implements remote.Observer.
type FetchLog struct {
	ledger *Ledger
	runID  string
	logger *slog.Logger
}

// NewFetchLog creates a FetchLog for runID.
func NewFetchLog(ledger *Ledger, runID string, logger *slog.Logger) *FetchLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchLog{ledger: ledger, runID: runID, logger: logger}
}

// RunID returns the run the log writes under.
func (f *FetchLog) RunID() string {
	return f.runID
}

// ObserveFetch implements remote.Observer. Ledger failures are logged and
// never interrupt the crawl.
func (f *FetchLog) ObserveFetch(ctx context.Context, event remote.FetchEvent) {
	record := FetchRecord{
		RunID:     f.runID,
		Identity:  event.Identity,
		Path:      event.Path,
		Source:    string(event.Source),
		Bytes:     event.Bytes,
		Waited:    event.Waited,
		Timestamp: event.At,
	}
	if event.Err != nil {
		record.Error = event.Err.Error()
	}

	if err := f.ledger.RecordFetch(context.WithoutCancel(ctx), record); err != nil {
		f.logger.Warn("failed to record fetch", "path", event.Path, "error", err)
	}
}
