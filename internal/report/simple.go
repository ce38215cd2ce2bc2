package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/remote"
)

const ruleWidth = 60

// SimpleWriter outputs a plain-text status table for terminals.
type SimpleWriter struct {
	baseWriter

	// verbose adds the identity list and last-run fetch counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the status in human-readable form.
func (w *SimpleWriter) Write(status *Status) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, status)
	w.writeYears(&sb, status)
	w.writeLedger(&sb, status)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, status *Status) {
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString("PUZZLE STORE STATUS\n")
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	fmt.Fprintf(sb, "Store:      %s\n", status.StoreRoot)
	fmt.Fprintf(sb, "Generated:  %s\n", status.Generated.Format("2006-01-02 15:04:05 MST"))
	if status.Primary != model.NoIdentity {
		fmt.Fprintf(sb, "Primary:    %s\n", status.Primary)
	}
	fmt.Fprintf(sb, "Identities: %d\n", len(status.Identities))
	if w.verbose {
		for _, id := range status.Identities {
			fmt.Fprintf(sb, "  - %s\n", id)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeYears(sb *strings.Builder, status *Status) {
	if status.Empty() {
		sb.WriteString("The store is empty.\n\n")
		return
	}

	fmt.Fprintf(sb, "%-6s %5s %7s %9s %9s %9s\n", "YEAR", "DAYS", "INPUTS", "EXAMPLES", "PART 1", "PART 2")
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	for _, y := range status.Years {
		writeYearRow(sb, fmt.Sprintf("%d", y.Year), y)
	}
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	writeYearRow(sb, "TOTAL", status.Totals())
	sb.WriteString("\n")
}

func writeYearRow(sb *strings.Builder, label string, y YearStatus) {
	fmt.Fprintf(sb, "%-6s %5d %7d %9d %9d %9d\n",
		label, y.Days, y.Inputs, y.Examples, y.Answers[1], y.Answers[2])
}

func (w *SimpleWriter) writeLedger(sb *strings.Builder, status *Status) {
	if status.Ledger == nil {
		return
	}
	sb.WriteString("PROVENANCE\n")
	fmt.Fprintf(sb, "  Artifacts: %d\n", status.Ledger.Artifacts)
	fmt.Fprintf(sb, "  Runs:      %d\n", status.Ledger.Runs)
	fmt.Fprintf(sb, "  Fetches:   %d\n", status.Ledger.Fetches)
	if w.verbose && status.LastRun != nil {
		fmt.Fprintf(sb, "  Last run:  %d fetches, %d failed, %d cached, %d downloaded\n",
			status.LastRun.Total, status.LastRun.Failed,
			status.LastRun.BySource[string(remote.SourceCache)],
			status.LastRun.BySource[string(remote.SourceNetwork)])
	}
	sb.WriteString("\n")
}
