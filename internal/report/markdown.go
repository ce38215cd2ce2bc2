package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/puzzlecrawl/internal/model"
)

// MarkdownWriter outputs the status as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the status in Markdown.
func (w *MarkdownWriter) Write(status *Status) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, status)
	if status.Empty() {
		md.Note("The store is empty. Run `puzzlecrawl scrape all` to fill it.")
		md.PlainText("")
	} else {
		w.writeInputs(md, status)
		w.writeAnswers(md, status)
	}
	w.writeLedger(md, status)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, status *Status) {
	md.H1("Puzzle Store Status")
	md.PlainText("")

	primary := "-"
	if status.Primary != model.NoIdentity {
		primary = "`" + string(status.Primary) + "`"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Store", "`" + status.StoreRoot + "`"},
			{"Generated", status.Generated.Format("2006-01-02 15:04:05 MST")},
			{"Primary identity", primary},
			{"Identities", strconv.Itoa(len(status.Identities))},
		},
	})
	md.PlainText("")
}

// kindHeading turns a kind into a section title, e.g. "Inputs".
func kindHeading(kind model.Kind) string {
	return cases.Title(language.English).String(kind.Dir())
}

func (w *MarkdownWriter) writeInputs(md *markdown.Markdown, status *Status) {
	md.H2(kindHeading(model.KindInput))
	md.PlainText("")

	rows := make([][]string, 0, len(status.Years)+1)
	for _, y := range status.Years {
		rows = append(rows, []string{
			strconv.Itoa(y.Year), strconv.Itoa(y.Days), strconv.Itoa(y.Inputs), strconv.Itoa(y.Examples),
		})
	}
	t := status.Totals()
	rows = append(rows, []string{
		"**Total**", "**" + strconv.Itoa(t.Days) + "**",
		"**" + strconv.Itoa(t.Inputs) + "**", "**" + strconv.Itoa(t.Examples) + "**",
	})

	md.Table(markdown.TableSet{
		Header: []string{"Year", "Days", "Inputs", "Examples"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAnswers(md *markdown.Markdown, status *Status) {
	md.H2(kindHeading(model.KindAnswer))
	md.PlainText("")

	rows := make([][]string, 0, len(status.Years))
	for _, y := range status.Years {
		rows = append(rows, []string{
			strconv.Itoa(y.Year), strconv.Itoa(y.Answers[1]), strconv.Itoa(y.Answers[2]),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Year", "Part 1", "Part 2"},
		Rows:   rows,
	})
	md.PlainText("")

	if status.Totals().AnswerTotal() > 0 {
		w.writePieChart(md, status)
	}
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, status *Status) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Answers by Year"),
		piechart.WithShowData(true),
	)
	for _, y := range status.Years {
		if n := y.AnswerTotal(); n > 0 {
			chart.LabelAndIntValue(strconv.Itoa(y.Year), uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeLedger(md *markdown.Markdown, status *Status) {
	if status.Ledger == nil {
		return
	}
	md.H2("Provenance")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Artifacts", strconv.Itoa(status.Ledger.Artifacts)},
			{"Identities", strconv.Itoa(status.Ledger.Identities)},
			{"Runs", strconv.Itoa(status.Ledger.Runs)},
			{"Fetches", strconv.Itoa(status.Ledger.Fetches)},
		},
	})
	md.PlainText("")

	if status.LastRun != nil && status.LastRun.Failed > 0 {
		md.Warningf("%d of %d fetches failed in the last run.", status.LastRun.Failed, status.LastRun.Total)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [puzzlecrawl](https://github.com/nao1215/puzzlecrawl)*")
}
