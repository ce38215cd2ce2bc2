package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs the status as JSON for scripts and dashboards.
//
// Design decision: the document is the Status itself, without a wrapper.
// Its json tags are the contract, so `status --json | jq .years` keeps
// working when the text and markdown layouts change.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output. Compact output is one line.
	indent bool

	// indentPrefix starts every line of indented output.
	indentPrefix string

	// indentString is repeated once per nesting level, e.g. "  ".
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the status as a single JSON document followed by a newline.
func (w *JSONWriter) Write(status *Status) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(status, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(status)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
