package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/linkrank/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
// A run is written with its complete score mapping plus the top-N list.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithJSONTop sets the length of the "top" list.
func WithJSONTop(n int) JSONWriterOption {
	return func(w *JSONWriter) {
		w.top = n
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// runDocument is the JSON shape of a run.
type runDocument struct {
	*model.RankRun
	Top []model.ScoredURL `json:"top"`
}

// Write outputs the run in JSON format.
func (w *JSONWriter) Write(run *model.RankRun) (int, error) {
	if run.Error != nil && run.ErrorMessage == "" {
		run.ErrorMessage = run.Error.Error()
	}
	return w.writeJSON(runDocument{RankRun: run, Top: run.Top(w.top)})
}

// WriteSearch outputs the search result in JSON format.
func (w *JSONWriter) WriteSearch(result *model.SearchResult) (int, error) {
	return w.writeJSON(result)
}

// writeJSON encodes v with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
