package report

import (
	"io"

	"github.com/nao1215/linkrank/internal/model"
)

// DefaultTop is the number of URLs listed by default.
const DefaultTop = 20

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a ranking run.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.RankRun) (int, error)

	// WriteSearch outputs the result of a text query.
	WriteSearch(result *model.SearchResult) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.RankRun) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSearch outputs the search result to all configured Writers.
func (m *MultiWriter) WriteSearch(result *model.SearchResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSearch(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer

	// top is the number of URLs listed; non-positive lists all.
	top int
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output, top: DefaultTop}
}

// runStatus returns a one-word status of the run.
func runStatus(run *model.RankRun) string {
	switch {
	case run.Failed():
		return "FAILED"
	case len(run.Warnings) > 0:
		return "Complete with warnings"
	default:
		return "Complete"
	}
}

// runError returns the run's error text.
func runError(run *model.RankRun) string {
	if run.ErrorMessage != "" {
		return run.ErrorMessage
	}
	if run.Error != nil {
		return run.Error.Error()
	}
	return ""
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
