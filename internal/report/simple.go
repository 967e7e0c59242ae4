package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/linkrank/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with run parameters and steps.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithTop sets how many URLs are listed. A non-positive n lists all.
func WithTop(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.top = n
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run in human-readable format.
func (w *SimpleWriter) Write(run *model.RankRun) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "LINKRANK REPORT")
	w.writeRunHeader(&sb, run)

	if !run.Failed() {
		w.writeScores(&sb, run)
	}
	w.writeWarnings(&sb, run)

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteSearch outputs the search result in human-readable format.
func (w *SimpleWriter) WriteSearch(result *model.SearchResult) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "LINKRANK SEARCH")
	fmt.Fprintf(&sb, "Query:   %s\n", result.Query)
	fmt.Fprintf(&sb, "Corpus:  %s\n", result.Corpus)
	fmt.Fprintf(&sb, "Mode:    %s\n", result.Mode)
	fmt.Fprintf(&sb, "Matches: %d\n\n", result.Total)

	if len(result.Documents) == 0 {
		sb.WriteString("No documents match the query.\n\n")
	}

	for i, doc := range result.Documents {
		fmt.Fprintf(&sb, "%3d. %s\n", i+1, doc.URL)
		if doc.Title != "" {
			fmt.Fprintf(&sb, "     %s\n", truncateString(doc.Title, 65))
		}
		fmt.Fprintf(&sb, "     final %.6f  pagerank %.6f  tfidf %.6f\n", doc.Final, doc.PageRank, doc.Relevance)
		if w.verbose && doc.Snippet != "" {
			fmt.Fprintf(&sb, "     %s\n", doc.Snippet)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeBanner writes a framed title.
func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	pad := max(0, (70-len(title))/2)

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writeRunHeader writes the corpus, status and graph statistics.
func (w *SimpleWriter) writeRunHeader(sb *strings.Builder, run *model.RankRun) {
	fmt.Fprintf(sb, "Corpus:       %s\n", run.Corpus)
	fmt.Fprintf(sb, "Run Date:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))

	if run.Failed() {
		fmt.Fprintf(sb, "Status:       FAILED - %s\n\n", runError(run))
		return
	}
	fmt.Fprintf(sb, "Status:       %s\n", runStatus(run))
	fmt.Fprintf(sb, "Documents:    %d\n", run.DocumentCount)
	fmt.Fprintf(sb, "URLs:         %d (%d dangling)\n", run.VertexCount, run.DanglingCount)
	fmt.Fprintf(sb, "Links:        %d\n", run.EdgeCount)
	fmt.Fprintf(sb, "Iterations:   %d\n", run.Iterations)

	if w.verbose {
		fmt.Fprintf(sb, "Alpha:        %g\n", run.Alpha)
		fmt.Fprintf(sb, "Tolerance:    %g\n", run.Tolerance)
		fmt.Fprintf(sb, "Matrix:       %s\n", run.Representation)
		fmt.Fprintf(sb, "Duration:     %s\n", run.Duration)
		if run.Fingerprint != "" {
			fmt.Fprintf(sb, "Fingerprint:  %s\n", run.Fingerprint)
		}
		if len(run.PerformedSteps) > 0 {
			fmt.Fprintf(sb, "Steps:        %s\n", strings.Join(run.PerformedSteps, ", "))
		}
	}
	sb.WriteString("\n")
}

// writeScores writes the top-N table.
func (w *SimpleWriter) writeScores(sb *strings.Builder, run *model.RankRun) {
	top := run.Top(w.top)

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	if w.top > 0 && w.top < len(run.Scores) {
		fmt.Fprintf(sb, "TOP %d OF %d URLS\n", len(top), len(run.Scores))
	} else {
		sb.WriteString("ALL URLS\n")
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	for i, s := range top {
		fmt.Fprintf(sb, "%4d  %.8f  %s\n", i+1, s.Score, truncateString(s.URL, 52))
	}
	sb.WriteString("\n")
}

// writeWarnings lists the warnings of optional steps.
func (w *SimpleWriter) writeWarnings(sb *strings.Builder, run *model.RankRun) {
	if len(run.Warnings) == 0 {
		return
	}

	sb.WriteString("Warnings:\n")
	for _, warning := range run.Warnings {
		fmt.Fprintf(sb, "  - %s\n", warning)
	}
	sb.WriteString("\n")
}
