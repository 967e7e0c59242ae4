package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/linkrank/internal/model"
)

// pieSlices is the number of URLs shown individually in the score chart.
const pieSlices = 8

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownTop sets how many URLs are listed. A non-positive n lists all.
func WithMarkdownTop(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.top = n
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.RankRun) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeRunHeader(md, run)

	if !run.Failed() {
		w.writeStatistics(md, run)
		w.writeScores(md, run)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSearch outputs the search result in Markdown format.
func (w *MarkdownWriter) WriteSearch(result *model.SearchResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("linkrank Search")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Query", "`" + result.Query + "`"},
			{"Corpus", "`" + result.Corpus + "`"},
			{"Mode", result.Mode},
			{"Matches", strconv.Itoa(result.Total)},
		},
	})
	md.PlainText("")

	md.H2("Results")
	md.PlainText("")

	if len(result.Documents) == 0 {
		md.Note("No documents match the query.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(result.Documents))
		for i, doc := range result.Documents {
			title := doc.Title
			if title == "" {
				title = "-"
			}
			rows[i] = []string{
				strconv.Itoa(i + 1),
				truncateString(doc.URL, 60),
				truncateString(title, 40),
				formatScore(doc.PageRank),
				formatScore(doc.Relevance),
				formatScore(doc.Final),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "URL", "Title", "PageRank", "TF-IDF", "Final"},
			Rows:   rows,
		})
		md.PlainText("")

		for _, doc := range result.Documents {
			if doc.Snippet != "" {
				md.Details(doc.URL, doc.Snippet)
			}
		}
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeRunHeader writes the title and run information table.
func (w *MarkdownWriter) writeRunHeader(md *markdown.Markdown, run *model.RankRun) {
	md.H1("linkrank Report")
	md.PlainText("")

	status := "✅ " + runStatus(run)
	if run.Failed() {
		status = "❌ Failed - " + runError(run)
	} else if len(run.Warnings) > 0 {
		status = "⚠️ " + runStatus(run)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Corpus", "`" + run.Corpus + "`"},
			{"Run Date", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", status},
		},
	})
	md.PlainText("")

	if run.Failed() {
		md.Cautionf("Ranking failed: %s", runError(run))
		md.PlainText("")
		return
	}

	if len(run.Warnings) > 0 {
		md.Warningf("%d optional step(s) reported problems.", len(run.Warnings))
		md.PlainText("")
		md.BulletList(run.Warnings...)
		md.PlainText("")
	}
}

// writeStatistics writes the graph and solver statistics table.
func (w *MarkdownWriter) writeStatistics(md *markdown.Markdown, run *model.RankRun) {
	md.H2("Link Graph")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(run.DocumentCount)},
			{"URLs", strconv.Itoa(run.VertexCount)},
			{"Links", strconv.Itoa(run.EdgeCount)},
			{"Dangling URLs", strconv.Itoa(run.DanglingCount)},
			{"Damping factor", strconv.FormatFloat(run.Alpha, 'g', -1, 64)},
			{"Tolerance", strconv.FormatFloat(run.Tolerance, 'g', -1, 64)},
			{"Iterations", strconv.Itoa(run.Iterations)},
			{"Matrix", run.Representation},
		},
	})
	md.PlainText("")

	if run.CacheHit {
		md.Note("Scores were restored from the result cache.")
		md.PlainText("")
	}
}

// writeScores writes the top-N table and the score share chart.
func (w *MarkdownWriter) writeScores(md *markdown.Markdown, run *model.RankRun) {
	top := run.Top(w.top)

	if w.top > 0 && w.top < len(run.Scores) {
		md.H2(fmt.Sprintf("Top %d URLs", len(top)))
	} else {
		md.H2("URLs")
	}
	md.PlainText("")

	rows := make([][]string, len(top))
	for i, s := range top {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			truncateString(s.URL, 70),
			formatScore(s.Score),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "URL", "PageRank"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, run)
}

// writePieChart writes a mermaid pie chart of the score share of the
// leading URLs, in basis points of the total.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.RankRun) {
	if len(run.Scores) < 2 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("PageRank share (basis points)"),
		piechart.WithShowData(true),
	)

	var shown float64
	for _, s := range run.Top(pieSlices) {
		chart.LabelAndIntValue(truncateString(s.URL, 40), basisPoints(s.Score))
		shown += s.Score
	}
	if rest := 1 - shown; len(run.Scores) > pieSlices && rest > 0 {
		chart.LabelAndIntValue("others", basisPoints(rest))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [linkrank](https://github.com/nao1215/linkrank)*")
}

// basisPoints converts a probability to hundredths of a percent.
func basisPoints(p float64) uint64 {
	if p <= 0 || math.IsNaN(p) {
		return 0
	}
	return uint64(math.Round(p * 10000))
}

// formatScore renders a score with fixed precision.
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
