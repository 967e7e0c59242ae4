// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output with tables and a mermaid chart
//
// Writers render two kinds of results: ranking runs (*model.RankRun) and
// search results (*model.SearchResult). They implement the Writer
// interface and can be composed with MultiWriter.
package report
