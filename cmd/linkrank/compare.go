package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrank/internal/database"
	"github.com/nao1215/linkrank/internal/model"
)

// NewCompareCmd creates the compare command.
// It compares saved ranking runs of one corpus.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [corpus]",
		Short: "Compare saved ranking runs of a corpus",
		Long: `Compare shows how the ranking of a corpus changed between two saved runs:
URLs that entered or left the graph and how the top URLs moved.

Runs are saved with 'linkrank rank --save'. The corpus name is the one the
run was saved under: the directory path as given, a configured corpus name,
or "db" for imported documents.

Examples:
  # Compare the latest two runs of the imported documents
  linkrank compare db

  # List the saved runs of a corpus
  linkrank compare --list ./crawl

  # Compare the latest run with run 3
  linkrank compare --with-run-id 3 ./crawl

  # Compare with the first run since a date, as JSON
  linkrank compare --since 2026-01-01 --json ./crawl

  # List every corpus with saved runs
  linkrank compare --list-corpora`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List saved runs of the corpus")
	cmd.Flags().BoolP("list-corpora", "L", false,
		"List every corpus with saved runs")
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().String("since", "",
		"Compare with the first run on or after this date (format: YYYY-MM-DD)")
	cmd.Flags().IntP("top", "n", 10,
		"Number of top URLs whose movement is shown")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite store (default: XDG data directory)")

	return cmd
}

// compareOptions are the flag values of the compare command.
type compareOptions struct {
	withRunID int64
	since     string
	top       int
	json      bool
	markdown  bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listCorpora, err := cmd.Flags().GetBool("list-corpora")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var name string
	if !listCorpora {
		if len(args) == 0 {
			return fmt.Errorf("corpus name is required (use --list-corpora to see saved corpora)")
		}
		name = args[0]
	}

	cf, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}
	cfg, _, err := resolveConfig(cmd, cf, "")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if listCorpora {
		return listRankedCorpora(ctx, out, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, out, db, name)
	}

	var co compareOptions
	if co.withRunID, err = cmd.Flags().GetInt64("with-run-id"); err != nil {
		return err
	}
	if co.since, err = cmd.Flags().GetString("since"); err != nil {
		return err
	}
	if co.top, err = cmd.Flags().GetInt("top"); err != nil {
		return err
	}
	if co.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if co.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if co.json && co.markdown {
		return fmt.Errorf("conflicting report formats: --json and --markdown cannot be used together")
	}

	return runComparison(ctx, out, db, name, co)
}

// listRankedCorpora lists every corpus with saved runs.
func listRankedCorpora(ctx context.Context, out io.Writer, db *database.RankDB) error {
	runs, err := db.ListRankRuns(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	counts := make(map[string]int)
	for _, run := range runs {
		counts[run.Corpus]++
	}

	if len(counts) == 0 {
		fmt.Fprintln(out, "No saved runs found in the database.")
		fmt.Fprintln(out, "\nUse 'linkrank rank --save <corpus>' to save a run.")
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(out, "Ranked corpora (%d):\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  • %s (%d runs)\n", name, counts[name])
	}
	fmt.Fprintln(out, "\nUse 'linkrank compare --list <corpus>' to see the runs of a corpus.")

	return nil
}

// listRunHistory lists the saved runs of a corpus, newest first.
func listRunHistory(ctx context.Context, out io.Writer, db *database.RankDB, name string) error {
	runs, err := db.ListRankRuns(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No saved runs found for %s\n", name)
		fmt.Fprintln(out, "\nUse 'linkrank rank --save' to save a run of this corpus.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", name, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-8s  %-10s  %s\n", "ID", "Date", "URLs", "Links", "Iterations", "Alpha")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-8d  %-8d  %-10d  %g\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.VertexCount,
			run.EdgeCount,
			run.Iterations,
			run.Alpha,
		)
	}

	fmt.Fprintln(out, "\nUse 'linkrank compare <corpus>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'linkrank compare --with-run-id <id> <corpus>' to compare with a specific run.")

	return nil
}

// runComparison loads the two runs and prints their differences.
func runComparison(ctx context.Context, out io.Writer, db *database.RankDB, name string, co compareOptions) error {
	history, err := db.ListRankRuns(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(history) == 0 {
		return fmt.Errorf("no saved runs found for %s", name)
	}
	if len(history) < 2 && co.withRunID == 0 && co.since == "" {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(history))
	}

	previousID, err := selectPreviousRun(history, co)
	if err != nil {
		return err
	}

	current, err := db.GetRankRun(ctx, history[0].ID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", history[0].ID, err)
	}
	if current == nil {
		return fmt.Errorf("run with ID %d not found", history[0].ID)
	}
	previous, err := db.GetRankRun(ctx, previousID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", previousID, err)
	}
	if previous == nil {
		return fmt.Errorf("run with ID %d not found", previousID)
	}
	if previous.Corpus != name {
		return fmt.Errorf("run ID %d belongs to %s, not %s", previousID, previous.Corpus, name)
	}

	comparison := compareRuns(previous, current, co.top)

	switch {
	case co.json:
		return outputComparisonJSON(out, comparison)
	case co.markdown:
		return outputComparisonMarkdown(out, comparison)
	default:
		return outputComparisonText(out, comparison)
	}
}

// selectPreviousRun picks the baseline run ID. history is newest first.
func selectPreviousRun(history []*model.RankRun, co compareOptions) (int64, error) {
	if co.withRunID > 0 {
		return co.withRunID, nil
	}

	if co.since != "" {
		sinceDate, err := time.Parse("2006-01-02", co.since)
		if err != nil {
			return 0, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Walk from the oldest run to find the first one on or after the date.
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].StartedAt.Before(sinceDate) {
				if i == 0 {
					return 0, fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", co.since)
				}
				return history[i].ID, nil
			}
		}
		return 0, fmt.Errorf("no runs found since %s", co.since)
	}

	return history[1].ID, nil
}

// ComparisonResult holds the differences between two runs of a corpus.
type ComparisonResult struct {
	// Corpus is the compared corpus name.
	Corpus string `json:"corpus"`

	// PreviousRun describes the baseline run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun describes the latest run.
	CurrentRun RunMetadata `json:"current_run"`

	// NewURLs are ranked now but were not before, sorted.
	NewURLs []string `json:"new_urls,omitempty"`

	// DroppedURLs were ranked before but are not now, sorted.
	DroppedURLs []string `json:"dropped_urls,omitempty"`

	// Movements lists the top URLs of the current run with their change.
	Movements []RankMovement `json:"movements"`

	// SameContent is true when both runs saw identical corpus content and
	// solver parameters.
	SameContent bool `json:"same_content"`
}

// RunMetadata summarizes one run for comparison display.
type RunMetadata struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	URLs       int       `json:"urls"`
	Links      int       `json:"links"`
	Iterations int       `json:"iterations"`
	Alpha      float64   `json:"alpha"`
}

// RankMovement is the change of one URL between two runs.
// Ranks are 1-based; a previous rank of 0 means the URL is new.
type RankMovement struct {
	URL           string  `json:"url"`
	CurrentRank   int     `json:"current_rank"`
	PreviousRank  int     `json:"previous_rank"`
	CurrentScore  float64 `json:"current_score"`
	PreviousScore float64 `json:"previous_score"`
}

// RankDelta is positive when the URL climbed.
func (m RankMovement) RankDelta() int {
	if m.PreviousRank == 0 {
		return 0
	}
	return m.PreviousRank - m.CurrentRank
}

// compareRuns compares two runs with scores.
func compareRuns(previous, current *model.RankRun, top int) *ComparisonResult {
	result := &ComparisonResult{
		Corpus:      current.Corpus,
		PreviousRun: runMetadata(previous),
		CurrentRun:  runMetadata(current),
		SameContent: previous.Fingerprint != "" && previous.Fingerprint == current.Fingerprint,
	}

	for url := range current.Scores {
		if _, ok := previous.Scores[url]; !ok {
			result.NewURLs = append(result.NewURLs, url)
		}
	}
	for url := range previous.Scores {
		if _, ok := current.Scores[url]; !ok {
			result.DroppedURLs = append(result.DroppedURLs, url)
		}
	}
	sort.Strings(result.NewURLs)
	sort.Strings(result.DroppedURLs)

	previousRank := make(map[string]int, len(previous.Scores))
	for i, s := range model.TopScores(previous.Scores, 0) {
		previousRank[s.URL] = i + 1
	}

	for i, s := range model.TopScores(current.Scores, top) {
		result.Movements = append(result.Movements, RankMovement{
			URL:           s.URL,
			CurrentRank:   i + 1,
			PreviousRank:  previousRank[s.URL],
			CurrentScore:  s.Score,
			PreviousScore: previous.Scores[s.URL],
		})
	}

	return result
}

func runMetadata(run *model.RankRun) RunMetadata {
	return RunMetadata{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		URLs:       run.VertexCount,
		Links:      run.EdgeCount,
		Iterations: run.Iterations,
		Alpha:      run.Alpha,
	}
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "# Ranking Comparison: %s\n\n", result.Corpus)

	fmt.Fprintln(out, "## Summary")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| Metric | Previous | Current | Change |")
	fmt.Fprintln(out, "|--------|----------|---------|--------|")
	fmt.Fprintf(out, "| Run | %d | %d | - |\n", result.PreviousRun.ID, result.CurrentRun.ID)
	fmt.Fprintf(out, "| Date | %s | %s | - |\n",
		result.PreviousRun.StartedAt.Local().Format("2006-01-02 15:04"),
		result.CurrentRun.StartedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "| URLs | %d | %d | %s |\n",
		result.PreviousRun.URLs, result.CurrentRun.URLs,
		formatDelta(result.CurrentRun.URLs-result.PreviousRun.URLs))
	fmt.Fprintf(out, "| Links | %d | %d | %s |\n",
		result.PreviousRun.Links, result.CurrentRun.Links,
		formatDelta(result.CurrentRun.Links-result.PreviousRun.Links))
	fmt.Fprintf(out, "| Iterations | %d | %d | %s |\n",
		result.PreviousRun.Iterations, result.CurrentRun.Iterations,
		formatDelta(result.CurrentRun.Iterations-result.PreviousRun.Iterations))

	if len(result.Movements) > 0 {
		fmt.Fprintf(out, "\n## Top %d URLs\n\n", len(result.Movements))
		fmt.Fprintln(out, "| Rank | URL | Score | Change |")
		fmt.Fprintln(out, "|------|-----|-------|--------|")
		for _, m := range result.Movements {
			fmt.Fprintf(out, "| %d | %s | %.6f | %s |\n", m.CurrentRank, m.URL, m.CurrentScore, formatMovement(m))
		}
	}

	if len(result.NewURLs) > 0 {
		fmt.Fprintf(out, "\n## New URLs (%d)\n\n", len(result.NewURLs))
		for _, url := range result.NewURLs {
			fmt.Fprintf(out, "- %s\n", url)
		}
	}

	if len(result.DroppedURLs) > 0 {
		fmt.Fprintf(out, "\n## Dropped URLs (%d)\n\n", len(result.DroppedURLs))
		for _, url := range result.DroppedURLs {
			fmt.Fprintf(out, "- ~~%s~~\n", url)
		}
	}

	if result.SameContent {
		fmt.Fprintln(out, "\n---\n\n*Both runs ranked identical content with identical parameters*")
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Ranking Comparison: %s\n", result.Corpus)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nPrevious run: #%d  %s\n", result.PreviousRun.ID,
		result.PreviousRun.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current run:  #%d  %s\n", result.CurrentRun.ID,
		result.CurrentRun.StartedAt.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(out, "\nGraph Summary:")
	fmt.Fprintf(out, "  %-12s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 47))
	fmt.Fprintf(out, "  %-12s  %-10d  %-10d  %-10s\n", "URLs",
		result.PreviousRun.URLs, result.CurrentRun.URLs,
		formatDelta(result.CurrentRun.URLs-result.PreviousRun.URLs))
	fmt.Fprintf(out, "  %-12s  %-10d  %-10d  %-10s\n", "Links",
		result.PreviousRun.Links, result.CurrentRun.Links,
		formatDelta(result.CurrentRun.Links-result.PreviousRun.Links))
	fmt.Fprintf(out, "  %-12s  %-10d  %-10d  %-10s\n", "Iterations",
		result.PreviousRun.Iterations, result.CurrentRun.Iterations,
		formatDelta(result.CurrentRun.Iterations-result.PreviousRun.Iterations))

	if len(result.Movements) > 0 {
		fmt.Fprintf(out, "\nTop %d URLs:\n", len(result.Movements))
		for _, m := range result.Movements {
			fmt.Fprintf(out, "  %3d. %-8s %.6f  %s\n", m.CurrentRank, formatMovement(m), m.CurrentScore, m.URL)
		}
	}

	if len(result.NewURLs) > 0 {
		fmt.Fprintf(out, "\nNew URLs (%d):\n", len(result.NewURLs))
		for _, url := range result.NewURLs {
			fmt.Fprintf(out, "  [+] %s\n", url)
		}
	}

	if len(result.DroppedURLs) > 0 {
		fmt.Fprintf(out, "\nDropped URLs (%d):\n", len(result.DroppedURLs))
		for _, url := range result.DroppedURLs {
			fmt.Fprintf(out, "  [-] %s\n", url)
		}
	}

	if result.SameContent {
		fmt.Fprintln(out, "\nBoth runs ranked identical content with identical parameters.")
	}

	return nil
}

// formatMovement formats a rank change for display.
func formatMovement(m RankMovement) string {
	if m.PreviousRank == 0 {
		return "new"
	}
	if delta := m.RankDelta(); delta != 0 {
		return formatDelta(delta)
	}
	return "="
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
