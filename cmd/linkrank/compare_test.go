package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/linkrank/internal/model"
)

// TestNewCompareCmd tests the compare command creation.
func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	if cmd.Use != "compare [corpus]" {
		t.Errorf("expected use 'compare [corpus]', got %q", cmd.Use)
	}

	for _, name := range []string{"list", "list-corpora", "with-run-id", "since", "top", "json", "markdown", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

func newTestRun(id int64, scores map[string]float64) *model.RankRun {
	run := model.NewRankRun("news")
	run.ID = id
	run.Scores = scores
	run.VertexCount = len(scores)
	return run
}

func TestCompareRuns(t *testing.T) {
	t.Parallel()

	previous := newTestRun(1, map[string]float64{
		"https://a": 0.5,
		"https://b": 0.3,
		"https://c": 0.2,
	})
	current := newTestRun(2, map[string]float64{
		"https://b": 0.5,
		"https://a": 0.3,
		"https://d": 0.2,
	})

	result := compareRuns(previous, current, 10)

	if result.Corpus != "news" {
		t.Errorf("expected corpus news, got %q", result.Corpus)
	}
	if len(result.NewURLs) != 1 || result.NewURLs[0] != "https://d" {
		t.Errorf("unexpected new URLs: %v", result.NewURLs)
	}
	if len(result.DroppedURLs) != 1 || result.DroppedURLs[0] != "https://c" {
		t.Errorf("unexpected dropped URLs: %v", result.DroppedURLs)
	}
	if result.SameContent {
		t.Error("expected SameContent to be false without fingerprints")
	}

	want := []struct {
		url      string
		current  int
		previous int
		delta    int
	}{
		{"https://b", 1, 2, 1},
		{"https://a", 2, 1, -1},
		{"https://d", 3, 0, 0},
	}
	if len(result.Movements) != len(want) {
		t.Fatalf("expected %d movements, got %d", len(want), len(result.Movements))
	}
	for i, w := range want {
		m := result.Movements[i]
		if m.URL != w.url || m.CurrentRank != w.current || m.PreviousRank != w.previous {
			t.Errorf("movement %d: got %+v, want %+v", i, m, w)
		}
		if m.RankDelta() != w.delta {
			t.Errorf("movement %d: expected delta %d, got %d", i, w.delta, m.RankDelta())
		}
	}

	t.Run("top limits movements", func(t *testing.T) {
		t.Parallel()
		if got := compareRuns(previous, current, 1); len(got.Movements) != 1 {
			t.Errorf("expected 1 movement, got %d", len(got.Movements))
		}
	})

	t.Run("same fingerprint", func(t *testing.T) {
		t.Parallel()
		p := newTestRun(1, map[string]float64{"https://a": 1})
		c := newTestRun(2, map[string]float64{"https://a": 1})
		p.Fingerprint = "abc"
		c.Fingerprint = "abc"
		if !compareRuns(p, c, 10).SameContent {
			t.Error("expected SameContent to be true")
		}
	})
}

func TestSelectPreviousRun(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC)
	}
	// Newest first, as returned by ListRankRuns.
	history := []*model.RankRun{
		{ID: 3, StartedAt: day(20)},
		{ID: 2, StartedAt: day(10)},
		{ID: 1, StartedAt: day(1)},
	}

	tests := []struct {
		name    string
		opts    compareOptions
		want    int64
		wantErr bool
	}{
		{name: "default is the second newest", want: 2},
		{name: "explicit run id", opts: compareOptions{withRunID: 1}, want: 1},
		{name: "since picks the oldest run on or after the date", opts: compareOptions{since: "2026-03-05"}, want: 2},
		{name: "since before every run", opts: compareOptions{since: "2026-01-01"}, want: 1},
		{name: "since only matches the latest run", opts: compareOptions{since: "2026-03-15"}, wantErr: true},
		{name: "since after every run", opts: compareOptions{since: "2026-04-01"}, wantErr: true},
		{name: "invalid date", opts: compareOptions{since: "03/05/2026"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := selectPreviousRun(history, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got run %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected run %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{5, "+5"},
		{-3, "-3"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestFormatMovement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    RankMovement
		want string
	}{
		{"new", RankMovement{CurrentRank: 1}, "new"},
		{"climbed", RankMovement{CurrentRank: 1, PreviousRank: 3}, "+2"},
		{"fell", RankMovement{CurrentRank: 4, PreviousRank: 2}, "-2"},
		{"unchanged", RankMovement{CurrentRank: 2, PreviousRank: 2}, "="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatMovement(tt.m); got != tt.want {
				t.Errorf("formatMovement() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComparisonOutput(t *testing.T) {
	t.Parallel()

	previous := newTestRun(1, map[string]float64{"https://a": 0.6, "https://gone": 0.4})
	current := newTestRun(2, map[string]float64{"https://a": 0.7, "https://fresh": 0.3})
	result := compareRuns(previous, current, 10)

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := outputComparisonText(&buf, result); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"Ranking Comparison: news", "[+] https://fresh", "[-] https://gone", "Graph Summary:"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := outputComparisonMarkdown(&buf, result); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"# Ranking Comparison: news", "## New URLs (1)", "~~https://gone~~", "| Rank | URL | Score | Change |"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := outputComparisonJSON(&buf, result); err != nil {
			t.Fatal(err)
		}
		var decoded ComparisonResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.CurrentRun.ID != 2 || decoded.PreviousRun.ID != 1 {
			t.Errorf("unexpected run IDs: %+v", decoded)
		}
	})
}

// TestCompareCmd_SavedRuns ranks a corpus three times and compares the
// stored runs through the command line.
func TestCompareCmd_SavedRuns(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	cacheDir := t.TempDir()
	corpusDir := writeCorpus(t, cycleCorpus)

	rank := func() {
		t.Helper()
		if _, err := executeCommand(t, "rank", "--save", "--json",
			"--db-dir", dbDir, "--cache-dir", cacheDir, corpusDir); err != nil {
			t.Fatalf("rank failed: %v", err)
		}
	}

	if _, err := executeCommand(t, "compare", "--db-dir", dbDir, corpusDir); err == nil {
		t.Error("expected error without a database")
	}

	rank()
	_, err := executeCommand(t, "compare", "--db-dir", dbDir, corpusDir)
	if err == nil || !strings.Contains(err.Error(), "at least 2 runs") {
		t.Errorf("expected error about run count, got %v", err)
	}

	rank()
	out, err := executeCommand(t, "compare", "--json", "--db-dir", dbDir, corpusDir)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	var result ComparisonResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !result.SameContent {
		t.Error("expected identical content across the two runs")
	}
	if len(result.NewURLs) != 0 || len(result.DroppedURLs) != 0 {
		t.Errorf("expected no URL changes, got new %v dropped %v", result.NewURLs, result.DroppedURLs)
	}
	if result.CurrentRun.ID <= result.PreviousRun.ID {
		t.Errorf("expected current run to be newer: %+v", result)
	}

	t.Run("list", func(t *testing.T) {
		out, err := executeCommand(t, "compare", "--list", "--db-dir", dbDir, corpusDir)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(out, "(2 runs)") {
			t.Errorf("expected 2 runs in history:\n%s", out)
		}
	})

	t.Run("list corpora", func(t *testing.T) {
		out, err := executeCommand(t, "compare", "--list-corpora", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("list corpora failed: %v", err)
		}
		if !strings.Contains(out, corpusDir) {
			t.Errorf("expected %s in corpus list:\n%s", corpusDir, out)
		}
	})

	t.Run("missing corpus argument", func(t *testing.T) {
		_, err := executeCommand(t, "compare", "--db-dir", dbDir)
		if err == nil {
			t.Error("expected error")
		}
	})
}
