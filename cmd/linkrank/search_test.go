package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/linkrank/internal/model"
)

// TestNewSearchCmd tests the search command creation.
func TestNewSearchCmd(t *testing.T) {
	t.Parallel()

	cmd := NewSearchCmd()

	t.Run("defaults to the imported corpus", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("corpus")
		if flag == nil {
			t.Fatal("expected corpus flag")
		}
		if flag.DefValue != dbCorpusName {
			t.Errorf("expected default %q, got %q", dbCorpusName, flag.DefValue)
		}
	})

	t.Run("has ranking flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"mode", "authority-weight", "relevance-weight", "no-snippets", "alpha", "top", "json"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

func decodeSearchResult(t *testing.T, s string) model.SearchResult {
	t.Helper()

	var result model.SearchResult
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, s)
	}
	return result
}

func TestSearchCmd_Directory(t *testing.T) {
	t.Parallel()

	corpusDir := writeCorpus(t, cycleCorpus)
	out, err := executeCommand(t, "search", "--json", "--no-cache",
		"--db-dir", t.TempDir(), "--corpus", corpusDir, "raft")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := decodeSearchResult(t, out)
	if result.Query != "raft" {
		t.Errorf("expected query raft, got %q", result.Query)
	}
	if result.RunID != 0 {
		t.Errorf("expected no stored run, got %d", result.RunID)
	}
	if result.Mode != "sum" {
		t.Errorf("expected sum mode, got %q", result.Mode)
	}
	if result.Total != 2 || len(result.Documents) != 2 {
		t.Fatalf("expected 2 matches, got total %d docs %d", result.Total, len(result.Documents))
	}

	first := result.Documents[0]
	if first.URL != "https://example.com/c" {
		t.Errorf("expected c first, got %s", first.URL)
	}
	if first.PageRank <= 0 || first.Relevance <= 0 {
		t.Errorf("expected both scores to be positive, got %+v", first)
	}
	if first.Final != first.PageRank+first.Relevance {
		t.Errorf("expected final = pagerank + tfidf, got %+v", first)
	}
	if !strings.Contains(first.Snippet, "raft") {
		t.Errorf("expected snippet around the query, got %q", first.Snippet)
	}
}

func TestSearchCmd_Options(t *testing.T) {
	t.Parallel()

	corpusDir := writeCorpus(t, cycleCorpus)
	base := []string{"search", "--json", "--no-cache", "--db-dir", t.TempDir(), "--corpus", corpusDir}

	t.Run("product mode", func(t *testing.T) {
		t.Parallel()
		out, err := executeCommand(t, append(base, "--mode", "product", "raft")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result := decodeSearchResult(t, out)
		if result.Mode != "product" {
			t.Errorf("expected product mode, got %q", result.Mode)
		}
		for _, d := range result.Documents {
			if d.Final != d.PageRank*d.Relevance {
				t.Errorf("expected final = pagerank * tfidf, got %+v", d)
			}
		}
	})

	t.Run("top limits documents but not total", func(t *testing.T) {
		t.Parallel()
		out, err := executeCommand(t, append(base, "--top", "1", "raft")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result := decodeSearchResult(t, out)
		if result.Total != 2 || len(result.Documents) != 1 {
			t.Errorf("expected total 2 and 1 document, got %d and %d", result.Total, len(result.Documents))
		}
	})

	t.Run("no snippets", func(t *testing.T) {
		t.Parallel()
		out, err := executeCommand(t, append(base, "--no-snippets", "raft")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, d := range decodeSearchResult(t, out).Documents {
			if d.Snippet != "" {
				t.Errorf("expected no snippet, got %q", d.Snippet)
			}
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		out, err := executeCommand(t, append(base, "kubernetes")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result := decodeSearchResult(t, out); result.Total != 0 {
			t.Errorf("expected no matches, got %d", result.Total)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Parallel()
		if _, err := executeCommand(t, append(base, "--mode", "max", "raft")...); err == nil {
			t.Error("expected error for unknown mode")
		}
	})

	t.Run("negative weight", func(t *testing.T) {
		t.Parallel()
		if _, err := executeCommand(t, append(base, "--authority-weight", "-1", "raft")...); err == nil {
			t.Error("expected error for negative weight")
		}
	})
}

func TestSearchCmd_EmptyQuery(t *testing.T) {
	t.Parallel()

	_, err := executeCommand(t, "search", "  ")
	if !errors.Is(err, errEmptyQuery) {
		t.Errorf("expected errEmptyQuery, got %v", err)
	}
}

func TestSearchCmd_MissingDatabase(t *testing.T) {
	t.Parallel()

	_, err := executeCommand(t, "search", "--db-dir", t.TempDir(), "raft")
	if err == nil || !strings.Contains(err.Error(), "linkrank import") {
		t.Errorf("expected hint to import first, got %v", err)
	}
}

// TestImportRankSearch imports a corpus, saves a ranking of the imported
// documents and searches it.
func TestImportRankSearch(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	corpusDir := writeCorpus(t, cycleCorpus)

	out, err := executeCommand(t, "import", "--db-dir", dbDir, corpusDir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported 4 documents") || !strings.Contains(out, "now holds 4 documents") {
		t.Errorf("unexpected import output:\n%s", out)
	}

	out, err = executeCommand(t, "rank", "--db", "--save", "--json", "--no-cache", "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	reports := decodeRankReports(t, out)
	if len(reports) != 1 || reports[0].Corpus != dbCorpusName || len(reports[0].Scores) != 4 {
		t.Fatalf("unexpected rank report: %+v", reports)
	}

	out, err = executeCommand(t, "search", "--json", "--no-cache", "--db-dir", dbDir, "raft")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	result := decodeSearchResult(t, out)
	if result.RunID == 0 {
		t.Error("expected the saved run to supply authority scores")
	}
	if result.Corpus != dbCorpusName || result.Total != 2 {
		t.Errorf("unexpected search result: %+v", result)
	}
	if result.Documents[0].PageRank != reports[0].Scores[result.Documents[0].URL] {
		t.Errorf("expected stored score %g, got %g",
			reports[0].Scores[result.Documents[0].URL], result.Documents[0].PageRank)
	}
}
