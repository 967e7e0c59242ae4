package model

import (
	"sort"
	"time"
)

// RankRun is the state and outcome of one ranking run over a corpus.
// It is created before the pipeline starts and filled in by each step.
//
// A run either carries a complete, normalized score mapping or an error;
// partial scores are never stored.
type RankRun struct {
	// ID is the database identifier, zero until the run is persisted.
	ID int64 `json:"id,omitempty"`

	// Corpus names the corpus that was ranked (a directory path or "db").
	Corpus string `json:"corpus"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time of the whole run.
	Duration time.Duration `json:"duration"`

	// Alpha is the damping factor used by the solver.
	Alpha float64 `json:"alpha"`

	// Tolerance is the convergence threshold on the max component delta.
	Tolerance float64 `json:"tolerance"`

	// MaxIterations is the iteration cap.
	MaxIterations int `json:"max_iterations"`

	// Representation is the transition matrix representation actually used
	// ("dense" or "sparse"), or "cache" when the scores came from the cache.
	Representation string `json:"representation"`

	// Fingerprint identifies the corpus content and solver parameters.
	Fingerprint string `json:"fingerprint,omitempty"`

	// DocumentCount is the number of crawled records read.
	DocumentCount int `json:"document_count"`

	// VertexCount is the number of URLs in the link graph.
	VertexCount int `json:"vertex_count"`

	// EdgeCount is the number of distinct source->target links.
	EdgeCount int `json:"edge_count"`

	// DanglingCount is the number of vertices without outbound links.
	DanglingCount int `json:"dangling_count"`

	// Iterations is the number of power iteration steps consumed.
	Iterations int `json:"iterations"`

	// CacheHit is true when the scores were restored from the result cache.
	CacheHit bool `json:"cache_hit"`

	// Scores maps each URL to its PageRank score.
	Scores map[string]float64 `json:"scores,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Warnings collects failures of optional steps (cache, persistence).
	Warnings []string `json:"warnings,omitempty"`

	// Error is the terminal error, if the run failed.
	Error error `json:"-"`

	// ErrorMessage is Error as a string for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRankRun creates an empty run for the named corpus.
func NewRankRun(corpus string) *RankRun {
	return &RankRun{
		Corpus:         corpus,
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
		Warnings:       make([]string, 0),
	}
}

// Failed reports whether the run ended with a terminal error.
func (r *RankRun) Failed() bool {
	return r.Error != nil || r.ErrorMessage != ""
}

// AddWarning records a non-fatal problem.
func (r *RankRun) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Top returns the n highest scoring URLs of the run.
func (r *RankRun) Top(n int) []ScoredURL {
	return TopScores(r.Scores, n)
}

// ScoredURL pairs a URL with its authority score.
type ScoredURL struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// TopScores returns the n highest scores, ordered by score descending and
// URL ascending for ties. A non-positive n returns every entry.
func TopScores(scores map[string]float64, n int) []ScoredURL {
	list := make([]ScoredURL, 0, len(scores))
	for url, score := range scores {
		list = append(list, ScoredURL{URL: url, Score: score})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Score == list[j].Score {
			return list[i].URL < list[j].URL
		}
		return list[i].Score > list[j].Score
	})

	if n > 0 && n < len(list) {
		list = list[:n]
	}
	return list
}

// RankedDocument is one search result combining link authority with
// text relevance.
type RankedDocument struct {
	URL       string  `json:"url"`
	Title     string  `json:"title,omitempty"`
	PageRank  float64 `json:"pagerank"`
	Relevance float64 `json:"tfidf_score"`
	Final     float64 `json:"final_score"`

	// Snippet is a highlighted excerpt of the page text around the query.
	Snippet string `json:"snippet,omitempty"`
}

// SearchResult is the answer to a text query over a ranked corpus.
type SearchResult struct {
	// Query is the text query as entered.
	Query string `json:"query"`

	// Corpus names the ranked corpus that supplied the authority scores.
	Corpus string `json:"corpus"`

	// RunID identifies the stored ranking run used, zero if none.
	RunID int64 `json:"run_id,omitempty"`

	// Mode is how authority and relevance were combined.
	Mode string `json:"mode"`

	// Total is the number of matching documents before truncation.
	Total int `json:"total"`

	// Documents are the best matches, best first.
	Documents []RankedDocument `json:"documents"`
}
