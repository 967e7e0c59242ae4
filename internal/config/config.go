package config

import (
	"math"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/nao1215/linkrank/internal/pagerank"
	"github.com/nao1215/linkrank/internal/ranking"
)

// Default configuration values.
const (
	// DefaultAlpha is the damping factor. 0.85 is the value used in the
	// original PageRank paper and by most implementations.
	DefaultAlpha = pagerank.DefaultAlpha

	// DefaultTolerance is the convergence threshold on the largest
	// per-URL score change between two iterations.
	DefaultTolerance = pagerank.DefaultTolerance

	// DefaultMaxIterations caps power iteration. Well-formed graphs converge
	// in well under a hundred iterations at the default tolerance.
	DefaultMaxIterations = pagerank.DefaultMaxIterations

	// DefaultRepresentation lets the solver choose dense or sparse by size.
	DefaultRepresentation = "auto"

	// DefaultSparseThreshold is the vertex count above which "auto" uses
	// the sparse representation.
	DefaultSparseThreshold = pagerank.DefaultSparseThreshold

	// DefaultTop is the number of URLs shown in reports.
	DefaultTop = 20

	// DefaultConcurrency is the number of corpora ranked in parallel.
	DefaultConcurrency = 4

	// DefaultRankMode combines authority and relevance by weighted sum.
	DefaultRankMode = "sum"

	// AppName is the application name used for XDG directory paths.
	AppName = "linkrank"
)

// Config holds all configuration options for linkrank.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed down explicitly.
type Config struct {
	// Corpora is the list of corpus directories to rank. The special name
	// "db" ranks the documents imported into the SQLite store.
	Corpora []string

	// DBDir is the directory holding the SQLite store.
	// Defaults to the XDG data directory (~/.local/share/linkrank on Linux).
	DBDir string

	// CacheDir is the directory holding the result cache.
	// Defaults to the XDG cache directory (~/.cache/linkrank on Linux).
	CacheDir string

	// Alpha is the damping factor, in the open interval (0, 1).
	Alpha float64

	// Tolerance is the convergence threshold. Must be positive.
	Tolerance float64

	// MaxIterations caps power iteration. Must be positive.
	MaxIterations int

	// Representation is "auto", "dense" or "sparse".
	Representation string

	// SparseThreshold is the vertex count above which "auto" picks sparse.
	SparseThreshold int

	// Top is the number of URLs listed in reports. Zero lists all.
	Top int

	// Concurrency is the number of corpora ranked in parallel.
	Concurrency int

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Verbose enables debug logging and the detailed text report.
	Verbose bool

	// NoCache disables the result cache.
	NoCache bool

	// Save persists each successful run to the SQLite store.
	Save bool

	// MetricsFile, when set, receives the Prometheus metrics in text format
	// after the command completes.
	MetricsFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// RankMode is how search combines PageRank and TF-IDF ("sum" or "product").
	RankMode string

	// Weights scales the two search signals.
	Weights ranking.Weights
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DBDir:           XDGDataDir(),
		CacheDir:        XDGCacheDir(),
		Alpha:           DefaultAlpha,
		Tolerance:       DefaultTolerance,
		MaxIterations:   DefaultMaxIterations,
		Representation:  DefaultRepresentation,
		SparseThreshold: DefaultSparseThreshold,
		Top:             DefaultTop,
		Concurrency:     DefaultConcurrency,
		RankMode:        DefaultRankMode,
		Weights:         ranking.DefaultWeights(),
	}
}

// XDGDataDir returns the XDG data directory for linkrank.
// On Linux: ~/.local/share/linkrank
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkrank.
// On Linux: ~/.config/linkrank
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for linkrank.
// On Linux: ~/.cache/linkrank
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if len(c.Corpora) == 0 {
		return ErrNoCorpus
	}
	return c.ValidateSolver()
}

// ValidateSolver checks everything except the corpus list. Commands that
// read stored runs instead of ranking a corpus use it directly.
func (c *Config) ValidateSolver() error {
	// NaN fails every comparison, so test for the valid range.
	if !(c.Alpha > 0 && c.Alpha < 1) {
		return ErrInvalidAlpha
	}

	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 1) {
		return ErrInvalidTolerance
	}

	if c.MaxIterations <= 0 {
		return ErrInvalidMaxIterations
	}

	if _, err := pagerank.ParseRepresentation(c.Representation); err != nil {
		return ErrInvalidRepresentation
	}

	if c.Top < 0 {
		return ErrInvalidTopN
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if _, err := ranking.ParseMode(c.RankMode); err != nil {
		return ErrInvalidRankMode
	}

	if err := c.Weights.Validate(); err != nil {
		return err
	}

	return nil
}

// SolverOptions converts the solver fields to pagerank options.
// Call Validate first; an unknown representation falls back to auto.
func (c *Config) SolverOptions() []pagerank.Option {
	repr, _ := pagerank.ParseRepresentation(c.Representation) //nolint:errcheck // validated by Validate
	return []pagerank.Option{
		pagerank.WithAlpha(c.Alpha),
		pagerank.WithTolerance(c.Tolerance),
		pagerank.WithMaxIterations(c.MaxIterations),
		pagerank.WithRepresentation(repr),
		pagerank.WithSparseThreshold(c.SparseThreshold),
	}
}

// ApplyCorpus overlays a per-corpus section from the config file.
// Zero values in the section leave the current setting unchanged.
func (c *Config) ApplyCorpus(cc CorpusConfig) {
	if cc.Alpha != 0 {
		c.Alpha = cc.Alpha
	}
	if cc.Tolerance != 0 {
		c.Tolerance = cc.Tolerance
	}
	if cc.MaxIterations != 0 {
		c.MaxIterations = cc.MaxIterations
	}
	if cc.Representation != "" {
		c.Representation = cc.Representation
	}
}
