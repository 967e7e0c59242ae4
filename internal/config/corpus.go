package config

import "github.com/nao1215/linkrank/internal/ranking"

// CorpusConfig holds settings for one named corpus.
type CorpusConfig struct {
	// Source is the directory holding the crawled records, or "db".
	// If empty, the corpus name itself is used as the source.
	Source string `yaml:"source,omitempty"`

	// Alpha overrides the damping factor. Zero keeps the global value.
	Alpha float64 `yaml:"alpha,omitempty"`

	// Tolerance overrides the convergence threshold. Zero keeps the global value.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// MaxIterations overrides the iteration cap. Zero keeps the global value.
	MaxIterations int `yaml:"maxIterations,omitempty"`

	// Representation overrides the matrix representation.
	Representation string `yaml:"representation,omitempty"`
}

// SearchConfig holds settings for the search command.
type SearchConfig struct {
	// Mode is "sum" or "product".
	Mode string `yaml:"mode,omitempty"`

	// Weights scales PageRank and TF-IDF before they are combined.
	Weights *ranking.Weights `yaml:"weights,omitempty"`
}

// File represents the structure of the .linkrank configuration file.
type File struct {
	// Corpora maps corpus names to their settings.
	Corpora map[string]CorpusConfig `yaml:"corpora,omitempty"`

	// Defaults applies to every corpus unless overridden by its own section.
	Defaults CorpusConfig `yaml:"defaults,omitempty"`

	// Search configures how search results are scored.
	Search SearchConfig `yaml:"search,omitempty"`
}

// GetCorpusConfig returns the configuration for a corpus name.
// It merges the corpus section with the defaults. The returned Source is
// never empty: it falls back to the name.
func (cf *File) GetCorpusConfig(name string) CorpusConfig {
	result := cf.Defaults
	result.Source = ""

	if cc, ok := cf.Corpora[name]; ok {
		if cc.Source != "" {
			result.Source = cc.Source
		}
		if cc.Alpha != 0 {
			result.Alpha = cc.Alpha
		}
		if cc.Tolerance != 0 {
			result.Tolerance = cc.Tolerance
		}
		if cc.MaxIterations != 0 {
			result.MaxIterations = cc.MaxIterations
		}
		if cc.Representation != "" {
			result.Representation = cc.Representation
		}
	}

	if result.Source == "" {
		result.Source = name
	}

	return result
}

// ApplySearch overlays the search section onto cfg.
func (cf *File) ApplySearch(cfg *Config) {
	if cf.Search.Mode != "" {
		cfg.RankMode = cf.Search.Mode
	}
	if cf.Search.Weights != nil {
		cfg.Weights = *cf.Search.Weights
	}
}
