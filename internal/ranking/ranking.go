package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nao1215/linkrank/internal/model"
	"github.com/nao1215/linkrank/internal/relevance"
)

// ErrInvalidWeights is returned when a weight is negative or both are zero.
var ErrInvalidWeights = errors.New("invalid ranking weights")

// Mode selects how authority and relevance are combined.
type Mode int

const (
	// ModeSum adds weighted authority and relevance.
	ModeSum Mode = iota

	// ModeProduct multiplies relevance by authority.
	ModeProduct
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSum:
		return "sum"
	case ModeProduct:
		return "product"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "sum" or "product". An empty string selects ModeSum.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sum":
		return ModeSum, nil
	case "product":
		return ModeProduct, nil
	default:
		return ModeSum, fmt.Errorf("unknown ranking mode %q (want sum or product)", s)
	}
}

// Weights scale the two signals in ModeSum.
type Weights struct {
	Authority float64 `json:"authority" yaml:"authority"`
	Relevance float64 `json:"relevance" yaml:"relevance"`
}

// DefaultWeights returns equal weights, so final = pagerank + tfidf.
func DefaultWeights() Weights {
	return Weights{Authority: 1.0, Relevance: 1.0}
}

// Validate checks that weights are non-negative and not both zero.
func (w Weights) Validate() error {
	if w.Authority < 0 || w.Relevance < 0 {
		return fmt.Errorf("%w: weights must be non-negative (authority %v, relevance %v)", ErrInvalidWeights, w.Authority, w.Relevance)
	}
	if w.Authority == 0 && w.Relevance == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalidWeights)
	}
	return nil
}

// Authority looks up the link authority of a URL.
// *pagerank.Result satisfies it.
type Authority interface {
	Score(url string) (float64, bool)
}

// ScoreMap adapts a URL -> score map, such as a stored run, to Authority.
type ScoreMap map[string]float64

// Score returns the score of url.
func (m ScoreMap) Score(url string) (float64, bool) {
	s, ok := m[url]
	return s, ok
}

// Combiner merges authority and relevance scores.
type Combiner struct {
	mode    Mode
	weights Weights
}

// Option configures a Combiner.
type Option func(*Combiner)

// WithMode sets the combination mode.
func WithMode(m Mode) Option {
	return func(c *Combiner) {
		c.mode = m
	}
}

// WithWeights sets the weights used by ModeSum.
func WithWeights(w Weights) Option {
	return func(c *Combiner) {
		c.weights = w
	}
}

// NewCombiner creates a Combiner, by default summing with equal weights.
func NewCombiner(opts ...Option) *Combiner {
	c := &Combiner{
		mode:    ModeSum,
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Final computes the final score of one document.
func (c *Combiner) Final(authority, relevance float64) float64 {
	if c.mode == ModeProduct {
		return relevance * authority
	}
	return c.weights.Authority*authority + c.weights.Relevance*relevance
}

// Combine ranks the text hits by final score descending, then URL
// ascending. URLs without an authority score get zero authority.
func (c *Combiner) Combine(authority Authority, hits []relevance.Hit) []model.RankedDocument {
	docs := make([]model.RankedDocument, 0, len(hits))
	for _, h := range hits {
		pr, _ := authority.Score(h.URL)
		docs = append(docs, model.RankedDocument{
			URL:       h.URL,
			Title:     h.Title,
			PageRank:  pr,
			Relevance: h.Score,
			Final:     c.Final(pr, h.Score),
		})
	}

	Sort(docs)
	return docs
}

// Sort orders documents by final score descending, then URL ascending.
func Sort(docs []model.RankedDocument) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Final == docs[j].Final {
			return docs[i].URL < docs[j].URL
		}
		return docs[i].Final > docs[j].Final
	})
}

// Combine ranks hits with the default Combiner.
func Combine(authority Authority, hits []relevance.Hit) []model.RankedDocument {
	return NewCombiner().Combine(authority, hits)
}

// Limit returns at most n documents. A non-positive n returns all.
func Limit(docs []model.RankedDocument, n int) []model.RankedDocument {
	if n > 0 && n < len(docs) {
		return docs[:n]
	}
	return docs
}
