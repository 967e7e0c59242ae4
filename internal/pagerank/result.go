package pagerank

import (
	"maps"
	"sort"
)

// Result is the immutable outcome of a successful Solve.
type Result struct {
	scores         map[string]float64
	iterations     int
	representation Representation
}

// NewResult restores a Result from previously computed scores, for example
// from a result cache. The map is copied.
func NewResult(scores map[string]float64, iterations int) *Result {
	return &Result{
		scores:     maps.Clone(scores),
		iterations: iterations,
	}
}

// Score returns the score of url and whether url is a vertex.
func (r *Result) Score(url string) (float64, bool) {
	s, ok := r.scores[url]
	return s, ok
}

// Scores returns a copy of the URL -> score mapping.
func (r *Result) Scores() map[string]float64 {
	return maps.Clone(r.scores)
}

// Iterations returns the number of power iteration steps consumed.
func (r *Result) Iterations() int {
	return r.iterations
}

// Representation returns the matrix representation used, or Auto for a
// restored result.
func (r *Result) Representation() Representation {
	return r.representation
}

// Len returns the number of scored URLs.
func (r *Result) Len() int {
	return len(r.scores)
}

// URLs returns the scored URLs in lexicographic order.
func (r *Result) URLs() []string {
	urls := make([]string, 0, len(r.scores))
	for u := range r.scores {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Sum returns the sum of all scores, summed in URL order so the value is
// reproducible.
func (r *Result) Sum() float64 {
	var total float64
	for _, u := range r.URLs() {
		total += r.scores[u]
	}
	return total
}
