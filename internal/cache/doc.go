// Package cache stores PageRank results across runs.
//
// Ranking is a pure function of the corpus and the solver parameters, so a
// result can be reused whenever both are unchanged. Fingerprint derives a
// key from the canonical form of the corpus (sorted URLs with sorted,
// deduplicated links) and the parameters; Cache persists results in a
// bbolt file under that key.
package cache
