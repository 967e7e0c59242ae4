// Package pipeline provides a framework for executing ranking steps in sequence.
//
// A ranking run flows through these steps:
//   - load_corpus reads the crawled documents from a corpus.Source
//   - build_graph turns them into a link graph
//   - cache_lookup restores scores computed earlier for the same corpus
//   - solve runs the PageRank power iteration (skipped on a cache hit)
//   - cache_store remembers fresh scores
//   - persist saves the run and its scores in the database
//
// The core steps (load, build, solve) are terminal on error. The cache and
// persistence steps are optional: their failures are recorded as warnings
// on the run and the pipeline continues.
//
// BatchProcessor ranks several independent corpora concurrently, each with
// its own pipeline instance.
package pipeline
