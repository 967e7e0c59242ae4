// Package model defines the core data structures shared across linkrank.
//
// This package contains the following main types:
//   - CrawledDocument: One crawled page record with its outbound links
//   - RankRun: The state and outcome of one ranking run over a corpus
//   - ScoredURL: A URL paired with its authority score
//   - RankedDocument: A search hit combining authority and text relevance
//
// Models live in their own package so that graph, pagerank, pipeline,
// database and report can share them without import cycles.
//
// The models are serializable to JSON for report output and
// database storage.
package model
