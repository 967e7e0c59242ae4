// Package database provides SQLite-based storage for linkrank.
//
// This package implements the RankDB, which stores:
//   - Crawled documents and their outbound links
//   - Ranking runs with their parameters and graph statistics
//   - The PageRank score of every URL of each run
//
// SQLite (via modernc.org/sqlite) keeps the store a single file and the
// build CGO-free. WAL mode allows reports and searches to read while a
// ranking run is being saved.
package database
