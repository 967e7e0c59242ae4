// Package graph builds the link graph that PageRank runs over.
//
// Build scans a corpus of crawled documents and produces a LinkGraph:
//   - the vertex set, every URL seen either as a crawled source or as a
//     link target
//   - the adjacency mapping from each crawled source URL to its set of
//     distinct outbound links
//
// URLs that only appear as link targets are vertices without an adjacency
// entry. The solver treats them, and crawled pages with no links, as
// dangling nodes.
//
// A LinkGraph is immutable once built. Accessors return sorted copies so
// callers get a deterministic order and cannot mutate the graph.
package graph
