// Package main provides the entry point for the linkrank CLI.
//
// linkrank ranks crawled web pages by link authority (PageRank) and
// answers text queries by combining that authority with TF-IDF relevance.
//
// Usage:
//
//	linkrank import ./crawl
//	linkrank rank ./crawl
//	linkrank rank --db --save
//	linkrank search "distributed systems"
//
// See --help for all available options.
package main

func main() {
	Execute()
}
