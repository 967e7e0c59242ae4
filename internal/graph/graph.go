package graph

import (
	"sort"

	"github.com/nao1215/linkrank/internal/model"
)

// LinkGraph is the directed link structure of a crawled corpus.
//
// Invariant: every adjacency key and every adjacency target is a vertex.
type LinkGraph struct {
	// vertices holds every URL seen as a source or as a target.
	vertices map[string]struct{}

	// adjacency maps each crawled source URL to its distinct targets.
	// A crawled page without links maps to an empty set.
	adjacency map[string]map[string]struct{}

	// edges is the number of distinct source->target pairs.
	edges int
}

// Build constructs the link graph from crawled documents.
//
// It returns ErrEmptyCorpus when docs is empty and a *MalformedRecordError
// when a document has no URL. A document without a link list has zero
// outbound links. When the same URL is crawled more than once, its link
// sets are merged.
func Build(docs []model.CrawledDocument) (*LinkGraph, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	g := &LinkGraph{
		vertices:  make(map[string]struct{}, len(docs)),
		adjacency: make(map[string]map[string]struct{}, len(docs)),
	}

	for i, doc := range docs {
		if !doc.HasURL() {
			return nil, &MalformedRecordError{
				Index:  i,
				Source: doc.Source,
				Reason: "missing url",
			}
		}

		g.vertices[doc.URL] = struct{}{}

		targets, ok := g.adjacency[doc.URL]
		if !ok {
			targets = make(map[string]struct{}, len(doc.OutboundLinks))
			g.adjacency[doc.URL] = targets
		}

		for _, link := range doc.UniqueLinks() {
			g.vertices[link] = struct{}{}
			if _, dup := targets[link]; dup {
				continue
			}
			targets[link] = struct{}{}
			g.edges++
		}
	}

	return g, nil
}

// Vertices returns every vertex in lexicographic order.
func (g *LinkGraph) Vertices() []string {
	out := make([]string, 0, len(g.vertices))
	for v := range g.vertices {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// VertexCount returns the number of vertices.
func (g *LinkGraph) VertexCount() int {
	return len(g.vertices)
}

// EdgeCount returns the number of distinct links.
func (g *LinkGraph) EdgeCount() int {
	return g.edges
}

// HasVertex reports whether url is a vertex.
func (g *LinkGraph) HasVertex(url string) bool {
	_, ok := g.vertices[url]
	return ok
}

// IsCrawled reports whether url was a crawled source (has an adjacency entry).
func (g *LinkGraph) IsCrawled(url string) bool {
	_, ok := g.adjacency[url]
	return ok
}

// IsDangling reports whether url has no outbound links, either because it
// was never crawled or because its page links nowhere.
func (g *LinkGraph) IsDangling(url string) bool {
	return len(g.adjacency[url]) == 0
}

// DanglingCount returns the number of dangling vertices.
func (g *LinkGraph) DanglingCount() int {
	n := 0
	for v := range g.vertices {
		if g.IsDangling(v) {
			n++
		}
	}
	return n
}

// OutboundLinks returns the distinct targets of url in lexicographic order.
// It returns nil for dangling vertices and unknown URLs.
func (g *LinkGraph) OutboundLinks(url string) []string {
	targets := g.adjacency[url]
	if len(targets) == 0 {
		return nil
	}

	out := make([]string, 0, len(targets))
	for t := range targets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// OutDegree returns the number of distinct targets of url.
func (g *LinkGraph) OutDegree(url string) int {
	return len(g.adjacency[url])
}

// Sources returns the crawled source URLs in lexicographic order.
func (g *LinkGraph) Sources() []string {
	out := make([]string, 0, len(g.adjacency))
	for s := range g.adjacency {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
