package model

import (
	"strings"
)

// CrawledDocument is one record per crawled page.
// The crawler that produces these records is external to linkrank;
// documents are read-only input to graph building and text scoring.
type CrawledDocument struct {
	// URL is the page URL and the unique key of the record.
	// An empty URL marks a structurally invalid record.
	URL string `json:"url"`

	// OutboundLinks are the URLs this page links to.
	// The list may contain duplicates and self references; a nil list
	// means the page has no outbound links.
	OutboundLinks []string `json:"url_lists,omitempty"`

	// Title is the page title, if the crawler captured one.
	Title string `json:"title,omitempty"`

	// Text is the extracted page text used for TF-IDF scoring.
	// The link graph ignores it.
	Text string `json:"text,omitempty"`

	// Source describes where the record was read from (a file path or
	// a database name). It is only used in error messages.
	Source string `json:"-"`
}

// HasURL reports whether the document carries a usable URL.
func (d CrawledDocument) HasURL() bool {
	return strings.TrimSpace(d.URL) != ""
}

// UniqueLinks returns the outbound links with duplicates and blank
// entries removed, preserving first-seen order. A blank link is treated
// the same way as a blank URL: it names no page.
func (d CrawledDocument) UniqueLinks() []string {
	if len(d.OutboundLinks) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(d.OutboundLinks))
	links := make([]string, 0, len(d.OutboundLinks))
	for _, link := range d.OutboundLinks {
		if strings.TrimSpace(link) == "" {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// MergeDocuments folds records that share a URL into one document, in
// first-seen URL order. Link lists are concatenated so the merged page
// links to the union of targets, the last non-empty title and source win,
// and texts are joined with a newline. Records without a URL are passed
// through unchanged so callers can still reject them.
func MergeDocuments(docs []CrawledDocument) []CrawledDocument {
	merged := make([]CrawledDocument, 0, len(docs))
	index := make(map[string]int, len(docs))

	for _, doc := range docs {
		if !doc.HasURL() {
			merged = append(merged, doc)
			continue
		}

		i, ok := index[doc.URL]
		if !ok {
			doc.OutboundLinks = append([]string(nil), doc.OutboundLinks...)
			index[doc.URL] = len(merged)
			merged = append(merged, doc)
			continue
		}

		m := &merged[i]
		m.OutboundLinks = append(m.OutboundLinks, doc.OutboundLinks...)
		if doc.Title != "" {
			m.Title = doc.Title
		}
		if doc.Source != "" {
			m.Source = doc.Source
		}
		switch {
		case doc.Text == "":
		case m.Text == "":
			m.Text = doc.Text
		default:
			m.Text += "\n" + doc.Text
		}
	}

	return merged
}
