package relevance

import (
	"math"
	"sort"

	"github.com/nao1215/linkrank/internal/model"
)

// posting is the occurrence count of a term in one document.
type posting struct {
	url   string
	count int
}

// Index is an in-memory inverted index over document text.
// It is immutable after construction and safe for concurrent reads.
type Index struct {
	postings map[string][]posting
	docLen   map[string]int
	titles   map[string]string
	texts    map[string]string
}

// Hit is one document matching a query.
type Hit struct {
	URL   string  `json:"url"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`

	// Matched is the number of distinct query terms found in the document.
	Matched int `json:"matched"`
}

// NewIndex indexes the title and text of docs. Records sharing a URL are
// indexed as one document.
func NewIndex(docs []model.CrawledDocument) *Index {
	tok := NewTokenizer()
	counts := make(map[string]map[string]int)
	idx := &Index{
		postings: make(map[string][]posting),
		docLen:   make(map[string]int),
		titles:   make(map[string]string),
		texts:    make(map[string]string),
	}

	for _, doc := range docs {
		if !doc.HasURL() {
			continue
		}
		if doc.Title != "" {
			idx.titles[doc.URL] = doc.Title
		}
		if doc.Text != "" {
			if prev, ok := idx.texts[doc.URL]; ok {
				idx.texts[doc.URL] = prev + "\n" + doc.Text
			} else {
				idx.texts[doc.URL] = doc.Text
			}
		}

		terms := tok.Terms(doc.Title + " " + doc.Text)
		if _, ok := idx.docLen[doc.URL]; !ok {
			idx.docLen[doc.URL] = 0
		}
		idx.docLen[doc.URL] += len(terms)

		for _, term := range terms {
			byURL, ok := counts[term]
			if !ok {
				byURL = make(map[string]int)
				counts[term] = byURL
			}
			byURL[doc.URL]++
		}
	}

	for term, byURL := range counts {
		list := make([]posting, 0, len(byURL))
		for url, n := range byURL {
			list = append(list, posting{url: url, count: n})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].url < list[j].url })
		idx.postings[term] = list
	}

	return idx
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.docLen)
}

// Title returns the title of url, if known.
func (idx *Index) Title(url string) string {
	return idx.titles[url]
}

// Text returns the indexed text of url.
func (idx *Index) Text(url string) string {
	return idx.texts[url]
}

// DocumentFrequency returns how many documents contain the stemmed term.
func (idx *Index) DocumentFrequency(term string) int {
	return len(idx.postings[term])
}

// IDF returns ln(N/df) for the stemmed term, or 0 when no document has it.
func (idx *Index) IDF(term string) float64 {
	df := idx.DocumentFrequency(term)
	if df == 0 || idx.Len() == 0 {
		return 0
	}
	return math.Log(float64(idx.Len()) / float64(df))
}

// TFIDF returns the TF-IDF of the stemmed term in url.
func (idx *Index) TFIDF(term, url string) float64 {
	n := idx.docLen[url]
	if n == 0 {
		return 0
	}
	for _, p := range idx.postings[term] {
		if p.url == url {
			return float64(p.count) / float64(n) * idx.IDF(term)
		}
	}
	return 0
}

// Score returns the documents with a positive summed TF-IDF for the query,
// ordered by score descending and URL ascending. A term found in every
// document has zero IDF and cannot by itself make a document a hit.
// A query without matching terms returns nil.
func (idx *Index) Score(query string) []Hit {
	terms := uniqueTerms(NewTokenizer().Terms(query))
	if len(terms) == 0 {
		return nil
	}

	byURL := make(map[string]*Hit)
	for _, term := range terms {
		list := idx.postings[term]
		if len(list) == 0 {
			continue
		}
		idf := idx.IDF(term)
		for _, p := range list {
			tf := float64(p.count) / float64(idx.docLen[p.url])
			hit, ok := byURL[p.url]
			if !ok {
				hit = &Hit{URL: p.url, Title: idx.titles[p.url]}
				byURL[p.url] = hit
			}
			hit.Score += tf * idf
			hit.Matched++
		}
	}

	hits := make([]Hit, 0, len(byURL))
	for _, h := range byURL {
		if h.Score <= 0 {
			continue
		}
		hits = append(hits, *h)
	}
	if len(hits) == 0 {
		return nil
	}
	SortHits(hits)
	return hits
}

// SortHits orders hits by score descending, then URL ascending.
func SortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].URL < hits[j].URL
		}
		return hits[i].Score > hits[j].Score
	})
}

func uniqueTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
