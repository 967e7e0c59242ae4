package corpus

import (
	"context"
	"fmt"

	"github.com/nao1215/linkrank/internal/graph"
	"github.com/nao1215/linkrank/internal/model"
)

// Source supplies the crawled documents of one corpus.
type Source interface {
	// Documents returns every record of the corpus.
	// An empty corpus returns an error wrapping graph.ErrEmptyCorpus.
	Documents(ctx context.Context) ([]model.CrawledDocument, error)

	// Name identifies the corpus in logs, reports and the database.
	Name() string
}

// DocumentLister is implemented by stores that can list crawled documents.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]model.CrawledDocument, error)
}

// DBSource reads the corpus from a document store.
type DBSource struct {
	store DocumentLister
	name  string
}

// NewDBSource creates a Source backed by store. The name is used to key
// ranking runs of this corpus.
func NewDBSource(store DocumentLister, name string) *DBSource {
	return &DBSource{store: store, name: name}
}

// Name returns the corpus name.
func (s *DBSource) Name() string {
	return s.name
}

// Documents lists every stored document.
func (s *DBSource) Documents(ctx context.Context) ([]model.CrawledDocument, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: database %s holds no documents", graph.ErrEmptyCorpus, s.name)
	}
	for i := range docs {
		docs[i].Source = s.name
	}
	return docs, nil
}

// StaticSource serves a fixed slice of documents. It is useful for
// callers that already hold the corpus in memory.
type StaticSource struct {
	docs []model.CrawledDocument
	name string
}

// NewStaticSource creates a Source over docs.
func NewStaticSource(name string, docs []model.CrawledDocument) *StaticSource {
	return &StaticSource{docs: docs, name: name}
}

// Name returns the corpus name.
func (s *StaticSource) Name() string {
	return s.name
}

// Documents returns a copy of the documents.
func (s *StaticSource) Documents(_ context.Context) ([]model.CrawledDocument, error) {
	if len(s.docs) == 0 {
		return nil, graph.ErrEmptyCorpus
	}
	out := make([]model.CrawledDocument, len(s.docs))
	copy(out, s.docs)
	return out, nil
}
