package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkrank/internal/graph"
	"github.com/nao1215/linkrank/internal/model"
)

// DefaultPatterns are the file name patterns of crawled records.
var DefaultPatterns = []string{"*.txt", "*.json"}

// DefaultConcurrency is the number of files decoded at once.
const DefaultConcurrency = 8

// maxRecordSize bounds the size of a single record file.
const maxRecordSize = 32 * 1024 * 1024 // 32 MB

// DirSource reads crawled records from JSON files in a directory.
type DirSource struct {
	dir         string
	name        string
	patterns    []string
	concurrency int
	logger      *slog.Logger
}

// DirOption configures a DirSource.
type DirOption func(*DirSource)

// WithPatterns sets the glob patterns of record files.
func WithPatterns(patterns ...string) DirOption {
	return func(s *DirSource) {
		if len(patterns) > 0 {
			s.patterns = patterns
		}
	}
}

// WithConcurrency sets how many files are decoded in parallel.
func WithConcurrency(n int) DirOption {
	return func(s *DirSource) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithName sets the corpus name reported by Name. It defaults to the
// directory path.
func WithName(name string) DirOption {
	return func(s *DirSource) {
		s.name = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DirOption {
	return func(s *DirSource) {
		s.logger = logger
	}
}

// NewDirSource creates a Source over the records in dir.
func NewDirSource(dir string, opts ...DirOption) *DirSource {
	s := &DirSource{
		dir:         dir,
		patterns:    DefaultPatterns,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the corpus name, or the directory path if none was set.
func (s *DirSource) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.dir
}

// Dir returns the directory path.
func (s *DirSource) Dir() string {
	return s.dir
}

// Files returns the record files in lexicographic order.
func (s *DirSource) Files() ([]string, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path is not a directory: %s", s.dir)
	}

	seen := make(map[string]struct{})
	files := make([]string, 0)
	for _, pattern := range s.patterns {
		matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid record pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			fi, err := os.Stat(m)
			if err != nil || fi.IsDir() {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Documents decodes every record file. Any malformed record fails the
// whole read; no partial corpus is returned.
func (s *DirSource) Documents(ctx context.Context) ([]model.CrawledDocument, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no crawled records in %s", graph.ErrEmptyCorpus, s.dir)
	}

	s.logger.Debug("reading crawled records",
		"dir", s.dir,
		"files", len(files),
		"concurrency", s.concurrency,
	)

	docs := make([]model.CrawledDocument, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			doc, err := ReadRecord(path, i)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

// record is the on-disk form of a crawled page. URL is a pointer so a
// missing field can be told apart from an empty one in error messages.
type record struct {
	URL           *string  `json:"url"`
	URLLists      []string `json:"url_lists"`
	OutboundLinks []string `json:"outbound_links"`
	Title         string   `json:"title"`
	Text          string   `json:"text"`
}

// ReadRecord decodes one record file. index is the record's position in
// the corpus and is reported in *graph.MalformedRecordError.
func ReadRecord(path string, index int) (model.CrawledDocument, error) {
	f, err := os.Open(path) //nolint:gosec // Corpus paths are user-provided by design
	if err != nil {
		return model.CrawledDocument{}, fmt.Errorf("failed to open record %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.CrawledDocument{}, fmt.Errorf("failed to stat record %s: %w", path, err)
	}
	if info.Size() > maxRecordSize {
		return model.CrawledDocument{}, &graph.MalformedRecordError{
			Index:  index,
			Source: path,
			Reason: fmt.Sprintf("record exceeds %d bytes", maxRecordSize),
		}
	}

	var rec record
	if err := json.NewDecoder(f).Decode(&rec); err != nil {
		return model.CrawledDocument{}, &graph.MalformedRecordError{
			Index:  index,
			Source: path,
			Reason: "invalid json: " + err.Error(),
		}
	}

	return rec.toDocument(path, index)
}

// toDocument converts the record, accepting either link field name.
func (r record) toDocument(path string, index int) (model.CrawledDocument, error) {
	if r.URL == nil {
		return model.CrawledDocument{}, &graph.MalformedRecordError{
			Index:  index,
			Source: path,
			Reason: "missing url field",
		}
	}

	doc := model.CrawledDocument{
		URL:           *r.URL,
		OutboundLinks: r.URLLists,
		Title:         r.Title,
		Text:          r.Text,
		Source:        path,
	}
	if doc.OutboundLinks == nil {
		doc.OutboundLinks = r.OutboundLinks
	}

	if !doc.HasURL() {
		return model.CrawledDocument{}, &graph.MalformedRecordError{
			Index:  index,
			Source: path,
			Reason: "empty url",
		}
	}

	return doc, nil
}
