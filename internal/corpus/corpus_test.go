package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/linkrank/internal/graph"
	"github.com/nao1215/linkrank/internal/model"
)

// writeRecord writes a record file into dir.
func writeRecord(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write record: %v", err)
	}
	return path
}

func TestDirSource_Documents(t *testing.T) {
	t.Parallel()

	t.Run("reads records in file name order", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeRecord(t, dir, "2.txt", `{"url": "http://b.example", "url_lists": ["http://a.example"], "title": "B", "text": "bravo"}`)
		writeRecord(t, dir, "1.txt", `{"url": "http://a.example", "url_lists": ["http://b.example", "http://c.example"], "title": "A"}`)
		writeRecord(t, dir, "3.json", `{"url": "http://c.example"}`)
		writeRecord(t, dir, "ignored.html", `<html></html>`)

		src := NewDirSource(dir, WithConcurrency(2))
		docs, err := src.Documents(context.Background())
		if err != nil {
			t.Fatalf("Documents() error = %v", err)
		}

		if len(docs) != 3 {
			t.Fatalf("len(docs) = %d, want 3", len(docs))
		}

		wantURLs := []string{"http://a.example", "http://b.example", "http://c.example"}
		for i, want := range wantURLs {
			if docs[i].URL != want {
				t.Errorf("docs[%d].URL = %q, want %q", i, docs[i].URL, want)
			}
		}

		if len(docs[0].OutboundLinks) != 2 {
			t.Errorf("docs[0] links = %v, want 2 links", docs[0].OutboundLinks)
		}
		if docs[1].Text != "bravo" {
			t.Errorf("docs[1].Text = %q, want %q", docs[1].Text, "bravo")
		}
		if docs[2].OutboundLinks != nil {
			t.Errorf("docs[2] links = %v, want nil", docs[2].OutboundLinks)
		}
		if !strings.HasSuffix(docs[0].Source, "1.txt") {
			t.Errorf("docs[0].Source = %q, want path ending in 1.txt", docs[0].Source)
		}
	})

	t.Run("accepts outbound_links field", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeRecord(t, dir, "a.json", `{"url": "A", "outbound_links": ["B"]}`)

		docs, err := NewDirSource(dir).Documents(context.Background())
		if err != nil {
			t.Fatalf("Documents() error = %v", err)
		}
		if len(docs[0].OutboundLinks) != 1 || docs[0].OutboundLinks[0] != "B" {
			t.Errorf("links = %v, want [B]", docs[0].OutboundLinks)
		}
	})

	t.Run("empty directory is an empty corpus", func(t *testing.T) {
		t.Parallel()

		_, err := NewDirSource(t.TempDir()).Documents(context.Background())
		if !errors.Is(err, graph.ErrEmptyCorpus) {
			t.Errorf("Documents() error = %v, want ErrEmptyCorpus", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := NewDirSource(filepath.Join(t.TempDir(), "nope")).Documents(context.Background())
		if err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("missing url is malformed", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeRecord(t, dir, "1.txt", `{"url": "A"}`)
		bad := writeRecord(t, dir, "2.txt", `{"url_lists": ["A"]}`)

		_, err := NewDirSource(dir).Documents(context.Background())
		if !errors.Is(err, graph.ErrMalformedRecord) {
			t.Fatalf("Documents() error = %v, want ErrMalformedRecord", err)
		}

		var mre *graph.MalformedRecordError
		if !errors.As(err, &mre) {
			t.Fatalf("error is not *MalformedRecordError: %T", err)
		}
		if mre.Source != bad {
			t.Errorf("Source = %q, want %q", mre.Source, bad)
		}
		if mre.Index != 1 {
			t.Errorf("Index = %d, want 1", mre.Index)
		}
	})

	t.Run("empty url is malformed", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeRecord(t, dir, "1.txt", `{"url": "  "}`)

		_, err := NewDirSource(dir).Documents(context.Background())
		if !errors.Is(err, graph.ErrMalformedRecord) {
			t.Errorf("Documents() error = %v, want ErrMalformedRecord", err)
		}
	})

	t.Run("invalid json is malformed", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeRecord(t, dir, "1.txt", `{"url": `)

		_, err := NewDirSource(dir).Documents(context.Background())
		if !errors.Is(err, graph.ErrMalformedRecord) {
			t.Errorf("Documents() error = %v, want ErrMalformedRecord", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			writeRecord(t, dir, name, `{"url": "`+name+`"}`)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewDirSource(dir, WithConcurrency(1)).Documents(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Documents() error = %v, want context.Canceled", err)
		}
	})
}

func TestDirSource_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRecord(t, dir, "b.txt", `{}`)
	writeRecord(t, dir, "a.dat", `{}`)
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0750); err != nil {
		t.Fatal(err)
	}

	files, err := NewDirSource(dir, WithPatterns("*.dat", "*.txt")).Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("Files() = %v, want 2 entries", files)
	}
	if filepath.Base(files[0]) != "a.dat" || filepath.Base(files[1]) != "b.txt" {
		t.Errorf("Files() = %v, want [a.dat b.txt]", files)
	}
}

func TestDirSource_Name(t *testing.T) {
	t.Parallel()

	if got := NewDirSource("/data/news").Name(); got != "/data/news" {
		t.Errorf("Name() = %q, want the directory", got)
	}

	src := NewDirSource("/data/news", WithName("news"))
	if src.Name() != "news" {
		t.Errorf("Name() = %q, want news", src.Name())
	}
	if src.Dir() != "/data/news" {
		t.Errorf("Dir() = %q, want /data/news", src.Dir())
	}
}

func TestDirSource_FeedsGraphBuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRecord(t, dir, "1.txt", `{"url": "A", "url_lists": ["B"]}`)
	writeRecord(t, dir, "2.txt", `{"url": "B", "url_lists": ["A"]}`)

	docs, err := NewDirSource(dir).Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}

	g, err := graph.Build(docs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if g.VertexCount() != 2 || g.EdgeCount() != 2 {
		t.Errorf("graph = %d vertices %d edges, want 2 and 2", g.VertexCount(), g.EdgeCount())
	}
}

type fakeLister struct {
	docs []model.CrawledDocument
	err  error
}

func (f *fakeLister) ListDocuments(_ context.Context) ([]model.CrawledDocument, error) {
	return f.docs, f.err
}

func TestDBSource_Documents(t *testing.T) {
	t.Parallel()

	t.Run("returns stored documents", func(t *testing.T) {
		t.Parallel()

		src := NewDBSource(&fakeLister{docs: []model.CrawledDocument{{URL: "A"}, {URL: "B"}}}, "main")
		docs, err := src.Documents(context.Background())
		if err != nil {
			t.Fatalf("Documents() error = %v", err)
		}
		if len(docs) != 2 {
			t.Errorf("len(docs) = %d, want 2", len(docs))
		}
		if docs[0].Source != "main" {
			t.Errorf("Source = %q, want %q", docs[0].Source, "main")
		}
		if src.Name() != "main" {
			t.Errorf("Name() = %q, want %q", src.Name(), "main")
		}
	})

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		_, err := NewDBSource(&fakeLister{}, "main").Documents(context.Background())
		if !errors.Is(err, graph.ErrEmptyCorpus) {
			t.Errorf("Documents() error = %v, want ErrEmptyCorpus", err)
		}
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := NewDBSource(&fakeLister{err: boom}, "main").Documents(context.Background())
		if !errors.Is(err, boom) {
			t.Errorf("Documents() error = %v, want wrapped boom", err)
		}
	})
}

func TestStaticSource(t *testing.T) {
	t.Parallel()

	docs := []model.CrawledDocument{{URL: "A"}}
	src := NewStaticSource("mem", docs)

	got, err := src.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	got[0].URL = "changed"
	if docs[0].URL != "A" {
		t.Error("Documents() must return a copy")
	}

	if _, err := NewStaticSource("empty", nil).Documents(context.Background()); !errors.Is(err, graph.ErrEmptyCorpus) {
		t.Errorf("empty StaticSource error = %v, want ErrEmptyCorpus", err)
	}
}
