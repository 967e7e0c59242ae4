package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nao1215/linkrank/internal/model"
)

// TestBuild tests link graph construction from crawled documents.
func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("collects sources and targets as vertices", func(t *testing.T) {
		t.Parallel()

		g, err := Build([]model.CrawledDocument{
			{URL: "A", OutboundLinks: []string{"B"}},
			{URL: "B", OutboundLinks: nil},
			{URL: "C", OutboundLinks: []string{"A", "X"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"A", "B", "C", "X"}
		if got := g.Vertices(); !reflect.DeepEqual(got, want) {
			t.Errorf("Vertices() = %v, want %v", got, want)
		}
		if g.VertexCount() != 4 {
			t.Errorf("VertexCount() = %d, want 4", g.VertexCount())
		}
		if g.EdgeCount() != 3 {
			t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
		}
	})

	t.Run("deduplicates outbound links", func(t *testing.T) {
		t.Parallel()

		g, err := Build([]model.CrawledDocument{
			{URL: "A", OutboundLinks: []string{"B", "B", "C", "A", "C"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"A", "B", "C"}
		if got := g.OutboundLinks("A"); !reflect.DeepEqual(got, want) {
			t.Errorf("OutboundLinks(A) = %v, want %v", got, want)
		}
		if g.OutDegree("A") != 3 {
			t.Errorf("OutDegree(A) = %d, want 3", g.OutDegree("A"))
		}
	})

	t.Run("blank links are skipped like blank urls", func(t *testing.T) {
		t.Parallel()

		g, err := Build([]model.CrawledDocument{
			{URL: "A", OutboundLinks: []string{"", " ", "B", "\t"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"A", "B"}
		if got := g.Vertices(); !reflect.DeepEqual(got, want) {
			t.Errorf("Vertices() = %v, want %v", got, want)
		}
		if g.EdgeCount() != 1 {
			t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
		}

		_, err = Build([]model.CrawledDocument{{URL: " "}})
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("expected ErrMalformedRecord for blank url, got %v", err)
		}
	})

	t.Run("target-only urls have no adjacency entry", func(t *testing.T) {
		t.Parallel()

		g, err := Build([]model.CrawledDocument{
			{URL: "A", OutboundLinks: []string{"X"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !g.HasVertex("X") {
			t.Error("expected X to be a vertex")
		}
		if g.IsCrawled("X") {
			t.Error("X was never crawled")
		}
		if !g.IsDangling("X") {
			t.Error("X should be dangling")
		}
		if g.OutboundLinks("X") != nil {
			t.Error("expected nil outbound links for X")
		}
		if got := g.Sources(); !reflect.DeepEqual(got, []string{"A"}) {
			t.Errorf("Sources() = %v, want [A]", got)
		}
	})

	t.Run("crawled page without links is dangling", func(t *testing.T) {
		t.Parallel()

		g, err := Build([]model.CrawledDocument{
			{URL: "A", OutboundLinks: []string{"B"}},
			{URL: "B", OutboundLinks: []string{}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !g.IsCrawled("B") {
			t.Error("B was crawled")
		}
		if !g.IsDangling("B") {
			t.Error("B should be dangling")
		}
		if g.IsDangling("A") {
			t.Error("A should not be dangling")
		}
		if g.DanglingCount() != 1 {
			t.Errorf("DanglingCount() = %d, want 1", g.DanglingCount())
		}
	})

	t.Run("merges links of a url crawled twice", func(t *testing.T) {
		t.Parallel()

		g, err := Build([]model.CrawledDocument{
			{URL: "A", OutboundLinks: []string{"B"}},
			{URL: "A", OutboundLinks: []string{"C", "B"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := g.OutboundLinks("A"); !reflect.DeepEqual(got, []string{"B", "C"}) {
			t.Errorf("OutboundLinks(A) = %v, want [B C]", got)
		}
		if g.EdgeCount() != 2 {
			t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
		}
	})

	t.Run("every adjacency element is a vertex", func(t *testing.T) {
		t.Parallel()

		g, err := Build([]model.CrawledDocument{
			{URL: "A", OutboundLinks: []string{"B", "Y"}},
			{URL: "C", OutboundLinks: []string{"Z", "A"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, src := range g.Sources() {
			if !g.HasVertex(src) {
				t.Errorf("source %q is not a vertex", src)
			}
			for _, dst := range g.OutboundLinks(src) {
				if !g.HasVertex(dst) {
					t.Errorf("target %q of %q is not a vertex", dst, src)
				}
			}
		}
	})
}

// TestBuild_Errors tests the terminal error conditions of Build.
func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty corpus", func(t *testing.T) {
		t.Parallel()

		g, err := Build(nil)
		if !errors.Is(err, ErrEmptyCorpus) {
			t.Fatalf("expected ErrEmptyCorpus, got %v", err)
		}
		if g != nil {
			t.Error("expected nil graph")
		}
	})

	t.Run("missing url aborts the build", func(t *testing.T) {
		t.Parallel()

		g, err := Build([]model.CrawledDocument{
			{URL: "A", OutboundLinks: []string{"B"}},
			{URL: "", OutboundLinks: []string{"A"}, Source: "crawled/2.txt"},
			{URL: "C"},
		})
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("expected ErrMalformedRecord, got %v", err)
		}
		if g != nil {
			t.Error("expected no partial graph")
		}

		var mre *MalformedRecordError
		if !errors.As(err, &mre) {
			t.Fatalf("expected *MalformedRecordError, got %T", err)
		}
		if mre.Index != 1 {
			t.Errorf("Index = %d, want 1", mre.Index)
		}
		if mre.Source != "crawled/2.txt" {
			t.Errorf("Source = %q, want crawled/2.txt", mre.Source)
		}
	})
}

// TestMalformedRecordError_Error tests the error message format.
func TestMalformedRecordError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *MalformedRecordError
		want string
	}{
		{
			name: "with source",
			err:  &MalformedRecordError{Index: 3, Source: "a.txt", Reason: "missing url"},
			want: "malformed crawled record: record 3 (a.txt): missing url",
		},
		{
			name: "without source",
			err:  &MalformedRecordError{Index: 0, Reason: "missing url"},
			want: "malformed crawled record: record 0: missing url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
