package pagerank

import (
	"testing"
)

// TestParseRepresentation tests representation parsing.
func TestParseRepresentation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Representation
		wantErr bool
	}{
		{input: "", want: Auto},
		{input: "auto", want: Auto},
		{input: "Dense", want: Dense},
		{input: " sparse ", want: Sparse},
		{input: "csr", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseRepresentation(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRepresentation_String tests the string form round-trips through parsing.
func TestRepresentation_String(t *testing.T) {
	t.Parallel()

	for _, r := range []Representation{Auto, Dense, Sparse} {
		parsed, err := ParseRepresentation(r.String())
		if err != nil {
			t.Fatalf("failed to parse %q: %v", r.String(), err)
		}
		if parsed != r {
			t.Errorf("round trip of %v gave %v", r, parsed)
		}
	}

	if got := Representation(9).String(); got != "representation(9)" {
		t.Errorf("unexpected string for unknown value: %q", got)
	}
}

// TestResult tests the Result accessors.
func TestResult(t *testing.T) {
	t.Parallel()

	scores := map[string]float64{"b": 0.25, "a": 0.75}
	r := NewResult(scores, 12)

	t.Run("copies input map", func(t *testing.T) {
		t.Parallel()

		scores["a"] = 0
		if s, _ := r.Score("a"); s != 0.75 {
			t.Errorf("Score(a) = %g, want 0.75", s)
		}
	})

	t.Run("Scores returns a copy", func(t *testing.T) {
		t.Parallel()

		m := r.Scores()
		m["b"] = 42
		if s, _ := r.Score("b"); s != 0.25 {
			t.Errorf("Score(b) = %g, want 0.25", s)
		}
	})

	t.Run("accessors", func(t *testing.T) {
		t.Parallel()

		if r.Iterations() != 12 {
			t.Errorf("Iterations() = %d, want 12", r.Iterations())
		}
		if r.Len() != 2 {
			t.Errorf("Len() = %d, want 2", r.Len())
		}
		if urls := r.URLs(); urls[0] != "a" || urls[1] != "b" {
			t.Errorf("URLs() = %v, want [a b]", urls)
		}
		if r.Sum() != 1 {
			t.Errorf("Sum() = %g, want 1", r.Sum())
		}
		if r.Representation() != Auto {
			t.Errorf("Representation() = %v, want auto", r.Representation())
		}
		if _, ok := r.Score("missing"); ok {
			t.Error("expected missing url to be absent")
		}
	})
}
