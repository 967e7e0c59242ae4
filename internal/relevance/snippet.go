package relevance

import (
	"regexp"
	"strings"
)

// SnippetOptions controls Snippet.
type SnippetOptions struct {
	// Context is the number of bytes kept on each side of a match.
	Context int

	// Limit is the maximum number of matches shown.
	Limit int

	// Mark wraps each match, e.g. "**" for Markdown bold.
	Mark string

	// Fallback is the prefix length returned when nothing matches.
	Fallback int
}

// DefaultSnippetOptions returns options producing short Markdown snippets.
func DefaultSnippetOptions() SnippetOptions {
	return SnippetOptions{Context: 50, Limit: 3, Mark: "**", Fallback: 200}
}

// Snippet extracts the passages of text around whole-word, case-insensitive
// matches of query and highlights them. When nothing matches, the start of
// text is returned.
func Snippet(text, query string, opts SnippetOptions) string {
	query = strings.TrimSpace(query)
	if query == "" || text == "" {
		return prefix(text, opts.Fallback)
	}

	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(query) + `\b`)
	if err != nil {
		return prefix(text, opts.Fallback)
	}

	matches := re.FindAllStringIndex(text, opts.Limit)
	if len(matches) == 0 {
		return prefix(text, opts.Fallback)
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		start := max(0, m[0]-opts.Context)
		end := min(len(text), m[1]+opts.Context)
		start, end = runeBoundary(text, start, end)
		passage := text[start:end]
		parts = append(parts, re.ReplaceAllStringFunc(passage, func(s string) string {
			return opts.Mark + s + opts.Mark
		}))
	}

	out := strings.Join(parts, " ... ")
	if len(matches) == opts.Limit {
		out += "..."
	}
	return out
}

// prefix returns the first n bytes of s on a rune boundary.
func prefix(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	_, end := runeBoundary(s, 0, n)
	return s[:end] + "..."
}

// runeBoundary moves start and end outward onto UTF-8 rune starts.
func runeBoundary(s string, start, end int) (int, int) {
	for start > 0 && !isRuneStart(s[start]) {
		start--
	}
	for end < len(s) && !isRuneStart(s[end]) {
		end++
	}
	return start, end
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
