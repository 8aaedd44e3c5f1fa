package index

import (
	"strings"
	"unicode/utf8"
)

// matchScore counts case-insensitive occurrences of query in text. Search
// ranking must be deterministic for identical inputs, so this is the whole
// scoring function.
func matchScore(text, query string) int {
	if query == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), strings.ToLower(query))
}

// snippetAround returns a window of roughly radius bytes on each side of the
// first case-insensitive match, clamped to rune boundaries, with ellipses
// marking truncation. Returns the head of the text when there is no match.
func snippetAround(text, query string, radius int) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(query))
	if idx < 0 {
		if len(text) <= 2*radius {
			return text
		}
		return text[:alignRuneStart(text, 2*radius)] + "..."
	}

	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + radius
	if end > len(text) {
		end = len(text)
	}
	start = alignRuneStart(text, start)
	end = alignRuneStart(text, end)

	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet = snippet + "..."
	}
	return strings.ReplaceAll(snippet, "\n", " ")
}

// alignRuneStart moves a byte offset left until it sits on a rune boundary.
func alignRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
