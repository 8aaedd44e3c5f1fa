package index

import (
	"strings"
	"testing"
)

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		want  int
	}{
		{"no match", "quarterly report", "invoice", 0},
		{"single match", "the invoice arrived", "invoice", 1},
		{"case insensitive", "Invoice INVOICE inVoice", "invoice", 3},
		{"empty query", "anything", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchScore(tt.text, tt.query); got != tt.want {
				t.Errorf("matchScore(%q, %q) = %d, want %d", tt.text, tt.query, got, tt.want)
			}
		})
	}
}

func TestMatchScoreDeterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 10)
	first := matchScore(text, "beta")
	for i := 0; i < 5; i++ {
		if got := matchScore(text, "beta"); got != first {
			t.Fatalf("matchScore varied across identical inputs: %d vs %d", got, first)
		}
	}
}

func TestSnippetAround(t *testing.T) {
	text := strings.Repeat("padding ", 20) + "the INVOICE total is due" + strings.Repeat(" trailer", 20)

	snippet := snippetAround(text, "invoice", 15)
	if !strings.Contains(snippet, "INVOICE") {
		t.Fatalf("snippet %q does not contain the match", snippet)
	}
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Fatalf("snippet %q missing truncation markers", snippet)
	}
	if len(snippet) > 15*2+len("invoice")+6 {
		t.Fatalf("snippet too long: %d bytes", len(snippet))
	}
}

func TestSnippetAroundShortText(t *testing.T) {
	if got := snippetAround("tiny note", "note", 60); got != "tiny note" {
		t.Fatalf("snippetAround short text = %q, want full text", got)
	}
}

func TestSnippetAroundNoMatch(t *testing.T) {
	text := strings.Repeat("x", 300)
	got := snippetAround(text, "absent", 60)
	if !strings.HasSuffix(got, "...") || len(got) > 123 {
		t.Fatalf("no-match snippet = %d bytes %q...", len(got), got[:20])
	}
}

func TestSnippetAroundFlattensNewlines(t *testing.T) {
	got := snippetAround("line one\ninvoice here\nline three", "invoice", 60)
	if strings.Contains(got, "\n") {
		t.Fatalf("snippet contains newline: %q", got)
	}
}

func TestAlignRuneStart(t *testing.T) {
	s := "héllo wörld"
	for i := 0; i <= len(s); i++ {
		j := alignRuneStart(s, i)
		if j > i {
			t.Fatalf("alignRuneStart moved right: %d -> %d", i, j)
		}
		if j < len(s) && !strings.HasPrefix(s[j:], string([]rune(s[j:])[0:1])) {
			t.Fatalf("offset %d not a rune boundary", j)
		}
	}
}
