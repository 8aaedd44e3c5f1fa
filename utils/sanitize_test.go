package utils

import (
	"strings"
	"testing"
)

func TestSanitizeBlobKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"empty", "", ""},
		{"url encoded", "my%20notes.pdf", "my notes.pdf"},
		{"plus decoded", "q1+summary.pdf", "q1 summary.pdf"},
		{"path traversal", "../../etc/passwd", "passwd"},
		{"windows path", "C:\\Users\\me\\scan.png", "scan.png"},
		{"special chars", "inv@ice#2025!.pdf", "inv_ice_2025_.pdf"},
		{"collapse underscores", "a!!!b.png", "a_b.png"},
		{"keeps parens", "scan (1).jpeg", "scan (1).jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeBlobKey(tt.in); got != tt.want {
				t.Errorf("SanitizeBlobKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeBlobKeyLength(t *testing.T) {
	long := strings.Repeat("a", 400) + ".pdf"
	got := SanitizeBlobKey(long)
	if len(got) > 240 {
		t.Fatalf("sanitized key too long: %d chars", len(got))
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("extension not preserved: %q", got)
	}
}
