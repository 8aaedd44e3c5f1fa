package extract

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryForFormat(t *testing.T) {
	r := NewRegistry("eng", time.Minute)

	for _, format := range []string{"pdf", "png", "jpeg", "tiff", "bmp"} {
		e, err := r.ForFormat(format)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", format, err)
		}
		if e == nil {
			t.Fatalf("ForFormat(%q) returned nil extractor", format)
		}
	}

	if _, err := r.ForFormat("docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("ForFormat(docx): got %v, want ErrUnsupportedFormat", err)
	}
}

func TestRegistryPDFUsesTextLayerFirst(t *testing.T) {
	r := NewRegistry("eng", time.Minute)
	e, err := r.ForFormat("pdf")
	if err != nil {
		t.Fatalf("ForFormat(pdf): %v", err)
	}
	if e.Name() != "pdf" {
		t.Fatalf("pdf extractor is %q, want strategy with direct text layer first", e.Name())
	}
}
