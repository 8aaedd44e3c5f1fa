package extract

import (
	"time"
)

// Registry maps document formats to extraction strategies. New formats plug
// in here without touching the worker control flow.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry wires the default strategies: text-layer-then-OCR for PDFs,
// straight OCR for image formats.
func NewRegistry(ocrLanguage string, ocrTimeout time.Duration) *Registry {
	ocr := NewOCREngine(ocrLanguage, ocrTimeout)
	pdfExtractor := NewPDFExtractor(ocr)
	imageExtractor := NewImageExtractor(ocr)

	return &Registry{
		extractors: map[string]Extractor{
			"pdf":  pdfExtractor,
			"png":  imageExtractor,
			"jpeg": imageExtractor,
			"tiff": imageExtractor,
			"bmp":  imageExtractor,
		},
	}
}

// ForFormat returns the extractor registered for the format, or
// ErrUnsupportedFormat.
func (r *Registry) ForFormat(format string) (Extractor, error) {
	e, ok := r.extractors[format]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return e, nil
}

// Register adds or replaces the extractor for a format.
func (r *Registry) Register(format string, e Extractor) {
	r.extractors[format] = e
}
