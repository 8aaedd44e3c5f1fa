package extract

import (
	"context"
	"strings"
	"time"

	"smart-notes-platform/models"
)

// ImageExtractor OCRs standalone image uploads (png, jpeg, tiff, bmp).
type ImageExtractor struct {
	ocr *OCREngine
}

func NewImageExtractor(ocr *OCREngine) *ImageExtractor {
	return &ImageExtractor{ocr: ocr}
}

func (e *ImageExtractor) Name() string { return "image-ocr" }

func (e *ImageExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()

	text, err := e.ocr.Recognize(ctx, data)
	if err != nil {
		return nil, err
	}

	// Empty text is a valid outcome (blank page, photo with no writing);
	// the document is still indexed with an empty record.
	text = strings.TrimSpace(text)
	return &Result{
		Text:      text,
		Pages:     1,
		Engine:    models.EngineOCR,
		Duration:  time.Since(start),
		WordCount: countWords(text),
	}, nil
}
