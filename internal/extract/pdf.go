package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"smart-notes-platform/internal/logger"
	"smart-notes-platform/models"
)

// ocrConcurrency bounds parallel page OCR so one large scanned PDF cannot
// saturate the host.
const ocrConcurrency = 2

// PDFExtractor tries the PDF's text layer first and falls back to OCR on the
// embedded page images when the layer is absent or unusable (scanned PDFs).
type PDFExtractor struct {
	ocr *OCREngine
}

func NewPDFExtractor(ocr *OCREngine) *PDFExtractor {
	return &PDFExtractor{ocr: ocr}
}

func (e *PDFExtractor) Name() string { return "pdf" }

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()

	text, pages, directErr := extractTextLayer(data)
	if directErr == nil {
		if quality := EvaluateTextQuality(text); quality >= usableQualityThreshold {
			return &Result{
				Text:      text,
				Pages:     pages,
				Engine:    models.EngineDirect,
				Duration:  time.Since(start),
				WordCount: countWords(text),
			}, nil
		}
		logger.Debug("pdf text layer unusable, falling back to OCR", "chars", len(text))
	} else {
		logger.Debug("pdf text layer extraction failed, falling back to OCR", "error", directErr)
	}

	text, pages, err := e.ocrPages(ctx, data)
	if err != nil {
		if directErr != nil {
			return nil, fmt.Errorf("direct extraction failed (%v) and OCR fallback failed: %w", directErr, err)
		}
		return nil, fmt.Errorf("OCR fallback failed: %w", err)
	}

	return &Result{
		Text:      text,
		Pages:     pages,
		Engine:    models.EngineOCR,
		Duration:  time.Since(start),
		WordCount: countWords(text),
	}, nil
}

// extractTextLayer pulls the embedded text layer page by page. Individual
// page failures are tolerated; a torn page should not lose the rest.
func extractTextLayer(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("failed to extract text from page", "page", i, "error", err)
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	return strings.TrimSpace(textBuilder.String()), pages, nil
}

// ocrPages extracts the page images with pdfcpu and OCRs them in page order.
func (e *PDFExtractor) ocrPages(ctx context.Context, data []byte) (string, int, error) {
	images, err := pageImages(data)
	if err != nil {
		return "", 0, err
	}
	if len(images) == 0 {
		// A PDF with neither text layer nor images has nothing to index.
		return "", 0, nil
	}

	texts := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ocrConcurrency)

	for i := range images {
		g.Go(func() error {
			text, err := e.ocr.Recognize(gctx, images[i].data)
			if err != nil {
				return fmt.Errorf("OCR page %d: %w", images[i].pageNr, err)
			}
			texts[i] = strings.TrimSpace(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", 0, err
	}

	lastPage := images[len(images)-1].pageNr
	return strings.TrimSpace(strings.Join(texts, "\n")), lastPage, nil
}

type pageImage struct {
	pageNr int
	objNr  int
	data   []byte
}

func pageImages(data []byte) ([]pageImage, error) {
	extracted, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	var images []pageImage
	for _, pageMap := range extracted {
		for objNr, img := range pageMap {
			raw, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("failed to read page image: %w", err)
			}
			images = append(images, pageImage{pageNr: img.PageNr, objNr: objNr, data: raw})
		}
	}

	sort.Slice(images, func(i, j int) bool {
		if images[i].pageNr != images[j].pageNr {
			return images[i].pageNr < images[j].pageNr
		}
		return images[i].objNr < images[j].objNr
	})
	return images, nil
}
