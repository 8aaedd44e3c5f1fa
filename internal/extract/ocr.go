package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/sony/gobreaker"

	"smart-notes-platform/internal/logger"
)

// OCREngine runs Tesseract over image bytes. Calls go through a circuit
// breaker so a wedged OCR install fails fast instead of holding queue leases
// until the visibility timeout on every delivery.
type OCREngine struct {
	language string
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker
}

func NewOCREngine(language string, timeout time.Duration) *OCREngine {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tesseract-ocr",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("OCR circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &OCREngine{
		language: language,
		timeout:  timeout,
		breaker:  breaker,
	}
}

// Recognize OCRs a single image and returns its plain text.
func (e *OCREngine) Recognize(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.breaker.Execute(func() (interface{}, error) {
		return e.recognize(ctx, image)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return "", fmt.Errorf("OCR engine unavailable (circuit open): %w", err)
		}
		return "", err
	}
	return out.(string), nil
}

func (e *OCREngine) recognize(ctx context.Context, image []byte) (string, error) {
	type ocrResult struct {
		text string
		err  error
	}
	done := make(chan ocrResult, 1)

	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetLanguage(e.language); err != nil {
			done <- ocrResult{err: fmt.Errorf("set OCR language: %w", err)}
			return
		}
		if err := client.SetImageFromBytes(image); err != nil {
			done <- ocrResult{err: fmt.Errorf("set OCR image: %w", err)}
			return
		}
		text, err := client.Text()
		if err != nil {
			done <- ocrResult{err: fmt.Errorf("recognize text: %w", err)}
			return
		}
		done <- ocrResult{text: text}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("OCR timed out: %w", ctx.Err())
	}
}
