// Package extract turns document bytes into plain text. Each supported
// format gets an Extractor; the worker picks one through the Registry and
// never branches on format itself.
package extract

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedFormat is returned by the Registry for formats outside the
// allow-list.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Result is the outcome of a single extraction run.
type Result struct {
	Text      string
	Pages     int
	Engine    string // models.EngineDirect or models.EngineOCR
	Duration  time.Duration
	WordCount int
}

// Extractor converts raw document bytes into text.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, data []byte) (*Result, error)
}
