package models

import (
	"time"
)

// Document status lifecycle: uploaded -> queued -> processing -> indexed,
// or -> failed on permanent error. failed -> queued only via operator
// reprocess.
const (
	StatusUploaded   = "uploaded"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusIndexed    = "indexed"
	StatusFailed     = "failed"
)

// Failure reasons recorded on documents that reach StatusFailed.
const (
	FailureBlobMissing      = "blob_missing"
	FailureExtractionFailed = "extraction_failed"
)

// Extraction engines recorded on ExtractedRecord.
const (
	EngineDirect = "direct"
	EngineOCR    = "ocr"
)

// Document is the canonical record for an uploaded file. The blob key is
// owned exclusively by this record and set once at creation.
type Document struct {
	ID               string     `bson:"_id" json:"id"`
	BlobKey          string     `bson:"blob_key" json:"blob_key"`
	OriginalFilename string     `bson:"original_filename" json:"original_filename"`
	MimeType         string     `bson:"mime_type" json:"mime_type"`
	Format           string     `bson:"format" json:"format"` // pdf, png, jpeg, tiff, bmp
	Size             int64      `bson:"size" json:"size"`
	ContentHash      string     `bson:"content_hash" json:"content_hash"` // sha256, metadata only
	Status           string     `bson:"status" json:"status"`
	FailureReason    string     `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	Attempts         int        `bson:"attempts" json:"attempts"`
	UploadedAt       time.Time  `bson:"uploaded_at" json:"uploaded_at"`
	QueuedAt         *time.Time `bson:"queued_at,omitempty" json:"queued_at,omitempty"`
	IndexedAt        *time.Time `bson:"indexed_at,omitempty" json:"indexed_at,omitempty"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updated_at"`
}

// ExtractedRecord holds the searchable text for a document. Written once per
// successful processing attempt and overwritten on reprocessing (idempotent
// upsert keyed by DocumentID).
type ExtractedRecord struct {
	DocumentID  string    `bson:"document_id" json:"document_id"`
	Text        string    `bson:"text" json:"text"`
	Engine      string    `bson:"engine" json:"engine"`
	Pages       int       `bson:"pages,omitempty" json:"pages,omitempty"`
	WordCount   int       `bson:"word_count" json:"word_count"`
	CharCount   int       `bson:"char_count" json:"char_count"`
	ExtractedAt time.Time `bson:"extracted_at" json:"extracted_at"`
}

// SearchResult is one search hit, ranked by score (match count).
type SearchResult struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Snippet    string `json:"snippet"`
	Score      int    `json:"score"`
}

// UploadResponse is returned by POST /upload on success.
type UploadResponse struct {
	ID       string `json:"document_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// SupportedFormats maps sniffed MIME types to the internal format tag used
// to pick an extraction strategy.
var SupportedFormats = map[string]string{
	"application/pdf": "pdf",
	"image/png":       "png",
	"image/jpeg":      "jpeg",
	"image/tiff":      "tiff",
	"image/bmp":       "bmp",
}
