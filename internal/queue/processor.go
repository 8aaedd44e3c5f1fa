package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"smart-notes-platform/internal/blobstore"
	"smart-notes-platform/internal/extract"
	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/logger"
	"smart-notes-platform/models"
)

// ExtractorRegistry selects an extraction strategy by document format.
// *extract.Registry satisfies it; tests supply fakes.
type ExtractorRegistry interface {
	ForFormat(format string) (extract.Extractor, error)
}

// TaskProcessor handles document:process deliveries. Returning nil
// acknowledges (deletes) the message; returning an error releases it for
// redelivery unless the error wraps asynq.SkipRetry, which routes it to the
// archive (the dead-letter path).
type TaskProcessor struct {
	store            index.DocumentStore
	blobs            blobstore.Store
	extractors       ExtractorRegistry
	maxDeliveryCount int

	// retryCount reads the per-delivery retry counter; overridable so tests
	// can simulate redeliveries without a live asynq server.
	retryCount func(ctx context.Context) (int, bool)
}

func NewTaskProcessor(store index.DocumentStore, blobs blobstore.Store, extractors ExtractorRegistry, maxDeliveryCount int) *TaskProcessor {
	return &TaskProcessor{
		store:            store,
		blobs:            blobs,
		extractors:       extractors,
		maxDeliveryCount: maxDeliveryCount,
		retryCount:       asynq.GetRetryCount,
	}
}

// HandleDocumentProcess runs one delivery through the extraction pipeline.
// The index write happens before the ack, so a crash in between causes a
// redelivery that the stale-duplicate check absorbs.
func (p *TaskProcessor) HandleDocumentProcess(ctx context.Context, t *asynq.Task) error {
	var payload DocumentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads can never succeed; archive immediately.
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	deliveryCount := 1
	if n, ok := p.retryCount(ctx); ok {
		deliveryCount = n + 1
	}

	doc, err := p.store.Get(ctx, payload.DocumentID)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			// The document was deleted after enqueue; the message is stale.
			logger.Warn("document gone, dropping message", "document_id", payload.DocumentID)
			return nil
		}
		return fmt.Errorf("load document: %w", err)
	}

	// Stale duplicate: already indexed at or after this message was
	// enqueued. Ack without reprocessing; this is what makes processing
	// idempotent under at-least-once delivery.
	if doc.Status == models.StatusIndexed && doc.IndexedAt != nil && !doc.IndexedAt.Before(payload.EnqueuedAt) {
		logger.Info("document already indexed, dropping duplicate delivery", "document_id", doc.ID)
		return nil
	}

	data, err := p.blobs.Get(ctx, doc.BlobKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			// Permanently missing blob: retrying forever cannot help.
			logger.Error("blob permanently missing", "document_id", doc.ID, "blob_key", doc.BlobKey)
			if err := p.store.MarkFailed(ctx, doc.ID, models.FailureBlobMissing); err != nil {
				return fmt.Errorf("mark failed: %w", err)
			}
			return nil
		}
		// Transient fetch failure: release the lease for a natural retry.
		return fmt.Errorf("fetch blob: %w", err)
	}

	if err := p.store.MarkProcessing(ctx, doc.ID, deliveryCount); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	extractor, err := p.extractors.ForFormat(doc.Format)
	if err != nil {
		// Format was validated at upload; reaching this means the record is
		// corrupt. Permanent.
		logger.Error("no extractor for format", "document_id", doc.ID, "format", doc.Format)
		if markErr := p.store.MarkFailed(ctx, doc.ID, models.FailureExtractionFailed); markErr != nil {
			return fmt.Errorf("mark failed: %w", markErr)
		}
		return fmt.Errorf("no extractor for format %q: %w", doc.Format, asynq.SkipRetry)
	}

	result, err := extractor.Extract(ctx, data)
	if err != nil {
		return p.failOrRetry(ctx, doc.ID, deliveryCount, err)
	}

	rec := &models.ExtractedRecord{
		DocumentID:  doc.ID,
		Text:        result.Text,
		Engine:      result.Engine,
		Pages:       result.Pages,
		WordCount:   result.WordCount,
		CharCount:   len(result.Text),
		ExtractedAt: time.Now(),
	}
	if err := p.store.MarkIndexed(ctx, doc.ID, rec); err != nil {
		// The message stays in flight; the redelivery either retries the
		// write or gets short-circuited by the duplicate check.
		return fmt.Errorf("write index record: %w", err)
	}

	logger.Info("document indexed",
		"document_id", doc.ID,
		"engine", result.Engine,
		"chars", rec.CharCount,
		"pages", rec.Pages,
		"delivery", deliveryCount,
	)
	return nil
}

// failOrRetry applies the poison-message bound: below the delivery limit the
// message redelivers with backoff; at the limit the document is marked
// failed and the message is archived.
func (p *TaskProcessor) failOrRetry(ctx context.Context, docID string, deliveryCount int, cause error) error {
	if deliveryCount >= p.maxDeliveryCount {
		logger.Error("extraction failed, delivery limit reached",
			"document_id", docID, "error", cause, "max_deliveries", p.maxDeliveryCount)
		if err := p.store.MarkFailed(ctx, docID, models.FailureExtractionFailed); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		return fmt.Errorf("extraction failed after %d deliveries: %v: %w", deliveryCount, cause, asynq.SkipRetry)
	}
	logger.Warn("extraction failed, releasing for retry", "document_id", docID, "error", cause)
	return fmt.Errorf("extraction failed: %w", cause)
}
