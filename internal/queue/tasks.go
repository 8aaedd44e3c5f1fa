// Package queue carries documents from intake to extraction over asynq.
// asynq gives the pipeline durable at-least-once delivery, per-message
// lease timeouts, retry tracking, and an archive that serves as the
// dead-letter path for poison messages.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskDocumentProcess is the task type for "document ready for
	// processing" messages.
	TaskDocumentProcess = "document:process"

	// QueueDocuments is the asynq queue all processing messages go to.
	QueueDocuments = "documents"
)

// DocumentProcessPayload is the queue message schema. The delivery token and
// delivery count are managed by the queue transport, not the payload.
type DocumentProcessPayload struct {
	DocumentID string    `json:"document_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewDocumentProcessTask builds the asynq task for one document.
// maxDeliveryCount is total deliveries; asynq's MaxRetry counts
// redeliveries, hence the -1. The task timeout is the visibility window: a
// worker that exceeds it loses the lease and the message redelivers.
func NewDocumentProcessTask(documentID string, enqueuedAt time.Time, maxDeliveryCount int, visibilityTimeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentProcessPayload{
		DocumentID: documentID,
		EnqueuedAt: enqueuedAt,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDocumentProcess,
		payload,
		asynq.MaxRetry(maxDeliveryCount-1),
		asynq.Timeout(visibilityTimeout),
		asynq.Queue(QueueDocuments),
	), nil
}

// Enqueuer is the narrow interface the intake handler and the reconciler
// enqueue through, so tests can inject a fake instead of a live asynq
// client.
type Enqueuer interface {
	EnqueueDocument(ctx context.Context, documentID string, enqueuedAt time.Time) error
}

// AsynqEnqueuer enqueues onto a Redis-backed asynq queue.
type AsynqEnqueuer struct {
	client            *asynq.Client
	maxDeliveryCount  int
	visibilityTimeout time.Duration
}

func NewAsynqEnqueuer(client *asynq.Client, maxDeliveryCount int, visibilityTimeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:            client,
		maxDeliveryCount:  maxDeliveryCount,
		visibilityTimeout: visibilityTimeout,
	}
}

func (e *AsynqEnqueuer) EnqueueDocument(ctx context.Context, documentID string, enqueuedAt time.Time) error {
	task, err := NewDocumentProcessTask(documentID, enqueuedAt, e.maxDeliveryCount, e.visibilityTimeout)
	if err != nil {
		return fmt.Errorf("failed to build processing task: %w", err)
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue processing task: %w", err)
	}
	return nil
}
