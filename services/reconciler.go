package services

import (
	"context"
	"strings"
	"time"

	"smart-notes-platform/internal/blobstore"
	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/logger"
	"smart-notes-platform/internal/queue"
	"smart-notes-platform/models"

	"github.com/go-co-op/gocron"
)

// Reconciler periodically repairs the gap between the store and the queue.
// An upload whose enqueue step failed leaves a document stranded before any
// message exists; a crash between enqueue and the status update leaves a
// queued document whose message may never have been recorded. Both are safe
// to re-enqueue because processing is idempotent.
type Reconciler struct {
	store       index.DocumentStore
	blobs       blobstore.Store
	enqueuer    queue.Enqueuer
	gracePeriod time.Duration

	scheduler *gocron.Scheduler
}

func NewReconciler(store index.DocumentStore, blobs blobstore.Store, enqueuer queue.Enqueuer, gracePeriod time.Duration) *Reconciler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &Reconciler{
		store:       store,
		blobs:       blobs,
		enqueuer:    enqueuer,
		gracePeriod: gracePeriod,
		scheduler:   s,
	}
}

// Start schedules the sweep at the given interval and runs the scheduler in
// the background.
func (r *Reconciler) Start(interval time.Duration) error {
	if _, err := r.scheduler.Every(interval).Tag("reconcile-sweep").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		r.Sweep(ctx)
	}); err != nil {
		return err
	}
	r.scheduler.StartAsync()
	return nil
}

func (r *Reconciler) Stop() {
	r.scheduler.Stop()
}

// Sweep runs one reconciliation pass: re-enqueue stranded documents, then
// report orphaned blobs.
func (r *Reconciler) Sweep(ctx context.Context) {
	requeued := r.requeueStranded(ctx, models.StatusUploaded)
	requeued += r.requeueStranded(ctx, models.StatusQueued)
	if requeued > 0 {
		logger.Info("reconciler re-enqueued stranded documents", "count", requeued)
	}
	r.reportOrphanBlobs(ctx)
}

// requeueStranded re-enqueues documents stuck in the given status for longer
// than the grace period. The grace period keeps the sweep from racing
// uploads and deliveries that are still in flight.
func (r *Reconciler) requeueStranded(ctx context.Context, status string) int {
	cutoff := time.Now().Add(-r.gracePeriod)
	docs, err := r.store.ListStuck(ctx, status, cutoff)
	if err != nil {
		logger.Error("reconciler listing failed", "status", status, "error", err)
		return 0
	}

	requeued := 0
	for _, doc := range docs {
		enqueuedAt := time.Now()
		if err := r.enqueuer.EnqueueDocument(ctx, doc.ID, enqueuedAt); err != nil {
			logger.Error("reconciler enqueue failed", "document_id", doc.ID, "error", err)
			continue
		}
		if err := r.store.MarkQueued(ctx, doc.ID, enqueuedAt); err != nil {
			logger.Warn("reconciler mark queued failed", "document_id", doc.ID, "error", err)
		}
		logger.Info("reconciler re-enqueued document",
			"document_id", doc.ID, "stuck_status", status)
		requeued++
	}
	return requeued
}

// reportOrphanBlobs logs blobs with no corresponding document record. They
// are reported, never deleted; cleanup is an operator decision.
func (r *Reconciler) reportOrphanBlobs(ctx context.Context) {
	keys, err := r.blobs.List(ctx, "uploads/")
	if err != nil {
		logger.Error("reconciler blob listing failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	docs, err := r.store.List(ctx)
	if err != nil {
		logger.Error("reconciler document listing failed", "error", err)
		return
	}
	known := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		known[doc.BlobKey] = struct{}{}
	}

	for _, key := range keys {
		if _, ok := known[key]; ok {
			continue
		}
		if !strings.HasPrefix(key, "uploads/") {
			continue
		}
		// A blob written moments ago may not have a record yet; a key that
		// shows up orphaned on consecutive sweeps is the real signal.
		logger.Warn("orphaned blob with no document record", "blob_key", key)
	}
}
