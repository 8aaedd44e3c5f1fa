package routes

import (
	"errors"
	"net/http"
	"time"

	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/logger"
	"smart-notes-platform/internal/queue"
	"smart-notes-platform/models"
	"smart-notes-platform/utils"

	"github.com/gin-gonic/gin"
)

// HandleListDocuments serves GET /documents, the full corpus listing with
// per-document status.
func HandleListDocuments(store index.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := store.List(c.Request.Context())
		if err != nil {
			logger.Error("document listing failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}
		if docs == nil {
			docs = []models.Document{}
		}
		c.JSON(http.StatusOK, gin.H{
			"count":     len(docs),
			"documents": docs,
		})
	}
}

// HandleGetDocument serves GET /documents/:id with extraction metadata when
// the document has been indexed.
func HandleGetDocument(store index.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		doc, err := store.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, index.ErrNotFound) {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			logger.Error("document lookup failed", "document_id", id, "error", err)
			utils.RespondWithInternalError(c, "Failed to look up document", nil)
			return
		}

		resp := gin.H{"document": doc}
		if doc.Status == models.StatusIndexed {
			rec, err := store.GetExtracted(c.Request.Context(), id)
			if err == nil {
				resp["extraction"] = gin.H{
					"engine":       rec.Engine,
					"pages":        rec.Pages,
					"word_count":   rec.WordCount,
					"char_count":   rec.CharCount,
					"extracted_at": rec.ExtractedAt,
				}
			} else if !errors.Is(err, index.ErrNotFound) {
				logger.Warn("extracted record lookup failed", "document_id", id, "error", err)
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleReprocess serves POST /documents/:id/reprocess, the operator path
// back from "failed" to "queued". Only failed documents are eligible.
func HandleReprocess(store index.DocumentStore, enqueuer queue.Enqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if err := store.ResetForReprocess(c.Request.Context(), id); err != nil {
			switch {
			case errors.Is(err, index.ErrNotFound):
				utils.RespondWithNotFound(c, "Document not found")
			case errors.Is(err, index.ErrInvalidTransition):
				utils.RespondWithError(c, http.StatusConflict, "invalid_state",
					"Only failed documents can be reprocessed", nil)
			default:
				logger.Error("reprocess reset failed", "document_id", id, "error", err)
				utils.RespondWithInternalError(c, "Failed to reset document", nil)
			}
			return
		}

		enqueuedAt := time.Now()
		if err := enqueuer.EnqueueDocument(c.Request.Context(), id, enqueuedAt); err != nil {
			logger.Error("reprocess enqueue failed, document left for reconciler",
				"document_id", id, "error", err)
			utils.RespondWithEnqueueFailed(c, "Document reset but could not be queued for processing")
			return
		}
		if err := store.MarkQueued(c.Request.Context(), id, enqueuedAt); err != nil {
			logger.Warn("mark queued failed", "document_id", id, "error", err)
		}

		logger.Info("document requeued for reprocessing", "document_id", id)
		c.JSON(http.StatusAccepted, gin.H{
			"document_id": id,
			"status":      models.StatusQueued,
			"message":     "Document queued for reprocessing",
		})
	}
}
