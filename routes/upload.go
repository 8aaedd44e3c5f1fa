package routes

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"smart-notes-platform/internal/blobstore"
	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/logger"
	"smart-notes-platform/internal/queue"
	"smart-notes-platform/models"
	"smart-notes-platform/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HandleUpload accepts a multipart document upload, stores the blob, records
// the document, and enqueues it for extraction. Validation happens before any
// side effect so rejected uploads leave no trace. allowedTypes narrows the
// accepted MIME types below the full extractor set; empty means no narrowing.
func HandleUpload(store index.DocumentStore, blobs blobstore.Store, enqueuer queue.Enqueuer, maxFileSize int64, allowedTypes []string) gin.HandlerFunc {
	formats := allowedFormats(allowedTypes)

	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(maxFileSize); err != nil {
			utils.RespondWithBadRequest(c, "File size exceeds maximum limit", gin.H{
				"max_bytes": maxFileSize,
			})
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided in \"file\" field", nil)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			utils.RespondWithBadRequest(c, "File size exceeds maximum limit", gin.H{
				"max_bytes": maxFileSize,
				"size":      header.Size,
			})
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, maxFileSize+1))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read uploaded file", nil)
			return
		}
		if int64(len(data)) > maxFileSize {
			utils.RespondWithBadRequest(c, "File size exceeds maximum limit", gin.H{
				"max_bytes": maxFileSize,
			})
			return
		}
		if len(data) == 0 {
			utils.RespondWithBadRequest(c, "Uploaded file is empty", nil)
			return
		}

		// Detect the real content type from the bytes; the client-supplied
		// Content-Type header is advisory only.
		mime := mimetype.Detect(data)
		format, ok := formats[normalizeMime(mime.String())]
		if !ok {
			utils.RespondWithUnsupportedFormat(c, "Unsupported document format", gin.H{
				"detected_type": mime.String(),
				"supported":     mimeTypes(formats),
			})
			return
		}

		docID := uuid.NewString()
		safeName := utils.SanitizeBlobKey(header.Filename)
		blobKey := "uploads/" + docID + "/" + safeName

		hash := sha256.Sum256(data)
		now := time.Now()

		// Store-then-enqueue: the blob and record must exist before the
		// message does, otherwise a fast worker would find nothing.
		if err := blobs.Put(c.Request.Context(), blobKey, data, mime.String()); err != nil {
			logger.Error("blob write failed", "document_id", docID, "error", err)
			utils.RespondWithInternalError(c, "Failed to store uploaded file", nil)
			return
		}

		doc := &models.Document{
			ID:               docID,
			BlobKey:          blobKey,
			OriginalFilename: header.Filename,
			MimeType:         mime.String(),
			Format:           format,
			Size:             int64(len(data)),
			ContentHash:      hex.EncodeToString(hash[:]),
			Status:           models.StatusUploaded,
			UploadedAt:       now,
			UpdatedAt:        now,
		}
		if err := store.Insert(c.Request.Context(), doc); err != nil {
			logger.Error("document insert failed", "document_id", docID, "error", err)
			utils.RespondWithInternalError(c, "Failed to record uploaded document", nil)
			return
		}

		enqueuedAt := time.Now()
		if err := enqueuer.EnqueueDocument(c.Request.Context(), docID, enqueuedAt); err != nil {
			// The document stays "uploaded"; the reconciler re-enqueues it
			// once the queue recovers.
			logger.Error("enqueue failed, document left for reconciler",
				"document_id", docID, "error", err)
			utils.RespondWithEnqueueFailed(c, "Document stored but could not be queued for processing")
			return
		}

		if err := store.MarkQueued(c.Request.Context(), docID, enqueuedAt); err != nil {
			// The message is out; the status catches up when the worker runs.
			logger.Warn("mark queued failed", "document_id", docID, "error", err)
		}

		logger.Info("document uploaded",
			"document_id", docID,
			"filename", header.Filename,
			"format", format,
			"size", len(data))

		c.JSON(http.StatusAccepted, models.UploadResponse{
			ID:       docID,
			Filename: header.Filename,
			Status:   models.StatusQueued,
			Message:  "Document accepted for processing",
		})
	}
}

// normalizeMime strips parameters like "; charset=binary" that mimetype
// sometimes appends.
func normalizeMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}

// allowedFormats intersects the configured MIME allow-list with the formats
// an extractor exists for. Unknown entries are ignored here; config
// validation rejects them at startup.
func allowedFormats(allowedTypes []string) map[string]string {
	if len(allowedTypes) == 0 {
		return models.SupportedFormats
	}
	formats := make(map[string]string, len(allowedTypes))
	for _, t := range allowedTypes {
		t = strings.TrimSpace(t)
		if f, ok := models.SupportedFormats[t]; ok {
			formats[t] = f
		}
	}
	return formats
}

func mimeTypes(formats map[string]string) []string {
	types := make([]string, 0, len(formats))
	for t := range formats {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
