package routes

import (
	"errors"
	"fmt"
	"net/http"

	"smart-notes-platform/internal/blobstore"
	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/logger"
	"smart-notes-platform/utils"

	"github.com/gin-gonic/gin"
)

// HandleDownload serves GET /download/:id, returning the original uploaded
// bytes. A document record without its blob is an integrity fault and is
// reported as such, not as a 404.
func HandleDownload(store index.DocumentStore, blobs blobstore.Store) gin.HandlerFunc {
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

		data, err := blobs.Get(c.Request.Context(), doc.BlobKey)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				logger.Error("blob missing for existing document",
					"document_id", id, "blob_key", doc.BlobKey)
				utils.RespondWithBlobMissing(c, "Stored file is missing for this document")
				return
			}
			logger.Error("blob fetch failed", "document_id", id, "error", err)
			utils.RespondWithInternalError(c, "Failed to read stored file", nil)
			return
		}

		c.Header("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", utils.SanitizeBlobKey(doc.OriginalFilename)))
		c.Data(http.StatusOK, doc.MimeType, data)
	}
}
