package routes

import (
	"smart-notes-platform/internal/blobstore"
	"smart-notes-platform/internal/config"
	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/queue"
	"smart-notes-platform/services"

	"github.com/gin-gonic/gin"
)

// SetupDocumentRoutes registers the document pipeline endpoints.
func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, store index.DocumentStore, blobs blobstore.Store, enqueuer queue.Enqueuer) {
	router.POST("/upload", HandleUpload(store, blobs, enqueuer, cfg.MaxFileSize, cfg.AllowedTypes))
	router.GET("/search", HandleSearch(store, cfg.SearchLimit, cfg.SnippetRadius))
	router.GET("/download/:id", HandleDownload(store, blobs))

	router.GET("/documents", HandleListDocuments(store))
	router.GET("/documents/:id", HandleGetDocument(store))
	router.POST("/documents/:id/reprocess", HandleReprocess(store, enqueuer))

	exporter := services.NewExportService(store)
	router.GET("/export", HandleExport(exporter))
}
