package routes

import (
	"fmt"
	"net/http"
	"time"

	"smart-notes-platform/internal/logger"
	"smart-notes-platform/services"
	"smart-notes-platform/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandleExport serves GET /export, an Excel report of the corpus and its
// processing state.
func HandleExport(exporter *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := exporter.CorpusReport(c.Request.Context())
		if err != nil {
			logger.Error("export failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to generate export", nil)
			return
		}

		filename := fmt.Sprintf("documents-%s.xlsx", time.Now().Format("20060102-150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, xlsxContentType, data)
	}
}
