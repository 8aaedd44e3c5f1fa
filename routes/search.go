package routes

import (
	"net/http"
	"strconv"
	"strings"

	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/logger"
	"smart-notes-platform/models"
	"smart-notes-platform/utils"

	"github.com/gin-gonic/gin"
)

// HandleSearch serves GET /search?q=... over the indexed corpus. Only
// documents in the "indexed" state are searchable.
func HandleSearch(store index.DocumentStore, defaultLimit, snippetRadius int) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			utils.RespondWithBadRequest(c, "Query parameter \"q\" is required", nil)
			return
		}

		limit := defaultLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				utils.RespondWithBadRequest(c, "limit must be a positive integer", nil)
				return
			}
			if n < limit {
				limit = n
			}
		}

		results, err := store.Search(c.Request.Context(), query, limit, snippetRadius)
		if err != nil {
			logger.Error("search failed", "query", query, "error", err)
			utils.RespondWithInternalError(c, "Search failed", nil)
			return
		}
		if results == nil {
			results = []models.SearchResult{}
		}

		c.JSON(http.StatusOK, gin.H{
			"query":   query,
			"count":   len(results),
			"results": results,
		})
	}
}
