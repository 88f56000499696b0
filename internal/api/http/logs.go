package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lumenlabs/companion/internal/logging"
)

const defaultLogLimit = 100

// LogsReader exposes the in-memory log buffer to the dashboard endpoints
type LogsReader interface {
	Recent(limit int) []logging.Entry
}

// LogsRecent returns recent log entries, oldest first
func (h *Handlers) LogsRecent(c *gin.Context) {
	limit := intQuery(c, "limit", defaultLogLimit)
	level := strings.ToLower(c.Query("level"))

	entries := h.logsReader.Recent(limit)
	if level != "" {
		filtered := make([]logging.Entry, 0, len(entries))
		for _, e := range entries {
			if strings.EqualFold(e.Level, level) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}
