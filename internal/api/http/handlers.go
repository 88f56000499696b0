// Package http contains the gin handlers for the companion API.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenlabs/companion/internal/heartbeat"
	"github.com/lumenlabs/companion/internal/memory"
	"github.com/lumenlabs/companion/internal/providers/tasks"
	"github.com/lumenlabs/companion/internal/reflection"
	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/service"
	"github.com/lumenlabs/companion/internal/shared/id"
	"github.com/lumenlabs/companion/internal/types"
)

// Version reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry   *service.Registry
	mem        *memory.Store
	taskStore  *tasks.Store
	pulse      *heartbeat.Service
	reflector  *reflection.Service
	guard      *sandbox.Guard
	logsReader LogsReader
}

// NewHandlers creates a new handler set
func NewHandlers(
	registry *service.Registry,
	mem *memory.Store,
	taskStore *tasks.Store,
	pulse *heartbeat.Service,
	reflector *reflection.Service,
	guard *sandbox.Guard,
	logsReader LogsReader,
) *Handlers {
	return &Handlers{
		registry:   registry,
		mem:        mem,
		taskStore:  taskStore,
		pulse:      pulse,
		reflector:  reflector,
		guard:      guard,
		logsReader: logsReader,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Companion Service (Go)",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"service_registry":  h.registry.Stats(),
		"memory_entries":    h.mem.Count(),
		"open_tasks":        len(h.taskStore.List(tasks.StatusOpen)),
		"heartbeat_running": h.pulse.IsRunning(),
		"sandbox_root":      h.guard.Root(),
		"time":              time.Now().UTC(),
	})
}

// HeartbeatStatus returns the heartbeat snapshot
func (h *Handlers) HeartbeatStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.pulse.Status())
}

// HeartbeatBeat triggers a manual beat
func (h *Handlers) HeartbeatBeat(c *gin.Context) {
	pulse := h.pulse.Beat(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"pulse": pulse})
}

// ReflectionLast returns the most recent reflection
func (h *Handlers) ReflectionLast(c *gin.Context) {
	note, ok := h.reflector.Last()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reflection yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reflection": note})
}

// ReflectionRun generates a reflection on demand
func (h *Handlers) ReflectionRun(c *gin.Context) {
	if err := h.reflector.Run(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	note, ok := h.reflector.Last()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"reflection": nil, "note": "nothing to reflect on"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reflection": note})
}

// MemoryAdd stores a memory entry
func (h *Handlers) MemoryAdd(c *gin.Context) {
	var req types.MemoryAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.mem.Add(c.Request.Context(), req.Text, req.Tags)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// MemorySearch ranks memories against a query
func (h *Handlers) MemorySearch(c *gin.Context) {
	var req types.MemorySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := h.mem.Search(c.Request.Context(), req.Query, req.Limit, req.MinScore)
	c.JSON(http.StatusOK, gin.H{
		"query":   req.Query,
		"results": results,
		"count":   len(results),
	})
}

// MemoryList lists memories newest first
func (h *Handlers) MemoryList(c *gin.Context) {
	limit := intQuery(c, "limit", 0)
	entries := h.mem.List(limit)
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// MemoryDelete removes a memory entry
func (h *Handlers) MemoryDelete(c *gin.Context) {
	entryID := c.Param("id")
	if err := h.mem.Delete(entryID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": entryID})
}

// DirectorySearch searches the workspace by pattern or name
func (h *Handlers) DirectorySearch(c *gin.Context) {
	var req types.DirectorySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var toolID string
	params := map[string]interface{}{}
	switch {
	case req.Pattern != "":
		toolID = "directory.glob"
		params["pattern"] = req.Pattern
	case req.Query != "":
		toolID = "directory.find"
		params["name"] = req.Query
		if req.Limit > 0 {
			params["limit"] = req.Limit
		}
	default:
		toolID = "directory.list"
		params["path"] = req.Path
	}

	h.executeTool(c, toolID, params)
}

// Scrape fetches a page, optionally narrowing with a CSS selector
func (h *Handlers) Scrape(c *gin.Context) {
	var req types.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appCtx := requestContext(c)

	if req.Selector != "" {
		fetched, err := h.registry.Execute(c.Request.Context(), "scraper.fetch",
			map[string]interface{}{"url": req.URL}, appCtx)
		if err != nil || !fetched.Success {
			c.JSON(http.StatusBadGateway, fetched)
			return
		}
		html := fetched.Data["html"]
		if req.Clean {
			cleaned, err := h.registry.Execute(c.Request.Context(), "scraper.clean",
				map[string]interface{}{"html": html}, appCtx)
			if err == nil && cleaned.Success {
				html = cleaned.Data["html"]
			}
		}
		h.executeTool(c, "scraper.select", map[string]interface{}{
			"html":     html,
			"selector": req.Selector,
		})
		return
	}

	h.executeTool(c, "scraper.scrape", map[string]interface{}{"url": req.URL})
}

// ListServices lists registered services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if categoryStr := c.Query("category"); categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	services := h.registry.List(category)
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices discovers relevant services for an intent
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	services := h.registry.Discover(req.Intent, limit)
	c.JSON(http.StatusOK, gin.H{
		"query":    req.Intent,
		"services": services,
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appCtx := requestContext(c)
	appCtx.UserID = req.UserID

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// TaskCreate creates a task
func (h *Handlers) TaskCreate(c *gin.Context) {
	var req types.TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dueAt *time.Time
	if req.DueAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.DueAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_at: " + err.Error()})
			return
		}
		dueAt = &parsed
	}

	task, err := h.taskStore.Create(req.Title, req.Description, dueAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// TaskList lists tasks
func (h *Handlers) TaskList(c *gin.Context) {
	status := c.Query("status")
	list := h.taskStore.List(status)
	c.JSON(http.StatusOK, gin.H{"tasks": list, "count": len(list)})
}

// TaskGet fetches a task
func (h *Handlers) TaskGet(c *gin.Context) {
	task, ok := h.taskStore.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// TaskUpdate updates a task
func (h *Handlers) TaskUpdate(c *gin.Context) {
	var req types.TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskStore.Update(
		c.Param("id"),
		deref(req.Title),
		deref(req.Description),
		deref(req.Status),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// TaskComplete marks a task done
func (h *Handlers) TaskComplete(c *gin.Context) {
	task, err := h.taskStore.Complete(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// TaskDelete removes a task
func (h *Handlers) TaskDelete(c *gin.Context) {
	taskID := c.Param("id")
	if err := h.taskStore.Delete(taskID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": taskID})
}

func (h *Handlers) executeTool(c *gin.Context, toolID string, params map[string]interface{}) {
	result, err := h.registry.Execute(c.Request.Context(), toolID, params, requestContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func requestContext(c *gin.Context) *types.Context {
	requestID := c.GetHeader("X-Request-Id")
	if requestID == "" {
		requestID = id.NewRequestID()
	}
	c.Header("X-Request-Id", requestID)
	return &types.Context{RequestID: &requestID}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	var n int
	for _, r := range raw {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
