package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
	UserID *string                `json:"user_id,omitempty"`
}

// DiscoverRequest represents a service discovery request
type DiscoverRequest struct {
	Intent string `json:"intent" binding:"required"`
	Limit  int    `json:"limit"`
}

// MemoryAddRequest represents a memory insertion request
type MemoryAddRequest struct {
	Text string   `json:"text" binding:"required"`
	Tags []string `json:"tags"`
}

// MemorySearchRequest represents a semantic memory search request
type MemorySearchRequest struct {
	Query    string  `json:"query" binding:"required"`
	Limit    int     `json:"limit"`
	MinScore float64 `json:"min_score"`
}

// ScrapeRequest represents a web scraping request
type ScrapeRequest struct {
	URL      string `json:"url" binding:"required"`
	Selector string `json:"selector,omitempty"`
	Clean    bool   `json:"clean"`
}

// DirectorySearchRequest represents a directory search request
type DirectorySearchRequest struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern,omitempty"`
	Query   string `json:"query,omitempty"`
	Limit   int    `json:"limit"`
}

// TaskCreateRequest represents a task creation request
type TaskCreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DueAt       string `json:"due_at,omitempty"`
}

// TaskUpdateRequest represents a task update request
type TaskUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}
