package http

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches all API routes to the router
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/heartbeat", h.HeartbeatStatus)
	r.POST("/heartbeat/beat", h.HeartbeatBeat)

	r.GET("/reflection", h.ReflectionLast)
	r.POST("/reflection/run", h.ReflectionRun)

	mem := r.Group("/memory")
	{
		mem.POST("", h.MemoryAdd)
		mem.GET("", h.MemoryList)
		mem.POST("/search", h.MemorySearch)
		mem.DELETE("/:id", h.MemoryDelete)
	}

	r.POST("/directory/search", h.DirectorySearch)
	r.POST("/scrape", h.Scrape)

	services := r.Group("/services")
	{
		services.GET("", h.ListServices)
		services.POST("/discover", h.DiscoverServices)
		services.POST("/execute", h.ExecuteService)
	}

	taskGroup := r.Group("/tasks")
	{
		taskGroup.POST("", h.TaskCreate)
		taskGroup.GET("", h.TaskList)
		taskGroup.GET("/:id", h.TaskGet)
		taskGroup.PATCH("/:id", h.TaskUpdate)
		taskGroup.POST("/:id/complete", h.TaskComplete)
		taskGroup.DELETE("/:id", h.TaskDelete)
	}

	r.GET("/logs/recent", h.LogsRecent)
}
