package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "print-agent",
		})
	})

	h := NewHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// GET /api/v1/jobs - Current job list snapshot
		v1.GET("/jobs", h.ListJobs)

		// POST /api/v1/jobs/:job_id/cancel - Request job cancellation
		v1.POST("/jobs/:job_id/cancel", h.CancelJob)

		// POST /api/v1/refresh - Force a job feed resnapshot
		v1.POST("/refresh", h.Refresh)

		// GET /api/v1/events - Drain buffered pipeline events
		v1.GET("/events", h.Events)

		// GET /api/v1/history - Recent terminal transitions
		v1.GET("/history", h.ListHistory)
	}

	return r
}
