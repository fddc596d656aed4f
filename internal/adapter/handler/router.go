package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/narrowsfm/podgraph/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	pipelineHandler *Pipeline
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, pipelineHandler *Pipeline) *Router {
	return &Router{
		cfg:             cfg,
		pipelineHandler: pipelineHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupPipelineRoutes(v1)
}

// setupPipelineRoutes configures the operator pipeline routes
func (rt *Router) setupPipelineRoutes(g *echo.Group) {
	if rt.pipelineHandler == nil {
		return
	}

	g.POST("/episodes/:id/process", rt.pipelineHandler.Enqueue)
	g.GET("/episodes/:id/jobs", rt.pipelineHandler.ListEpisodeJobs)
	g.GET("/jobs/stuck", rt.pipelineHandler.ListStuckJobs)
	g.GET("/jobs/:id", rt.pipelineHandler.GetJob)
	g.GET("/queue", rt.pipelineHandler.QueueStats)
	g.GET("/transcripts", rt.pipelineHandler.ListTranscripts)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
