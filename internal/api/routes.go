package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires every admin endpoint onto e, the way the teacher
// groups workflow routes under a versioned prefix.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	flows := e.Group("/api/v1/flows")
	flows.POST("", h.CreateFlow)                 // POST /api/v1/flows
	flows.GET("", h.ListFlows)                   // GET /api/v1/flows
	flows.POST("/:id/instances", h.CreateInstance) // POST /api/v1/flows/:id/instances
	flows.GET("/:id/fields/:path", h.GetFlowField) // GET /api/v1/flows/:id/fields/:path

	instances := e.Group("/api/v1/instances")
	instances.GET("/:id", h.GetInstance)                     // GET /api/v1/instances/:id
	instances.POST("/:id/nodes/:node/start", h.StartNode)    // POST /api/v1/instances/:id/nodes/:node/start
	instances.POST("/:id/nodes/:node/stop", h.StopNode)      // POST /api/v1/instances/:id/nodes/:node/stop

	e.GET("/api/v1/stats/topics", h.TopicCounts) // GET /api/v1/stats/topics
}
