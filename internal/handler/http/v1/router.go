package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all API v1 routes.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Every route resolves role claims first; the access guard consumes
	// them per incident.
	api.Use(RoleMiddleware(h.cfg, h.logger))

	incidents := api.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/active", h.listActiveIncidents)
		incidents.GET("/stats", h.getStats)
		incidents.GET("/stream", h.streamEvents)
		incidents.GET("/type/:type", h.listIncidentsByType)
		incidents.GET("/status/:status", h.listIncidentsByStatus)
		incidents.GET("/:id", h.getIncident)
		incidents.PUT("/:id/status", h.updateIncidentStatus)
		incidents.DELETE("/:id", RequireOfficer(h.logger), h.deleteIncident)
		incidents.GET("/:id/messages", h.getMessages)
		incidents.POST("/:id/messages", h.postMessage)
		incidents.GET("/:id/messages/latest", h.getLatestMessage)
	}

	analysis := api.Group("/analysis")
	{
		analysis.POST("/hotspots", h.computeHotspots)
		analysis.POST("/classify", h.classifyText)
	}

	api.GET("/system/health", h.healthCheck)
}
