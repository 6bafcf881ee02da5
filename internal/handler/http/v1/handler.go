package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wittawat/incident_map_system/internal/classify"
	"github.com/wittawat/incident_map_system/internal/config"
	"github.com/wittawat/incident_map_system/internal/events"
	"github.com/wittawat/incident_map_system/internal/service"
)

type Handler struct {
	incidentService service.IncidentService
	hub             *events.Hub
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(incidentService service.IncidentService, hub *events.Hub, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService: incidentService,
		hub:             hub,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// @Summary Report a new incident
// @Description Create a new incident report. The response contains the one-time edit token the reporter uses to prove ownership later.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param incident body CreateIncidentRequest true "Incident report"
// @Success 201 {object} CreateIncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	model := DTOToIncidentModel(input)
	if err := h.incidentService.CreateIncident(c.Request.Context(), model); err != nil {
		h.respondError(c, log, err)
		return
	}

	c.JSON(http.StatusCreated, CreateIncidentResponse{
		Success:   true,
		Message:   "incident reported successfully",
		Incident:  ModelToIncidentResponse(model),
		EditToken: model.EditToken,
	})
}

// @Summary List all incidents
// @Tags Incidents
// @Produce json
// @Success 200 {array} IncidentResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")

	incidents, err := h.incidentService.ListIncidents(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary List active incidents
// @Description List incidents still pending or in progress.
// @Tags Incidents
// @Produce json
// @Success 200 {array} IncidentResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/active [get]
func (h *Handler) listActiveIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listActiveIncidents")

	incidents, err := h.incidentService.ListActiveIncidents(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary List incidents by type
// @Tags Incidents
// @Produce json
// @Param type path string true "Incident type"
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]string "Unknown incident type"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/type/{type} [get]
func (h *Handler) listIncidentsByType(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidentsByType")

	incidents, err := h.incidentService.ListIncidentsByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary List incidents by status
// @Tags Incidents
// @Produce json
// @Param status path string true "Incident status"
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]string "Unknown status"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/status/{status} [get]
func (h *Handler) listIncidentsByStatus(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidentsByStatus")

	incidents, err := h.incidentService.ListIncidentsByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update incident status
// @Description Change an incident's triage status. Permitted for officers on the dashboard channel or for the reporter presenting the incident's edit token.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param status body UpdateStatusRequest true "Status update"
// @Param token query string false "Reporter edit token"
// @Param dashboard query bool false "Officer dashboard channel"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/status [put]
func (h *Handler) updateIncidentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncidentStatus").WithField("id", id)

	var input UpdateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	incident, err := h.incidentService.UpdateStatus(c.Request.Context(), id, input.Status, input.Notes, actorFromContext(c))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "incident status updated",
		"incident": ModelToIncidentResponse(incident),
	})
}

// @Summary Delete an incident
// @Description Remove an incident and its message thread. Officer credentials required.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 403 {object} map[string]string "Officer credentials required"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "deleteIncident").WithField("id", id)

	if err := h.incidentService.DeleteIncident(c.Request.Context(), id); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "incident deleted"})
}

// @Summary Get incident statistics
// @Tags Incidents
// @Produce json
// @Success 200 {object} service.IncidentStats
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	stats, err := h.incidentService.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary List an incident's messages
// @Description List the chat thread, oldest first. Permitted for officers on the dashboard channel or for the reporter presenting the edit token.
// @Tags Messages
// @Produce json
// @Param id path string true "Incident ID"
// @Param token query string false "Reporter edit token"
// @Param dashboard query bool false "Officer dashboard channel"
// @Success 200 {array} MessageResponse
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/messages [get]
func (h *Handler) getMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getMessages").WithField("id", id)

	messages, err := h.incidentService.ListMessages(c.Request.Context(), id, actorFromContext(c))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToMessageResponses(messages))
}

// @Summary Post a message to an incident thread
// @Description Append a chat message. The author tag is derived from the authorization outcome.
// @Tags Messages
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param message body PostMessageRequest true "Message"
// @Param token query string false "Reporter edit token"
// @Param dashboard query bool false "Officer dashboard channel"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string "Empty message"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/messages [post]
func (h *Handler) postMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "postMessage").WithField("id", id)

	var input PostMessageRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	msg, err := h.incidentService.PostMessage(c.Request.Context(), id, input.Content, actorFromContext(c))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": ModelToMessageResponse(msg)})
}

// @Summary Get the latest message of an incident thread
// @Tags Messages
// @Produce json
// @Param id path string true "Incident ID"
// @Param token query string false "Reporter edit token"
// @Param dashboard query bool false "Officer dashboard channel"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Incident or message not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/messages/latest [get]
func (h *Handler) getLatestMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getLatestMessage").WithField("id", id)

	msg, err := h.incidentService.LatestMessage(c.Request.Context(), id, actorFromContext(c))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToMessageResponse(msg))
}

// @Summary Compute incident hotspots
// @Description Group recent incidents into grid cells and rank them. All body fields are optional; the response echoes the effective parameters.
// @Tags Analysis
// @Accept json
// @Produce json
// @Param params body HotspotsRequest false "Clustering overrides"
// @Success 200 {object} hotspot.Result
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /analysis/hotspots [post]
func (h *Handler) computeHotspots(c *gin.Context) {
	log := h.logger.WithField("method", "computeHotspots")

	var input HotspotsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			log.WithError(err).Warn("Failed to bind JSON")
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
			return
		}
	}

	result, err := h.incidentService.Hotspots(c.Request.Context(), DTOToHotspotParams(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Classify free text into an incident type
// @Tags Analysis
// @Accept json
// @Produce json
// @Param text body ClassifyRequest true "Report text"
// @Success 200 {object} classify.Result
// @Failure 400 {object} map[string]string "Invalid request body"
// @Router /analysis/classify [post]
func (h *Handler) classifyText(c *gin.Context) {
	var input ClassifyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, classify.Classify(input.Text))
}

// @Summary Get application health status
// @Tags System
// @Produce json
// @Success 200 {object} map[string]any "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"subscribers": h.hub.ActiveCount(),
	})
}

// respondError maps service errors onto HTTP statuses. Guard denials and
// missing ids never leak internals to the caller.
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		log.WithError(err).Warn("Resource not found")
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "not found"})
	case errors.Is(err, service.ErrForbidden):
		log.WithError(err).Warn("Request denied by access guard")
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "not allowed"})
	case errors.Is(err, service.ErrValidation):
		log.WithError(err).Warn("Request failed validation")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
	}
}
