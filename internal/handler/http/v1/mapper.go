package v1

import (
	"github.com/wittawat/incident_map_system/internal/hotspot"
	"github.com/wittawat/incident_map_system/internal/models"
)

// DTOToIncidentModel converts a creation request into the domain model.
func DTOToIncidentModel(dto CreateIncidentRequest) *models.Incident {
	return &models.Incident{
		Type:            dto.Type,
		Description:     dto.Description,
		Latitude:        dto.Latitude,
		Longitude:       dto.Longitude,
		Reporter:        dto.Reporter,
		ReporterContact: dto.ReporterContact,
		Severity:        dto.Severity,
		ImageURL:        dto.ImageURL,
	}
}

// ModelToIncidentResponse converts the domain model into the public view.
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:              model.ID,
		Type:            model.Type,
		Description:     model.Description,
		Latitude:        model.Latitude,
		Longitude:       model.Longitude,
		Reporter:        model.Reporter,
		ReporterContact: model.ReporterContact,
		Status:          model.Status,
		Severity:        model.Severity,
		OfficerNotes:    model.OfficerNotes,
		ImageURL:        model.ImageURL,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// ModelsToIncidentResponses converts a slice of models into response DTOs.
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelToMessageResponse converts a message into its response DTO.
func ModelToMessageResponse(model *models.Message) *MessageResponse {
	return &MessageResponse{
		ID:         model.ID,
		IncidentID: model.IncidentID,
		Author:     model.Author,
		Content:    model.Content,
		CreatedAt:  model.CreatedAt,
	}
}

// ModelsToMessageResponses converts a slice of messages into response DTOs.
func ModelsToMessageResponses(models []*models.Message) []*MessageResponse {
	responses := make([]*MessageResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToMessageResponse(model)
	}
	return responses
}

// DTOToHotspotParams overlays caller overrides on the engine defaults so
// the effective parameters are always fully resolved.
func DTOToHotspotParams(dto HotspotsRequest) hotspot.Params {
	p := hotspot.DefaultParams()
	if dto.MinLat != nil {
		p.MinLat = *dto.MinLat
	}
	if dto.MaxLat != nil {
		p.MaxLat = *dto.MaxLat
	}
	if dto.MinLng != nil {
		p.MinLng = *dto.MinLng
	}
	if dto.MaxLng != nil {
		p.MaxLng = *dto.MaxLng
	}
	if dto.SinceDays != nil {
		p.SinceDays = *dto.SinceDays
	}
	if dto.CellSize != nil {
		p.CellSize = *dto.CellSize
	}
	if dto.MinCount != nil {
		p.MinCount = *dto.MinCount
	}
	return p
}
