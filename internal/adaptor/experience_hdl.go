package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"atlas-booking/internal/dto/request"
	"atlas-booking/internal/usecase"
	"atlas-booking/pkg/utils"
	"atlas-booking/pkg/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ExperienceHandler struct {
	service usecase.ExperienceService
	log     *zap.Logger
}

func NewExperienceHandler(service usecase.ExperienceService, log *zap.Logger) *ExperienceHandler {
	return &ExperienceHandler{
		service: service,
		log:     log.With(zap.String("handler", "experience")),
	}
}

// ListExperiences handles GET /api/experiences?type=tour&page=1&per_page=10
func (h *ExperienceHandler) ListExperiences(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ExperienceQuery{
		Type:             query.Get("type"),
		PaginatedRequest: request.PageFromQuery(query),
	}

	experiences, err := h.service.ListExperiences(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, "list experiences")
		return
	}

	utils.ResponseSuccess(w, "success", experiences)
}

// GetExperience handles GET /api/experiences/{id}
func (h *ExperienceHandler) GetExperience(w http.ResponseWriter, r *http.Request) {
	experience, err := h.service.GetExperience(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get experience")
		return
	}

	utils.ResponseSuccess(w, "success", experience)
}

// CreateExperience handles POST /api/admin/experiences
func (h *ExperienceHandler) CreateExperience(w http.ResponseWriter, r *http.Request) {
	var req request.CreateExperienceRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := validation.Struct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	experience, err := h.service.CreateExperience(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "create experience")
		return
	}

	utils.ResponseCreated(w, "Experience created", experience)
}

// UpdateExperience handles PUT /api/admin/experiences/{id}
func (h *ExperienceHandler) UpdateExperience(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateExperienceRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := validation.Struct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	experience, err := h.service.UpdateExperience(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "update experience")
		return
	}

	utils.ResponseSuccess(w, "Experience updated", experience)
}

// DeleteExperience handles DELETE /api/admin/experiences/{id}
func (h *ExperienceHandler) DeleteExperience(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteExperience(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, err, "delete experience")
		return
	}

	utils.ResponseSuccess(w, "Experience deleted", nil)
}

func (h *ExperienceHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	var verr *usecase.ValidationError

	switch {
	case errors.As(err, &verr):
		utils.ResponseBadRequest(w, "Validation failed", verr.Fields)

	case errors.Is(err, usecase.ErrInvalidInput):
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound),
		errors.Is(err, usecase.ErrExperienceUnavailable):
		h.log.Debug(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "Experience not found")

	default:
		h.log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
