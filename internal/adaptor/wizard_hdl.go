package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"atlas-booking/internal/dto/request"
	"atlas-booking/internal/dto/response"
	"atlas-booking/internal/pipeline"
	"atlas-booking/internal/usecase"
	"atlas-booking/internal/wizard"
	"atlas-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WizardHandler struct {
	service usecase.WizardService
	log     *zap.Logger
}

func NewWizardHandler(service usecase.WizardService, log *zap.Logger) *WizardHandler {
	return &WizardHandler{
		service: service,
		log:     log.With(zap.String("handler", "wizard")),
	}
}

// Start handles POST /api/wizard
func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Start(r.Context())
	if err != nil {
		h.handleServiceError(w, d, err, "start wizard")
		return
	}

	utils.ResponseCreated(w, "Booking started", response.WizardToResponse(d))
}

// Get handles GET /api/wizard/{id}
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, d, err, "get draft", "success")
}

// SelectExperience handles PUT /api/wizard/{id}/experience
func (h *WizardHandler) SelectExperience(w http.ResponseWriter, r *http.Request) {
	var req request.SelectExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	d, err := h.service.SelectExperience(r.Context(), chi.URLParam(r, "id"), &req)
	h.respond(w, d, err, "select experience", "Experience selected")
}

// SelectDate handles POST /api/wizard/{id}/dates. Each call is one click
// on the calendar.
func (h *WizardHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req request.SelectDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	d, err := h.service.SelectDate(r.Context(), chi.URLParam(r, "id"), &req)
	h.respond(w, d, err, "select date", "Date selected")
}

// UpdateTravelers handles POST /api/wizard/{id}/travelers
func (h *WizardHandler) UpdateTravelers(w http.ResponseWriter, r *http.Request) {
	var req request.TravelerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	d, err := h.service.UpdateTravelers(r.Context(), chi.URLParam(r, "id"), &req)
	h.respond(w, d, err, "update travelers", "Travelers updated")
}

// UpdateContact handles PUT /api/wizard/{id}/contact
func (h *WizardHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req request.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	d, err := h.service.UpdateContact(r.Context(), chi.URLParam(r, "id"), &req)
	h.respond(w, d, err, "update contact", "Contact updated")
}

// Next handles POST /api/wizard/{id}/next
func (h *WizardHandler) Next(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Next(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, d, err, "next step", "success")
}

// Back handles POST /api/wizard/{id}/back
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Back(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, d, err, "previous step", "success")
}

// Submit handles POST /api/wizard/{id}/submit
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, d, err, "submit booking", "Booking created, awaiting payment")
}

// Resume handles POST /api/wizard/resume after the sign-in redirect.
func (h *WizardHandler) Resume(w http.ResponseWriter, r *http.Request) {
	var req request.ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	d, err := h.service.Resume(r.Context(), &req)
	h.respond(w, d, err, "resume booking", "Booking created, awaiting payment")
}

// Pay handles POST /api/wizard/{id}/payment
func (h *WizardHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req request.PaymentResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	d, err := h.service.Pay(r.Context(), chi.URLParam(r, "id"), &req)
	h.respond(w, d, err, "pay booking", "Booking confirmed")
}

// Discard handles DELETE /api/wizard/{id}
func (h *WizardHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, nil, err, "discard draft")
		return
	}

	utils.ResponseSuccess(w, "Booking discarded", nil)
}

func (h *WizardHandler) respond(w http.ResponseWriter, d *wizard.Draft, err error, operation, message string) {
	if err != nil {
		h.handleServiceError(w, d, err, operation)
		return
	}
	utils.ResponseSuccess(w, message, response.WizardToResponse(d))
}

// handleServiceError keeps the draft in failing responses so the client can
// render the inline notice at the current step. Pipeline errors are matched
// first since they may wrap a collaborator error.
func (h *WizardHandler) handleServiceError(w http.ResponseWriter, d *wizard.Draft, err error, operation string) {
	var data any
	if d != nil {
		data = response.WizardToResponse(d)
	}

	var (
		authErr    *pipeline.AuthRequiredError
		contactErr *wizard.ContactError
		verr       *usecase.ValidationError
	)

	switch {
	case errors.As(err, &authErr):
		utils.ResponseFailure(w, http.StatusUnauthorized, "Please sign in to complete your booking",
			map[string]any{"redirect_url": authErr.RedirectURL, "draft": data}, nil)

	case errors.Is(err, pipeline.ErrAuthRequired):
		utils.ResponseUnauthorized(w, "Please sign in to continue this booking")

	case errors.Is(err, pipeline.ErrSubmissionInFlight):
		utils.ResponseFailure(w, http.StatusConflict, err.Error(), data, nil)

	case errors.Is(err, pipeline.ErrBookingLapsed):
		utils.ResponseFailure(w, http.StatusConflict, "Your reservation expired, please submit again", data, nil)

	case errors.Is(err, pipeline.ErrPaymentDeclined):
		utils.ResponseFailure(w, http.StatusPaymentRequired, "Payment declined", data, nil)

	case errors.Is(err, pipeline.ErrVerificationMismatch):
		h.log.Error(operation+" failed - verification mismatch", zap.Error(err))
		utils.ResponseFailure(w, http.StatusConflict, "Payment could not be verified", data, nil)

	case errors.Is(err, pipeline.ErrValidation):
		h.log.Warn(operation+" failed - rejected by booking backend", zap.Error(err))
		utils.ResponseFailure(w, http.StatusUnprocessableEntity, "Booking details were rejected", data, nil)

	case errors.As(err, &contactErr):
		utils.ResponseFailure(w, http.StatusBadRequest, "Please check the traveler details", data, contactErr.Fields)

	case errors.Is(err, wizard.ErrDraftLocked):
		utils.ResponseFailure(w, http.StatusConflict, err.Error(), data, nil)

	case errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrExperienceRequired),
		errors.Is(err, wizard.ErrDatesIncomplete),
		errors.Is(err, wizard.ErrPriceStale),
		errors.Is(err, wizard.ErrNoPreviousStep),
		errors.Is(err, wizard.ErrCompleted),
		errors.Is(err, wizard.ErrPipelineOnly),
		errors.Is(err, wizard.ErrPaymentNotReady),
		errors.Is(err, wizard.ErrIntentMismatch):
		utils.ResponseFailure(w, http.StatusBadRequest, err.Error(), data, nil)

	case errors.As(err, &verr):
		utils.ResponseFailure(w, http.StatusBadRequest, "Validation failed", data, verr.Fields)

	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrDateInPast),
		errors.Is(err, usecase.ErrExperienceUnavailable):
		utils.ResponseFailure(w, http.StatusBadRequest, err.Error(), data, nil)

	case errors.Is(err, usecase.ErrDraftNotFound):
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrDraftForbidden):
		h.log.Warn(operation+" failed - foreign draft", zap.Error(err))
		utils.ResponseForbidden(w, "This booking belongs to another account")

	case errors.Is(err, usecase.ErrPaymentsUnavailable):
		h.log.Error(operation+" failed - payments unavailable", zap.Error(err))
		utils.ResponseFailure(w, http.StatusServiceUnavailable, "Payments are temporarily unavailable", data, nil)

	default:
		h.log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseFailure(w, http.StatusInternalServerError, "Internal server error", data, nil)
	}
}
