package adaptor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atlas-booking/internal/dto/request"
	"atlas-booking/internal/pipeline"
	"atlas-booking/internal/usecase"
	"atlas-booking/internal/wizard"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubWizard returns a fixed draft and error for every call.
type stubWizard struct {
	usecase.WizardService
	draft *wizard.Draft
	err   error
}

func (s *stubWizard) Get(context.Context, string) (*wizard.Draft, error) {
	return s.draft, s.err
}

func (s *stubWizard) Submit(context.Context, string) (*wizard.Draft, error) {
	return s.draft, s.err
}

func (s *stubWizard) Pay(context.Context, string, *request.PaymentResultRequest) (*wizard.Draft, error) {
	return s.draft, s.err
}

func (s *stubWizard) Next(context.Context, string) (*wizard.Draft, error) {
	return s.draft, s.err
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func serveWizard(t *testing.T, svc usecase.WizardService, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	h := NewWizardHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/api/wizard/{id}", h.Get)
	r.Post("/api/wizard/{id}/next", h.Next)
	r.Post("/api/wizard/{id}/submit", h.Submit)
	r.Post("/api/wizard/{id}/payment", h.Pay)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func summaryDraft() *wizard.Draft {
	d := wizard.New("draft-1", time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	d.Step = wizard.StepSummary
	return d
}

func TestWizardHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"wrong step", fmt.Errorf("%w: next", wizard.ErrWrongStep), http.StatusBadRequest},
		{"pipeline only", wizard.ErrPipelineOnly, http.StatusBadRequest},
		{"locked", wizard.ErrDraftLocked, http.StatusConflict},
		{"in flight", pipeline.ErrSubmissionInFlight, http.StatusConflict},
		{"booking lapsed", fmt.Errorf("booking b1: %w", pipeline.ErrBookingLapsed), http.StatusConflict},
		{"backend validation", fmt.Errorf("create booking: %w", pipeline.ErrValidation), http.StatusUnprocessableEntity},
		{"declined", &pipeline.DeclineError{Code: "card_declined", Message: "Card declined"}, http.StatusPaymentRequired},
		{"mismatch wrapping not found", &pipeline.VerificationError{Err: usecase.ErrNotFound}, http.StatusConflict},
		{"draft not found", usecase.ErrDraftNotFound, http.StatusNotFound},
		{"foreign draft", usecase.ErrDraftForbidden, http.StatusForbidden},
		{"payments off", fmt.Errorf("create payment intent: %w", usecase.ErrPaymentsUnavailable), http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubWizard{draft: summaryDraft(), err: tt.err}
			rec, env := serveWizard(t, svc, http.MethodPost, "/api/wizard/draft-1/submit", "")

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Status)
		})
	}
}

func TestWizardHandler_FailureCarriesDraft(t *testing.T) {
	d := summaryDraft()
	d.SetNotice(pipeline.NoticeValidation, "We could not create your booking.")
	svc := &stubWizard{draft: d, err: pipeline.ErrValidation}

	rec, env := serveWizard(t, svc, http.MethodPost, "/api/wizard/draft-1/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var data struct {
		ID     string         `json:"id"`
		Step   string         `json:"step"`
		Notice *wizard.Notice `json:"notice"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "draft-1", data.ID)
	assert.Equal(t, string(wizard.StepSummary), data.Step)
	require.NotNil(t, data.Notice)
	assert.Equal(t, pipeline.NoticeValidation, data.Notice.Code)
}

func TestWizardHandler_AuthRequiredReturnsRedirect(t *testing.T) {
	d := summaryDraft()
	d.AwaitingSignIn = true
	svc := &stubWizard{
		draft: d,
		err:   &pipeline.AuthRequiredError{RedirectURL: "https://atlas.test/signin?resume_token=abc"},
	}

	rec, env := serveWizard(t, svc, http.MethodPost, "/api/wizard/draft-1/submit", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var data struct {
		RedirectURL string `json:"redirect_url"`
		Draft       struct {
			AwaitingSignIn bool `json:"awaiting_sign_in"`
		} `json:"draft"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "https://atlas.test/signin?resume_token=abc", data.RedirectURL)
	assert.True(t, data.Draft.AwaitingSignIn)
}

func TestWizardHandler_ContactErrorsAreListed(t *testing.T) {
	d := summaryDraft()
	d.Step = wizard.StepTravelers
	svc := &stubWizard{
		draft: d,
		err:   &wizard.ContactError{Fields: map[string]string{"Email": "Email must be a valid email"}},
	}

	rec, env := serveWizard(t, svc, http.MethodPost, "/api/wizard/draft-1/next", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Errors, &fields))
	assert.Contains(t, fields, "Email")
}

func TestWizardHandler_ClientSecretOnlyAtPayment(t *testing.T) {
	d := summaryDraft()
	d.BookingID = "b-1"
	d.BookingReference = "ATL-1"
	d.PaymentIntentID = "pi_1"
	d.PaymentClientSecret = "pi_1_secret"

	_, env := serveWizard(t, &stubWizard{draft: d}, http.MethodGet, "/api/wizard/draft-1", "")
	assert.NotContains(t, string(env.Data), "pi_1_secret")

	d.Step = wizard.StepPayment
	rec, env := serveWizard(t, &stubWizard{draft: d}, http.MethodGet, "/api/wizard/draft-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "pi_1_secret")
}

func TestWizardHandler_BadBody(t *testing.T) {
	rec, env := serveWizard(t, &stubWizard{draft: summaryDraft()}, http.MethodPost, "/api/wizard/draft-1/payment", "{")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", env.Message)
}
