package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"atlas-booking/internal/data/entity"
	"atlas-booking/internal/data/repository"
	"atlas-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type authResult int

const (
	authMissing authResult = iota
	authInvalid
	authFailed
	authOK
)

// Sessions resolves bearer tokens to users.
type Sessions struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	log      *zap.Logger
}

func NewSessions(sessions repository.SessionRepository, users repository.UserRepository, log *zap.Logger) *Sessions {
	return &Sessions{
		sessions: sessions,
		users:    users,
		log:      log.With(zap.String("middleware", "auth")),
	}
}

// Required rejects requests without a valid session.
func (s *Sessions) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, result := s.authenticate(r)
		switch result {
		case authMissing:
			utils.ResponseUnauthorized(w, "Missing authorization token")
		case authInvalid:
			utils.ResponseUnauthorized(w, "Invalid or expired session")
		case authFailed:
			utils.ResponseInternalError(w, "Internal server error")
		default:
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// Optional attaches the user when a valid session is presented and lets
// anonymous requests through. A bad token is still rejected.
func (s *Sessions) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, result := s.authenticate(r)
		switch result {
		case authMissing:
			next.ServeHTTP(w, r)
		case authInvalid:
			utils.ResponseUnauthorized(w, "Invalid or expired session")
		case authFailed:
			utils.ResponseInternalError(w, "Internal server error")
		default:
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

func (s *Sessions) authenticate(r *http.Request) (context.Context, authResult) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, authMissing
	}

	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, authInvalid
	}
	token, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, authInvalid
	}

	session, err := s.sessions.FindValidSession(r.Context(), token)
	if err != nil {
		s.log.Error("Failed to validate session", zap.Error(err))
		return nil, authFailed
	}
	if session == nil || !session.Valid(time.Now()) {
		s.log.Debug("Invalid or expired session")
		return nil, authInvalid
	}

	user, err := s.users.FindByID(r.Context(), session.UserID)
	if err != nil {
		s.log.Error("Failed to load session user", zap.Error(err), zap.String("user_id", session.UserID.String()))
		return nil, authFailed
	}
	if user == nil || !user.IsActive {
		return nil, authInvalid
	}

	ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role))
	ctx = utils.SetTokenContext(ctx, token.String())
	return ctx, authOK
}

// Admin must run after Required.
func Admin(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			if role != string(entity.RoleAdmin) {
				log.Warn("Non-admin access attempt",
					zap.String("user_id", userID.String()),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
