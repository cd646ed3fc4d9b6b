package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atlas-booking/internal/data/entity"
	"atlas-booking/internal/data/repository"
	"atlas-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSessions struct {
	repository.SessionRepository
	valid map[uuid.UUID]*entity.Session
}

func (f *fakeSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	return f.valid[token], nil
}

type fakeUsers struct {
	repository.UserRepository
	users map[uuid.UUID]*entity.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.users[id], nil
}

func newSessions(role entity.UserRole, active bool) (*Sessions, uuid.UUID) {
	userID := uuid.New()
	token := uuid.New()

	sessions := &fakeSessions{valid: map[uuid.UUID]*entity.Session{
		token: {UserID: userID, Token: token, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	users := &fakeUsers{users: map[uuid.UUID]*entity.User{
		userID: {Base: entity.Base{ID: userID}, Role: role, IsActive: active},
	}}
	return NewSessions(sessions, users, zap.NewNop()), token
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUserIDFromContext(r.Context()); ok {
		w.Write([]byte("user"))
		return
	}
	w.Write([]byte("anonymous"))
}

func call(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessions_Required(t *testing.T) {
	s, token := newSessions(entity.RoleTraveler, true)
	h := s.Required(http.HandlerFunc(whoAmI))

	assert.Equal(t, http.StatusUnauthorized, call(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "Bearer not-a-uuid").Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "Basic "+token.String()).Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "Bearer "+uuid.NewString()).Code)

	rec := call(h, "Bearer "+token.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user", rec.Body.String())
}

func TestSessions_RequiredRejectsInactiveUser(t *testing.T) {
	s, token := newSessions(entity.RoleTraveler, false)
	h := s.Required(http.HandlerFunc(whoAmI))

	assert.Equal(t, http.StatusUnauthorized, call(h, "Bearer "+token.String()).Code)
}

func TestSessions_Optional(t *testing.T) {
	s, token := newSessions(entity.RoleTraveler, true)
	h := s.Optional(http.HandlerFunc(whoAmI))

	rec := call(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = call(h, "bearer "+token.String())
	assert.Equal(t, "user", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call(h, "Bearer "+uuid.NewString()).Code)
}

func TestAdmin(t *testing.T) {
	traveler, travelerToken := newSessions(entity.RoleTraveler, true)
	admin, adminToken := newSessions(entity.RoleAdmin, true)
	guard := Admin(zap.NewNop())

	h := traveler.Required(guard(http.HandlerFunc(whoAmI)))
	assert.Equal(t, http.StatusForbidden, call(h, "Bearer "+travelerToken.String()).Code)

	h = admin.Required(guard(http.HandlerFunc(whoAmI)))
	assert.Equal(t, http.StatusOK, call(h, "Bearer "+adminToken.String()).Code)
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(6, zap.NewNop())
	now := time.Now()

	// burst is floored at 3
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("10.0.0.1", now), "request %d", i)
	}
	assert.False(t, l.allow("10.0.0.1", now))
	assert.True(t, l.allow("10.0.0.2", now))

	// one token every ten seconds
	assert.True(t, l.allow("10.0.0.1", now.Add(11*time.Second)))
}

func TestRateLimiter_Handler(t *testing.T) {
	l := NewRateLimiter(1, zap.NewNop())
	h := l.Handler(http.HandlerFunc(whoAmI))

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := call(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
