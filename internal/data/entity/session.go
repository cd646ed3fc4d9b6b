package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is an opaque bearer token issued at login or registration.
type Session struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}

func NewSession(userID uuid.UUID, client ClientInfo, ttl time.Duration, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     uuid.New(),
		UserAgent: optional(client.UserAgent, 255),
		IPAddress: optional(client.IP, 64),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// Valid reports whether the session can still authenticate requests at now.
func (s *Session) Valid(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// ClientInfo describes where a login came from.
type ClientInfo struct {
	UserAgent string
	IP        string
}

func optional(v string, max int) *string {
	if v == "" {
		return nil
	}
	if len(v) > max {
		v = v[:max]
	}
	return &v
}
