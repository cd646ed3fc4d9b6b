package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const resumeAudience = "atlas-wizard-resume"

var ErrInvalidResumeToken = errors.New("invalid or expired resume token")

type ResumeClaims struct {
	DraftID string `json:"draft_id"`
	jwt.RegisteredClaims
}

// NewResumeToken signs the draft id that the sign-in page hands back
// once the user is authenticated.
func NewResumeToken(draftID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ResumeClaims{
		DraftID: draftID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{resumeAudience},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign resume token: %w", err)
	}
	return signed, nil
}

func ParseResumeToken(token, secret string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &ResumeClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resumeAudience),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResumeToken, err)
	}

	claims, ok := parsed.Claims.(*ResumeClaims)
	if !ok || !parsed.Valid || claims.DraftID == "" {
		return "", ErrInvalidResumeToken
	}
	return claims.DraftID, nil
}
