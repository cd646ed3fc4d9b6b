package usecase

import (
	"context"
	"fmt"
	"net/url"

	"atlas-booking/internal/pipeline"
	"atlas-booking/pkg/utils"

	"go.uber.org/zap"
)

type sessionAuthenticator struct {
	signInURL string
	config    utils.JWTConfig
	log       *zap.Logger
}

// NewSessionAuthenticator reads the user placed in the context by the auth
// middleware and builds sign-in redirects carrying a signed resume token.
func NewSessionAuthenticator(config *utils.Config, log *zap.Logger) pipeline.Authenticator {
	return &sessionAuthenticator{
		signInURL: config.Wizard.SignInURL,
		config:    config.JWT,
		log:       log.With(zap.String("component", "authenticator")),
	}
}

func (a *sessionAuthenticator) CurrentUser(ctx context.Context) (string, bool) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return "", false
	}
	return userID.String(), true
}

func (a *sessionAuthenticator) SignInURL(_ context.Context, draftID string) (string, error) {
	token, err := utils.NewResumeToken(draftID, a.config.Secret, a.config.ResumeTTL())
	if err != nil {
		return "", err
	}

	u, err := url.Parse(a.signInURL)
	if err != nil {
		return "", fmt.Errorf("parse sign-in url: %w", err)
	}
	q := u.Query()
	q.Set("resume_token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
