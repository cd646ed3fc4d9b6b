package mailer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type devMailer struct {
	log *zap.Logger
}

// NewDevMailer logs messages instead of sending them. Used when no
// MailerSend key is configured.
func NewDevMailer(log *zap.Logger) Mailer {
	return &devMailer{log: log.With(zap.String("mailer", "dev"))}
}

func (m *devMailer) Send(_ context.Context, msg Message) (string, error) {
	if msg.ToEmail == "" {
		return "", ErrNoRecipient
	}
	id := "dev-" + uuid.NewString()
	m.log.Info("Mail not sent (dev mode)",
		zap.String("message_id", id),
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return id, nil
}
