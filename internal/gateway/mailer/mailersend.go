package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mailersend/mailersend-go"
	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("mail recipient is empty")

type mailerSend struct {
	client *mailersend.Mailersend
	from   mailersend.From
	log    *zap.Logger
}

func NewMailerSend(apiKey, fromName, fromEmail string, log *zap.Logger) Mailer {
	return &mailerSend{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
		log: log.With(zap.String("mailer", "mailersend")),
	}
}

func (m *mailerSend) Send(ctx context.Context, msg Message) (string, error) {
	to := strings.TrimSpace(msg.ToEmail)
	if to == "" {
		return "", ErrNoRecipient
	}

	message := m.client.Email.NewMessage()
	message.SetFrom(m.from)
	message.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: to}})
	message.SetSubject(msg.Subject)
	if strings.TrimSpace(msg.Text) != "" {
		message.SetText(msg.Text)
	}
	if strings.TrimSpace(msg.HTML) != "" {
		message.SetHTML(msg.HTML)
	}

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("send mail to %s: %w", to, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	id := res.Header.Get("X-Message-Id")
	m.log.Info("Mail sent",
		zap.String("message_id", id),
		zap.String("subject", msg.Subject),
	)
	return id, nil
}
