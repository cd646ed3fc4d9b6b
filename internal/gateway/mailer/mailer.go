package mailer

import (
	"context"
)

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a message and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}
