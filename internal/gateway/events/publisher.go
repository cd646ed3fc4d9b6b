package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is satisfied by pipeline.EventPublisher.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
}

func NewNATSPublisher(url, prefix string, log *zap.Logger) (Publisher, error) {
	log = log.With(zap.String("publisher", "nats"))

	conn, err := nats.Connect(url,
		nats.Name("atlas-booking"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}

	return &natsPublisher{conn: conn, prefix: prefix, log: log}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}
	if err := p.conn.Publish(full, payload); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}

	p.log.Debug("Event published", zap.String("subject", full))
	return nil
}

func (p *natsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.log.Warn("NATS drain failed", zap.Error(err))
	}
}

type noopPublisher struct {
	log *zap.Logger
}

// NewNoopPublisher drops events. Used when NATS_URL is empty.
func NewNoopPublisher(log *zap.Logger) Publisher {
	return &noopPublisher{log: log.With(zap.String("publisher", "noop"))}
}

func (p *noopPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.log.Debug("Event dropped", zap.String("subject", subject))
	return nil
}

func (p *noopPublisher) Close() {}
