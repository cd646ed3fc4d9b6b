package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer hands confirmation emails to the worker process.
// It satisfies pipeline.Notifier.
type Enqueuer struct {
	client *asynq.Client
	log    *zap.Logger
}

func NewEnqueuer(opt asynq.RedisClientOpt, log *zap.Logger) *Enqueuer {
	return &Enqueuer{
		client: asynq.NewClient(opt),
		log:    log.With(zap.String("component", "enqueuer")),
	}
}

func (e *Enqueuer) SendBookingConfirmation(ctx context.Context, bookingID string) error {
	task, opts, err := NewConfirmationTask(bookingID)
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		e.log.Debug("Confirmation already queued", zap.String("booking_id", bookingID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue confirmation for %s: %w", bookingID, err)
	}

	e.log.Info("Confirmation queued",
		zap.String("booking_id", bookingID),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
