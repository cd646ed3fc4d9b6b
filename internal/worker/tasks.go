package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingConfirmation = "booking:confirmation"
	TypeExpirePending       = "booking:expire-pending"
	TypeCleanSessions       = "session:clean-expired"

	QueueDefault  = "default"
	QueueCritical = "critical"
)

type ConfirmationPayload struct {
	BookingID string `json:"booking_id"`
}

// NewConfirmationTask builds the confirmation email task. The task id is
// derived from the booking so a booking is announced at most once.
func NewConfirmationTask(bookingID string) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(ConfirmationPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}

	opts := []asynq.Option{
		asynq.Queue(QueueCritical),
		asynq.TaskID("confirmation:" + bookingID),
		asynq.MaxRetry(3),
		asynq.Timeout(30 * time.Second),
		asynq.Retention(24 * time.Hour),
	}
	return asynq.NewTask(TypeBookingConfirmation, payload), opts, nil
}

func NewExpirePendingTask() *asynq.Task {
	return asynq.NewTask(TypeExpirePending, nil, asynq.MaxRetry(0), asynq.Timeout(time.Minute))
}

func NewCleanSessionsTask() *asynq.Task {
	return asynq.NewTask(TypeCleanSessions, nil, asynq.MaxRetry(0), asynq.Timeout(time.Minute))
}

func parseConfirmation(t *asynq.Task) (ConfirmationPayload, error) {
	var p ConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("%s payload without booking id", t.Type())
	}
	return p, nil
}
