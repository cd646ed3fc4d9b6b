package worker

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationTask_RoundTrip(t *testing.T) {
	task, opts, err := NewConfirmationTask("b-42")
	require.NoError(t, err)
	assert.Equal(t, TypeBookingConfirmation, task.Type())
	assert.NotEmpty(t, opts)

	p, err := parseConfirmation(task)
	require.NoError(t, err)
	assert.Equal(t, "b-42", p.BookingID)
}

func TestParseConfirmation_RejectsBadPayload(t *testing.T) {
	_, err := parseConfirmation(asynq.NewTask(TypeBookingConfirmation, []byte("{")))
	assert.Error(t, err)

	_, err = parseConfirmation(asynq.NewTask(TypeBookingConfirmation, []byte(`{}`)))
	assert.Error(t, err)
}
