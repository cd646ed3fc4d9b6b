package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeToken_RoundTrip(t *testing.T) {
	token, err := NewResumeToken("draft-7", "s3cret", time.Minute)
	require.NoError(t, err)

	draftID, err := ParseResumeToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "draft-7", draftID)
}

func TestResumeToken_Rejected(t *testing.T) {
	token, err := NewResumeToken("draft-7", "s3cret", time.Minute)
	require.NoError(t, err)

	_, err = ParseResumeToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidResumeToken)

	expired, err := NewResumeToken("draft-7", "s3cret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseResumeToken(expired, "s3cret")
	assert.ErrorIs(t, err, ErrInvalidResumeToken)

	_, err = ParseResumeToken("not-a-jwt", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidResumeToken)
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 10, ParseInt("-2", 10))
	assert.Equal(t, 10, ParseInt("abc", 10))
}
