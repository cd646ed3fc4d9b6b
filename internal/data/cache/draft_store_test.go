package cache

import (
	"context"
	"testing"
	"time"

	"atlas-booking/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDraftStore_RoundTripIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore()

	d := wizard.New("d-1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, d.SelectExperience(wizard.ExperienceRef{Type: wizard.ExperienceTour, ID: "e-1", UnitPrice: 100}))
	require.NoError(t, store.Save(ctx, d))

	got, err := store.Get(ctx, "d-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "e-1", got.Experience.ID)

	got.Experience.ID = "changed"
	again, err := store.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "e-1", again.Experience.ID)

	require.NoError(t, store.Delete(ctx, "d-1"))
	missing, err := store.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
