package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jan(day int) time.Time {
	return time.Date(2025, time.January, day, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_ClickBeforeStartResets(t *testing.T) {
	var r DateRange
	r.Select(jan(10))
	r.Select(jan(5))

	require.NotNil(t, r.StartDate)
	assert.Equal(t, jan(5), *r.StartDate)
	assert.Nil(t, r.EndDate)
	assert.Equal(t, 1, r.DurationDays)
}

func TestDateRange_ClickAfterStartCloses(t *testing.T) {
	var r DateRange
	r.Select(jan(10))
	r.Select(jan(15))

	require.True(t, r.Complete())
	assert.Equal(t, jan(10), *r.StartDate)
	assert.Equal(t, jan(15), *r.EndDate)
	assert.Equal(t, 6, r.DurationDays)
}

func TestDateRange_SameDayTwiceStaysSingle(t *testing.T) {
	var r DateRange
	r.Select(jan(10))
	r.Select(jan(10))

	require.NotNil(t, r.StartDate)
	assert.Equal(t, jan(10), *r.StartDate)
	assert.Nil(t, r.EndDate)
	assert.Equal(t, 1, r.DurationDays)
}

func TestDateRange_ClickOnCompleteRangeStartsOver(t *testing.T) {
	var r DateRange
	r.Select(jan(10))
	r.Select(jan(15))
	r.Select(jan(20))

	assert.Equal(t, jan(20), *r.StartDate)
	assert.Nil(t, r.EndDate)
	assert.Equal(t, 1, r.DurationDays)
}

func TestDateRange_IgnoresTimeOfDay(t *testing.T) {
	var r DateRange
	r.Select(time.Date(2025, time.March, 1, 23, 30, 0, 0, time.UTC))
	r.Select(time.Date(2025, time.March, 3, 0, 15, 0, 0, time.UTC))

	assert.Equal(t, 3, r.DurationDays)
	assert.Equal(t, 0, r.StartDate.Hour())
}

func TestDateRange_DurationIsSpanPlusOne(t *testing.T) {
	start := jan(1)
	for offset := 1; offset <= 400; offset++ {
		var r DateRange
		r.Select(start)
		r.Select(start.AddDate(0, 0, offset))

		require.True(t, r.Complete(), "offset %d", offset)
		assert.True(t, r.EndDate.After(*r.StartDate))
		assert.Equal(t, offset+1, r.DurationDays, "offset %d", offset)
	}
}

func TestInclusiveDays(t *testing.T) {
	assert.Equal(t, 1, InclusiveDays(jan(3), jan(3)))
	assert.Equal(t, 2, InclusiveDays(jan(3), jan(4)))
	assert.Equal(t, 1, InclusiveDays(jan(4), jan(3)))
	// across a DST change in a local zone the UTC day count is unaffected
	assert.Equal(t, 32, InclusiveDays(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)))
}
