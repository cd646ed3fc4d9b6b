package wizard

import "time"

// DateRange is the inclusive span of days booked. DurationDays is derived.
type DateRange struct {
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	DurationDays int        `json:"duration_days"`
}

func (r DateRange) Complete() bool {
	return r.StartDate != nil && r.EndDate != nil
}

// Select applies one calendar click. A click starts a new range unless it
// lands strictly after a lone start date, in which case it closes the range.
func (r *DateRange) Select(day time.Time) {
	day = Day(day)

	if r.StartDate != nil && r.EndDate == nil && day.After(*r.StartDate) {
		r.EndDate = &day
		r.DurationDays = InclusiveDays(*r.StartDate, day)
		return
	}

	r.StartDate = &day
	r.EndDate = nil
	r.DurationDays = 1
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InclusiveDays counts both ends: Jan 10 to Jan 15 is 6 days.
func InclusiveDays(start, end time.Time) int {
	days := int(Day(end).Sub(Day(start)).Hours() / 24)
	if days < 0 {
		return 1
	}
	return days + 1
}
