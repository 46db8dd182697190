package nightmode

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime accepts "HH:MM" in 24-hour form.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// cronSpec is the standard five-field expression firing daily at c.
func (c ClockTime) cronSpec() string {
	return fmt.Sprintf("%d %d * * *", c.Minute, c.Hour)
}

// Schedule is the global night window applied to every enrolled chat.
type Schedule struct {
	NightStart ClockTime
	DayStart   ClockTime
	Location   *time.Location
}

func NewSchedule(nightStart, dayStart, timezone string) (Schedule, error) {
	start, err := ParseClockTime(nightStart)
	if err != nil {
		return Schedule{}, err
	}
	day, err := ParseClockTime(dayStart)
	if err != nil {
		return Schedule{}, err
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return Schedule{NightStart: start, DayStart: day, Location: loc}, nil
}

func (s Schedule) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// InWindow reports whether t falls inside the night window. A window whose
// start is later than its end wraps past midnight.
func (s Schedule) InWindow(t time.Time) bool {
	local := t.In(s.location())
	m := local.Hour()*60 + local.Minute()
	start, end := s.NightStart.minutes(), s.DayStart.minutes()

	switch {
	case start > end:
		return m >= start || m < end
	case start < end:
		return m >= start && m < end
	default:
		return false
	}
}
