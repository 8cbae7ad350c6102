package clock

import "time"

const day = 24 * time.Hour

// Calendar turns instants into calendar days of one timezone. A day value is the
// midnight-UTC timestamp carrying that calendar date, which is how dates are stored.
type Calendar struct {
	Loc *time.Location
}

func NewCalendar(tz string) (Calendar, error) {
	if tz == "" {
		return Calendar{Loc: time.UTC}, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calendar{}, err
	}
	return Calendar{Loc: loc}, nil
}

func (c Calendar) location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

// DayOf returns the day value of the calendar date the instant falls on.
func (c Calendar) DayOf(instant time.Time) time.Time {
	y, m, d := instant.In(c.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is DayOf(clk.Now()).
func (c Calendar) Today(clk Clock) time.Time {
	return c.DayOf(clk.Now())
}

// At returns the instant of hh:mm on the given day value in the calendar's timezone.
func (c Calendar) At(dayValue time.Time, hour, minute int) time.Time {
	y, m, d := dayValue.UTC().Date()
	return time.Date(y, m, d, hour, minute, 0, 0, c.location())
}

// Normalize truncates a stored day value to its date, tolerating drivers that
// hand back the timestamp in a non-UTC zone.
func Normalize(dayValue time.Time) time.Time {
	y, m, d := dayValue.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from one day value to another (negative when to < from).
func DaysBetween(from, to time.Time) int {
	return int(Normalize(to).Sub(Normalize(from)) / day)
}

func AddDays(dayValue time.Time, n int) time.Time {
	return Normalize(dayValue).AddDate(0, 0, n)
}
