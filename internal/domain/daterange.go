package domain

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" and full RFC3339 timestamps (the backend sends both).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// DateRange is a half-open range of calendar dates: [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: DateOf(start), End: DateOf(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) Validate() error {
	if !DateOf(r.Start).Before(DateOf(r.End)) {
		return &InvalidRangeError{Start: r.Start, End: r.End}
	}
	return nil
}

// Days is the number of calendar days in the range (0 for an invalid range).
func (r DateRange) Days() int {
	s, e := DateOf(r.Start), DateOf(r.End)
	if !s.Before(e) {
		return 0
	}
	return DaysBetween(s, e)
}

// DaysBetween counts calendar days from a to b. It does not go through
// time.Duration, so ranges of any length are exact.
func DaysBetween(a, b time.Time) int {
	const secondsPerDay = 24 * 60 * 60
	return int((DateOf(b).Unix() - DateOf(a).Unix()) / secondsPerDay)
}

func (r DateRange) Contains(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(DateOf(r.Start)) && d.Before(DateOf(r.End))
}

func (r DateRange) Overlaps(o DateRange) bool {
	return DateOf(r.Start).Before(DateOf(o.End)) && DateOf(o.Start).Before(DateOf(r.End))
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
