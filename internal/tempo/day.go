package tempo

import (
	"fmt"
	"time"
)

// dayLayout is the canonical 8-digit day identifier used for file names.
const dayLayout = "20060102"

// Day is a calendar date in some location. It is the unit of persistence:
// every record belongs to the day its start time falls on.
type Day struct {
	Year  int
	Month time.Month
	Date  int
}

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Date: d}
}

// ParseDay parses an 8-digit day identifier such as "20140101".
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil || len(s) != len(dayLayout) {
		return Day{}, fmt.Errorf("invalid day %q: expected YYYYMMDD", s)
	}
	return DayOf(t, time.UTC), nil
}

// String returns the YYYYMMDD identifier.
func (d Day) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Date)
}

// Start returns midnight of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, loc)
}

// Before reports whether d is earlier than o.
func (d Day) Before(o Day) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Date < o.Date
}

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Day) Compare(o Day) int {
	switch {
	case d.Before(o):
		return -1
	case o.Before(d):
		return 1
	}
	return 0
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return DayOf(time.Date(d.Year, d.Month, d.Date+n, 12, 0, 0, 0, time.UTC), time.UTC)
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d == Day{}
}

// closingTime is the latest time a record started at t may be closed at when
// the close has to stay on t's day: 23:59 local, never earlier than t itself.
func closingTime(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	eod := time.Date(y, m, d, 23, 59, 0, 0, loc)
	if eod.Before(t) {
		return t
	}
	return eod
}
