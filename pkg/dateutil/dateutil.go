// Package dateutil provides calendar-date arithmetic for the deadline engine.
// All comparisons in the engine happen on whole calendar days: timestamps
// coming from the storage layer are truncated to midnight UTC before any
// ordering or subtraction. No external dependencies - uses only standard library.
package dateutil

import (
	"errors"
	"time"
)

// ErrNoCandidateDates is returned by MinDate when every candidate is nil.
var ErrNoCandidateDates = errors.New("dateutil: no candidate dates")

// FormatDate is the standard date format (YYYY-MM-DD).
const FormatDate = "2006-01-02"

// ToDate truncates a timestamp to its calendar date (midnight UTC).
// A nil input stays nil.
func ToDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Date(t.Year(), int(t.Month()), t.Day())
	return &d
}

// Date builds a date-only time value (midnight UTC).
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsDateOnly reports whether t carries no time-of-day component.
func IsDateOnly(t time.Time) bool {
	return t.Equal(Date(t.Year(), int(t.Month()), t.Day()))
}

// OneDayBefore returns the calendar day preceding t, or nil when t is nil.
func OneDayBefore(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := ToDate(t).AddDate(0, 0, -1)
	return &d
}

// MinDate returns the earliest of the non-nil candidates.
// It fails with ErrNoCandidateDates when all candidates are nil.
func MinDate(candidates ...*time.Time) (time.Time, error) {
	var min *time.Time
	for _, c := range candidates {
		if c == nil {
			continue
		}
		d := ToDate(c)
		if min == nil || d.Before(*min) {
			min = d
		}
	}
	if min == nil {
		return time.Time{}, ErrNoCandidateDates
	}
	return *min, nil
}

// TutorDelta returns the number of days the tutor deadline precedes the
// student deadline. It is zero unless both dates are set and the student
// deadline falls strictly after the tutor submission end.
func TutorDelta(deadline, tutorEnd *time.Time) int {
	if deadline == nil || tutorEnd == nil {
		return 0
	}
	d := ToDate(deadline)
	e := ToDate(tutorEnd)
	if !d.After(*e) {
		return 0
	}
	return DaysBetween(*e, *d)
}

// DaysBetween calculates the number of days between two dates.
func DaysBetween(from, to time.Time) int {
	a := ToDate(&from)
	b := ToDate(&to)
	days := int(b.Sub(*a).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// ParseDate parses a date string (YYYY-MM-DD) into a date-only time value.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(FormatDate, value)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD).
func FormatDateStr(t time.Time) string {
	return t.Format(FormatDate)
}

// Ptr returns a pointer to t. Convenience for optional date fields.
func Ptr(t time.Time) *time.Time {
	return &t
}
