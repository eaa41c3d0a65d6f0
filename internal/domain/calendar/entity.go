// Package calendar contains the institution-wide calendar hierarchy: academic
// years, typed academic calendars and the session numbering that links a
// calendar to one of the exam sessions.
package calendar

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Reference is the type tag of an academic calendar. It is a closed set; the
// deadline engine only acts on two of its members.
type Reference string

const (
	// RefDeliberation marks the window in which juries deliberate results.
	RefDeliberation Reference = "DELIBERATION"

	// RefScoresExamSubmission marks the window in which scores may be
	// submitted.
	RefScoresExamSubmission Reference = "SCORES_EXAM_SUBMISSION"

	// RefScoresExamDiffusion marks the window in which scores are published
	// to students.
	RefScoresExamDiffusion Reference = "SCORES_EXAM_DIFFUSION"

	// RefCourseEnrollment marks the course enrollment window.
	RefCourseEnrollment Reference = "COURSE_ENROLLMENT"

	// RefExamEnrollments marks the exam enrollment window.
	RefExamEnrollments Reference = "EXAM_ENROLLMENTS"

	// RefTeachingChargeApplication marks the teaching charge application
	// window.
	RefTeachingChargeApplication Reference = "TEACHING_CHARGE_APPLICATION"
)

// IsValid checks that the reference belongs to the closed set.
func (r Reference) IsValid() bool {
	switch r {
	case RefDeliberation, RefScoresExamSubmission, RefScoresExamDiffusion,
		RefCourseEnrollment, RefExamEnrollments, RefTeachingChargeApplication:
		return true
	}
	return false
}

// ImpactsDeadlines reports whether a calendar of this reference participates
// in score encoding deadline computation.
func (r Reference) ImpactsDeadlines() bool {
	return r == RefDeliberation || r == RefScoresExamSubmission
}

// CascadesToOffers reports whether saving an academic calendar of this
// reference re-syncs the dates of its linked offer year calendars.
func (r Reference) CascadesToOffers() bool {
	switch r {
	case RefDeliberation, RefExamEnrollments, RefScoresExamDiffusion, RefScoresExamSubmission:
		return true
	}
	return false
}

// String returns the string representation of the reference.
func (r Reference) String() string {
	return string(r)
}

// NumberSession identifies one of the exam sessions of a year.
type NumberSession int

const (
	SessionOne   NumberSession = 1
	SessionTwo   NumberSession = 2
	SessionThree NumberSession = 3
)

// IsValid checks that the session number is 1, 2 or 3.
func (n NumberSession) IsValid() bool {
	return n >= SessionOne && n <= SessionThree
}

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC YEAR
// ══════════════════════════════════════════════════════════════════════════════

// AcademicYear is the institutional year spanning two calendar years. Its
// interval contains all calendar events of that year.
type AcademicYear struct {
	ID        uuid.UUID
	Year      int
	StartDate time.Time
	EndDate   time.Time
}

// NewAcademicYear creates an academic year after checking chronology.
func NewAcademicYear(year int, startDate, endDate time.Time) (*AcademicYear, error) {
	if startDate.After(endDate) {
		return nil, shared.NewDomainError("calendar", "NewAcademicYear",
			shared.ErrChronologyViolation, "academic year start date after end date")
	}
	return &AcademicYear{
		ID:        uuid.New(),
		Year:      year,
		StartDate: *dateutil.ToDate(&startDate),
		EndDate:   *dateutil.ToDate(&endDate),
	}, nil
}

// Contains reports whether the date falls within the academic year.
func (y *AcademicYear) Contains(date time.Time) bool {
	d := dateutil.ToDate(&date)
	return !d.Before(y.StartDate) && !d.After(y.EndDate)
}

// String returns a display name such as "2020-21".
func (y *AcademicYear) String() string {
	return fmt.Sprintf("%d-%d", y.Year, (y.Year+1)%100)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// AcademicCalendar is a named, typed date range within an academic year.
// Both dates are mandatory and validated before every save; a successful
// write publishes EventCalendarChanged.
type AcademicCalendar struct {
	ID             uuid.UUID  `json:"id"`
	AcademicYearID uuid.UUID  `json:"academic_year_id" validate:"required"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Reference      Reference  `json:"reference" validate:"required"`
	StartDate      *time.Time `json:"start_date" validate:"required"`
	EndDate        *time.Time `json:"end_date" validate:"required"`
	Changed        time.Time  `json:"changed"`
}

// NewAcademicCalendar creates an academic calendar with date-normalized bounds.
func NewAcademicCalendar(yearID uuid.UUID, title string, reference Reference, startDate, endDate time.Time) (*AcademicCalendar, error) {
	if !reference.IsValid() {
		return nil, shared.ErrInvalidReference
	}
	return &AcademicCalendar{
		ID:             uuid.New(),
		AcademicYearID: yearID,
		Title:          title,
		Reference:      reference,
		StartDate:      dateutil.ToDate(&startDate),
		EndDate:        dateutil.ToDate(&endDate),
		Changed:        time.Now().UTC(),
	}, nil
}

// ContainsDate reports whether the date lies within [StartDate, EndDate].
// Calendars with missing bounds contain nothing.
func (c *AcademicCalendar) ContainsDate(date time.Time) bool {
	if c.StartDate == nil || c.EndDate == nil {
		return false
	}
	d := dateutil.ToDate(&date)
	return !d.Before(*c.StartDate) && !d.After(*c.EndDate)
}

// IsOpen reports whether the calendar is open at the given moment, with the
// start inclusive and the end exclusive.
func (c *AcademicCalendar) IsOpen(at time.Time) bool {
	if c.StartDate == nil || c.EndDate == nil {
		return false
	}
	d := dateutil.ToDate(&at)
	return !d.Before(*c.StartDate) && d.Before(*c.EndDate)
}

// String returns a display name for logs.
func (c *AcademicCalendar) String() string {
	return fmt.Sprintf("%s (%s)", c.Title, c.Reference)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION EXAM CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// SessionExamCalendar maps an academic calendar to an exam session number.
// The mapping is one-to-one on the academic calendar; a calendar without it
// is session-less and never drives deadline computation.
type SessionExamCalendar struct {
	ID                 uuid.UUID
	AcademicCalendarID uuid.UUID
	NumberSession      NumberSession
}

// NewSessionExamCalendar creates a session mapping for a calendar.
func NewSessionExamCalendar(calendarID uuid.UUID, numberSession NumberSession) (*SessionExamCalendar, error) {
	if !numberSession.IsValid() {
		return nil, shared.ErrInvalidSessionNumber
	}
	return &SessionExamCalendar{
		ID:                 uuid.New(),
		AcademicCalendarID: calendarID,
		NumberSession:      numberSession,
	}, nil
}
