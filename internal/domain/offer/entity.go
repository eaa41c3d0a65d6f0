// Package offer contains the per-program side of the calendar hierarchy:
// offer years, education group years, student enrollments and the per-offer
// calendar overrides that managers edit.
package offer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM INSTANCES
// ══════════════════════════════════════════════════════════════════════════════

// OfferYear is one instance of a degree program in a given academic year.
// The legacy key of the hierarchy; newer records are keyed by
// EducationGroupYear as well.
type OfferYear struct {
	ID             uuid.UUID
	AcademicYearID uuid.UUID
	Acronym        string
	Title          string
}

// EducationGroupYear is the successor key for a program instance.
type EducationGroupYear struct {
	ID             uuid.UUID
	AcademicYearID uuid.UUID
	Acronym        string
}

// Enrollment is a student's registration to an offer year. The deadline
// engine treats it as an opaque key.
type Enrollment struct {
	ID          uuid.UUID
	OfferYearID uuid.UUID
	StudentID   uuid.UUID
}

// ══════════════════════════════════════════════════════════════════════════════
// OFFER YEAR CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// YearCalendar is the per-offer override of an academic calendar for a given
// education group year. Dates are optional; when set they must respect
// chronology and stay within the parent calendar's range. A successful write
// publishes EventOfferCalendarChanged.
//
// At most one YearCalendar exists per (academic calendar, education group
// year) pair.
type YearCalendar struct {
	ID                   uuid.UUID  `json:"id"`
	AcademicCalendarID   uuid.UUID  `json:"academic_calendar_id" validate:"required"`
	OfferYearID          uuid.UUID  `json:"offer_year_id" validate:"required"`
	EducationGroupYearID uuid.UUID  `json:"education_group_year_id" validate:"required"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`

	// Customized marks calendars whose end date was set by a program
	// manager; cascading academic calendar updates then only move the
	// start date.
	Customized bool      `json:"customized"`
	Changed    time.Time `json:"changed"`

	// AcademicCalendar is the hydrated parent, loaded by the repository.
	AcademicCalendar *calendar.AcademicCalendar `json:"-"`

	// OfferAcronym is carried for log context.
	OfferAcronym string `json:"-"`
}

// NewYearCalendar creates an offer year calendar adopting the parent
// calendar's dates.
func NewYearCalendar(parent *calendar.AcademicCalendar, offerYearID, educationGroupYearID uuid.UUID) *YearCalendar {
	return &YearCalendar{
		ID:                   uuid.New(),
		AcademicCalendarID:   parent.ID,
		OfferYearID:          offerYearID,
		EducationGroupYearID: educationGroupYearID,
		StartDate:            dateutil.ToDate(parent.StartDate),
		EndDate:              dateutil.ToDate(parent.EndDate),
		Changed:              time.Now().UTC(),
		AcademicCalendar:     parent,
	}
}

// Reference returns the parent calendar's reference tag.
func (c *YearCalendar) Reference() calendar.Reference {
	if c.AcademicCalendar == nil {
		return ""
	}
	return c.AcademicCalendar.Reference
}

// ImpactsDeadlines reports whether this calendar participates in deadline
// computation.
func (c *YearCalendar) ImpactsDeadlines() bool {
	return c.Reference().ImpactsDeadlines()
}

// DatesSet reports whether both override dates are present.
func (c *YearCalendar) DatesSet() bool {
	return c.StartDate != nil && c.EndDate != nil
}

// SyncDates applies a cascading date update coming from the parent academic
// calendar. Customized calendars keep their manager-set end date. Updates
// that would break chronology against the retained date are ignored, which
// matches how erroneous upstream data is tolerated.
func (c *YearCalendar) SyncDates(startDate, endDate *time.Time) bool {
	start := dateutil.ToDate(startDate)
	end := dateutil.ToDate(endDate)

	if c.Customized {
		if start == nil || c.EndDate == nil || !start.Before(*c.EndDate) {
			return false
		}
		if sameDate(start, c.StartDate) {
			return false
		}
		c.StartDate = start
		return true
	}

	if start == nil || end == nil || !start.Before(*end) {
		return false
	}
	if sameDate(start, c.StartDate) && sameDate(end, c.EndDate) {
		return false
	}
	c.StartDate = start
	c.EndDate = end
	return true
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Validate checks chronology and containment within the parent calendar.
// The validation layer reports the same rules bound to field names; this
// method is the entity-level guard used by tests and direct callers.
func (c *YearCalendar) Validate() error {
	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		return shared.NewDomainError("offer", "Validate",
			shared.ErrChronologyViolation, "offer calendar start date after end date")
	}
	if c.AcademicCalendar != nil {
		for _, d := range []*time.Time{c.StartDate, c.EndDate} {
			if d != nil && !c.AcademicCalendar.ContainsDate(*d) {
				return shared.NewDomainError("offer", "Validate",
					shared.ErrDateOutOfParentRange,
					fmt.Sprintf("%s outside parent calendar range", dateutil.FormatDateStr(*d)))
			}
		}
	}
	return nil
}

// String returns a display name for logs.
func (c *YearCalendar) String() string {
	return fmt.Sprintf("%s - %s", c.AcademicCalendar, c.OfferAcronym)
}
