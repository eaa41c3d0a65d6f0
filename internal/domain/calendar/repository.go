package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines storage operations for the calendar hierarchy.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// SaveAcademicYear inserts or updates an academic year.
	SaveAcademicYear(ctx context.Context, year *AcademicYear) error

	// GetAcademicYear returns an academic year by its number.
	// Returns ErrAcademicYearNotFound when absent.
	GetAcademicYear(ctx context.Context, year int) (*AcademicYear, error)

	// SaveAcademicCalendar inserts or updates an academic calendar.
	// Validation happens in the command layer before this is called.
	SaveAcademicCalendar(ctx context.Context, cal *AcademicCalendar) error

	// GetAcademicCalendar returns a calendar by ID.
	// Returns ErrAcademicCalendarNotFound when absent.
	GetAcademicCalendar(ctx context.Context, id uuid.UUID) (*AcademicCalendar, error)

	// OpenCalendars returns the calendars whose range is open at the given
	// moment (start inclusive, end exclusive).
	OpenCalendars(ctx context.Context, at time.Time) ([]*AcademicCalendar, error)

	// SaveSessionExamCalendar inserts the one-to-one session mapping of a
	// calendar.
	SaveSessionExamCalendar(ctx context.Context, sec *SessionExamCalendar) error

	// GetSessionNumber resolves the session number mapped to a calendar.
	// Returns ErrSessionNumberNotFound when the calendar is session-less.
	GetSessionNumber(ctx context.Context, academicCalendarID uuid.UUID) (NumberSession, error)
}
