package offer

import (
	"context"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
)

// Repository defines storage operations for offers and their calendars.
// YearCalendar reads always hydrate the parent academic calendar and the
// offer acronym, since both the lookup layer and logging depend on them.
type Repository interface {
	// SaveYearCalendar inserts or updates an offer year calendar.
	// Returns ErrOfferCalendarExists on a uniqueness violation of
	// (academic calendar, education group year).
	SaveYearCalendar(ctx context.Context, cal *YearCalendar) error

	// GetYearCalendar returns an offer year calendar by ID.
	// Returns ErrOfferCalendarNotFound when absent.
	GetYearCalendar(ctx context.Context, id uuid.UUID) (*YearCalendar, error)

	// FindYearCalendars returns the calendars of an education group year
	// whose parent has the given reference and session number. More than
	// one result means legacy data made the pair ambiguous; the caller
	// owns the policy.
	FindYearCalendars(ctx context.Context, educationGroupYearID uuid.UUID, reference calendar.Reference, numberSession calendar.NumberSession) ([]*YearCalendar, error)

	// FindByOfferYear returns the calendars of an offer year whose parent
	// has the given reference and session number. Legacy path used when a
	// row predates education group years.
	FindByOfferYear(ctx context.Context, offerYearID uuid.UUID, reference calendar.Reference, numberSession calendar.NumberSession) ([]*YearCalendar, error)

	// ListByAcademicCalendar returns all offer year calendars linked to an
	// academic calendar. Drives the fan-out.
	ListByAcademicCalendar(ctx context.Context, academicCalendarID uuid.UUID) ([]*YearCalendar, error)

	// SaveOfferYear inserts or updates an offer year.
	SaveOfferYear(ctx context.Context, oy *OfferYear) error

	// SaveEducationGroupYear inserts or updates an education group year.
	SaveEducationGroupYear(ctx context.Context, egy *EducationGroupYear) error

	// SaveEnrollment inserts or updates a student enrollment.
	SaveEnrollment(ctx context.Context, e *Enrollment) error
}
