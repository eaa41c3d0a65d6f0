package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// OFFER REPOSITORY IMPLEMENTATION
// Offer year calendar reads hydrate the parent academic calendar and carry
// the offer acronym, so every row coming out of here is ready for the
// lookup layer and for log context.
// ══════════════════════════════════════════════════════════════════════════════

// OfferRepository implements offer.Repository for PostgreSQL.
type OfferRepository struct {
	conn *Connection
}

// NewOfferRepository creates a new OfferRepository.
func NewOfferRepository(conn *Connection) *OfferRepository {
	return &OfferRepository{conn: conn}
}

// yearCalendarSelect is the hydrating join shared by all YearCalendar reads.
const yearCalendarSelect = `
	SELECT oyc.id, oyc.academic_calendar_id, oyc.offer_year_id,
		   oyc.education_group_year_id, oyc.start_date, oyc.end_date,
		   oyc.customized, oyc.changed,
		   ac.academic_year_id, ac.title, ac.description, ac.reference,
		   ac.start_date, ac.end_date, ac.changed,
		   oy.acronym
	FROM offer_year_calendars oyc
	JOIN academic_calendars ac ON ac.id = oyc.academic_calendar_id
	JOIN offer_years oy ON oy.id = oyc.offer_year_id
`

// SaveYearCalendar inserts or updates an offer year calendar.
func (r *OfferRepository) SaveYearCalendar(ctx context.Context, cal *offer.YearCalendar) error {
	query := `
		INSERT INTO offer_year_calendars (
			id, academic_calendar_id, offer_year_id, education_group_year_id,
			start_date, end_date, customized, changed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			customized = EXCLUDED.customized,
			changed = EXCLUDED.changed
	`

	_, err := r.conn.Exec(ctx, query,
		cal.ID,
		cal.AcademicCalendarID,
		cal.OfferYearID,
		nullableUUID(cal.EducationGroupYearID),
		cal.StartDate,
		cal.EndDate,
		cal.Customized,
		cal.Changed,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrOfferCalendarExists
		}
		return fmt.Errorf("save offer year calendar: %w", err)
	}
	return nil
}

// GetYearCalendar returns an offer year calendar by ID.
func (r *OfferRepository) GetYearCalendar(ctx context.Context, id uuid.UUID) (*offer.YearCalendar, error) {
	query := yearCalendarSelect + ` WHERE oyc.id = $1`

	cal, err := scanYearCalendar(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrOfferCalendarNotFound
		}
		return nil, fmt.Errorf("get offer year calendar: %w", err)
	}
	return cal, nil
}

// FindYearCalendars returns the calendars of an education group year whose
// parent has the given reference and session number.
func (r *OfferRepository) FindYearCalendars(ctx context.Context, educationGroupYearID uuid.UUID, reference calendar.Reference, numberSession calendar.NumberSession) ([]*offer.YearCalendar, error) {
	query := yearCalendarSelect + `
		JOIN session_exam_calendars sec ON sec.academic_calendar_id = ac.id
		WHERE oyc.education_group_year_id = $1
		  AND ac.reference = $2
		  AND sec.number_session = $3
	`

	return r.queryYearCalendars(ctx, query, educationGroupYearID, string(reference), int(numberSession))
}

// FindByOfferYear returns the calendars of an offer year whose parent has
// the given reference and session number.
func (r *OfferRepository) FindByOfferYear(ctx context.Context, offerYearID uuid.UUID, reference calendar.Reference, numberSession calendar.NumberSession) ([]*offer.YearCalendar, error) {
	query := yearCalendarSelect + `
		JOIN session_exam_calendars sec ON sec.academic_calendar_id = ac.id
		WHERE oyc.offer_year_id = $1
		  AND ac.reference = $2
		  AND sec.number_session = $3
	`

	return r.queryYearCalendars(ctx, query, offerYearID, string(reference), int(numberSession))
}

// ListByAcademicCalendar returns all offer year calendars linked to an
// academic calendar.
func (r *OfferRepository) ListByAcademicCalendar(ctx context.Context, academicCalendarID uuid.UUID) ([]*offer.YearCalendar, error) {
	query := yearCalendarSelect + ` WHERE oyc.academic_calendar_id = $1 ORDER BY oy.acronym`

	return r.queryYearCalendars(ctx, query, academicCalendarID)
}

// SaveOfferYear inserts or updates an offer year.
func (r *OfferRepository) SaveOfferYear(ctx context.Context, oy *offer.OfferYear) error {
	query := `
		INSERT INTO offer_years (id, academic_year_id, acronym, title)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			acronym = EXCLUDED.acronym,
			title = EXCLUDED.title
	`

	_, err := r.conn.Exec(ctx, query, oy.ID, oy.AcademicYearID, oy.Acronym, oy.Title)
	if err != nil {
		return fmt.Errorf("save offer year: %w", err)
	}
	return nil
}

// SaveEducationGroupYear inserts or updates an education group year.
func (r *OfferRepository) SaveEducationGroupYear(ctx context.Context, egy *offer.EducationGroupYear) error {
	query := `
		INSERT INTO education_group_years (id, academic_year_id, acronym)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			acronym = EXCLUDED.acronym
	`

	_, err := r.conn.Exec(ctx, query, egy.ID, egy.AcademicYearID, egy.Acronym)
	if err != nil {
		return fmt.Errorf("save education group year: %w", err)
	}
	return nil
}

// SaveEnrollment inserts or updates a student enrollment.
func (r *OfferRepository) SaveEnrollment(ctx context.Context, e *offer.Enrollment) error {
	query := `
		INSERT INTO offer_enrollments (id, offer_year_id, student_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, e.ID, e.OfferYearID, e.StudentID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("offer", "SaveEnrollment", shared.ErrAlreadyExists, "duplicate enrollment", err)
		}
		return fmt.Errorf("save enrollment: %w", err)
	}
	return nil
}

func (r *OfferRepository) queryYearCalendars(ctx context.Context, query string, args ...interface{}) ([]*offer.YearCalendar, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query offer year calendars: %w", err)
	}
	defer rows.Close()

	var calendars []*offer.YearCalendar
	for rows.Next() {
		cal, err := scanYearCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer year calendar: %w", err)
		}
		calendars = append(calendars, cal)
	}
	return calendars, rows.Err()
}

func scanYearCalendar(row rowScanner) (*offer.YearCalendar, error) {
	oyc := &offer.YearCalendar{}
	parent := &calendar.AcademicCalendar{}
	var egyID *uuid.UUID
	var reference string
	var parentStart, parentEnd time.Time

	err := row.Scan(
		&oyc.ID,
		&oyc.AcademicCalendarID,
		&oyc.OfferYearID,
		&egyID,
		&oyc.StartDate,
		&oyc.EndDate,
		&oyc.Customized,
		&oyc.Changed,
		&parent.AcademicYearID,
		&parent.Title,
		&parent.Description,
		&reference,
		&parentStart,
		&parentEnd,
		&parent.Changed,
		&oyc.OfferAcronym,
	)
	if err != nil {
		return nil, err
	}

	if egyID != nil {
		oyc.EducationGroupYearID = *egyID
	}
	parent.ID = oyc.AcademicCalendarID
	parent.Reference = calendar.Reference(reference)
	parent.StartDate = &parentStart
	parent.EndDate = &parentEnd
	oyc.AcademicCalendar = parent
	return oyc, nil
}

// nullableUUID maps the zero UUID to SQL NULL. Legacy offer year calendars
// predate education group years.
func nullableUUID(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}
