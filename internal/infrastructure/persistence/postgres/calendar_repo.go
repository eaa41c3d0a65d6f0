package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CalendarRepository implements calendar.Repository for PostgreSQL.
type CalendarRepository struct {
	conn *Connection
}

// NewCalendarRepository creates a new CalendarRepository.
func NewCalendarRepository(conn *Connection) *CalendarRepository {
	return &CalendarRepository{conn: conn}
}

// SaveAcademicYear inserts or updates an academic year.
func (r *CalendarRepository) SaveAcademicYear(ctx context.Context, y *calendar.AcademicYear) error {
	query := `
		INSERT INTO academic_years (id, year, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			year = EXCLUDED.year,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date
	`

	_, err := r.conn.Exec(ctx, query, y.ID, y.Year, y.StartDate, y.EndDate)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("calendar", "SaveAcademicYear", shared.ErrAlreadyExists, "duplicate academic year", err)
		}
		return fmt.Errorf("save academic year: %w", err)
	}
	return nil
}

// GetAcademicYear returns an academic year by its number.
func (r *CalendarRepository) GetAcademicYear(ctx context.Context, year int) (*calendar.AcademicYear, error) {
	query := `
		SELECT id, year, start_date, end_date
		FROM academic_years
		WHERE year = $1
	`

	y := &calendar.AcademicYear{}
	err := r.conn.QueryRow(ctx, query, year).Scan(&y.ID, &y.Year, &y.StartDate, &y.EndDate)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAcademicYearNotFound
		}
		return nil, fmt.Errorf("get academic year: %w", err)
	}
	return y, nil
}

// SaveAcademicCalendar inserts or updates an academic calendar.
func (r *CalendarRepository) SaveAcademicCalendar(ctx context.Context, cal *calendar.AcademicCalendar) error {
	query := `
		INSERT INTO academic_calendars (
			id, academic_year_id, title, description, reference,
			start_date, end_date, changed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			academic_year_id = EXCLUDED.academic_year_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			reference = EXCLUDED.reference,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			changed = EXCLUDED.changed
	`

	_, err := r.conn.Exec(ctx, query,
		cal.ID,
		cal.AcademicYearID,
		cal.Title,
		cal.Description,
		string(cal.Reference),
		cal.StartDate,
		cal.EndDate,
		cal.Changed,
	)
	if err != nil {
		return fmt.Errorf("save academic calendar: %w", err)
	}
	return nil
}

// GetAcademicCalendar returns a calendar by ID.
func (r *CalendarRepository) GetAcademicCalendar(ctx context.Context, id uuid.UUID) (*calendar.AcademicCalendar, error) {
	query := `
		SELECT id, academic_year_id, title, description, reference,
			   start_date, end_date, changed
		FROM academic_calendars
		WHERE id = $1
	`

	cal, err := scanAcademicCalendar(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAcademicCalendarNotFound
		}
		return nil, fmt.Errorf("get academic calendar: %w", err)
	}
	return cal, nil
}

// OpenCalendars returns the calendars open at the given moment, start
// inclusive and end exclusive.
func (r *CalendarRepository) OpenCalendars(ctx context.Context, at time.Time) ([]*calendar.AcademicCalendar, error) {
	query := `
		SELECT id, academic_year_id, title, description, reference,
			   start_date, end_date, changed
		FROM academic_calendars
		WHERE start_date <= $1::date AND end_date > $1::date
		ORDER BY start_date, title
	`

	rows, err := r.conn.Query(ctx, query, at)
	if err != nil {
		return nil, fmt.Errorf("list open calendars: %w", err)
	}
	defer rows.Close()

	var calendars []*calendar.AcademicCalendar
	for rows.Next() {
		cal, err := scanAcademicCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan open calendar: %w", err)
		}
		calendars = append(calendars, cal)
	}
	return calendars, rows.Err()
}

// SaveSessionExamCalendar inserts or updates the session mapping of a
// calendar. The mapping is unique per academic calendar.
func (r *CalendarRepository) SaveSessionExamCalendar(ctx context.Context, sec *calendar.SessionExamCalendar) error {
	query := `
		INSERT INTO session_exam_calendars (id, academic_calendar_id, number_session)
		VALUES ($1, $2, $3)
		ON CONFLICT (academic_calendar_id) DO UPDATE SET
			number_session = EXCLUDED.number_session
	`

	_, err := r.conn.Exec(ctx, query, sec.ID, sec.AcademicCalendarID, int(sec.NumberSession))
	if err != nil {
		return fmt.Errorf("save session exam calendar: %w", err)
	}
	return nil
}

// GetSessionNumber resolves the session number mapped to a calendar.
func (r *CalendarRepository) GetSessionNumber(ctx context.Context, academicCalendarID uuid.UUID) (calendar.NumberSession, error) {
	query := `
		SELECT number_session
		FROM session_exam_calendars
		WHERE academic_calendar_id = $1
	`

	var n int
	err := r.conn.QueryRow(ctx, query, academicCalendarID).Scan(&n)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrSessionNumberNotFound
		}
		return 0, fmt.Errorf("get session number: %w", err)
	}
	return calendar.NumberSession(n), nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAcademicCalendar(row rowScanner) (*calendar.AcademicCalendar, error) {
	cal := &calendar.AcademicCalendar{}
	var reference string
	var startDate, endDate time.Time

	err := row.Scan(
		&cal.ID,
		&cal.AcademicYearID,
		&cal.Title,
		&cal.Description,
		&reference,
		&startDate,
		&endDate,
		&cal.Changed,
	)
	if err != nil {
		return nil, err
	}

	cal.Reference = calendar.Reference(reference)
	cal.StartDate = &startDate
	cal.EndDate = &endDate
	return cal, nil
}
