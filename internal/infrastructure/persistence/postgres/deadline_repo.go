package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/deadline"
	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEADLINE REPOSITORY IMPLEMENTATION
// Rows scanned here call MarkLoaded so the deliberation-change detection in
// the command layer compares against committed state.
// ══════════════════════════════════════════════════════════════════════════════

// DeadlineRepository implements deadline.Repository for PostgreSQL.
type DeadlineRepository struct {
	conn *Connection
}

// NewDeadlineRepository creates a new DeadlineRepository.
func NewDeadlineRepository(conn *Connection) *DeadlineRepository {
	return &DeadlineRepository{conn: conn}
}

// Save inserts or updates a full deadline row.
func (r *DeadlineRepository) Save(ctx context.Context, d *deadline.SessionExamDeadline) error {
	query := `
		INSERT INTO session_exam_deadlines (
			id, offer_enrollment_id, offer_year_id, number_session,
			deadline, deadline_tutor, deliberation_date, changed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			deadline = EXCLUDED.deadline,
			deadline_tutor = EXCLUDED.deadline_tutor,
			deliberation_date = EXCLUDED.deliberation_date,
			changed = EXCLUDED.changed
	`

	_, err := r.conn.Exec(ctx, query,
		d.ID,
		d.OfferEnrollmentID,
		d.OfferYearID,
		int(d.NumberSession),
		d.Deadline,
		d.DeadlineTutor,
		d.DeliberationDate,
		d.Changed,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("deadline", "Save", shared.ErrAlreadyExists, "duplicate session exam deadline", err)
		}
		return fmt.Errorf("save session exam deadline: %w", err)
	}
	return nil
}

// Get returns a deadline row by ID.
func (r *DeadlineRepository) Get(ctx context.Context, id uuid.UUID) (*deadline.SessionExamDeadline, error) {
	query := `
		SELECT id, offer_enrollment_id, offer_year_id, number_session,
			   deadline, deadline_tutor, deliberation_date, changed
		FROM session_exam_deadlines
		WHERE id = $1
	`

	d, err := scanDeadline(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrDeadlineNotFound
		}
		return nil, fmt.Errorf("get session exam deadline: %w", err)
	}
	return d, nil
}

// ListByOfferAndSession returns all deadline rows of an offer year at a
// session number.
func (r *DeadlineRepository) ListByOfferAndSession(ctx context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) ([]*deadline.SessionExamDeadline, error) {
	query := `
		SELECT id, offer_enrollment_id, offer_year_id, number_session,
			   deadline, deadline_tutor, deliberation_date, changed
		FROM session_exam_deadlines
		WHERE offer_year_id = $1 AND number_session = $2
	`

	rows, err := r.conn.Query(ctx, query, offerYearID, int(numberSession))
	if err != nil {
		return nil, fmt.Errorf("list session exam deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []*deadline.SessionExamDeadline
	for rows.Next() {
		d, err := scanDeadline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session exam deadline: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

// UpdateComputed writes back the computed fields of the given rows in one
// batch inside a transaction, so a multi-row recomputation lands atomically.
func (r *DeadlineRepository) UpdateComputed(ctx context.Context, updates []deadline.ComputedUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	query := `
		UPDATE session_exam_deadlines
		SET deadline = $2, deadline_tutor = $3, changed = NOW()
		WHERE id = $1
	`

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(query, u.ID, u.Deadline, u.DeadlineTutor)
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := range updates {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("update computed deadline %s: %w", updates[i].ID, err)
			}
		}
		return results.Close()
	})
}

func scanDeadline(row rowScanner) (*deadline.SessionExamDeadline, error) {
	d := &deadline.SessionExamDeadline{}
	var numberSession int

	err := row.Scan(
		&d.ID,
		&d.OfferEnrollmentID,
		&d.OfferYearID,
		&numberSession,
		&d.Deadline,
		&d.DeadlineTutor,
		&d.DeliberationDate,
		&d.Changed,
	)
	if err != nil {
		return nil, err
	}

	d.NumberSession = calendar.NumberSession(numberSession)
	d.MarkLoaded()
	return d, nil
}
