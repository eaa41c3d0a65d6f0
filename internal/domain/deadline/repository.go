package deadline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
)

// ComputedUpdate carries the write-back of one recomputed row. Both fields
// are written atomically.
type ComputedUpdate struct {
	ID            uuid.UUID
	Deadline      time.Time
	DeadlineTutor int
}

// Repository defines storage operations for session exam deadlines.
type Repository interface {
	// Save inserts or updates a full row, including the deliberation date.
	Save(ctx context.Context, d *SessionExamDeadline) error

	// Get returns a row by ID. Returns ErrDeadlineNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*SessionExamDeadline, error)

	// ListByOfferAndSession returns all rows of an offer year at a session
	// number. This is the batched read the computer iterates.
	ListByOfferAndSession(ctx context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) ([]*SessionExamDeadline, error)

	// UpdateComputed writes back the computed fields of the given rows in
	// one batch. Only rows whose values changed are passed in.
	UpdateComputed(ctx context.Context, updates []ComputedUpdate) error
}
