// Package query contains the read operations of the assessment hub. Reads
// never mutate rows; derived values such as the tutor deadline are computed
// at assembly time from the stored fields.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/deadline"
	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SESSION DEADLINES QUERY
// Returns the deadline rows of one offer year at one exam session, the view
// score encoders work from. Backed by a Redis snapshot that the computer
// invalidates after every write-back, so a cached response is never stale
// relative to committed deadline state.
// ══════════════════════════════════════════════════════════════════════════════

// GetSessionDeadlinesQuery contains the query parameters.
type GetSessionDeadlinesQuery struct {
	// OfferYearID keys the program instance.
	OfferYearID uuid.UUID

	// NumberSession is the exam session.
	NumberSession calendar.NumberSession
}

// Validate checks the query parameters.
func (q GetSessionDeadlinesQuery) Validate() error {
	if q.OfferYearID == uuid.Nil {
		return shared.ErrInvalidEntity
	}
	if !q.NumberSession.IsValid() {
		return shared.ErrInvalidSessionNumber
	}
	return nil
}

// SessionDeadlineDTO is the read model of one deadline row. The reached
// flags are recomputed against the current day on every read, including
// cache hits.
type SessionDeadlineDTO struct {
	SessionExamDeadlineID uuid.UUID  `json:"session_exam_deadline_id"`
	OfferEnrollmentID     uuid.UUID  `json:"offer_enrollment_id"`
	NumberSession         int        `json:"number_session"`
	Deadline              time.Time  `json:"deadline"`
	DeadlineTutor         int        `json:"deadline_tutor"`
	TutorDeadline         time.Time  `json:"tutor_deadline"`
	DeliberationDate      *time.Time `json:"deliberation_date,omitempty"`
	DeadlineReached       bool       `json:"deadline_reached"`
	TutorDeadlineReached  bool       `json:"tutor_deadline_reached"`
}

// DeadlineSnapshotCache caches the assembled rows per (offer, session).
// Implemented by the Redis deadline cache; nil disables caching.
type DeadlineSnapshotCache interface {
	GetSnapshot(ctx context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) ([]SessionDeadlineDTO, bool)
	SetSnapshot(ctx context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession, rows []SessionDeadlineDTO) error
}

// GetSessionDeadlinesHandler handles GetSessionDeadlinesQuery.
type GetSessionDeadlinesHandler struct {
	deadlineRepo deadline.Repository
	cache        DeadlineSnapshotCache
	logger       *slog.Logger
}

// NewGetSessionDeadlinesHandler creates the handler.
func NewGetSessionDeadlinesHandler(
	deadlineRepo deadline.Repository,
	cache DeadlineSnapshotCache,
	logger *slog.Logger,
) *GetSessionDeadlinesHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GetSessionDeadlinesHandler{
		deadlineRepo: deadlineRepo,
		cache:        cache,
		logger:       logger.With("query", "get_session_deadlines"),
	}
}

// Handle executes the query.
func (h *GetSessionDeadlinesHandler) Handle(ctx context.Context, q GetSessionDeadlinesQuery) ([]SessionDeadlineDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	today := time.Now().UTC()

	if h.cache != nil {
		if rows, ok := h.cache.GetSnapshot(ctx, q.OfferYearID, q.NumberSession); ok {
			refreshReachedFlags(rows, today)
			return rows, nil
		}
	}

	deadlines, err := h.deadlineRepo.ListByOfferAndSession(ctx, q.OfferYearID, q.NumberSession)
	if err != nil {
		return nil, fmt.Errorf("list session deadlines: %w", err)
	}

	rows := make([]SessionDeadlineDTO, 0, len(deadlines))
	for _, d := range deadlines {
		rows = append(rows, SessionDeadlineDTO{
			SessionExamDeadlineID: d.ID,
			OfferEnrollmentID:     d.OfferEnrollmentID,
			NumberSession:         int(d.NumberSession),
			Deadline:              d.Deadline,
			DeadlineTutor:         d.DeadlineTutor,
			TutorDeadline:         d.DeadlineTutorComputed(),
			DeliberationDate:      d.DeliberationDate,
		})
	}
	refreshReachedFlags(rows, today)

	if h.cache != nil {
		if err := h.cache.SetSnapshot(ctx, q.OfferYearID, q.NumberSession, rows); err != nil {
			h.logger.Warn("deadline snapshot cache write failed",
				"offer_year_id", q.OfferYearID,
				"error", err,
			)
		}
	}

	return rows, nil
}

func refreshReachedFlags(rows []SessionDeadlineDTO, today time.Time) {
	day := *dateutil.ToDate(&today)
	for i := range rows {
		rows[i].DeadlineReached = rows[i].Deadline.Before(day)
		rows[i].TutorDeadlineReached = rows[i].TutorDeadline.Before(day)
	}
}
