// Package engine implements the deadline computer: the event-driven
// recomputation of per-student score encoding deadlines in response to
// changes anywhere in the calendar hierarchy.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/deadline"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/pkg/dateutil"
	"github.com/campusops/assessment-hub/pkg/retry"
)

// SnapshotInvalidator drops cached deadline snapshots after a write-back.
// Implemented by the Redis deadline cache; a nil invalidator disables
// caching.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) error
}

// Config tunes the computer.
type Config struct {
	// LenientLookup picks the most recently changed row when a paired
	// calendar lookup is ambiguous, instead of failing the lookup.
	LenientLookup bool

	// Retrier controls per-row write retries after a failed batch.
	Retrier *retry.Retrier

	// Logger for structured logging.
	Logger *slog.Logger
}

// Computer recomputes per-student deadlines. It is best-effort per row: a
// failing row write or a missing paired calendar never aborts a batch.
type Computer struct {
	calendars calendar.Repository
	offers    offer.Repository
	deadlines deadline.Repository
	cache     SnapshotInvalidator

	lenientLookup bool
	retrier       *retry.Retrier
	logger        *slog.Logger
}

// New creates a deadline computer.
func New(calendars calendar.Repository, offers offer.Repository, deadlines deadline.Repository, cache SnapshotInvalidator, cfg Config) *Computer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retrier := cfg.Retrier
	if retrier == nil {
		retrier = retry.DatabaseRetrier()
	}

	return &Computer{
		calendars:     calendars,
		offers:        offers,
		deadlines:     deadlines,
		cache:         cache,
		lenientLookup: cfg.LenientLookup,
		retrier:       retrier,
		logger:        logger.With("component", "deadline_computer"),
	}
}

// Compute recomputes the deadlines affected by a change to the given offer
// year calendar. With a nil target list it covers every student deadline of
// the offer at the calendar's session number; otherwise exactly the given
// rows.
//
// Calendars whose reference is neither DELIBERATION nor
// SCORES_EXAM_SUBMISSION never impact deadlines and make the call a no-op.
func (c *Computer) Compute(ctx context.Context, oyc *offer.YearCalendar, targets []*deadline.SessionExamDeadline) error {
	if oyc == nil || !oyc.ImpactsDeadlines() {
		return nil
	}

	oycDeliberation, err := c.lookupOrNil(ctx, oyc, calendar.RefDeliberation)
	if err != nil {
		return err
	}
	oycSubmission, err := c.lookupOrNil(ctx, oyc, calendar.RefScoresExamSubmission)
	if err != nil {
		return err
	}

	// The three calendar-level candidate inputs. Any of them may be
	// absent; the per-student deliberation date completes the tuple below.
	var endDateAcademic, endDateOffer, tutorSubmissionEnd *time.Time
	if oycSubmission != nil && oycSubmission.AcademicCalendar != nil {
		endDateAcademic = dateutil.ToDate(oycSubmission.AcademicCalendar.EndDate)
	}
	if oycDeliberation != nil {
		endDateOffer = dateutil.OneDayBefore(oycDeliberation.EndDate)
	}
	if oycSubmission != nil {
		tutorSubmissionEnd = dateutil.ToDate(oycSubmission.EndDate)
	}

	if targets == nil {
		targets, err = c.listTargets(ctx, oyc)
		if err != nil || targets == nil {
			return err
		}
	}

	updates := make([]deadline.ComputedUpdate, 0, len(targets))
	dirty := make(map[offerSession]struct{})
	for _, sed := range targets {
		endDateStudent := dateutil.OneDayBefore(sed.DeliberationDate)

		newDeadline, err := dateutil.MinDate(endDateAcademic, endDateOffer, endDateStudent)
		if err != nil {
			c.logger.Warn("no candidate dates, row skipped",
				"session_exam_deadline", sed.String(),
				"offer", oyc.OfferAcronym,
			)
			continue
		}
		newDeadlineTutor := dateutil.TutorDelta(&newDeadline, tutorSubmissionEnd)

		if sed.ApplyComputed(newDeadline, newDeadlineTutor) {
			updates = append(updates, deadline.ComputedUpdate{
				ID:            sed.ID,
				Deadline:      sed.Deadline,
				DeadlineTutor: sed.DeadlineTutor,
			})
			dirty[offerSession{sed.OfferYearID, sed.NumberSession}] = struct{}{}
		}
	}

	if len(updates) == 0 {
		return nil
	}
	c.writeBack(ctx, updates)
	c.invalidate(ctx, dirty)

	c.logger.Debug("deadlines recomputed",
		"offer", oyc.OfferAcronym,
		"targets", len(targets),
		"written", len(updates),
	)
	return nil
}

// ComputeByStudent recomputes the deadline of exactly one student, after a
// change to that student's deliberation date. It locates the DELIBERATION
// offer calendar of the row's offer and session and delegates to Compute
// with a single target. A failed lookup is logged and the call is a no-op.
func (c *Computer) ComputeByStudent(ctx context.Context, sed *deadline.SessionExamDeadline) error {
	matches, err := c.offers.FindByOfferYear(ctx, sed.OfferYearID, calendar.RefDeliberation, sed.NumberSession)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		c.logger.Warn("no offer year calendar for student deadline",
			"offer_year_id", sed.OfferYearID,
			"reference", calendar.RefDeliberation,
			"number_session", int(sed.NumberSession),
		)
		return nil
	}
	return c.Compute(ctx, matches[0], []*deadline.SessionExamDeadline{sed})
}

// RecomputeAll is the fan-out driver: one academic calendar change becomes
// one Compute call per linked offer year calendar. Only calendars of the
// SCORES_EXAM_SUBMISSION reference fan out.
func (c *Computer) RecomputeAll(ctx context.Context, ac *calendar.AcademicCalendar) error {
	if ac == nil || ac.Reference != calendar.RefScoresExamSubmission {
		return nil
	}

	offerCalendars, err := c.offers.ListByAcademicCalendar(ctx, ac.ID)
	if err != nil {
		return err
	}

	for _, oyc := range offerCalendars {
		if err := c.Compute(ctx, oyc, nil); err != nil {
			c.logger.Error("offer recomputation failed",
				"offer", oyc.OfferAcronym,
				"calendar", ac.String(),
				"error", err,
			)
		}
	}
	return nil
}

type offerSession struct {
	offerYearID   uuid.UUID
	numberSession calendar.NumberSession
}

// listTargets enumerates the student deadlines of the offer at the session
// number of the triggering calendar. A session-less calendar yields no
// targets and a warning.
func (c *Computer) listTargets(ctx context.Context, oyc *offer.YearCalendar) ([]*deadline.SessionExamDeadline, error) {
	numberSession, err := c.calendars.GetSessionNumber(ctx, oyc.AcademicCalendarID)
	if err != nil {
		c.logger.Warn("no session number for academic calendar",
			"academic_calendar_id", oyc.AcademicCalendarID,
			"offer", oyc.OfferAcronym,
			"error", err,
		)
		return nil, nil
	}
	return c.deadlines.ListByOfferAndSession(ctx, oyc.OfferYearID, numberSession)
}

// writeBack persists the recomputed rows, batched first. When the batch
// fails the rows are retried one by one so a single bad row cannot poison
// the whole fan-out.
func (c *Computer) writeBack(ctx context.Context, updates []deadline.ComputedUpdate) {
	if err := c.deadlines.UpdateComputed(ctx, updates); err == nil {
		return
	} else {
		c.logger.Warn("batched deadline write failed, retrying per row", "rows", len(updates), "error", err)
	}

	for _, u := range updates {
		u := u
		err := c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.deadlines.UpdateComputed(ctx, []deadline.ComputedUpdate{u})
		})
		if err != nil {
			c.logger.Error("deadline row write failed",
				"session_exam_deadline_id", u.ID,
				"error", err,
			)
		}
	}
}

// invalidate drops cached snapshots of the touched (offer, session) pairs.
func (c *Computer) invalidate(ctx context.Context, dirty map[offerSession]struct{}) {
	if c.cache == nil {
		return
	}
	for key := range dirty {
		if err := c.cache.Invalidate(ctx, key.offerYearID, key.numberSession); err != nil {
			c.logger.Warn("deadline cache invalidation failed", "error", err)
		}
	}
}
