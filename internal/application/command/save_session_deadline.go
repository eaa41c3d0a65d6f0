package command

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
// SAVE SESSION DEADLINE COMMAND
// Creates or updates a per-student session exam deadline row, typically to
// set or clear the student's deliberation date. The deliberation change
// event is published only when the date actually differs from the value
// the row was loaded with, so repeated saves of the same date stay silent.
// ══════════════════════════════════════════════════════════════════════════════

// SaveSessionDeadlineCommand contains the data to save a session deadline.
type SaveSessionDeadlineCommand struct {
	// ID identifies an existing row. Zero means create.
	ID uuid.UUID

	// OfferEnrollmentID and OfferYearID key the student enrollment. Only
	// read on create.
	OfferEnrollmentID uuid.UUID
	OfferYearID       uuid.UUID

	// NumberSession is the exam session. Only read on create.
	NumberSession calendar.NumberSession

	// Deadline seeds the computed deadline on create. The computer
	// overwrites it as soon as a calendar event fires.
	Deadline time.Time

	// DeliberationDate is the per-student override. Nil clears it.
	DeliberationDate *time.Time
}

// Validate checks the session number on create.
func (c SaveSessionDeadlineCommand) Validate() error {
	if c.ID == uuid.Nil && !c.NumberSession.IsValid() {
		return shared.ErrInvalidSessionNumber
	}
	return nil
}

// SaveSessionDeadlineResult contains the outcome of the save.
type SaveSessionDeadlineResult struct {
	// DeadlineID is the ID of the saved row.
	DeadlineID uuid.UUID

	// Created reports whether the row was inserted rather than updated.
	Created bool

	// DeliberationChanged reports whether the deliberation date moved and
	// the change event was published.
	DeliberationChanged bool
}

// SaveSessionDeadlineHandler handles SaveSessionDeadlineCommand.
type SaveSessionDeadlineHandler struct {
	deadlineRepo deadline.Repository
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewSaveSessionDeadlineHandler creates the handler.
func NewSaveSessionDeadlineHandler(
	deadlineRepo deadline.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *SaveSessionDeadlineHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SaveSessionDeadlineHandler{
		deadlineRepo: deadlineRepo,
		publisher:    publisher,
		logger:       logger.With("command", "save_session_deadline"),
	}
}

// Handle executes the command.
func (h *SaveSessionDeadlineHandler) Handle(ctx context.Context, cmd SaveSessionDeadlineCommand) (*SaveSessionDeadlineResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sed, created, err := h.loadOrCreate(ctx, cmd)
	if err != nil {
		return nil, err
	}

	sed.SetDeliberationDate(cmd.DeliberationDate)
	deliberationChanged := sed.DeliberationDateChanged()
	sed.Changed = time.Now().UTC()

	if err := h.deadlineRepo.Save(ctx, sed); err != nil {
		return nil, fmt.Errorf("save session exam deadline: %w", err)
	}

	h.logger.Info("session exam deadline saved",
		"session_exam_deadline", sed.String(),
		"created", created,
		"deliberation_changed", deliberationChanged,
	)

	if deliberationChanged {
		evt := shared.NewStudentDeliberationChangedEvent(sed.ID, sed.OfferEnrollmentID, int(sed.NumberSession))
		if err := h.publisher.Publish(evt); err != nil {
			h.logger.Error("deliberation change publish failed",
				"session_exam_deadline", sed.String(),
				"error", err,
			)
		}
	}

	return &SaveSessionDeadlineResult{
		DeadlineID:          sed.ID,
		Created:             created,
		DeliberationChanged: deliberationChanged,
	}, nil
}

func (h *SaveSessionDeadlineHandler) loadOrCreate(ctx context.Context, cmd SaveSessionDeadlineCommand) (*deadline.SessionExamDeadline, bool, error) {
	if cmd.ID == uuid.Nil {
		d := deadline.New(cmd.OfferEnrollmentID, cmd.OfferYearID, cmd.NumberSession, *dateutil.ToDate(&cmd.Deadline))
		return d, true, nil
	}

	sed, err := h.deadlineRepo.Get(ctx, cmd.ID)
	if err != nil {
		return nil, false, fmt.Errorf("get session exam deadline: %w", err)
	}
	return sed, false, nil
}
