// Package command contains the write operations of the assessment hub.
// Each handler validates its input, persists through a domain repository
// and publishes the corresponding change event only after the write has
// committed, so event handlers always observe committed state.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/internal/validation"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE ACADEMIC CALENDAR COMMAND
// Creates or updates an institution-wide academic calendar. Both dates are
// mandatory; a chronology violation or a missing date rejects the save
// before anything is written.
// ══════════════════════════════════════════════════════════════════════════════

// SaveAcademicCalendarCommand contains the data to save an academic calendar.
type SaveAcademicCalendarCommand struct {
	// ID identifies an existing calendar. Zero means create.
	ID uuid.UUID

	// AcademicYearID is the parent academic year.
	AcademicYearID uuid.UUID

	// Title is the display name of the calendar.
	Title string

	// Description is optional free text.
	Description string

	// Reference is the calendar's type tag.
	Reference calendar.Reference

	// StartDate and EndDate bound the calendar. Mandatory.
	StartDate *time.Time
	EndDate   *time.Time
}

// Validate checks the closed-set fields before the struct validator runs.
func (c SaveAcademicCalendarCommand) Validate() error {
	if !c.Reference.IsValid() {
		return shared.ErrInvalidReference
	}
	return nil
}

// SaveAcademicCalendarResult contains the outcome of the save.
type SaveAcademicCalendarResult struct {
	// CalendarID is the ID of the saved calendar.
	CalendarID uuid.UUID

	// Created reports whether the row was inserted rather than updated.
	Created bool
}

// SaveAcademicCalendarHandler handles SaveAcademicCalendarCommand.
type SaveAcademicCalendarHandler struct {
	calendarRepo calendar.Repository
	validator    *validation.Validator
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewSaveAcademicCalendarHandler creates the handler.
func NewSaveAcademicCalendarHandler(
	calendarRepo calendar.Repository,
	validator *validation.Validator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *SaveAcademicCalendarHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SaveAcademicCalendarHandler{
		calendarRepo: calendarRepo,
		validator:    validator,
		publisher:    publisher,
		logger:       logger.With("command", "save_academic_calendar"),
	}
}

// Handle executes the command.
func (h *SaveAcademicCalendarHandler) Handle(ctx context.Context, cmd SaveAcademicCalendarCommand) (*SaveAcademicCalendarResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cal, created, err := h.loadOrCreate(ctx, cmd)
	if err != nil {
		return nil, err
	}

	cal.AcademicYearID = cmd.AcademicYearID
	cal.Title = cmd.Title
	cal.Description = cmd.Description
	cal.Reference = cmd.Reference
	cal.StartDate = dateutil.ToDate(cmd.StartDate)
	cal.EndDate = dateutil.ToDate(cmd.EndDate)
	cal.Changed = time.Now().UTC()

	if err := h.validator.Struct(*cal); err != nil {
		h.logger.Warn("academic calendar rejected",
			"calendar", cal.String(),
			"error", err,
		)
		return nil, err
	}

	if err := h.calendarRepo.SaveAcademicCalendar(ctx, cal); err != nil {
		return nil, fmt.Errorf("save academic calendar: %w", err)
	}

	h.logger.Info("academic calendar saved",
		"calendar", cal.String(),
		"created", created,
	)

	// Post-commit: the event goes out only after the repository write
	// succeeded.
	evt := shared.NewCalendarChangedEvent(cal.ID, string(cal.Reference))
	if err := h.publisher.Publish(evt); err != nil {
		h.logger.Error("calendar change publish failed",
			"calendar", cal.String(),
			"error", err,
		)
	}

	return &SaveAcademicCalendarResult{CalendarID: cal.ID, Created: created}, nil
}

func (h *SaveAcademicCalendarHandler) loadOrCreate(ctx context.Context, cmd SaveAcademicCalendarCommand) (*calendar.AcademicCalendar, bool, error) {
	if cmd.ID == uuid.Nil {
		return &calendar.AcademicCalendar{ID: uuid.New()}, true, nil
	}

	cal, err := h.calendarRepo.GetAcademicCalendar(ctx, cmd.ID)
	if err != nil {
		if shared.IsNotFound(err) {
			return &calendar.AcademicCalendar{ID: cmd.ID}, true, nil
		}
		return nil, false, fmt.Errorf("get academic calendar: %w", err)
	}
	return cal, false, nil
}
