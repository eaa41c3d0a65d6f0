package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/internal/validation"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE OFFER CALENDAR COMMAND
// Creates or updates the per-offer override of an academic calendar. Dates
// are optional, but when set they must respect chronology and stay inside
// the parent calendar's range. Setting the end date by hand marks the
// calendar as customized, which exempts that date from future cascades.
// ══════════════════════════════════════════════════════════════════════════════

// SaveOfferCalendarCommand contains the data to save an offer year calendar.
type SaveOfferCalendarCommand struct {
	// ID identifies an existing row. Zero means create.
	ID uuid.UUID

	// AcademicCalendarID is the parent academic calendar.
	AcademicCalendarID uuid.UUID

	// OfferYearID and EducationGroupYearID key the program instance.
	OfferYearID          uuid.UUID
	EducationGroupYearID uuid.UUID

	// StartDate and EndDate are the optional per-offer overrides.
	StartDate *time.Time
	EndDate   *time.Time

	// Customized marks the end date as manager-set.
	Customized bool
}

// SaveOfferCalendarResult contains the outcome of the save.
type SaveOfferCalendarResult struct {
	// CalendarID is the ID of the saved row.
	CalendarID uuid.UUID

	// Created reports whether the row was inserted rather than updated.
	Created bool
}

// SaveOfferCalendarHandler handles SaveOfferCalendarCommand.
type SaveOfferCalendarHandler struct {
	calendarRepo calendar.Repository
	offerRepo    offer.Repository
	validator    *validation.Validator
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewSaveOfferCalendarHandler creates the handler.
func NewSaveOfferCalendarHandler(
	calendarRepo calendar.Repository,
	offerRepo offer.Repository,
	validator *validation.Validator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *SaveOfferCalendarHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SaveOfferCalendarHandler{
		calendarRepo: calendarRepo,
		offerRepo:    offerRepo,
		validator:    validator,
		publisher:    publisher,
		logger:       logger.With("command", "save_offer_calendar"),
	}
}

// Handle executes the command.
func (h *SaveOfferCalendarHandler) Handle(ctx context.Context, cmd SaveOfferCalendarCommand) (*SaveOfferCalendarResult, error) {
	parent, err := h.calendarRepo.GetAcademicCalendar(ctx, cmd.AcademicCalendarID)
	if err != nil {
		return nil, fmt.Errorf("get parent calendar: %w", err)
	}

	oyc, created, err := h.loadOrCreate(ctx, cmd, parent)
	if err != nil {
		return nil, err
	}

	oyc.AcademicCalendarID = parent.ID
	oyc.AcademicCalendar = parent
	oyc.OfferYearID = cmd.OfferYearID
	oyc.EducationGroupYearID = cmd.EducationGroupYearID
	oyc.StartDate = dateutil.ToDate(cmd.StartDate)
	oyc.EndDate = dateutil.ToDate(cmd.EndDate)
	oyc.Customized = cmd.Customized
	oyc.Changed = time.Now().UTC()

	if err := h.validator.Struct(*oyc); err != nil {
		h.logger.Warn("offer year calendar rejected",
			"offer_calendar", oyc.String(),
			"error", err,
		)
		return nil, err
	}

	if err := h.offerRepo.SaveYearCalendar(ctx, oyc); err != nil {
		return nil, fmt.Errorf("save offer year calendar: %w", err)
	}

	h.logger.Info("offer year calendar saved",
		"offer_calendar", oyc.String(),
		"created", created,
	)

	evt := shared.NewOfferCalendarChangedEvent(oyc.ID, parent.ID, string(parent.Reference))
	if err := h.publisher.Publish(evt); err != nil {
		h.logger.Error("offer calendar change publish failed",
			"offer_calendar", oyc.String(),
			"error", err,
		)
	}

	return &SaveOfferCalendarResult{CalendarID: oyc.ID, Created: created}, nil
}

func (h *SaveOfferCalendarHandler) loadOrCreate(ctx context.Context, cmd SaveOfferCalendarCommand, parent *calendar.AcademicCalendar) (*offer.YearCalendar, bool, error) {
	if cmd.ID == uuid.Nil {
		return offer.NewYearCalendar(parent, cmd.OfferYearID, cmd.EducationGroupYearID), true, nil
	}

	oyc, err := h.offerRepo.GetYearCalendar(ctx, cmd.ID)
	if err != nil {
		if shared.IsNotFound(err) {
			oyc := offer.NewYearCalendar(parent, cmd.OfferYearID, cmd.EducationGroupYearID)
			oyc.ID = cmd.ID
			return oyc, true, nil
		}
		return nil, false, fmt.Errorf("get offer year calendar: %w", err)
	}
	return oyc, false, nil
}
