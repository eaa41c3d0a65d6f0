// Package eventhandler contains the domain event handlers that drive
// deadline propagation. Each handler reloads its aggregate by ID so it
// always observes committed state, then hands over to the deadline
// computer.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusops/assessment-hub/internal/application/engine"
	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// OnCalendarChangedHandler reacts to academic calendar writes. Two things
// happen, in order:
//
//  1. Date cascade: for cascading references the new academic dates are
//     pushed down to the linked offer year calendars. A customized offer
//     calendar keeps its own end date. Every synced row is saved and
//     republished as an offer calendar change, so its own recomputation
//     runs through the regular path.
//  2. Fan-out recomputation: for the scores submission reference the
//     academic end date is itself a deadline candidate, so every linked
//     offer gets recomputed even when its offer-level dates did not move.
type OnCalendarChangedHandler struct {
	calendarRepo calendar.Repository
	offerRepo    offer.Repository
	computer     *engine.Computer
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewOnCalendarChangedHandler creates the handler.
func NewOnCalendarChangedHandler(
	calendarRepo calendar.Repository,
	offerRepo offer.Repository,
	computer *engine.Computer,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *OnCalendarChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnCalendarChangedHandler{
		calendarRepo: calendarRepo,
		offerRepo:    offerRepo,
		computer:     computer,
		publisher:    publisher,
		logger:       logger.With("handler", "on_calendar_changed"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnCalendarChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	calEvent, ok := event.(shared.CalendarChangedEvent)
	if !ok {
		h.logger.Warn("received non-CalendarChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	ac, err := h.calendarRepo.GetAcademicCalendar(ctx, calEvent.AcademicCalendarID)
	if err != nil {
		if shared.IsNotFound(err) {
			h.logger.Warn("academic calendar vanished before handling",
				"academic_calendar_id", calEvent.AcademicCalendarID,
			)
			return nil
		}
		return fmt.Errorf("get academic calendar: %w", err)
	}

	h.logger.Info("processing calendar change",
		"calendar", ac.String(),
		"reference", ac.Reference,
	)

	if ac.Reference.CascadesToOffers() {
		if err := h.cascadeDates(ctx, ac); err != nil {
			return err
		}
	}

	if err := h.computer.RecomputeAll(ctx, ac); err != nil {
		return fmt.Errorf("recompute all: %w", err)
	}

	return nil
}

// cascadeDates pushes the academic dates down to the linked offer year
// calendars and republishes each changed row.
func (h *OnCalendarChangedHandler) cascadeDates(ctx context.Context, ac *calendar.AcademicCalendar) error {
	offerCalendars, err := h.offerRepo.ListByAcademicCalendar(ctx, ac.ID)
	if err != nil {
		return fmt.Errorf("list offer year calendars: %w", err)
	}

	synced := 0
	for _, oyc := range offerCalendars {
		if !oyc.SyncDates(ac.StartDate, ac.EndDate) {
			continue
		}

		if err := h.offerRepo.SaveYearCalendar(ctx, oyc); err != nil {
			h.logger.Error("cascaded offer calendar save failed",
				"offer", oyc.OfferAcronym,
				"offer_year_calendar_id", oyc.ID,
				"error", err,
			)
			continue
		}
		synced++

		if h.publisher != nil {
			evt := shared.NewOfferCalendarChangedEvent(oyc.ID, ac.ID, string(ac.Reference))
			if err := h.publisher.Publish(evt); err != nil {
				h.logger.Error("cascaded offer calendar publish failed",
					"offer_year_calendar_id", oyc.ID,
					"error", err,
				)
			}
		}
	}

	if synced > 0 {
		h.logger.Info("offer calendar dates cascaded",
			"calendar", ac.String(),
			"synced", synced,
			"linked", len(offerCalendars),
		)
	}
	return nil
}
