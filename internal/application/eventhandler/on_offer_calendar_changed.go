package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusops/assessment-hub/internal/application/engine"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// OnOfferCalendarChangedHandler reacts to offer year calendar writes and
// recomputes every student deadline of the offer at the calendar's session.
// Calendars of non-impacting references are a no-op inside the computer.
type OnOfferCalendarChangedHandler struct {
	offerRepo offer.Repository
	computer  *engine.Computer
	logger    *slog.Logger
}

// NewOnOfferCalendarChangedHandler creates the handler.
func NewOnOfferCalendarChangedHandler(
	offerRepo offer.Repository,
	computer *engine.Computer,
	logger *slog.Logger,
) *OnOfferCalendarChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnOfferCalendarChangedHandler{
		offerRepo: offerRepo,
		computer:  computer,
		logger:    logger.With("handler", "on_offer_calendar_changed"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnOfferCalendarChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	ocEvent, ok := event.(shared.OfferCalendarChangedEvent)
	if !ok {
		h.logger.Warn("received non-OfferCalendarChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	oyc, err := h.offerRepo.GetYearCalendar(ctx, ocEvent.OfferYearCalendarID)
	if err != nil {
		if shared.IsNotFound(err) {
			h.logger.Warn("offer year calendar vanished before handling",
				"offer_year_calendar_id", ocEvent.OfferYearCalendarID,
			)
			return nil
		}
		return fmt.Errorf("get offer year calendar: %w", err)
	}

	h.logger.Debug("processing offer calendar change",
		"offer", oyc.OfferAcronym,
		"reference", oyc.Reference(),
	)

	if err := h.computer.Compute(ctx, oyc, nil); err != nil {
		return fmt.Errorf("compute deadlines: %w", err)
	}
	return nil
}
