package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET OPEN CALENDARS QUERY
// Returns the academic calendars whose window is open at a given moment,
// with the start inclusive and the end exclusive. Used by surrounding
// tooling to decide which institutional events are currently running.
// ══════════════════════════════════════════════════════════════════════════════

// GetOpenCalendarsQuery contains the query parameters.
type GetOpenCalendarsQuery struct {
	// At is the moment to evaluate. Zero means now.
	At time.Time

	// Reference optionally restricts the result to one calendar type.
	Reference calendar.Reference
}

// OpenCalendarDTO is the read model of one open calendar.
type OpenCalendarDTO struct {
	ID             uuid.UUID          `json:"id"`
	AcademicYearID uuid.UUID          `json:"academic_year_id"`
	Title          string             `json:"title"`
	Reference      calendar.Reference `json:"reference"`
	StartDate      *time.Time         `json:"start_date"`
	EndDate        *time.Time         `json:"end_date"`
}

// GetOpenCalendarsHandler handles GetOpenCalendarsQuery.
type GetOpenCalendarsHandler struct {
	calendarRepo calendar.Repository
	logger       *slog.Logger
}

// NewGetOpenCalendarsHandler creates the handler.
func NewGetOpenCalendarsHandler(calendarRepo calendar.Repository, logger *slog.Logger) *GetOpenCalendarsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GetOpenCalendarsHandler{
		calendarRepo: calendarRepo,
		logger:       logger.With("query", "get_open_calendars"),
	}
}

// Handle executes the query.
func (h *GetOpenCalendarsHandler) Handle(ctx context.Context, q GetOpenCalendarsQuery) ([]OpenCalendarDTO, error) {
	at := q.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	calendars, err := h.calendarRepo.OpenCalendars(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("list open calendars: %w", err)
	}

	result := make([]OpenCalendarDTO, 0, len(calendars))
	for _, c := range calendars {
		if q.Reference != "" && c.Reference != q.Reference {
			continue
		}
		result = append(result, OpenCalendarDTO{
			ID:             c.ID,
			AcademicYearID: c.AcademicYearID,
			Title:          c.Title,
			Reference:      c.Reference,
			StartDate:      c.StartDate,
			EndDate:        c.EndDate,
		})
	}

	return result, nil
}
