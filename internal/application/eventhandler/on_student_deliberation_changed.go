package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusops/assessment-hub/internal/application/engine"
	"github.com/campusops/assessment-hub/internal/domain/deadline"
	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// OnStudentDeliberationChangedHandler reacts to a per-student deliberation
// date change and recomputes exactly that student's deadline. The event is
// only published when the date actually differs from its pre-save value, so
// handling is cheap.
type OnStudentDeliberationChangedHandler struct {
	deadlineRepo deadline.Repository
	computer     *engine.Computer
	logger       *slog.Logger
}

// NewOnStudentDeliberationChangedHandler creates the handler.
func NewOnStudentDeliberationChangedHandler(
	deadlineRepo deadline.Repository,
	computer *engine.Computer,
	logger *slog.Logger,
) *OnStudentDeliberationChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnStudentDeliberationChangedHandler{
		deadlineRepo: deadlineRepo,
		computer:     computer,
		logger:       logger.With("handler", "on_student_deliberation_changed"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnStudentDeliberationChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	sdEvent, ok := event.(shared.StudentDeliberationChangedEvent)
	if !ok {
		h.logger.Warn("received non-StudentDeliberationChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	sed, err := h.deadlineRepo.Get(ctx, sdEvent.SessionExamDeadlineID)
	if err != nil {
		if shared.IsNotFound(err) {
			h.logger.Warn("session exam deadline vanished before handling",
				"session_exam_deadline_id", sdEvent.SessionExamDeadlineID,
			)
			return nil
		}
		return fmt.Errorf("get session exam deadline: %w", err)
	}

	h.logger.Debug("processing student deliberation change",
		"session_exam_deadline", sed.String(),
	)

	if err := h.computer.ComputeByStudent(ctx, sed); err != nil {
		return fmt.Errorf("compute student deadline: %w", err)
	}
	return nil
}
