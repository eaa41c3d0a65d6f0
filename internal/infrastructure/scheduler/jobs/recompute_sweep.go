// Package jobs contains the scheduled jobs of the worker.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/campusops/assessment-hub/internal/application/engine"
	"github.com/campusops/assessment-hub/internal/domain/calendar"
)

// RecomputeSweep re-derives deadlines for every open score submission
// calendar. Event handlers keep deadlines current in the normal path;
// the sweep catches rows created or edited outside the application,
// and calendars that open by the passing of time alone.
type RecomputeSweep struct {
	calendars calendar.Repository
	computer  *engine.Computer
	logger    *slog.Logger
}

// NewRecomputeSweep creates the job.
func NewRecomputeSweep(calendars calendar.Repository, computer *engine.Computer, logger *slog.Logger) *RecomputeSweep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecomputeSweep{
		calendars: calendars,
		computer:  computer,
		logger:    logger.With("job", "recompute_sweep"),
	}
}

// Name implements scheduler.Job.
func (j *RecomputeSweep) Name() string {
	return "recompute_sweep"
}

// Description implements scheduler.Job.
func (j *RecomputeSweep) Description() string {
	return "Recomputes session exam deadlines for every open score submission calendar"
}

// Run implements scheduler.Job.
func (j *RecomputeSweep) Run(ctx context.Context) error {
	open, err := j.calendars.OpenCalendars(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	started := time.Now()
	swept := 0
	for _, ac := range open {
		if ac.Reference != calendar.RefScoresExamSubmission {
			continue
		}
		if err := j.computer.RecomputeAll(ctx, ac); err != nil {
			j.logger.Error("calendar recompute failed",
				"academic_calendar_id", ac.ID,
				"error", err,
			)
			continue
		}
		swept++
	}

	j.logger.Info("sweep finished",
		"open_calendars", len(open),
		"swept", swept,
		"duration", time.Since(started).String(),
	)
	return nil
}
