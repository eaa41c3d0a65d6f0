package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/application/query"
	"github.com/campusops/assessment-hub/internal/domain/calendar"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEADLINE SNAPSHOT CACHE
// Caches the assembled deadline rows of one (offer year, session) pair.
// The deadline computer invalidates the pair's key after every write-back,
// so cached snapshots never lag behind committed deadline state. The TTL is
// a backstop against lost invalidations.
// ══════════════════════════════════════════════════════════════════════════════

// DeadlineCache implements query.DeadlineSnapshotCache and the computer's
// snapshot invalidation on top of the generic Cache.
type DeadlineCache struct {
	cache  *Cache
	logger *slog.Logger
}

// NewDeadlineCache creates a new DeadlineCache.
func NewDeadlineCache(cache *Cache, logger *slog.Logger) *DeadlineCache {
	if logger == nil {
		logger = slog.Default()
	}

	return &DeadlineCache{
		cache:  cache,
		logger: logger.With("component", "deadline_cache"),
	}
}

// GetSnapshot returns the cached rows of the pair, with ok reporting a hit.
// Cache errors degrade to a miss.
func (c *DeadlineCache) GetSnapshot(ctx context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) ([]query.SessionDeadlineDTO, bool) {
	var rows []query.SessionDeadlineDTO
	err := c.cache.Get(ctx, deadlineKey(offerYearID, numberSession), &rows)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("deadline snapshot read failed",
				"offer_year_id", offerYearID,
				"error", err,
			)
		}
		return nil, false
	}
	return rows, true
}

// SetSnapshot stores the rows of the pair.
func (c *DeadlineCache) SetSnapshot(ctx context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession, rows []query.SessionDeadlineDTO) error {
	return c.cache.Set(ctx, deadlineKey(offerYearID, numberSession), rows, TTLDeadlineSnapshot)
}

// Invalidate drops the snapshot of the pair. Called by the deadline
// computer after a write-back touched the pair.
func (c *DeadlineCache) Invalidate(ctx context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) error {
	return c.cache.Delete(ctx, deadlineKey(offerYearID, numberSession))
}

// InvalidateOffer drops the snapshots of all sessions of an offer year.
func (c *DeadlineCache) InvalidateOffer(ctx context.Context, offerYearID uuid.UUID) error {
	return c.cache.DeleteByPattern(ctx, fmt.Sprintf("%s%s:*", PrefixDeadlines, offerYearID))
}

func deadlineKey(offerYearID uuid.UUID, numberSession calendar.NumberSession) string {
	return fmt.Sprintf("%s%s:%d", PrefixDeadlines, offerYearID, numberSession)
}
