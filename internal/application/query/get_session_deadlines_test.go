package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/deadline"
	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

type fakeDeadlineRepo struct {
	deadline.Repository

	rows  []*deadline.SessionExamDeadline
	err   error
	calls int
}

func (f *fakeDeadlineRepo) ListByOfferAndSession(_ context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) ([]*deadline.SessionExamDeadline, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*deadline.SessionExamDeadline
	for _, d := range f.rows {
		if d.OfferYearID == offerYearID && d.NumberSession == numberSession {
			out = append(out, d)
		}
	}
	return out, nil
}

type snapshotKey struct {
	offerYearID   uuid.UUID
	numberSession calendar.NumberSession
}

type fakeSnapshotCache struct {
	snapshots map[snapshotKey][]SessionDeadlineDTO
	setErr    error
	sets      int
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{snapshots: make(map[snapshotKey][]SessionDeadlineDTO)}
}

func (f *fakeSnapshotCache) GetSnapshot(_ context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) ([]SessionDeadlineDTO, bool) {
	rows, ok := f.snapshots[snapshotKey{offerYearID, numberSession}]
	return rows, ok
}

func (f *fakeSnapshotCache) SetSnapshot(_ context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession, rows []SessionDeadlineDTO) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.snapshots[snapshotKey{offerYearID, numberSession}] = rows
	return nil
}

func seededRepo(offerYearID uuid.UUID) *fakeDeadlineRepo {
	past := deadline.New(uuid.New(), offerYearID, calendar.SessionOne, dateutil.Date(2020, 6, 9))
	past.DeadlineTutor = 5
	future := deadline.New(uuid.New(), offerYearID, calendar.SessionOne, dateutil.Date(2099, 6, 9))
	return &fakeDeadlineRepo{rows: []*deadline.SessionExamDeadline{past, future}}
}

func TestGetSessionDeadlines_AssemblesAndCaches(t *testing.T) {
	offerYearID := uuid.New()
	repo := seededRepo(offerYearID)
	cache := newFakeSnapshotCache()
	h := NewGetSessionDeadlinesHandler(repo, cache, nil)

	rows, err := h.Handle(context.Background(), GetSessionDeadlinesQuery{
		OfferYearID:   offerYearID,
		NumberSession: calendar.SessionOne,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, dateutil.Date(2020, 6, 9), rows[0].Deadline)
	assert.Equal(t, 5, rows[0].DeadlineTutor)
	assert.Equal(t, dateutil.Date(2020, 6, 4), rows[0].TutorDeadline)
	assert.True(t, rows[0].DeadlineReached)
	assert.True(t, rows[0].TutorDeadlineReached)

	assert.False(t, rows[1].DeadlineReached)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestGetSessionDeadlines_CacheHitSkipsRepository(t *testing.T) {
	offerYearID := uuid.New()
	repo := seededRepo(offerYearID)
	cache := newFakeSnapshotCache()
	h := NewGetSessionDeadlinesHandler(repo, cache, nil)

	q := GetSessionDeadlinesQuery{OfferYearID: offerYearID, NumberSession: calendar.SessionOne}

	_, err := h.Handle(context.Background(), q)
	require.NoError(t, err)

	rows, err := h.Handle(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, repo.calls)
	// Reached flags are re-derived on the hit path too.
	assert.True(t, rows[0].DeadlineReached)
	assert.False(t, rows[1].DeadlineReached)
}

func TestGetSessionDeadlines_NilCacheReadsRepository(t *testing.T) {
	offerYearID := uuid.New()
	repo := seededRepo(offerYearID)
	h := NewGetSessionDeadlinesHandler(repo, nil, nil)

	q := GetSessionDeadlinesQuery{OfferYearID: offerYearID, NumberSession: calendar.SessionOne}

	_, err := h.Handle(context.Background(), q)
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.calls)
}

func TestGetSessionDeadlines_CacheWriteFailureIsNotFatal(t *testing.T) {
	offerYearID := uuid.New()
	repo := seededRepo(offerYearID)
	cache := newFakeSnapshotCache()
	cache.setErr = errors.New("redis down")
	h := NewGetSessionDeadlinesHandler(repo, cache, nil)

	rows, err := h.Handle(context.Background(), GetSessionDeadlinesQuery{
		OfferYearID:   offerYearID,
		NumberSession: calendar.SessionOne,
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestGetSessionDeadlines_RejectsInvalidQuery(t *testing.T) {
	h := NewGetSessionDeadlinesHandler(&fakeDeadlineRepo{}, nil, nil)

	_, err := h.Handle(context.Background(), GetSessionDeadlinesQuery{
		OfferYearID:   uuid.Nil,
		NumberSession: calendar.SessionOne,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidEntity)

	_, err = h.Handle(context.Background(), GetSessionDeadlinesQuery{
		OfferYearID:   uuid.New(),
		NumberSession: 9,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidSessionNumber)
}

func TestGetOpenCalendars_FiltersByReference(t *testing.T) {
	open, err := calendar.NewAcademicCalendar(uuid.New(), "Encoding",
		calendar.RefScoresExamSubmission, dateutil.Date(2020, 1, 1), dateutil.Date(2099, 1, 1))
	require.NoError(t, err)
	other, err := calendar.NewAcademicCalendar(uuid.New(), "Deliberation",
		calendar.RefDeliberation, dateutil.Date(2020, 1, 1), dateutil.Date(2099, 1, 1))
	require.NoError(t, err)

	repo := &fakeCalendarRepo{open: []*calendar.AcademicCalendar{open, other}}
	h := NewGetOpenCalendarsHandler(repo, nil)

	all, err := h.Handle(context.Background(), GetOpenCalendarsQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := h.Handle(context.Background(), GetOpenCalendarsQuery{
		Reference: calendar.RefScoresExamSubmission,
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, open.ID, filtered[0].ID)
}

type fakeCalendarRepo struct {
	calendar.Repository

	open []*calendar.AcademicCalendar
}

func (f *fakeCalendarRepo) OpenCalendars(_ context.Context, _ time.Time) ([]*calendar.AcademicCalendar, error) {
	return f.open, nil
}
