package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/internal/validation"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeCalendarRepo struct {
	calendar.Repository

	stored   map[uuid.UUID]*calendar.AcademicCalendar
	saveErr  error
	saved    []*calendar.AcademicCalendar
	sessions map[uuid.UUID]calendar.NumberSession
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{
		stored:   make(map[uuid.UUID]*calendar.AcademicCalendar),
		sessions: make(map[uuid.UUID]calendar.NumberSession),
	}
}

func (f *fakeCalendarRepo) SaveAcademicCalendar(_ context.Context, cal *calendar.AcademicCalendar) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored[cal.ID] = cal
	f.saved = append(f.saved, cal)
	return nil
}

func (f *fakeCalendarRepo) GetAcademicCalendar(_ context.Context, id uuid.UUID) (*calendar.AcademicCalendar, error) {
	cal, ok := f.stored[id]
	if !ok {
		return nil, shared.ErrAcademicCalendarNotFound
	}
	return cal, nil
}

func (f *fakeCalendarRepo) GetSessionNumber(_ context.Context, id uuid.UUID) (calendar.NumberSession, error) {
	n, ok := f.sessions[id]
	if !ok {
		return 0, shared.ErrSessionNumberNotFound
	}
	return n, nil
}

type fakeOfferRepo struct {
	offer.Repository

	stored  map[uuid.UUID]*offer.YearCalendar
	saveErr error
	saved   []*offer.YearCalendar
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{stored: make(map[uuid.UUID]*offer.YearCalendar)}
}

func (f *fakeOfferRepo) SaveYearCalendar(_ context.Context, oyc *offer.YearCalendar) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored[oyc.ID] = oyc
	f.saved = append(f.saved, oyc)
	return nil
}

func (f *fakeOfferRepo) GetYearCalendar(_ context.Context, id uuid.UUID) (*offer.YearCalendar, error) {
	oyc, ok := f.stored[id]
	if !ok {
		return nil, shared.ErrOfferCalendarNotFound
	}
	return oyc, nil
}

type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(event shared.Event) error {
	f.events = append(f.events, event)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAVE ACADEMIC CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

func validCalendarCommand() SaveAcademicCalendarCommand {
	return SaveAcademicCalendarCommand{
		AcademicYearID: uuid.New(),
		Title:          "Score encoding session 1",
		Reference:      calendar.RefScoresExamSubmission,
		StartDate:      dateutil.Ptr(dateutil.Date(2021, 6, 1)),
		EndDate:        dateutil.Ptr(dateutil.Date(2021, 6, 30)),
	}
}

func TestSaveAcademicCalendar_CreatesAndPublishes(t *testing.T) {
	repo := newFakeCalendarRepo()
	pub := &fakePublisher{}
	h := NewSaveAcademicCalendarHandler(repo, validation.New(), pub, nil)

	res, err := h.Handle(context.Background(), validCalendarCommand())
	require.NoError(t, err)

	assert.True(t, res.Created)
	require.Contains(t, repo.stored, res.CalendarID)

	require.Len(t, pub.events, 1)
	evt, ok := pub.events[0].(shared.CalendarChangedEvent)
	require.True(t, ok)
	assert.Equal(t, res.CalendarID, evt.AcademicCalendarID)
	assert.Equal(t, string(calendar.RefScoresExamSubmission), evt.Reference)
}

func TestSaveAcademicCalendar_UpdatesExisting(t *testing.T) {
	repo := newFakeCalendarRepo()
	pub := &fakePublisher{}
	h := NewSaveAcademicCalendarHandler(repo, validation.New(), pub, nil)

	created, err := h.Handle(context.Background(), validCalendarCommand())
	require.NoError(t, err)

	cmd := validCalendarCommand()
	cmd.ID = created.CalendarID
	cmd.EndDate = dateutil.Ptr(dateutil.Date(2021, 7, 15))

	res, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, created.CalendarID, res.CalendarID)
	assert.Equal(t, dateutil.Date(2021, 7, 15), *repo.stored[res.CalendarID].EndDate)
	assert.Len(t, pub.events, 2)
}

func TestSaveAcademicCalendar_RejectsUnknownReference(t *testing.T) {
	repo := newFakeCalendarRepo()
	pub := &fakePublisher{}
	h := NewSaveAcademicCalendarHandler(repo, validation.New(), pub, nil)

	cmd := validCalendarCommand()
	cmd.Reference = "WHATEVER"

	_, err := h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrInvalidEntity)
	assert.Empty(t, repo.saved)
	assert.Empty(t, pub.events)
}

func TestSaveAcademicCalendar_RejectsMissingDates(t *testing.T) {
	repo := newFakeCalendarRepo()
	pub := &fakePublisher{}
	h := NewSaveAcademicCalendarHandler(repo, validation.New(), pub, nil)

	cmd := validCalendarCommand()
	cmd.EndDate = nil

	_, err := h.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrMandatoryDateMissing)

	var fieldErrs validation.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "end_date", fieldErrs[0].Field)

	// Nothing written, nothing published.
	assert.Empty(t, repo.saved)
	assert.Empty(t, pub.events)
}

func TestSaveAcademicCalendar_RejectsReversedDates(t *testing.T) {
	repo := newFakeCalendarRepo()
	pub := &fakePublisher{}
	h := NewSaveAcademicCalendarHandler(repo, validation.New(), pub, nil)

	cmd := validCalendarCommand()
	cmd.StartDate = dateutil.Ptr(dateutil.Date(2021, 7, 1))
	cmd.EndDate = dateutil.Ptr(dateutil.Date(2021, 6, 1))

	_, err := h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrChronologyViolation)
	assert.Empty(t, repo.saved)
	assert.Empty(t, pub.events)
}

func TestSaveAcademicCalendar_NoEventWhenSaveFails(t *testing.T) {
	repo := newFakeCalendarRepo()
	repo.saveErr = errors.New("connection reset")
	pub := &fakePublisher{}
	h := NewSaveAcademicCalendarHandler(repo, validation.New(), pub, nil)

	_, err := h.Handle(context.Background(), validCalendarCommand())
	require.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestSaveAcademicCalendar_NormalizesTimestamps(t *testing.T) {
	repo := newFakeCalendarRepo()
	pub := &fakePublisher{}
	h := NewSaveAcademicCalendarHandler(repo, validation.New(), pub, nil)

	cmd := validCalendarCommand()
	afternoon := dateutil.Date(2021, 6, 1).Add(15 * time.Hour)
	cmd.StartDate = &afternoon

	res, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, dateutil.Date(2021, 6, 1), *repo.stored[res.CalendarID].StartDate)
}
