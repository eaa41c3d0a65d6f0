package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/assessment-hub/internal/application/engine"
	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/deadline"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/internal/infrastructure/messaging"
	"github.com/campusops/assessment-hub/pkg/dateutil"
	"github.com/campusops/assessment-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY REPOSITORIES
// ══════════════════════════════════════════════════════════════════════════════

type memCalendarRepo struct {
	calendar.Repository

	calendars map[uuid.UUID]*calendar.AcademicCalendar
	sessions  map[uuid.UUID]calendar.NumberSession
}

func (m *memCalendarRepo) GetAcademicCalendar(_ context.Context, id uuid.UUID) (*calendar.AcademicCalendar, error) {
	ac, ok := m.calendars[id]
	if !ok {
		return nil, shared.ErrAcademicCalendarNotFound
	}
	return ac, nil
}

func (m *memCalendarRepo) GetSessionNumber(_ context.Context, id uuid.UUID) (calendar.NumberSession, error) {
	n, ok := m.sessions[id]
	if !ok {
		return 0, shared.ErrSessionNumberNotFound
	}
	return n, nil
}

type memOfferRepo struct {
	offer.Repository

	rows  map[uuid.UUID]*offer.YearCalendar
	saves int
}

func (m *memOfferRepo) GetYearCalendar(_ context.Context, id uuid.UUID) (*offer.YearCalendar, error) {
	oyc, ok := m.rows[id]
	if !ok {
		return nil, shared.ErrOfferCalendarNotFound
	}
	return oyc, nil
}

func (m *memOfferRepo) SaveYearCalendar(_ context.Context, oyc *offer.YearCalendar) error {
	m.rows[oyc.ID] = oyc
	m.saves++
	return nil
}

func (m *memOfferRepo) ListByAcademicCalendar(_ context.Context, academicCalendarID uuid.UUID) ([]*offer.YearCalendar, error) {
	var out []*offer.YearCalendar
	for _, oyc := range m.rows {
		if oyc.AcademicCalendarID == academicCalendarID {
			out = append(out, oyc)
		}
	}
	return out, nil
}

func (m *memOfferRepo) FindYearCalendars(_ context.Context, groupID uuid.UUID, reference calendar.Reference, numberSession calendar.NumberSession) ([]*offer.YearCalendar, error) {
	return m.find(func(oyc *offer.YearCalendar) bool {
		return oyc.EducationGroupYearID == groupID && oyc.Reference() == reference
	}), nil
}

func (m *memOfferRepo) FindByOfferYear(_ context.Context, offerYearID uuid.UUID, reference calendar.Reference, numberSession calendar.NumberSession) ([]*offer.YearCalendar, error) {
	return m.find(func(oyc *offer.YearCalendar) bool {
		return oyc.OfferYearID == offerYearID && oyc.Reference() == reference
	}), nil
}

func (m *memOfferRepo) find(match func(*offer.YearCalendar) bool) []*offer.YearCalendar {
	var out []*offer.YearCalendar
	for _, oyc := range m.rows {
		if match(oyc) {
			out = append(out, oyc)
		}
	}
	return out
}

type memDeadlineRepo struct {
	deadline.Repository

	rows    map[uuid.UUID]*deadline.SessionExamDeadline
	written int
}

func (m *memDeadlineRepo) Get(_ context.Context, id uuid.UUID) (*deadline.SessionExamDeadline, error) {
	d, ok := m.rows[id]
	if !ok {
		return nil, shared.ErrDeadlineNotFound
	}
	return d, nil
}

func (m *memDeadlineRepo) ListByOfferAndSession(_ context.Context, offerYearID uuid.UUID, numberSession calendar.NumberSession) ([]*deadline.SessionExamDeadline, error) {
	var out []*deadline.SessionExamDeadline
	for _, d := range m.rows {
		if d.OfferYearID == offerYearID && d.NumberSession == numberSession {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDeadlineRepo) UpdateComputed(_ context.Context, updates []deadline.ComputedUpdate) error {
	m.written += len(updates)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FIXTURE
// ══════════════════════════════════════════════════════════════════════════════

// propagation wires a real bus, real computer and in-memory repositories
// around one offer with paired calendars at session 1.
type propagation struct {
	bus       *messaging.InMemoryEventBus
	calendars *memCalendarRepo
	offers    *memOfferRepo
	deadlines *memDeadlineRepo

	acSubmission    *calendar.AcademicCalendar
	acDeliberation  *calendar.AcademicCalendar
	oycSubmission   *offer.YearCalendar
	oycDeliberation *offer.YearCalendar
	row             *deadline.SessionExamDeadline
}

func newPropagation(t *testing.T) *propagation {
	t.Helper()

	p := &propagation{
		bus: messaging.NewInMemoryEventBus(nil),
		calendars: &memCalendarRepo{
			calendars: make(map[uuid.UUID]*calendar.AcademicCalendar),
			sessions:  make(map[uuid.UUID]calendar.NumberSession),
		},
		offers:    &memOfferRepo{rows: make(map[uuid.UUID]*offer.YearCalendar)},
		deadlines: &memDeadlineRepo{rows: make(map[uuid.UUID]*deadline.SessionExamDeadline)},
	}

	yearID := uuid.New()
	offerYearID := uuid.New()
	groupID := uuid.New()

	var err error
	p.acSubmission, err = calendar.NewAcademicCalendar(yearID, "Score encoding",
		calendar.RefScoresExamSubmission, dateutil.Date(2021, 1, 1), dateutil.Date(2021, 7, 5))
	require.NoError(t, err)
	p.acDeliberation, err = calendar.NewAcademicCalendar(yearID, "Deliberations",
		calendar.RefDeliberation, dateutil.Date(2021, 1, 1), dateutil.Date(2021, 6, 20))
	require.NoError(t, err)

	for _, ac := range []*calendar.AcademicCalendar{p.acSubmission, p.acDeliberation} {
		p.calendars.calendars[ac.ID] = ac
		p.calendars.sessions[ac.ID] = calendar.SessionOne
	}

	p.oycSubmission = offer.NewYearCalendar(p.acSubmission, offerYearID, groupID)
	p.oycSubmission.EndDate = dateutil.Ptr(dateutil.Date(2021, 6, 1))
	p.oycSubmission.Customized = true
	p.oycDeliberation = offer.NewYearCalendar(p.acDeliberation, offerYearID, groupID)
	for _, oyc := range []*offer.YearCalendar{p.oycSubmission, p.oycDeliberation} {
		oyc.OfferAcronym = "DROI1BA"
		p.offers.rows[oyc.ID] = oyc
	}

	p.row = deadline.New(uuid.New(), offerYearID, calendar.SessionOne, dateutil.Date(2020, 1, 1))
	p.deadlines.rows[p.row.ID] = p.row

	computer := engine.New(p.calendars, p.offers, p.deadlines, nil, engine.Config{
		Retrier: retry.New(retry.WithMaxAttempts(1), retry.WithInitialDelay(time.Millisecond)),
	})

	err = RegisterAll(p.bus,
		NewOnCalendarChangedHandler(p.calendars, p.offers, computer, p.bus, nil),
		NewOnOfferCalendarChangedHandler(p.offers, computer, nil),
		NewOnStudentDeliberationChangedHandler(p.deadlines, computer, nil),
	)
	require.NoError(t, err)

	return p
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestCalendarChanged_RecomputesThroughFanOut(t *testing.T) {
	p := newPropagation(t)

	err := p.bus.Publish(shared.NewCalendarChangedEvent(p.acSubmission.ID, "SCORES_EXAM_SUBMISSION"))
	require.NoError(t, err)

	// Candidates: academic submission end 07-05 and deliberation end
	// minus one day 06-19; the earlier wins. The customized offer-level
	// submission window ends 06-01, eighteen days earlier.
	assert.Equal(t, dateutil.Date(2021, 6, 19), p.row.Deadline)
	assert.Equal(t, 18, p.row.DeadlineTutor)
	assert.Equal(t, 1, p.deadlines.written)
}

func TestCalendarChanged_CascadeMovesOfferDates(t *testing.T) {
	p := newPropagation(t)

	// The deliberation offer calendar tracks its parent; moving the
	// parent's end date must reach it and re-derive the deadline.
	p.acDeliberation.EndDate = dateutil.Ptr(dateutil.Date(2021, 6, 10))

	err := p.bus.Publish(shared.NewCalendarChangedEvent(p.acDeliberation.ID, "DELIBERATION"))
	require.NoError(t, err)

	assert.Equal(t, dateutil.Date(2021, 6, 10), *p.oycDeliberation.EndDate)
	assert.Equal(t, 1, p.offers.saves)

	// The republished offer event drove the recomputation: one day
	// before the new deliberation end.
	assert.Equal(t, dateutil.Date(2021, 6, 9), p.row.Deadline)
}

func TestCalendarChanged_CustomizedEndDateSurvivesCascade(t *testing.T) {
	p := newPropagation(t)

	p.acSubmission.StartDate = dateutil.Ptr(dateutil.Date(2021, 2, 1))

	err := p.bus.Publish(shared.NewCalendarChangedEvent(p.acSubmission.ID, "SCORES_EXAM_SUBMISSION"))
	require.NoError(t, err)

	assert.Equal(t, dateutil.Date(2021, 2, 1), *p.oycSubmission.StartDate)
	assert.Equal(t, dateutil.Date(2021, 6, 1), *p.oycSubmission.EndDate)
}

func TestCalendarChanged_VanishedCalendar(t *testing.T) {
	p := newPropagation(t)

	err := p.bus.Publish(shared.NewCalendarChangedEvent(uuid.New(), "DELIBERATION"))
	require.NoError(t, err)

	assert.Zero(t, p.deadlines.written)
	assert.Zero(t, p.offers.saves)
}

func TestOfferCalendarChanged_RecomputesOfferSession(t *testing.T) {
	p := newPropagation(t)

	err := p.bus.Publish(shared.NewOfferCalendarChangedEvent(
		p.oycDeliberation.ID, p.acDeliberation.ID, "DELIBERATION"))
	require.NoError(t, err)

	assert.Equal(t, dateutil.Date(2021, 6, 19), p.row.Deadline)
	assert.Equal(t, 1, p.deadlines.written)
}

func TestStudentDeliberationChanged_RecomputesSingleRow(t *testing.T) {
	p := newPropagation(t)

	other := deadline.New(uuid.New(), p.row.OfferYearID, calendar.SessionOne, dateutil.Date(2020, 1, 1))
	p.deadlines.rows[other.ID] = other

	p.row.SetDeliberationDate(dateutil.Ptr(dateutil.Date(2021, 6, 10)))
	err := p.bus.Publish(shared.NewStudentDeliberationChangedEvent(
		p.row.ID, p.row.OfferEnrollmentID, 1))
	require.NoError(t, err)

	assert.Equal(t, dateutil.Date(2021, 6, 9), p.row.Deadline)
	// The sibling row was left alone.
	assert.Equal(t, dateutil.Date(2020, 1, 1), other.Deadline)
	assert.Equal(t, 1, p.deadlines.written)
}
