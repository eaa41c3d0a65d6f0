package deadline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

func newRow() *SessionExamDeadline {
	return New(uuid.New(), uuid.New(), calendar.SessionOne, dateutil.Date(2021, 6, 9))
}

func TestApplyComputed(t *testing.T) {
	d := newRow()

	changed := d.ApplyComputed(dateutil.Date(2021, 6, 19), 10)
	assert.True(t, changed)
	assert.Equal(t, dateutil.Date(2021, 6, 19), d.Deadline)
	assert.Equal(t, 10, d.DeadlineTutor)
}

func TestApplyComputed_UnchangedValuesReportFalse(t *testing.T) {
	d := newRow()

	assert.False(t, d.ApplyComputed(dateutil.Date(2021, 6, 9), 0))

	// A change of either field alone counts.
	assert.True(t, d.ApplyComputed(dateutil.Date(2021, 6, 9), 3))
	assert.True(t, d.ApplyComputed(dateutil.Date(2021, 6, 10), 3))
}

func TestApplyComputed_NormalizesTimestamp(t *testing.T) {
	d := newRow()
	noon := dateutil.Date(2021, 6, 19).Add(12 * time.Hour)

	require.True(t, d.ApplyComputed(noon, 0))
	assert.Equal(t, dateutil.Date(2021, 6, 19), d.Deadline)

	// Same day, different clock time: not a change.
	assert.False(t, d.ApplyComputed(noon.Add(time.Hour), 0))
}

func TestDeadlineTutorComputed(t *testing.T) {
	d := newRow()
	d.DeadlineTutor = 10

	assert.Equal(t, dateutil.Date(2021, 5, 30), d.DeadlineTutorComputed())

	d.DeadlineTutor = 0
	assert.Equal(t, d.Deadline, d.DeadlineTutorComputed())
}

func TestIsDeadlineReached(t *testing.T) {
	d := newRow()

	assert.False(t, d.IsDeadlineReached(dateutil.Date(2021, 6, 9)))
	assert.True(t, d.IsDeadlineReached(dateutil.Date(2021, 6, 10)))
}

func TestIsDeadlineTutorReached_FallsBackWithoutDelta(t *testing.T) {
	d := newRow()

	assert.False(t, d.IsDeadlineTutorReached(dateutil.Date(2021, 6, 9)))
	assert.True(t, d.IsDeadlineTutorReached(dateutil.Date(2021, 6, 10)))

	d.DeadlineTutor = 5
	assert.True(t, d.IsDeadlineTutorReached(dateutil.Date(2021, 6, 5)))
	assert.False(t, d.IsDeadlineTutorReached(dateutil.Date(2021, 6, 4)))
}

func TestDeliberationDateChanged(t *testing.T) {
	d := newRow()
	assert.False(t, d.DeliberationDateChanged())

	d.SetDeliberationDate(dateutil.Ptr(dateutil.Date(2021, 6, 1)))
	assert.True(t, d.DeliberationDateChanged())

	// Loading snapshots the current value.
	d.MarkLoaded()
	assert.False(t, d.DeliberationDateChanged())

	// Setting the same date again is not a change.
	d.SetDeliberationDate(dateutil.Ptr(dateutil.Date(2021, 6, 1)))
	assert.False(t, d.DeliberationDateChanged())

	// Clearing it is.
	d.SetDeliberationDate(nil)
	assert.True(t, d.DeliberationDateChanged())
}

func TestSetDeliberationDate_Normalizes(t *testing.T) {
	d := newRow()
	evening := dateutil.Date(2021, 6, 1).Add(20 * time.Hour)

	d.SetDeliberationDate(&evening)
	require.NotNil(t, d.DeliberationDate)
	assert.Equal(t, dateutil.Date(2021, 6, 1), *d.DeliberationDate)
}
