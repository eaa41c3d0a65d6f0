// Package deadline contains the engine's output entity: the per-student
// score encoding deadline for one exam session.
package deadline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/pkg/dateutil"
)

// SessionExamDeadline stores, for one (enrollment, session) pair, the
// computed student deadline and the tutor delta. DeliberationDate is the
// only human input of the triplet; the other two fields are overwritten by
// the deadline computer whenever an upstream calendar changes.
type SessionExamDeadline struct {
	ID                uuid.UUID
	OfferEnrollmentID uuid.UUID
	OfferYearID       uuid.UUID
	NumberSession     calendar.NumberSession

	// Deadline is the last calendar day on which scores may be entered.
	Deadline time.Time

	// DeadlineTutor is the non-negative day count by which the tutor
	// deadline precedes the student deadline.
	DeadlineTutor int

	// DeliberationDate is the optional per-student deliberation override.
	DeliberationDate *time.Time

	Changed time.Time

	// originalDeliberationDate is the pre-load snapshot used to decide
	// whether a save publishes EventStudentDeliberationChanged. Instance
	// local, never persisted.
	originalDeliberationDate *time.Time
}

// New creates a deadline row for an enrollment at a session.
func New(enrollmentID, offerYearID uuid.UUID, numberSession calendar.NumberSession, deadline time.Time) *SessionExamDeadline {
	d := &SessionExamDeadline{
		ID:                uuid.New(),
		OfferEnrollmentID: enrollmentID,
		OfferYearID:       offerYearID,
		NumberSession:     numberSession,
		Deadline:          *dateutil.ToDate(&deadline),
		Changed:           time.Now().UTC(),
	}
	d.MarkLoaded()
	return d
}

// MarkLoaded records the current deliberation date as the pre-save snapshot.
// Repositories call it after scanning a row.
func (d *SessionExamDeadline) MarkLoaded() {
	d.originalDeliberationDate = copyDate(d.DeliberationDate)
}

// DeliberationDateChanged reports whether the deliberation date differs from
// the snapshot taken at load time.
func (d *SessionExamDeadline) DeliberationDateChanged() bool {
	return !equalDates(d.DeliberationDate, d.originalDeliberationDate)
}

// SetDeliberationDate sets the per-student deliberation override,
// normalizing to a calendar date. Nil clears the override.
func (d *SessionExamDeadline) SetDeliberationDate(date *time.Time) {
	d.DeliberationDate = dateutil.ToDate(date)
}

// ApplyComputed overwrites the computed fields, returning true when either
// actually changed. Unchanged rows must not be rewritten.
func (d *SessionExamDeadline) ApplyComputed(newDeadline time.Time, newDeadlineTutor int) bool {
	nd := *dateutil.ToDate(&newDeadline)
	if nd.Equal(d.Deadline) && newDeadlineTutor == d.DeadlineTutor {
		return false
	}
	d.Deadline = nd
	d.DeadlineTutor = newDeadlineTutor
	return true
}

// DeadlineTutorComputed is the user-visible tutor deadline: the student
// deadline minus the tutor delta. Derived on read, never persisted.
func (d *SessionExamDeadline) DeadlineTutorComputed() time.Time {
	return d.Deadline.AddDate(0, 0, -d.DeadlineTutor)
}

// IsDeadlineReached reports whether the student deadline has passed at the
// given day.
func (d *SessionExamDeadline) IsDeadlineReached(today time.Time) bool {
	return d.Deadline.Before(*dateutil.ToDate(&today))
}

// IsDeadlineTutorReached reports whether the tutor deadline has passed at
// the given day. Without a tutor delta it coincides with the student
// deadline.
func (d *SessionExamDeadline) IsDeadlineTutorReached(today time.Time) bool {
	return d.DeadlineTutorComputed().Before(*dateutil.ToDate(&today))
}

// String returns a display name for logs.
func (d *SessionExamDeadline) String() string {
	return fmt.Sprintf("%s-%d", d.OfferEnrollmentID, d.NumberSession)
}

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func equalDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
