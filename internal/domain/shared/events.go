package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the deadline propagation.
// Each event is published as a side effect of persisting the corresponding
// record; the deadline computer reacts to all three.
const (
	// EventCalendarChanged is published on a successful write of an
	// academic calendar.
	EventCalendarChanged EventType = "calendar.changed"

	// EventOfferCalendarChanged is published on a successful write of an
	// offer year calendar.
	EventOfferCalendarChanged EventType = "offer_calendar.changed"

	// EventStudentDeliberationChanged is published on a write of a session
	// exam deadline whose deliberation date differs from the pre-save value.
	EventStudentDeliberationChanged EventType = "student_deliberation.changed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the record that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID.String(),
	}
}

// CalendarChangedEvent is published after an academic calendar write commits.
// Handlers reload the calendar by ID so they always observe committed state.
type CalendarChangedEvent struct {
	BaseEvent
	AcademicCalendarID uuid.UUID `json:"academic_calendar_id"`
	Reference          string    `json:"reference"`
}

// NewCalendarChangedEvent creates a new CalendarChangedEvent.
func NewCalendarChangedEvent(calendarID uuid.UUID, reference string) CalendarChangedEvent {
	return CalendarChangedEvent{
		BaseEvent:          NewBaseEvent(EventCalendarChanged, calendarID),
		AcademicCalendarID: calendarID,
		Reference:          reference,
	}
}

// OfferCalendarChangedEvent is published after an offer year calendar write
// commits.
type OfferCalendarChangedEvent struct {
	BaseEvent
	OfferYearCalendarID uuid.UUID `json:"offer_year_calendar_id"`
	AcademicCalendarID  uuid.UUID `json:"academic_calendar_id"`
	Reference           string    `json:"reference"`
}

// NewOfferCalendarChangedEvent creates a new OfferCalendarChangedEvent.
func NewOfferCalendarChangedEvent(offerCalendarID, calendarID uuid.UUID, reference string) OfferCalendarChangedEvent {
	return OfferCalendarChangedEvent{
		BaseEvent:           NewBaseEvent(EventOfferCalendarChanged, offerCalendarID),
		OfferYearCalendarID: offerCalendarID,
		AcademicCalendarID:  calendarID,
		Reference:           reference,
	}
}

// StudentDeliberationChangedEvent is published after a per-student
// deliberation date changed relative to its pre-save snapshot.
type StudentDeliberationChangedEvent struct {
	BaseEvent
	SessionExamDeadlineID uuid.UUID `json:"session_exam_deadline_id"`
	OfferEnrollmentID     uuid.UUID `json:"offer_enrollment_id"`
	NumberSession         int       `json:"number_session"`
}

// NewStudentDeliberationChangedEvent creates a new StudentDeliberationChangedEvent.
func NewStudentDeliberationChangedEvent(deadlineID, enrollmentID uuid.UUID, numberSession int) StudentDeliberationChangedEvent {
	return StudentDeliberationChangedEvent{
		BaseEvent:             NewBaseEvent(EventStudentDeliberationChanged, deadlineID),
		SessionExamDeadlineID: deadlineID,
		OfferEnrollmentID:     enrollmentID,
		NumberSession:         numberSession,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error
}

// EventBus combines publishing and subscribing. The registry is populated
// during startup wiring and read-only afterwards.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
