package messaging

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/assessment-hub/internal/domain/shared"
)

func calendarEvent() shared.CalendarChangedEvent {
	return shared.NewCalendarChangedEvent(uuid.New(), "DELIBERATION")
}

func TestPublish_SynchronousInRegistrationOrder(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	var order []string
	require.NoError(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error {
		order = append(order, "first")
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error {
		order = append(order, "second")
		return nil
	}))

	require.NoError(t, bus.Publish(calendarEvent()))

	// Handlers ran to completion before Publish returned.
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublish_OnlyMatchingType(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventOfferCalendarChanged, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(calendarEvent()))
	assert.Zero(t, calls)
}

func TestPublish_HandlerErrorDoesNotPropagate(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	var secondRan bool
	require.NoError(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error {
		return errors.New("handler failed")
	}))
	require.NoError(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error {
		secondRan = true
		return nil
	}))

	// The publisher must never observe a handler failure.
	require.NoError(t, bus.Publish(calendarEvent()))
	assert.True(t, secondRan)
}

func TestPublish_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	var secondRan bool
	require.NoError(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error {
		panic("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error {
		secondRan = true
		return nil
	}))

	require.NoError(t, bus.Publish(calendarEvent()))
	assert.True(t, secondRan)
}

func TestSubscribeAll_SeesEveryEvent(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	var seen []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		seen = append(seen, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(calendarEvent()))
	require.NoError(t, bus.Publish(shared.NewOfferCalendarChangedEvent(uuid.New(), uuid.New(), "DELIBERATION")))

	assert.Equal(t, []shared.EventType{
		shared.EventCalendarChanged,
		shared.EventOfferCalendarChanged,
	}, seen)
}

func TestSubscribe_NilHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	assert.Error(t, bus.Subscribe(shared.EventCalendarChanged, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}

func TestClosedBus(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(calendarEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error { return nil }), ErrEventBusClosed)

	// Closing twice is fine.
	assert.NoError(t, bus.Close())
}

func TestMetrics(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	require.NoError(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error {
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventCalendarChanged, func(shared.Event) error {
		return errors.New("fail")
	}))
	require.NoError(t, bus.Publish(calendarEvent()))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.InDelta(t, 0.5, snap.HandlerSuccessRate, 0.001)
}
