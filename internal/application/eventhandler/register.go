package eventhandler

import (
	"fmt"

	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// RegisterAll wires the three propagation handlers onto the bus. Called
// once during startup, before any command can publish.
func RegisterAll(
	bus shared.EventSubscriber,
	onCalendar *OnCalendarChangedHandler,
	onOfferCalendar *OnOfferCalendarChangedHandler,
	onDeliberation *OnStudentDeliberationChangedHandler,
) error {
	if err := bus.Subscribe(shared.EventCalendarChanged, onCalendar.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventCalendarChanged, err)
	}
	if err := bus.Subscribe(shared.EventOfferCalendarChanged, onOfferCalendar.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventOfferCalendarChanged, err)
	}
	if err := bus.Subscribe(shared.EventStudentDeliberationChanged, onDeliberation.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventStudentDeliberationChanged, err)
	}
	return nil
}
