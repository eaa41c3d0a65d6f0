package engine

import (
	"context"
	"sort"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// pairedCalendar resolves, from a given offer year calendar, the offer year
// calendar of a different reference for the same education group year and
// session number. This is the join point where DELIBERATION and
// SCORES_EXAM_SUBMISSION calendars are paired.
//
// A session-less calendar cannot be paired. Legacy data can make the query
// match more than once; by default that is treated as a failed lookup, with
// LenientLookup opting into picking the most recently changed row instead.
func (c *Computer) pairedCalendar(ctx context.Context, oyc *offer.YearCalendar, reference calendar.Reference) (*offer.YearCalendar, error) {
	if oyc.Reference() == reference {
		return oyc, nil
	}

	numberSession, err := c.calendars.GetSessionNumber(ctx, oyc.AcademicCalendarID)
	if err != nil {
		if shared.IsNotFound(err) || shared.IsLookupFailure(err) {
			return nil, shared.ErrNoSessionNumber
		}
		return nil, err
	}

	matches, err := c.offers.FindYearCalendars(ctx, oyc.EducationGroupYearID, reference, numberSession)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, shared.ErrLookupMissing
	case 1:
		return matches[0], nil
	default:
		if !c.lenientLookup {
			c.logger.Warn("ambiguous paired calendar lookup",
				"offer", oyc.OfferAcronym,
				"reference", reference,
				"number_session", int(numberSession),
				"matches", len(matches),
			)
			return nil, shared.ErrAmbiguousLookup
		}
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].Changed.After(matches[j].Changed)
		})
		return matches[0], nil
	}
}

// lookupOrNil wraps pairedCalendar for the computer: lookup failures are
// logged at warning level and collapse to nil, never raised.
func (c *Computer) lookupOrNil(ctx context.Context, oyc *offer.YearCalendar, reference calendar.Reference) (*offer.YearCalendar, error) {
	paired, err := c.pairedCalendar(ctx, oyc, reference)
	if err != nil {
		if shared.IsLookupFailure(err) {
			c.logger.Warn("no paired calendar for offer",
				"offer", oyc.OfferAcronym,
				"reference", reference,
				"error", err,
			)
			return nil, nil
		}
		return nil, err
	}
	return paired, nil
}
