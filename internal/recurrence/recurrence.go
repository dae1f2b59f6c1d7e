// Package recurrence expands a VisitTemplate into concrete UTC days over a
// window. It converts a days-of-week/interval recurrence into an
// rrule.ROption and reads matches with rule.Between.
package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
)

var weekdayToRRule = map[domain.Weekday]rrule.Weekday{
	domain.Monday:    rrule.MO,
	domain.Tuesday:   rrule.TU,
	domain.Wednesday: rrule.WE,
	domain.Thursday:  rrule.TH,
	domain.Friday:    rrule.FR,
	domain.Saturday:  rrule.SA,
	domain.Sunday:    rrule.SU,
}

// Expand returns the UTC-day-normalized dates, within [from,to] inclusive,
// on which v recurs, given anchor as the effective start of its
// recurrence (the template's recurrence_start_date, or the receiver's
// created_at when unset).
func Expand(v domain.VisitTemplate, anchor time.Time, from, to time.Time) ([]time.Time, error) {
	days := v.DaysOfWeek
	if len(days) == 0 {
		days = domain.DefaultDaysOfWeek()
	}

	interval := v.RecurrenceInterval
	if interval < 1 {
		interval = 1
	}

	byweekday := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		byweekday = append(byweekday, weekdayToRRule[d])
	}

	dtstart := geo.UTCDay(anchor)
	windowFrom := geo.UTCDay(from)
	windowTo := geo.UTCDay(to)
	if windowFrom.Before(dtstart) {
		// Occurrences before the anchor never occur, so start the
		// search no earlier than dtstart itself.
		windowFrom = dtstart
	}
	if windowTo.Before(windowFrom) {
		return nil, nil
	}
	// Advance dtstart by whole multiples of the interval (keeping the week
	// parity) to the last such step on or before windowFrom, so rrule starts
	// near the window and an unset (zero) anchor never reaches it as a zero
	// Dtstart.
	period := int64(7 * interval)
	if skip := (windowFrom.Unix() - dtstart.Unix()) / 86400 / period; skip > 0 {
		dtstart = dtstart.AddDate(0, 0, int(skip*period))
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  interval,
		Byweekday: byweekday,
		Dtstart:   dtstart,
	})
	if err != nil {
		return nil, err
	}

	occurrences := rule.Between(windowFrom, windowTo, true)
	out := make([]time.Time, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, geo.UTCDay(o))
	}
	return out, nil
}

// Anchor resolves the effective recurrence anchor for v, falling back to
// receiverCreatedAt when RecurrenceStartDate is unset.
func Anchor(v domain.VisitTemplate, receiverCreatedAt time.Time) time.Time {
	if v.RecurrenceStartDate != nil {
		return *v.RecurrenceStartDate
	}
	return receiverCreatedAt
}

// OccursOn reports whether v recurs on UTC day d, given its anchor. This is
// the single-day predicate form of Expand, used by callers that already
// iterate days themselves (the Assignment Engine does).
func OccursOn(v domain.VisitTemplate, anchor time.Time, d time.Time) (bool, error) {
	day := geo.UTCDay(d)
	dates, err := Expand(v, anchor, day, day)
	if err != nil {
		return false, err
	}
	return len(dates) > 0, nil
}
