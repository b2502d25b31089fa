package callers

import (
	"fmt"
	"strings"
	"time"

	"call_manager_go/models"

	"github.com/teambition/rrule-go"
)

// Interval is the spacing between repeated calls
type Interval string

// Interval constants
const (
	Daily   Interval = "d"
	Weekly  Interval = "w"
	Monthly Interval = "m"
	Yearly  Interval = "y"
)

// ParseInterval accepts the one letter codes and the spelled out names
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "d", "daily":
		return Daily, nil
	case "w", "weekly":
		return Weekly, nil
	case "m", "monthly":
		return Monthly, nil
	case "y", "yearly":
		return Yearly, nil
	}
	return "", fmt.Errorf("invalid interval %q", s)
}

// Valid reports whether i is one of the known intervals
func (i Interval) Valid() bool {
	switch i {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (i Interval) String() string {
	switch i {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return "unset"
	}
}

// Next returns the date following reference for this interval.
// Monthly and yearly land on the first day, on or after the same calendar day one month
// (year) later, that falls on the reference weekday. Weekends and holidays are not skipped.
// Returns false when the interval is unset.
func (i Interval) Next(reference time.Time) (time.Time, bool) {
	ref := models.DateOf(reference)

	var opt rrule.ROption
	switch i {
	case Daily:
		opt = rrule.ROption{Freq: rrule.DAILY, Dtstart: ref, Count: 2}
	case Weekly:
		opt = rrule.ROption{Freq: rrule.WEEKLY, Dtstart: ref, Count: 2}
	case Monthly:
		opt = sameWeekdayFrom(ref, ref.AddDate(0, 1, 0))
	case Yearly:
		opt = sameWeekdayFrom(ref, ref.AddDate(1, 0, 0))
	default:
		return time.Time{}, false
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, false
	}
	next := rule.After(ref, false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return models.DateOf(next), true
}

var weekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

func sameWeekdayFrom(ref, start time.Time) rrule.ROption {
	return rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   start,
		Byweekday: []rrule.Weekday{weekdays[ref.Weekday()]},
		Count:     1,
	}
}
