package schedule

import (
	"time"

	"clinic-scheduling/internal/apierrors"
)

// defaultHorizonDays bounds the expansion when the rule carries no effective_until.
const defaultHorizonDays = 90

// DatesFor expands the given recurrence rule into the ordered set of calendar dates the
// weekly schedule applies to, within [rangeStart, rangeEnd]. The expansion is bounded by
// rangeEnd, by the rule's effective window and by a 90-day horizon when effective_until
// is absent. Calling it twice with the same inputs yields the same dates.
func DatesFor(rule RecurrenceRule, week []WorkingDay, rangeStart, rangeEnd time.Time) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	start := truncateToDay(rangeStart)
	end := truncateToDay(rangeEnd)
	if end.Before(start) {
		return nil, apierrors.NewValidationError("range", ErrInvalidDateRange)
	}
	horizon := start.AddDate(0, 0, defaultHorizonDays)
	if rule.EffectiveUntil == nil && end.After(horizon) {
		end = horizon
	}
	if rule.EffectiveFrom != nil {
		effectiveFrom := truncateToDay(*rule.EffectiveFrom)
		if effectiveFrom.After(start) {
			start = effectiveFrom
		}
	}
	if rule.EffectiveUntil != nil {
		effectiveUntil := truncateToDay(*rule.EffectiveUntil)
		if effectiveUntil.Before(end) {
			end = effectiveUntil
		}
	}
	anchor := start
	if rule.EffectiveFrom != nil {
		anchor = truncateToDay(*rule.EffectiveFrom)
	}
	dates := make([]time.Time, 0)
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		matches, err := ruleMatches(rule, week, date, anchor)
		if err != nil {
			return nil, err
		}
		if matches {
			dates = append(dates, date)
		}
	}
	return dates, nil
}

// ruleMatches checks if the weekly schedule applies to the given date under the rule.
func ruleMatches(rule RecurrenceRule, week []WorkingDay, date, anchor time.Time) (bool, error) {
	switch rule.Type {
	case RecurrenceDaily:
		return hasWorkingDay(week), nil
	case RecurrenceWeekly:
		return isWorkingWeekday(week, date), nil
	case RecurrenceBiweekly:
		return isWorkingWeekday(week, date) && sameWeekParity(date, anchor), nil
	case RecurrenceMonthly:
		return matchesMonthlyDay(date, anchor), nil
	case RecurrenceCustom:
		return matchesCustomPattern(rule, week, date, anchor)
	}
	return false, apierrors.NewValidationError("recurrence_type", "unsupported recurrence type")
}

func truncateToDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func hasWorkingDay(week []WorkingDay) bool {
	for _, day := range week {
		if day.IsWorking {
			return true
		}
	}
	return false
}

func isWorkingWeekday(week []WorkingDay, date time.Time) bool {
	weekday := int(date.Weekday())
	if weekday >= len(week) {
		return false
	}
	return week[weekday].IsWorking
}

// sameWeekParity checks if the ISO week numbers of both dates share the same parity.
func sameWeekParity(date, anchor time.Time) bool {
	_, dateWeek := date.ISOWeek()
	_, anchorWeek := anchor.ISOWeek()
	return dateWeek%2 == anchorWeek%2
}

// matchesMonthlyDay checks if the date falls on the anchor's day of month, clipped to the
// last valid day of shorter months.
func matchesMonthlyDay(date, anchor time.Time) bool {
	wanted := anchor.Day()
	lastDay := daysInMonth(date.Year(), date.Month())
	if wanted > lastDay {
		wanted = lastDay
	}
	return date.Day() == wanted
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func matchesCustomPattern(rule RecurrenceRule, week []WorkingDay, date, anchor time.Time) (bool, error) {
	if rule.CustomPattern == nil {
		return false, apierrors.NewValidationError("custom_pattern", "required for CUSTOM recurrence")
	}
	weekday := date.Weekday()
	switch *rule.CustomPattern {
	case PatternMonWedFri:
		return weekday == time.Monday || weekday == time.Wednesday || weekday == time.Friday, nil
	case PatternTueThu:
		return weekday == time.Tuesday || weekday == time.Thursday, nil
	case PatternWeekdays:
		return weekday >= time.Monday && weekday <= time.Friday, nil
	case PatternWeekends:
		return weekday == time.Saturday || weekday == time.Sunday, nil
	case PatternAlternateWeeks:
		return isWorkingWeekday(week, date) && sameWeekParity(date, anchor), nil
	}
	return false, apierrors.NewValidationError("custom_pattern", ErrUnsupportedPattern)
}
