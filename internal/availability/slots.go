package availability

import (
	"time"

	"clinic-scheduling/internal/schedule"
)

// GenerateSlots computes the candidate time slots for the given working day and date.
// It is a pure function: the current time is taken as an argument, no I/O is performed.
//
// The slot stride is the appointment duration plus the buffer time. Starting at the day's
// start time, a slot [t, t+duration) is emitted for each step while t+stride still fits
// before the end time, capped at the day's appointment capacity. Slots intersecting the
// break interval are unavailable with reason "break"; slots already elapsed, or any slot
// on a past date, are unavailable with reason "past".
func GenerateSlots(day schedule.WorkingDay, date time.Time, now time.Time) []TimeSlot {
	if !day.IsWorking {
		return []TimeSlot{}
	}
	start, err := schedule.ParseClock(day.StartTime)
	if err != nil {
		return []TimeSlot{}
	}
	end, err := schedule.ParseClock(day.EndTime)
	if err != nil {
		return []TimeSlot{}
	}
	var breakStart, breakEnd int32 = -1, -1
	if day.BreakStart != nil && day.BreakEnd != nil {
		if breakStart, err = schedule.ParseClock(*day.BreakStart); err != nil {
			return []TimeSlot{}
		}
		if breakEnd, err = schedule.ParseClock(*day.BreakEnd); err != nil {
			return []TimeSlot{}
		}
	}
	duration := day.AppointmentDuration
	stride := duration + day.BufferMinutes
	pastDate, pastMinute := elapsedReference(day.Timezone, date, now)

	slots := make([]TimeSlot, 0, day.MaxAppointments)
	for t := start; t+stride <= end && int32(len(slots)) < day.MaxAppointments; t += stride {
		slot := TimeSlot{
			StartTime: schedule.FormatClock(t),
			EndTime:   schedule.FormatClock(t + duration),
			Available: true,
		}
		if breakStart >= 0 && t < breakEnd && t+duration > breakStart {
			slot.Available = false
			slot.Reason = ReasonBreak
		}
		if pastDate || (pastMinute >= 0 && t <= pastMinute) {
			slot.Available = false
			slot.Reason = ReasonPast
		}
		slots = append(slots, slot)
	}
	return slots
}

// elapsedReference resolves how the given date relates to the current time, in the working
// day's timezone. It reports whether the whole date lies in the past and, for the current
// date, the last elapsed minute of day (-1 otherwise).
func elapsedReference(timezone string, date time.Time, now time.Time) (bool, int32) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		location = time.UTC
	}
	localNow := now.In(location)
	nowYear, nowMonth, nowDay := localNow.Date()
	dateYear, dateMonth, dateDay := date.Date()
	today := time.Date(nowYear, nowMonth, nowDay, 0, 0, 0, 0, time.UTC)
	reference := time.Date(dateYear, dateMonth, dateDay, 0, 0, 0, 0, time.UTC)
	if reference.Before(today) {
		return true, -1
	}
	if reference.Equal(today) {
		return false, int32(localNow.Hour()*60 + localNow.Minute())
	}
	return false, -1
}
