package schedule

import (
	"time"

	"clinic-scheduling/internal/apierrors"

	"github.com/google/uuid"
)

const (
	// ClockLayout is the layout used for day times, e.g. "09:35".
	ClockLayout = "15:04"

	// DateLayout is the layout used for calendar dates, e.g. "2021-08-10".
	DateLayout = "2006-01-02"

	daysPerWeek = 7

	minAppointmentsPerDay = 1
	maxAppointmentsPerDay = 32
	minDurationMinutes    = 15
	maxDurationMinutes    = 480
	minBufferMinutes      = 0
	maxBufferMinutes      = 60
)

// RecurrenceType determines how a weekly schedule is projected onto calendar dates.
type RecurrenceType string

const (
	RecurrenceDaily    RecurrenceType = "DAILY"
	RecurrenceWeekly   RecurrenceType = "WEEKLY"
	RecurrenceBiweekly RecurrenceType = "BIWEEKLY"
	RecurrenceMonthly  RecurrenceType = "MONTHLY"
	RecurrenceCustom   RecurrenceType = "CUSTOM"
)

// Custom recurrence patterns. Free-text patterns are unsupported, only this closed set.
const (
	PatternMonWedFri      = "MON_WED_FRI"
	PatternTueThu         = "TUE_THU"
	PatternWeekdays       = "WEEKDAYS"
	PatternWeekends       = "WEEKENDS"
	PatternAlternateWeeks = "ALTERNATE_WEEKS"
)

type Doctor struct {
	ID          int64     `json:"-" dbfield:"id"`
	UserID      int64     `json:"-" dbfield:"user_id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	Name        string    `json:"name" dbfield:"name"`
	Email       string    `json:"email" dbfield:"email"`
	MobilePhone string    `json:"mobile_phone" dbfield:"mobile_phone"`
	Specialty   string    `json:"specialty" dbfield:"specialty"`
}

// WorkingDay holds the configuration of a single weekday of a doctor's schedule.
type WorkingDay struct {
	DayOfWeek           int32   `json:"day_of_week" dbfield:"day_of_week"` // 0=Sunday ... 6=Saturday
	IsWorking           bool    `json:"is_working" dbfield:"is_working"`
	StartTime           string  `json:"start_time" dbfield:"start_time"`
	EndTime             string  `json:"end_time" dbfield:"end_time"`
	BreakStart          *string `json:"break_start,omitempty" dbfield:"break_start"`
	BreakEnd            *string `json:"break_end,omitempty" dbfield:"break_end"`
	MaxAppointments     int32   `json:"max_appointments" dbfield:"max_appointments"`
	AppointmentDuration int32   `json:"appointment_duration_minutes" dbfield:"appointment_duration"`
	BufferMinutes       int32   `json:"buffer_minutes" dbfield:"buffer_minutes"`
	Timezone            string  `json:"timezone" dbfield:"timezone"`
}

// ParseClock parses a "15:04" value into minutes elapsed since midnight.
func ParseClock(value string) (int32, error) {
	parsed, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, err
	}
	return int32(parsed.Hour()*60 + parsed.Minute()), nil
}

// FormatClock formats minutes elapsed since midnight as a "15:04" value.
func FormatClock(minutes int32) string {
	reference := time.Date(0, 1, 1, int(minutes)/60, int(minutes)%60, 0, 0, time.UTC)
	return reference.Format(ClockLayout)
}

// Validate validates the working day invariants.
func (w WorkingDay) Validate() error {
	if w.DayOfWeek < 0 || w.DayOfWeek >= daysPerWeek {
		return apierrors.NewValidationError("day_of_week", "must be between 0 and 6")
	}
	if !w.IsWorking {
		return nil
	}
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return apierrors.NewValidationError("start_time", "malformed time")
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return apierrors.NewValidationError("end_time", "malformed time")
	}
	if start >= end {
		return apierrors.NewValidationError("end_time", "must be after start_time")
	}
	if (w.BreakStart == nil) != (w.BreakEnd == nil) {
		return apierrors.NewValidationError("break_start", "break must have both start and end")
	}
	if w.BreakStart != nil {
		breakStart, err := ParseClock(*w.BreakStart)
		if err != nil {
			return apierrors.NewValidationError("break_start", "malformed time")
		}
		breakEnd, err := ParseClock(*w.BreakEnd)
		if err != nil {
			return apierrors.NewValidationError("break_end", "malformed time")
		}
		if breakStart >= breakEnd {
			return apierrors.NewValidationError("break_end", "must be after break_start")
		}
		if breakStart < start || breakEnd > end {
			return apierrors.NewValidationError("break_start", "break outside working hours")
		}
	}
	if w.MaxAppointments < minAppointmentsPerDay || w.MaxAppointments > maxAppointmentsPerDay {
		return apierrors.NewValidationError("max_appointments", "must be between 1 and 32")
	}
	if w.AppointmentDuration < minDurationMinutes || w.AppointmentDuration > maxDurationMinutes {
		return apierrors.NewValidationError("appointment_duration_minutes", "must be between 15 and 480")
	}
	if w.BufferMinutes < minBufferMinutes || w.BufferMinutes > maxBufferMinutes {
		return apierrors.NewValidationError("buffer_minutes", "must be between 0 and 60")
	}
	return nil
}

// RecurrenceRule determines which calendar dates a weekly schedule applies to. A zero-valued
// rule means the schedule applies indefinitely, on every working weekday.
type RecurrenceRule struct {
	Type           RecurrenceType `json:"recurrence_type" dbfield:"recurrence_type"`
	CustomPattern  *string        `json:"custom_pattern,omitempty" dbfield:"custom_pattern"`
	EffectiveFrom  *time.Time     `json:"effective_from,omitempty" dbfield:"effective_from"`
	EffectiveUntil *time.Time     `json:"effective_until,omitempty" dbfield:"effective_until"`
}

// DefaultRecurrenceRule returns the rule applied to doctors without recurrence metadata.
func DefaultRecurrenceRule() RecurrenceRule {
	return RecurrenceRule{Type: RecurrenceWeekly}
}

// Validate validates the recurrence rule.
func (r RecurrenceRule) Validate() error {
	switch r.Type {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
	case RecurrenceCustom:
		if r.CustomPattern == nil {
			return apierrors.NewValidationError("custom_pattern", "required for CUSTOM recurrence")
		}
		switch *r.CustomPattern {
		case PatternMonWedFri, PatternTueThu, PatternWeekdays, PatternWeekends, PatternAlternateWeeks:
		default:
			return apierrors.NewValidationError("custom_pattern", "unsupported pattern")
		}
	default:
		return apierrors.NewValidationError("recurrence_type", "unsupported recurrence type")
	}
	if r.requiresAnchor() && r.EffectiveFrom == nil {
		return apierrors.NewValidationError("effective_from", "required for anchored recurrence")
	}
	if r.EffectiveFrom != nil && r.EffectiveUntil != nil && r.EffectiveUntil.Before(*r.EffectiveFrom) {
		return apierrors.NewValidationError("effective_until", "must be after effective_from")
	}
	return nil
}

// requiresAnchor reports whether the rule's matching depends on effective_from. Without a
// stored anchor, biweekly parity and the monthly day of month would shift with the queried
// range, making point lookups disagree with ranged expansion.
func (r RecurrenceRule) requiresAnchor() bool {
	switch r.Type {
	case RecurrenceBiweekly, RecurrenceMonthly:
		return true
	case RecurrenceCustom:
		return r.CustomPattern != nil && *r.CustomPattern == PatternAlternateWeeks
	}
	return false
}

// WeeklySchedule holds the seven working day records of a doctor plus its recurrence metadata.
type WeeklySchedule struct {
	Days       []WorkingDay   `json:"working_days"`
	Recurrence RecurrenceRule `json:"recurrence"`
}

// Validate validates every day record and the recurrence rule. The week must hold exactly
// seven records, ordered by day of week.
func (s WeeklySchedule) Validate() error {
	if len(s.Days) != daysPerWeek {
		return apierrors.NewValidationError("working_days", "must hold exactly 7 day records")
	}
	for i, day := range s.Days {
		if day.DayOfWeek != int32(i) {
			return apierrors.NewValidationError("working_days", "day records must be ordered by day_of_week")
		}
		if err := day.Validate(); err != nil {
			return err
		}
	}
	return s.Recurrence.Validate()
}

// DayFor gets the working day record that applies to the given date.
func (s WeeklySchedule) DayFor(date time.Time) WorkingDay {
	return s.Days[int(date.Weekday())]
}

// ScheduleTemplate is a named, reusable snapshot of a full weekly schedule. Applying a
// template copies its days, so later template edits never change applied schedules.
type ScheduleTemplate struct {
	ID           int64        `json:"-" dbfield:"id"`
	UUID         uuid.UUID    `json:"uuid" dbfield:"uuid"`
	Name         string       `json:"name" dbfield:"name"`
	TemplateType string       `json:"template_type" dbfield:"template_type"`
	IsDefault    bool         `json:"is_default" dbfield:"is_default"`
	Days         []WorkingDay `json:"working_days"`
}

// Validate validates the template and its day records.
func (t ScheduleTemplate) Validate() error {
	if t.Name == "" {
		return apierrors.NewValidationError("name", "required")
	}
	if t.TemplateType == "" {
		return apierrors.NewValidationError("template_type", "required")
	}
	if len(t.Days) != daysPerWeek {
		return apierrors.NewValidationError("working_days", "must hold exactly 7 day records")
	}
	for i, day := range t.Days {
		if day.DayOfWeek != int32(i) {
			return apierrors.NewValidationError("working_days", "day records must be ordered by day_of_week")
		}
		if err := day.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultWeek returns a week with every day marked as non-working.
func DefaultWeek() []WorkingDay {
	days := make([]WorkingDay, daysPerWeek)
	for i := range days {
		days[i] = WorkingDay{
			DayOfWeek:           int32(i),
			IsWorking:           false,
			MaxAppointments:     maxAppointmentsPerDay,
			AppointmentDuration: 30,
			BufferMinutes:       0,
			Timezone:            "UTC",
		}
	}
	return days
}
