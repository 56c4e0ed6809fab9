package availability

import (
	"time"

	"github.com/google/uuid"
)

// Reasons a slot may be unavailable for.
const (
	ReasonBreak  = "break"
	ReasonPast   = "past"
	ReasonBooked = "booked"
)

// Suggestion priorities, assigned by time distance from the requested slot.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
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

// Appointment is the read model of an active appointment used to mark booked slots.
type Appointment struct {
	ID          int64     `json:"-" dbfield:"id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	DoctorID    int64     `json:"-" dbfield:"doctor_id"`
	PatientID   int64     `json:"-" dbfield:"patient_id"`
	PatientUUID uuid.UUID `json:"patient_uuid" dbfield:"patient_uuid"`
	Date        time.Time `json:"date" dbfield:"date"`
	Time        string    `json:"time" dbfield:"time"`
	Duration    int32     `json:"duration" dbfield:"duration"`
	Status      string    `json:"status" dbfield:"status"`
	Type        string    `json:"type" dbfield:"type"`
}

// AppointmentSummary is attached to booked slots for display purposes.
type AppointmentSummary struct {
	UUID        uuid.UUID `json:"uuid"`
	PatientUUID uuid.UUID `json:"patient_uuid"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
}

// TimeSlot is a computed, never persisted candidate appointment interval.
type TimeSlot struct {
	StartTime   string              `json:"start_time"`
	EndTime     string              `json:"end_time"`
	Available   bool                `json:"available"`
	Reason      string              `json:"reason,omitempty"`
	Appointment *AppointmentSummary `json:"appointment,omitempty"`
}

// DaySchedule holds the computed slot list of a doctor for a single date.
type DaySchedule struct {
	Date           string     `json:"date"`
	Working        bool       `json:"working"`
	Slots          []TimeSlot `json:"slots"`
	AvailableCount int        `json:"available_count"`
	BookedCount    int        `json:"booked_count"`
}

// Suggestion is an alternative bookable slot offered when a requested booking fails.
type Suggestion struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Priority string `json:"priority"`
}
