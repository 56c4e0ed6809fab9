package booking

import (
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/schedule"

	"github.com/google/uuid"
)

// Appointment statuses. An appointment with one of the active statuses occupies its slot.
const (
	StatusPending   = "PENDING"
	StatusScheduled = "SCHEDULED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW"
)

// Appointment types.
const (
	TypeConsultation = "CONSULTATION"
	TypeFollowUp     = "FOLLOW_UP"
	TypeCheckup      = "CHECKUP"
	TypeEmergency    = "EMERGENCY"
)

// Status transition actions.
const (
	ActionAccept   = "ACCEPT"
	ActionCancel   = "CANCEL"
	ActionComplete = "COMPLETE"
	ActionNoShow   = "NO_SHOW"
)

// transitions maps each action to the statuses it may be applied to and the resulting status.
var transitions = map[string]struct {
	from []string
	to   string
}{
	ActionAccept:   {from: []string{StatusPending}, to: StatusScheduled},
	ActionCancel:   {from: []string{StatusPending, StatusScheduled}, to: StatusCancelled},
	ActionComplete: {from: []string{StatusScheduled}, to: StatusCompleted},
	ActionNoShow:   {from: []string{StatusScheduled}, to: StatusNoShow},
}

type Patient struct {
	ID          int64     `json:"-" dbfield:"id"`
	UserID      int64     `json:"-" dbfield:"user_id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	Name        string    `json:"name" dbfield:"name"`
	Email       string    `json:"email" dbfield:"email"`
	MobilePhone string    `json:"mobile_phone" dbfield:"mobile_phone"`
}

type Doctor struct {
	ID          int64     `json:"-" dbfield:"id"`
	UserID      int64     `json:"-" dbfield:"user_id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	Name        string    `json:"name" dbfield:"name"`
	Email       string    `json:"email" dbfield:"email"`
	MobilePhone string    `json:"mobile_phone" dbfield:"mobile_phone"`
	Specialty   string    `json:"specialty" dbfield:"specialty"`
}

type Appointment struct {
	ID        int64     `json:"-" dbfield:"id"`
	UUID      uuid.UUID `json:"uuid" dbfield:"uuid"`
	DoctorID  int64     `json:"-" dbfield:"doctor_id"`
	PatientID int64     `json:"-" dbfield:"patient_id"`
	Date      time.Time `json:"date" dbfield:"date"`
	Time      string    `json:"time" dbfield:"time"`
	Duration  int32     `json:"duration" dbfield:"duration"`
	Status    string    `json:"status" dbfield:"status"`
	Type      string    `json:"type" dbfield:"type"`
}

// IsActive checks if the appointment occupies its slot.
func (a Appointment) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusScheduled || a.Status == StatusCompleted
}

// BookingRequest is the payload used to book a new appointment.
type BookingRequest struct {
	DoctorUUID  uuid.UUID `json:"doctor_uuid"`
	PatientUUID uuid.UUID `json:"patient_uuid"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Type        string    `json:"type"`
}

// Validate checks if the given request is valid.
func (b BookingRequest) Validate() error {
	if _, err := time.Parse(schedule.DateLayout, b.Date); err != nil {
		return apierrors.NewValidationError("date", "malformed date")
	}
	if _, err := schedule.ParseClock(b.Time); err != nil {
		return apierrors.NewValidationError("time", "malformed time")
	}
	switch b.Type {
	case TypeConsultation, TypeFollowUp, TypeCheckup, TypeEmergency:
	default:
		return apierrors.NewValidationError("type", "unsupported appointment type")
	}
	return nil
}

// RescheduleRequest is the payload used to move an appointment to a new slot.
type RescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Validate checks if the given request is valid.
func (r RescheduleRequest) Validate() error {
	if _, err := time.Parse(schedule.DateLayout, r.Date); err != nil {
		return apierrors.NewValidationError("date", "malformed date")
	}
	if _, err := schedule.ParseClock(r.Time); err != nil {
		return apierrors.NewValidationError("time", "malformed time")
	}
	return nil
}

// ActionRequest is the payload used to apply a status transition to an appointment.
type ActionRequest struct {
	AppointmentUUID uuid.UUID `json:"appointment_uuid"`
	Action          string    `json:"action"`
}

// Validate checks if the given request is valid.
func (a ActionRequest) Validate() error {
	if _, known := transitions[a.Action]; !known {
		return apierrors.NewValidationError("action", "unsupported action")
	}
	return nil
}
