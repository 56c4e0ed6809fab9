// Package booking contains handlers, services and structures used to commit appointment
// bookings, reschedules and status transitions against the doctors' availability.
package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/availability"
	"clinic-scheduling/internal/configs"
	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/logging"
	"clinic-scheduling/internal/metrics"
	"clinic-scheduling/internal/notify"
	"clinic-scheduling/internal/schedule"

	"github.com/google/uuid"
)

// Booker determines the methods available to book new appointments.
type Booker interface {

	// Book validates the requested slot and atomically commits a new appointment. A lost
	// race against a concurrent booking surfaces as a ConflictError.
	Book(ctx context.Context, request BookingRequest) (*Appointment, error)
}

// Rescheduler determines the methods available to move existing appointments.
type Rescheduler interface {

	// Reschedule validates the target slot and atomically moves the appointment onto it.
	Reschedule(ctx context.Context, appointmentUUID uuid.UUID, request RescheduleRequest) (*Appointment, error)
}

// StatusManager determines the methods available to transition appointment statuses.
type StatusManager interface {

	// Transition applies the given action to the appointment status.
	Transition(ctx context.Context, request ActionRequest) (*Appointment, error)
}

// Reader determines the methods available to read appointments.
type Reader interface {

	// ListForDay lists the doctor's appointments on the given date.
	ListForDay(ctx context.Context, doctorUUID uuid.UUID, date time.Time) ([]*Appointment, error)
}

// Service determines the methods used to manage appointments.
type Service interface {
	Booker
	Rescheduler
	StatusManager
	Reader
}

type defaultService struct {
	repository   Repository
	availability availability.Service
	notifier     notify.Notifier
	config       configs.Config
	logger       *log.Logger
}

// NewService creates a new booking service.
func NewService(config configs.Config, dbConn database.Connection, logger *log.Logger) Service {
	return &defaultService{
		config:       config,
		repository:   newRepository(dbConn),
		availability: availability.NewService(config, dbConn),
		notifier:     notify.NewNotifier(config),
		logger:       logger,
	}
}

// findSlot gets the generated slot starting at the given time, if there is one.
func findSlot(slots []availability.TimeSlot, slotTime string) *availability.TimeSlot {
	for i := range slots {
		if slots[i].StartTime == slotTime {
			return &slots[i]
		}
	}
	return nil
}

// slotDuration computes the appointment duration of the given slot, in minutes.
func slotDuration(slot availability.TimeSlot) int32 {
	start, err := schedule.ParseClock(slot.StartTime)
	if err != nil {
		return 0
	}
	end, err := schedule.ParseClock(slot.EndTime)
	if err != nil {
		return 0
	}
	return end - start
}

func (d defaultService) Book(ctx context.Context, request BookingRequest) (*Appointment, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	date, _ := time.Parse(schedule.DateLayout, request.Date)
	doctor, err := d.repository.FindDoctorByUUID(ctx, request.DoctorUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return nil, apierrors.NewNotFoundError(ErrDoctorNotFound)
	}
	patient, err := d.repository.FindPatientByUUID(ctx, request.PatientUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if patient == nil {
		return nil, apierrors.NewNotFoundError(ErrPatientNotFound)
	}
	daySchedule, err := d.availability.Availability(ctx, request.DoctorUUID, date)
	if err != nil {
		return nil, err
	}
	slot := findSlot(daySchedule.Slots, request.Time)
	if slot == nil {
		return nil, apierrors.NewValidationError("time", ErrSlotNotBookable)
	}
	if !slot.Available {
		if slot.Reason == availability.ReasonBooked {
			return nil, apierrors.NewConflictError(ErrSlotAlreadyBooked)
		}
		if slot.Reason == availability.ReasonPast {
			return nil, apierrors.NewValidationError("time", ErrSlotInPast)
		}
		return nil, apierrors.NewValidationError("time", ErrSlotNotAvailable)
	}
	appointment := Appointment{
		UUID:      uuid.New(),
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Date:      date,
		Time:      request.Time,
		Duration:  slotDuration(*slot),
		Status:    StatusPending,
		Type:      request.Type,
	}
	// The insert is guarded by the slot uniqueness constraint: a concurrent booking that
	// committed after the availability read above loses nothing but this request.
	if err = d.repository.InsertAppointment(ctx, appointment); err != nil {
		if database.IsUniqueViolation(err) {
			metrics.BookingConflictsTotal.Inc()
			return nil, apierrors.NewConflictError(ErrSlotAlreadyBooked)
		}
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	metrics.BookingsTotal.Inc()
	d.dispatchNotification(ctx, appointment, doctor.UUID, patient.UUID, false)
	return &appointment, nil
}

func (d defaultService) Reschedule(ctx context.Context, appointmentUUID uuid.UUID, request RescheduleRequest) (*Appointment, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	date, _ := time.Parse(schedule.DateLayout, request.Date)
	appointment, err := d.repository.FindAppointmentByUUID(ctx, appointmentUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if appointment == nil {
		return nil, apierrors.NewNotFoundError(ErrAppointmentNotFound)
	}
	if appointment.Status != StatusPending && appointment.Status != StatusScheduled {
		return nil, apierrors.NewValidationError("status", ErrNotReschedulable)
	}
	doctor, err := d.repository.FindDoctorByID(ctx, appointment.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return nil, apierrors.NewNotFoundError(ErrDoctorNotFound)
	}
	daySchedule, err := d.availability.Availability(ctx, doctor.UUID, date)
	if err != nil {
		return nil, err
	}
	slot := findSlot(daySchedule.Slots, request.Time)
	if slot == nil {
		return nil, apierrors.NewValidationError("time", ErrSlotNotBookable)
	}
	if !slot.Available {
		switch slot.Reason {
		case availability.ReasonPast:
			return nil, apierrors.NewValidationError("time", ErrSlotInPast)
		case availability.ReasonBooked:
			// Moving an appointment onto its own slot is not a conflict.
			if slot.Appointment == nil || slot.Appointment.UUID != appointment.UUID {
				return nil, apierrors.NewConflictError(ErrSlotAlreadyBooked)
			}
		default:
			return nil, apierrors.NewValidationError("time", ErrSlotNotAvailable)
		}
	}
	// A single update frees the old slot and claims the new one; the slot uniqueness
	// constraint still guards against a concurrent claim of the target, and the status
	// guard against a transition committed after the read above.
	moved, err := d.repository.RescheduleAppointment(ctx, appointment.ID, date, request.Time, StatusScheduled)
	if err != nil {
		if database.IsUniqueViolation(err) {
			metrics.BookingConflictsTotal.Inc()
			return nil, apierrors.NewConflictError(ErrSlotAlreadyBooked)
		}
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if !moved {
		metrics.BookingConflictsTotal.Inc()
		return nil, apierrors.NewConflictError(ErrNotReschedulable)
	}
	metrics.ReschedulesTotal.Inc()
	appointment.Date = date
	appointment.Time = request.Time
	appointment.Status = StatusScheduled
	patientUUID := uuid.UUID{}
	if patient, err := d.repository.FindPatientByID(ctx, appointment.PatientID); err == nil && patient != nil {
		patientUUID = patient.UUID
	}
	d.dispatchNotification(ctx, *appointment, doctor.UUID, patientUUID, true)
	return appointment, nil
}

func (d defaultService) Transition(ctx context.Context, request ActionRequest) (*Appointment, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	appointment, err := d.repository.FindAppointmentByUUID(ctx, request.AppointmentUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if appointment == nil {
		return nil, apierrors.NewNotFoundError(ErrAppointmentNotFound)
	}
	transition := transitions[request.Action]
	allowed := false
	for _, from := range transition.from {
		if appointment.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apierrors.NewValidationError("action", ErrIllegalTransition)
	}
	// Guarded by the expected current status, so concurrent transitions cannot interleave.
	updated, err := d.repository.UpdateStatus(ctx, appointment.ID, transition.to, appointment.Status)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if !updated {
		return nil, apierrors.NewConflictError(ErrConcurrentStatusChange)
	}
	appointment.Status = transition.to
	return appointment, nil
}

func (d defaultService) ListForDay(ctx context.Context, doctorUUID uuid.UUID, date time.Time) ([]*Appointment, error) {
	doctor, err := d.repository.FindDoctorByUUID(ctx, doctorUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return nil, apierrors.NewNotFoundError(ErrDoctorNotFound)
	}
	appointments, err := d.repository.ListAppointments(ctx, doctor.ID, date)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return appointments, nil
}

// dispatchNotification notifies the external service about a committed operation. Dispatch
// failures are logged as warnings and never invalidate the committed appointment.
func (d defaultService) dispatchNotification(ctx context.Context, appointment Appointment, doctorUUID uuid.UUID, patientUUID uuid.UUID, rescheduled bool) {
	event := notify.Event{
		AppointmentUUID: appointment.UUID,
		DoctorUUID:      doctorUUID,
		PatientUUID:     patientUUID,
		Date:            appointment.Date.Format(schedule.DateLayout),
		Time:            appointment.Time,
	}
	var err error
	if rescheduled {
		err = d.notifier.AppointmentRescheduled(ctx, event)
	} else {
		err = d.notifier.AppointmentBooked(ctx, event)
	}
	if err != nil {
		logging.PrintlnWarn(d.logger, fmt.Sprint("notification dispatch failed: ", err))
	}
}
