// Package availability contains the engine that turns a doctor's weekly schedule into the
// concrete, conflict-free slot list for a calendar date, and the suggestion engine that
// searches subsequent days for alternative slots.
package availability

import (
	"context"
	"fmt"
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/configs"
	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/schedule"

	"github.com/google/uuid"
)

// Service determines the methods used to compute doctors' availability.
type Service interface {

	// Availability returns the doctor's computed slot list for the given date. Dates the
	// recurrence rule excludes yield an advisory non-working schedule, not an error.
	Availability(ctx context.Context, doctorUUID uuid.UUID, date time.Time) (*DaySchedule, error)

	// Suggest returns up to eight ranked alternative slots within the given horizon.
	Suggest(ctx context.Context, doctorUUID uuid.UUID, requestedDate time.Time, requestedTime string, horizonDays int32) ([]Suggestion, error)
}

type defaultService struct {
	repository Repository
	config     configs.Config
	now        func() time.Time
}

// NewService creates a new availability service.
func NewService(config configs.Config, dbConn database.Connection) Service {
	return &defaultService{
		config:     config,
		repository: newRepository(dbConn),
		now:        time.Now,
	}
}

func (d defaultService) Availability(ctx context.Context, doctorUUID uuid.UUID, date time.Time) (*DaySchedule, error) {
	doctor, err := d.repository.FindDoctorByUUID(ctx, doctorUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return nil, apierrors.NewNotFoundError(ErrDoctorNotFound)
	}
	return d.availabilityFor(ctx, doctor, date)
}

// availabilityFor computes the day schedule for an already resolved doctor.
func (d defaultService) availabilityFor(ctx context.Context, doctor *Doctor, date time.Time) (*DaySchedule, error) {
	daySchedule := &DaySchedule{
		Date:  date.Format(schedule.DateLayout),
		Slots: []TimeSlot{},
	}
	week, err := d.repository.ListWorkingDays(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if len(week) != 7 {
		return daySchedule, nil
	}
	rule, err := d.repository.FindRecurrenceRule(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if rule == nil {
		defaultRule := schedule.DefaultRecurrenceRule()
		rule = &defaultRule
	}
	dates, err := schedule.DatesFor(*rule, week, date, date)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return daySchedule, nil
	}
	day := week[int(date.Weekday())]
	slots := GenerateSlots(day, date, d.now())
	if len(slots) == 0 {
		return daySchedule, nil
	}
	appointments, err := d.repository.ListActiveAppointments(ctx, doctor.ID, date)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	markBookedSlots(slots, appointments)
	daySchedule.Working = true
	daySchedule.Slots = slots
	for _, slot := range slots {
		if slot.Available {
			daySchedule.AvailableCount++
		}
		if slot.Reason == ReasonBooked {
			daySchedule.BookedCount++
		}
	}
	return daySchedule, nil
}

// markBookedSlots marks every slot occupied by an active appointment as unavailable and
// attaches the appointment summary. Booked is the most informative state, so it also
// overrides a previous break or past marking.
func markBookedSlots(slots []TimeSlot, appointments []*Appointment) {
	for i := range slots {
		for _, appointment := range appointments {
			if normalizeClock(appointment.Time) != slots[i].StartTime {
				continue
			}
			slots[i].Available = false
			slots[i].Reason = ReasonBooked
			slots[i].Appointment = &AppointmentSummary{
				UUID:        appointment.UUID,
				PatientUUID: appointment.PatientUUID,
				Status:      appointment.Status,
				Type:        appointment.Type,
			}
			break
		}
	}
}

// normalizeClock strips the seconds a database time column may carry, e.g. "10:10:00".
func normalizeClock(value string) string {
	if len(value) > len(schedule.ClockLayout) {
		return value[:len(schedule.ClockLayout)]
	}
	return value
}
