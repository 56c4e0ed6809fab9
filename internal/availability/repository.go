package availability

import (
	"context"
	"time"

	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/schedule"

	"github.com/google/uuid"
)

const (
	findDoctorByUUIDQuery       = "SELECT id, uuid, user_id, name, email, mobile_phone, specialty FROM tb_doctor WHERE uuid = $1"
	listWorkingDaysQuery        = "SELECT day_of_week, is_working, start_time, end_time, break_start, break_end, max_appointments, appointment_duration, buffer_minutes, timezone FROM tb_working_day WHERE doctor_id = $1 ORDER BY day_of_week"
	findRecurrenceRuleQuery     = "SELECT recurrence_type, custom_pattern, effective_from, effective_until FROM tb_recurrence_rule WHERE doctor_id = $1"
	listActiveAppointmentsQuery = "SELECT a.id, a.uuid, a.doctor_id, a.patient_id, p.uuid AS patient_uuid, a.date, a.time, a.duration, a.status, a.type FROM tb_appointment a JOIN tb_patient p ON p.id = a.patient_id WHERE a.doctor_id = $1 AND a.date = $2 AND a.status IN ('PENDING', 'SCHEDULED', 'COMPLETED')"
)

// Repository provides read access to the data needed to compute availability.
type Repository interface {

	// FindDoctorByUUID finds a doctor by its UUID.
	FindDoctorByUUID(ctx context.Context, uuid uuid.UUID) (*Doctor, error)

	// ListWorkingDays lists the doctor's stored working day records, ordered by day of week.
	ListWorkingDays(ctx context.Context, doctorID int64) ([]schedule.WorkingDay, error)

	// FindRecurrenceRule finds the doctor's recurrence rule, if any.
	FindRecurrenceRule(ctx context.Context, doctorID int64) (*schedule.RecurrenceRule, error)

	// ListActiveAppointments lists the doctor's non-cancelled appointments on the given date.
	ListActiveAppointments(ctx context.Context, doctorID int64, date time.Time) ([]*Appointment, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

// NewRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) FindDoctorByUUID(ctx context.Context, uuid uuid.UUID) (*Doctor, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = uuid
	rows, err := d.dbConn.DB().QueryContext(ctx, findDoctorByUUIDQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	doctor := new(Doctor)
	for rows.Next() {
		if err = database.TransformRow(rows, doctor); err != nil {
			return nil, err
		}
		if doctor.ID > 0 {
			return doctor, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) ListWorkingDays(ctx context.Context, doctorID int64) ([]schedule.WorkingDay, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = doctorID
	rows, err := d.dbConn.DB().QueryContext(ctx, listWorkingDaysQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	days := make([]schedule.WorkingDay, 0, 7)
	for rows.Next() {
		day := new(schedule.WorkingDay)
		if err = database.TransformRow(rows, day); err != nil {
			return nil, err
		}
		days = append(days, *day)
	}
	return days, nil
}

func (d defaultRepository) FindRecurrenceRule(ctx context.Context, doctorID int64) (*schedule.RecurrenceRule, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = doctorID
	rows, err := d.dbConn.DB().QueryContext(ctx, findRecurrenceRuleQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	for rows.Next() {
		rule := new(schedule.RecurrenceRule)
		if err = database.TransformRow(rows, rule); err != nil {
			return nil, err
		}
		return rule, nil
	}
	return nil, nil
}

func (d defaultRepository) ListActiveAppointments(ctx context.Context, doctorID int64, date time.Time) ([]*Appointment, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 2)
	params[0] = doctorID
	params[1] = date.Format(schedule.DateLayout)
	rows, err := d.dbConn.DB().QueryContext(ctx, listActiveAppointmentsQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	appointments := make([]*Appointment, 0)
	for rows.Next() {
		appointment := new(Appointment)
		if err = database.TransformRow(rows, appointment); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, nil
}
