package booking

import (
	"context"
	"fmt"
	"time"

	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/schedule"

	"github.com/google/uuid"
)

const (
	findDoctorByUUIDQuery      = "SELECT id, uuid, user_id, name, email, mobile_phone, specialty FROM tb_doctor WHERE uuid = $1"
	findDoctorByIDQuery        = "SELECT id, uuid, user_id, name, email, mobile_phone, specialty FROM tb_doctor WHERE id = $1"
	findPatientByUUIDQuery     = "SELECT id, uuid, user_id, name, email, mobile_phone FROM tb_patient WHERE uuid = $1"
	findPatientByIDQuery       = "SELECT id, uuid, user_id, name, email, mobile_phone FROM tb_patient WHERE id = $1"
	findAppointmentByUUIDQuery = "SELECT id, uuid, doctor_id, patient_id, date, time, duration, status, type FROM tb_appointment WHERE uuid = $1"
	listAppointmentsQuery      = "SELECT id, uuid, doctor_id, patient_id, date, time, duration, status, type FROM tb_appointment WHERE doctor_id = $1 AND date = $2 ORDER BY time"

	// The insert and the reschedule update are both guarded by the partial unique index on
	// (doctor_id, date, time) for active statuses. That index, not any earlier availability
	// read, is the single authoritative conflict check.
	insertAppointmentQuery     = "INSERT INTO tb_appointment (uuid, doctor_id, patient_id, date, time, duration, status, type) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
	rescheduleAppointmentQuery = "UPDATE tb_appointment SET date = $2, time = $3, status = $4 WHERE id = $1 AND status IN ('PENDING', 'SCHEDULED')"
	updateStatusQuery          = "UPDATE tb_appointment SET status = $2 WHERE id = $1 AND status = $3"
)

// Repository provides access to appointment data.
type Repository interface {

	// FindDoctorByUUID finds a doctor by its UUID.
	FindDoctorByUUID(ctx context.Context, uuid uuid.UUID) (*Doctor, error)

	// FindDoctorByID finds a doctor by its ID.
	FindDoctorByID(ctx context.Context, ID int64) (*Doctor, error)

	// FindPatientByUUID finds a patient by its UUID.
	FindPatientByUUID(ctx context.Context, uuid uuid.UUID) (*Patient, error)

	// FindPatientByID finds a patient by its ID.
	FindPatientByID(ctx context.Context, ID int64) (*Patient, error)

	// FindAppointmentByUUID finds an appointment by its UUID.
	FindAppointmentByUUID(ctx context.Context, uuid uuid.UUID) (*Appointment, error)

	// ListAppointments lists the doctor's appointments on the given date.
	ListAppointments(ctx context.Context, doctorID int64, date time.Time) ([]*Appointment, error)

	// InsertAppointment inserts a new appointment. A violated slot uniqueness constraint
	// surfaces as a unique-violation error.
	InsertAppointment(ctx context.Context, appointment Appointment) error

	// RescheduleAppointment atomically moves the appointment to the new slot and status.
	// The old slot is freed and the new one claimed by the same statement. The update is
	// guarded by the reschedulable statuses and reports whether a row was actually moved.
	RescheduleAppointment(ctx context.Context, appointmentID int64, date time.Time, slotTime string, status string) (bool, error)

	// UpdateStatus transitions the appointment status, guarded by the expected current
	// status. It reports whether a row was actually updated.
	UpdateStatus(ctx context.Context, appointmentID int64, status string, expectedStatus string) (bool, error)
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

func (d defaultRepository) FindDoctorByID(ctx context.Context, ID int64) (*Doctor, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = ID
	rows, err := d.dbConn.DB().QueryContext(ctx, findDoctorByIDQuery, params...)
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

func (d defaultRepository) FindPatientByUUID(ctx context.Context, uuid uuid.UUID) (*Patient, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = uuid
	rows, err := d.dbConn.DB().QueryContext(ctx, findPatientByUUIDQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	patient := new(Patient)
	for rows.Next() {
		if err = database.TransformRow(rows, patient); err != nil {
			return nil, err
		}
		if patient.ID > 0 {
			return patient, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) FindPatientByID(ctx context.Context, ID int64) (*Patient, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = ID
	rows, err := d.dbConn.DB().QueryContext(ctx, findPatientByIDQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	patient := new(Patient)
	for rows.Next() {
		if err = database.TransformRow(rows, patient); err != nil {
			return nil, err
		}
		if patient.ID > 0 {
			return patient, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) FindAppointmentByUUID(ctx context.Context, uuid uuid.UUID) (*Appointment, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = uuid
	rows, err := d.dbConn.DB().QueryContext(ctx, findAppointmentByUUIDQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	appointment := new(Appointment)
	for rows.Next() {
		if err = database.TransformRow(rows, appointment); err != nil {
			return nil, err
		}
		if appointment.ID > 0 {
			return appointment, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) ListAppointments(ctx context.Context, doctorID int64, date time.Time) ([]*Appointment, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 2)
	params[0] = doctorID
	params[1] = date.Format(schedule.DateLayout)
	rows, err := d.dbConn.DB().QueryContext(ctx, listAppointmentsQuery, params...)
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

func (d defaultRepository) InsertAppointment(ctx context.Context, appointment Appointment) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 8)
	params[0] = appointment.UUID
	params[1] = appointment.DoctorID
	params[2] = appointment.PatientID
	params[3] = appointment.Date.Format(schedule.DateLayout)
	params[4] = appointment.Time
	params[5] = appointment.Duration
	params[6] = appointment.Status
	params[7] = appointment.Type
	result, err := d.dbConn.DB().ExecContext(ctx, insertAppointmentQuery, params...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("appointment not inserted")
	}
	return nil
}

func (d defaultRepository) RescheduleAppointment(ctx context.Context, appointmentID int64, date time.Time, slotTime string, status string) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 4)
	params[0] = appointmentID
	params[1] = date.Format(schedule.DateLayout)
	params[2] = slotTime
	params[3] = status
	result, err := d.dbConn.DB().ExecContext(ctx, rescheduleAppointmentQuery, params...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (d defaultRepository) UpdateStatus(ctx context.Context, appointmentID int64, status string, expectedStatus string) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 3)
	params[0] = appointmentID
	params[1] = status
	params[2] = expectedStatus
	result, err := d.dbConn.DB().ExecContext(ctx, updateStatusQuery, params...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
