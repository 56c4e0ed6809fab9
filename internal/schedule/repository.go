package schedule

import (
	"context"
	"database/sql"
	"fmt"

	"clinic-scheduling/internal/database"

	"github.com/google/uuid"
)

const (
	findDoctorByUUIDQuery = "SELECT id, uuid, user_id, name, email, mobile_phone, specialty FROM tb_doctor WHERE uuid = $1"
	listWorkingDaysQuery  = "SELECT day_of_week, is_working, start_time, end_time, break_start, break_end, max_appointments, appointment_duration, buffer_minutes, timezone FROM tb_working_day WHERE doctor_id = $1 ORDER BY day_of_week"

	deleteWorkingDaysQuery = "DELETE FROM tb_working_day WHERE doctor_id = $1"
	insertWorkingDayQuery  = "INSERT INTO tb_working_day (doctor_id, day_of_week, is_working, start_time, end_time, break_start, break_end, max_appointments, appointment_duration, buffer_minutes, timezone) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)"

	findRecurrenceRuleQuery   = "SELECT recurrence_type, custom_pattern, effective_from, effective_until FROM tb_recurrence_rule WHERE doctor_id = $1"
	deleteRecurrenceRuleQuery = "DELETE FROM tb_recurrence_rule WHERE doctor_id = $1"
	insertRecurrenceRuleQuery = "INSERT INTO tb_recurrence_rule (doctor_id, recurrence_type, custom_pattern, effective_from, effective_until) VALUES ($1, $2, $3, $4, $5)"

	insertTemplateQuery     = "INSERT INTO tb_schedule_template (uuid, name, template_type, is_default) VALUES ($1, $2, $3, $4) RETURNING id"
	insertTemplateDayQuery  = "INSERT INTO tb_template_day (template_id, day_of_week, is_working, start_time, end_time, break_start, break_end, max_appointments, appointment_duration, buffer_minutes, timezone) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)"
	listTemplatesQuery      = "SELECT id, uuid, name, template_type, is_default FROM tb_schedule_template ORDER BY name"
	listTemplateDaysQuery   = "SELECT day_of_week, is_working, start_time, end_time, break_start, break_end, max_appointments, appointment_duration, buffer_minutes, timezone FROM tb_template_day WHERE template_id = $1 ORDER BY day_of_week"
	findTemplateByUUIDQuery = "SELECT id, uuid, name, template_type, is_default FROM tb_schedule_template WHERE uuid = $1"
	deleteTemplateDaysQuery = "DELETE FROM tb_template_day WHERE template_id = $1"
	deleteTemplateQuery     = "DELETE FROM tb_schedule_template WHERE id = $1"
)

// Repository provides access to schedule and template data.
type Repository interface {

	// FindDoctorByUUID finds a doctor by its UUID.
	FindDoctorByUUID(ctx context.Context, uuid uuid.UUID) (*Doctor, error)

	// ListWorkingDays lists the doctor's stored working day records, ordered by day of week.
	ListWorkingDays(ctx context.Context, doctorID int64) ([]WorkingDay, error)

	// FindRecurrenceRule finds the doctor's recurrence rule, if any.
	FindRecurrenceRule(ctx context.Context, doctorID int64) (*RecurrenceRule, error)

	// ReplaceSchedule replaces the doctor's whole week and recurrence rule within a single
	// transaction, so readers never observe a partially updated week.
	ReplaceSchedule(ctx context.Context, doctorID int64, week []WorkingDay, rule RecurrenceRule) error

	// InsertTemplate inserts a template and its day records within a single transaction.
	InsertTemplate(ctx context.Context, template *ScheduleTemplate) error

	// ListTemplates lists all templates with their day records.
	ListTemplates(ctx context.Context) ([]*ScheduleTemplate, error)

	// FindTemplateByUUID finds a template by its UUID, with its day records.
	FindTemplateByUUID(ctx context.Context, uuid uuid.UUID) (*ScheduleTemplate, error)

	// DeleteTemplate deletes a template and its day records.
	DeleteTemplate(ctx context.Context, template ScheduleTemplate) error
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

func (d defaultRepository) ListWorkingDays(ctx context.Context, doctorID int64) ([]WorkingDay, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = doctorID
	rows, err := d.dbConn.DB().QueryContext(ctx, listWorkingDaysQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	days := make([]WorkingDay, 0, daysPerWeek)
	for rows.Next() {
		day := new(WorkingDay)
		if err = database.TransformRow(rows, day); err != nil {
			return nil, err
		}
		days = append(days, *day)
	}
	return days, nil
}

func (d defaultRepository) FindRecurrenceRule(ctx context.Context, doctorID int64) (*RecurrenceRule, error) {
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
		rule := new(RecurrenceRule)
		if err = database.TransformRow(rows, rule); err != nil {
			return nil, err
		}
		return rule, nil
	}
	return nil, nil
}

func (d defaultRepository) ReplaceSchedule(ctx context.Context, doctorID int64, week []WorkingDay, rule RecurrenceRule) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	return database.WithinTransaction(ctx, d.dbConn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteWorkingDaysQuery, doctorID); err != nil {
			return err
		}
		for _, day := range week {
			if err := insertWorkingDay(ctx, tx, doctorID, day); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, deleteRecurrenceRuleQuery, doctorID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertRecurrenceRuleQuery, doctorID, rule.Type, rule.CustomPattern, rule.EffectiveFrom, rule.EffectiveUntil); err != nil {
			return err
		}
		return nil
	})
}

// insertWorkingDay inserts a single day record within the given transaction.
func insertWorkingDay(ctx context.Context, tx *sql.Tx, doctorID int64, day WorkingDay) error {
	params := make([]interface{}, 11)
	params[0] = doctorID
	params[1] = day.DayOfWeek
	params[2] = day.IsWorking
	params[3] = day.StartTime
	params[4] = day.EndTime
	params[5] = day.BreakStart
	params[6] = day.BreakEnd
	params[7] = day.MaxAppointments
	params[8] = day.AppointmentDuration
	params[9] = day.BufferMinutes
	params[10] = day.Timezone
	result, err := tx.ExecContext(ctx, insertWorkingDayQuery, params...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("working day not inserted")
	}
	return nil
}

func (d defaultRepository) InsertTemplate(ctx context.Context, template *ScheduleTemplate) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	return database.WithinTransaction(ctx, d.dbConn, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, insertTemplateQuery, template.UUID, template.Name, template.TemplateType, template.IsDefault)
		if err := row.Scan(&template.ID); err != nil {
			return err
		}
		for _, day := range template.Days {
			params := make([]interface{}, 11)
			params[0] = template.ID
			params[1] = day.DayOfWeek
			params[2] = day.IsWorking
			params[3] = day.StartTime
			params[4] = day.EndTime
			params[5] = day.BreakStart
			params[6] = day.BreakEnd
			params[7] = day.MaxAppointments
			params[8] = day.AppointmentDuration
			params[9] = day.BufferMinutes
			params[10] = day.Timezone
			if _, err := tx.ExecContext(ctx, insertTemplateDayQuery, params...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d defaultRepository) ListTemplates(ctx context.Context) ([]*ScheduleTemplate, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listTemplatesQuery)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	templates := make([]*ScheduleTemplate, 0)
	for rows.Next() {
		template := new(ScheduleTemplate)
		if err = database.TransformRow(rows, template); err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	for _, template := range templates {
		if template.Days, err = d.listTemplateDays(ctx, template.ID); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (d defaultRepository) listTemplateDays(ctx context.Context, templateID int64) ([]WorkingDay, error) {
	params := make([]interface{}, 1)
	params[0] = templateID
	rows, err := d.dbConn.DB().QueryContext(ctx, listTemplateDaysQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	days := make([]WorkingDay, 0, daysPerWeek)
	for rows.Next() {
		day := new(WorkingDay)
		if err = database.TransformRow(rows, day); err != nil {
			return nil, err
		}
		days = append(days, *day)
	}
	return days, nil
}

func (d defaultRepository) FindTemplateByUUID(ctx context.Context, uuid uuid.UUID) (*ScheduleTemplate, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 1)
	params[0] = uuid
	rows, err := d.dbConn.DB().QueryContext(ctx, findTemplateByUUIDQuery, params...)
	if err != nil {
		return nil, err
	}
	template := new(ScheduleTemplate)
	found := false
	for rows.Next() {
		if err = database.TransformRow(rows, template); err != nil {
			database.CloseRows(rows)
			return nil, err
		}
		if template.ID > 0 {
			found = true
			break
		}
	}
	database.CloseRows(rows)
	if !found {
		return nil, nil
	}
	if template.Days, err = d.listTemplateDays(ctx, template.ID); err != nil {
		return nil, err
	}
	return template, nil
}

func (d defaultRepository) DeleteTemplate(ctx context.Context, template ScheduleTemplate) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	return database.WithinTransaction(ctx, d.dbConn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteTemplateDaysQuery, template.ID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, deleteTemplateQuery, template.ID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("template not deleted")
		}
		return nil
	})
}
