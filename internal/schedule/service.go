// Package schedule contains handlers, services and structures used to manage the doctors'
// weekly working hours, recurrence rules and reusable schedule templates.
package schedule

import (
	"context"
	"fmt"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/configs"
	"clinic-scheduling/internal/database"

	"github.com/google/uuid"
)

// Reader determines the methods available to read the doctors' schedules.
type Reader interface {

	// GetSchedule returns the doctor's live weekly schedule and recurrence rule.
	GetSchedule(ctx context.Context, doctorUUID uuid.UUID) (*WeeklySchedule, error)
}

// Writer determines the methods available to write the doctors' schedules.
type Writer interface {

	// ReplaceSchedule validates and atomically replaces the doctor's whole weekly schedule.
	ReplaceSchedule(ctx context.Context, doctorUUID uuid.UUID, weeklySchedule WeeklySchedule) error
}

// TemplateManager determines the methods available to manage schedule templates.
type TemplateManager interface {

	// CreateTemplate creates a new schedule template. Template names are globally unique.
	CreateTemplate(ctx context.Context, template ScheduleTemplate) (*ScheduleTemplate, error)

	// ListTemplates lists all schedule templates.
	ListTemplates(ctx context.Context) ([]*ScheduleTemplate, error)

	// DeleteTemplate deletes the given schedule template.
	DeleteTemplate(ctx context.Context, templateUUID uuid.UUID) error

	// ApplyTemplate copies the template's working days onto the doctor's live schedule,
	// keeping the doctor's recurrence metadata untouched.
	ApplyTemplate(ctx context.Context, doctorUUID uuid.UUID, templateUUID uuid.UUID) error
}

// Service determines the methods used to manage the doctors' schedules.
type Service interface {
	Reader
	Writer
	TemplateManager
}

type defaultService struct {
	repository Repository
	config     configs.Config
}

// NewService creates a new schedule service.
func NewService(config configs.Config, dbConn database.Connection) Service {
	return &defaultService{
		config:     config,
		repository: newRepository(dbConn),
	}
}

func (d defaultService) GetSchedule(ctx context.Context, doctorUUID uuid.UUID) (*WeeklySchedule, error) {
	doctor, err := d.repository.FindDoctorByUUID(ctx, doctorUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return nil, apierrors.NewNotFoundError(ErrDoctorNotFound)
	}
	days, err := d.repository.ListWorkingDays(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if len(days) != daysPerWeek {
		// A doctor that never stored a schedule owns an empty, non-working week.
		days = DefaultWeek()
	}
	rule, err := d.repository.FindRecurrenceRule(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if rule == nil {
		defaultRule := DefaultRecurrenceRule()
		rule = &defaultRule
	}
	return &WeeklySchedule{Days: days, Recurrence: *rule}, nil
}

func (d defaultService) ReplaceSchedule(ctx context.Context, doctorUUID uuid.UUID, weeklySchedule WeeklySchedule) error {
	if err := weeklySchedule.Validate(); err != nil {
		return err
	}
	doctor, err := d.repository.FindDoctorByUUID(ctx, doctorUUID)
	if err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return apierrors.NewNotFoundError(ErrDoctorNotFound)
	}
	if err = d.repository.ReplaceSchedule(ctx, doctor.ID, weeklySchedule.Days, weeklySchedule.Recurrence); err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return nil
}

func (d defaultService) CreateTemplate(ctx context.Context, template ScheduleTemplate) (*ScheduleTemplate, error) {
	if err := template.Validate(); err != nil {
		return nil, err
	}
	created := ScheduleTemplate{
		UUID:         uuid.New(),
		Name:         template.Name,
		TemplateType: template.TemplateType,
		IsDefault:    template.IsDefault,
		Days:         template.Days,
	}
	if err := d.repository.InsertTemplate(ctx, &created); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apierrors.NewConflictError(ErrTemplateNameInUse)
		}
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return &created, nil
}

func (d defaultService) ListTemplates(ctx context.Context) ([]*ScheduleTemplate, error) {
	templates, err := d.repository.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return templates, nil
}

func (d defaultService) DeleteTemplate(ctx context.Context, templateUUID uuid.UUID) error {
	template, err := d.repository.FindTemplateByUUID(ctx, templateUUID)
	if err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if template == nil {
		return apierrors.NewNotFoundError(ErrTemplateNotFound)
	}
	if err = d.repository.DeleteTemplate(ctx, *template); err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return nil
}

func (d defaultService) ApplyTemplate(ctx context.Context, doctorUUID uuid.UUID, templateUUID uuid.UUID) error {
	doctor, err := d.repository.FindDoctorByUUID(ctx, doctorUUID)
	if err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return apierrors.NewNotFoundError(ErrDoctorNotFound)
	}
	template, err := d.repository.FindTemplateByUUID(ctx, templateUUID)
	if err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if template == nil {
		return apierrors.NewNotFoundError(ErrTemplateNotFound)
	}
	rule, err := d.repository.FindRecurrenceRule(ctx, doctor.ID)
	if err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if rule == nil {
		defaultRule := DefaultRecurrenceRule()
		rule = &defaultRule
	}
	// The template days are copied, so later template edits never change this schedule.
	if err = d.repository.ReplaceSchedule(ctx, doctor.ID, template.Days, *rule); err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return nil
}
