package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/repository"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// CatalogService manages the reference data work orders hang off of:
// machines, maintenance procedures and preventive plans.
type CatalogService struct {
	machines   repository.MachineRepository
	procedures repository.ProcedureRepository
	plans      repository.PlanRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(machines repository.MachineRepository, procedures repository.ProcedureRepository, plans repository.PlanRepository) *CatalogService {
	return &CatalogService{machines: machines, procedures: procedures, plans: plans}
}

// MachineInput describes a machine record.
type MachineInput struct {
	Code string
	Name string
}

// CreateMachine registers a machine.
func (s *CatalogService) CreateMachine(ctx context.Context, input MachineInput) (*domain.Machine, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, apperrors.NewValidationError("machine code and name required", nil)
	}
	machine := &domain.Machine{Code: code, Name: name}
	if err := s.machines.Create(ctx, machine); err != nil {
		return nil, apperrors.MapError(err)
	}
	return machine, nil
}

// UpdateMachine updates a machine record.
func (s *CatalogService) UpdateMachine(ctx context.Context, id string, input MachineInput) (*domain.Machine, error) {
	machine, err := s.machines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("machine", map[string]any{"machine_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if code := strings.TrimSpace(input.Code); code != "" {
		machine.Code = code
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		machine.Name = name
	}
	if err := s.machines.Update(ctx, machine); err != nil {
		return nil, apperrors.MapError(err)
	}
	return machine, nil
}

// ListMachines returns all machines.
func (s *CatalogService) ListMachines(ctx context.Context) ([]domain.Machine, error) {
	machines, err := s.machines.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return machines, nil
}

// ProcedureInput describes a maintenance procedure.
type ProcedureInput struct {
	Code                   string
	Name                   string
	Instructions           string
	DefaultDurationMinutes int
}

// CreateProcedure registers a procedure.
func (s *CatalogService) CreateProcedure(ctx context.Context, input ProcedureInput) (*domain.Procedure, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, apperrors.NewValidationError("procedure code and name required", nil)
	}
	if input.DefaultDurationMinutes < 0 {
		return nil, apperrors.NewValidationError("default duration must not be negative", nil)
	}
	procedure := &domain.Procedure{
		Code:            code,
		Name:            name,
		Instructions:    strings.TrimSpace(input.Instructions),
		DefaultDuration: time.Duration(input.DefaultDurationMinutes) * time.Minute,
	}
	if err := s.procedures.Create(ctx, procedure); err != nil {
		return nil, apperrors.MapError(err)
	}
	return procedure, nil
}

// UpdateProcedure updates a procedure record.
func (s *CatalogService) UpdateProcedure(ctx context.Context, id string, input ProcedureInput) (*domain.Procedure, error) {
	procedure, err := s.procedures.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("procedure", map[string]any{"procedure_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if code := strings.TrimSpace(input.Code); code != "" {
		procedure.Code = code
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		procedure.Name = name
	}
	if instructions := strings.TrimSpace(input.Instructions); instructions != "" {
		procedure.Instructions = instructions
	}
	if input.DefaultDurationMinutes > 0 {
		procedure.DefaultDuration = time.Duration(input.DefaultDurationMinutes) * time.Minute
	}
	if err := s.procedures.Update(ctx, procedure); err != nil {
		return nil, apperrors.MapError(err)
	}
	return procedure, nil
}

// ListProcedures returns all procedures.
func (s *CatalogService) ListProcedures(ctx context.Context) ([]domain.Procedure, error) {
	procedures, err := s.procedures.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return procedures, nil
}

// PlanInput describes a preventive plan.
type PlanInput struct {
	Name         string
	MachineID    string
	ProcedureID  *string
	IntervalDays int
	NextDue      time.Time
	Active       *bool
}

// CreatePlan registers a recurring preventive plan.
func (s *CatalogService) CreatePlan(ctx context.Context, input PlanInput) (*domain.PreventivePlan, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("plan name required", nil)
	}
	if input.IntervalDays <= 0 {
		return nil, apperrors.NewValidationError("interval must be at least one day", map[string]any{
			"interval_days": input.IntervalDays,
		})
	}
	if input.NextDue.IsZero() {
		return nil, apperrors.NewValidationError("next due date required", nil)
	}
	if _, err := s.machines.GetByID(ctx, input.MachineID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("machine", map[string]any{"machine_id": input.MachineID})
		}
		return nil, apperrors.MapError(err)
	}
	if input.ProcedureID != nil {
		if _, err := s.procedures.GetByID(ctx, *input.ProcedureID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("procedure", map[string]any{"procedure_id": *input.ProcedureID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	plan := &domain.PreventivePlan{
		Name:         name,
		MachineID:    input.MachineID,
		ProcedureID:  input.ProcedureID,
		IntervalDays: input.IntervalDays,
		NextDue:      input.NextDue,
		Active:       true,
	}
	if input.Active != nil {
		plan.Active = *input.Active
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, apperrors.MapError(err)
	}
	return plan, nil
}

// UpdatePlan updates plan scheduling fields.
func (s *CatalogService) UpdatePlan(ctx context.Context, id string, input PlanInput) (*domain.PreventivePlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("plan", map[string]any{"plan_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		plan.Name = name
	}
	if input.IntervalDays != 0 {
		if input.IntervalDays < 0 {
			return nil, apperrors.NewValidationError("interval must be at least one day", map[string]any{
				"interval_days": input.IntervalDays,
			})
		}
		plan.IntervalDays = input.IntervalDays
	}
	if !input.NextDue.IsZero() {
		plan.NextDue = input.NextDue
	}
	if input.ProcedureID != nil {
		if _, err := s.procedures.GetByID(ctx, *input.ProcedureID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("procedure", map[string]any{"procedure_id": *input.ProcedureID})
			}
			return nil, apperrors.MapError(err)
		}
		plan.ProcedureID = input.ProcedureID
	}
	if input.Active != nil {
		plan.Active = *input.Active
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, apperrors.MapError(err)
	}
	return plan, nil
}

// ListPlans returns all preventive plans.
func (s *CatalogService) ListPlans(ctx context.Context) ([]domain.PreventivePlan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return plans, nil
}
