package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/factoryops/maintenance-service/internal/config"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/events"
	"github.com/factoryops/maintenance-service/internal/repository"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// PreventiveService materializes due preventive plans into work orders.
type PreventiveService struct {
	plans      repository.PlanRepository
	activities repository.ActivityRepository
	procedures repository.ProcedureRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
	scheduling config.SchedulingConfig
	logger     *zap.Logger
	now        func() time.Time
}

// PreventiveDependencies bundles collaborators for the service.
type PreventiveDependencies struct {
	PlanRepo      repository.PlanRepository
	ActivityRepo  repository.ActivityRepository
	ProcedureRepo repository.ProcedureRepository
	TxManager     repository.TxManager
	Dispatcher    events.Dispatcher
	Scheduling    config.SchedulingConfig
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewPreventiveService constructs the service.
func NewPreventiveService(deps PreventiveDependencies) *PreventiveService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreventiveService{
		plans:      deps.PlanRepo,
		activities: deps.ActivityRepo,
		procedures: deps.ProcedureRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		scheduling: deps.Scheduling,
		logger:     logger,
		now:        now,
	}
}

// GenerateDue scans active plans whose due date has arrived and creates
// one work order per plan, advancing the plan by exactly one interval.
// An overdue plan catches up across successive runs rather than in one
// burst. Failures on one plan do not stop the remaining plans.
func (s *PreventiveService) GenerateDue(ctx context.Context) (int, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	due, err := s.plans.ListDue(ctx, today)
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	generated := 0
	for _, plan := range due {
		activityID, err := s.generateForPlan(ctx, plan)
		if err != nil {
			s.logger.Error("preventive generation failed",
				zap.String("plan_id", plan.ID),
				zap.Error(err))
			continue
		}
		generated++
		s.publish(ctx, events.PreventiveGeneratedPayload{
			PlanID:     plan.ID,
			ActivityID: activityID,
		})
	}
	return generated, nil
}

func (s *PreventiveService) generateForPlan(ctx context.Context, plan domain.PreventivePlan) (string, error) {
	description := "PREVENTIVE: " + plan.Name
	duration := s.scheduling.PreventiveDefault()
	var procedureID *string
	if plan.ProcedureID != nil {
		procedure, err := s.procedures.GetByID(ctx, *plan.ProcedureID)
		if err != nil {
			return "", err
		}
		description = "PREVENTIVE: " + procedure.Name
		if procedure.DefaultDuration > 0 {
			duration = procedure.DefaultDuration
		}
		procedureID = &procedure.ID
	}

	plannedStart := plan.NextDue
	activity := &domain.Activity{
		MachineID:         plan.MachineID,
		Description:       description,
		Status:            domain.ActivityStatusOpen,
		PlannedStart:      &plannedStart,
		EstimatedDuration: duration,
		Preventive:        true,
		ProcedureID:       procedureID,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.activities.Create(ctx, activity); err != nil {
			return err
		}
		nextDue := plan.NextDue.AddDate(0, 0, plan.IntervalDays)
		return s.plans.AdvanceNextDue(ctx, plan.ID, nextDue)
	})
	if err != nil {
		return "", err
	}
	return activity.ID, nil
}

func (s *PreventiveService) publish(ctx context.Context, payload events.PreventiveGeneratedPayload) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPreventiveGenerated,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
