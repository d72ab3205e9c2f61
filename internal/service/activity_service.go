package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/factoryops/maintenance-service/internal/config"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/events"
	"github.com/factoryops/maintenance-service/internal/repository"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// allowedTransitions is the closed activity state machine. Finalized
// and cancelled are terminal.
var allowedTransitions = map[domain.ActivityStatus][]domain.ActivityStatus{
	domain.ActivityStatusOpen:      {domain.ActivityStatusExecuting, domain.ActivityStatusCancelled},
	domain.ActivityStatusExecuting: {domain.ActivityStatusPaused, domain.ActivityStatusFinalized, domain.ActivityStatusCancelled},
	domain.ActivityStatusPaused:    {domain.ActivityStatusExecuting, domain.ActivityStatusCancelled},
	domain.ActivityStatusFinalized: {},
	domain.ActivityStatusCancelled: {},
}

func isValidTransition(current, next domain.ActivityStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ActivityService coordinates work-order lifecycle operations.
type ActivityService struct {
	activities repository.ActivityRepository
	logs       repository.ActivityLogRepository
	machines   repository.MachineRepository
	procedures repository.ProcedureRepository
	users      repository.UserRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
	scheduling config.SchedulingConfig
	now        func() time.Time
}

// ActivityDependencies bundles collaborators for the service.
type ActivityDependencies struct {
	ActivityRepo  repository.ActivityRepository
	LogRepo       repository.ActivityLogRepository
	MachineRepo   repository.MachineRepository
	ProcedureRepo repository.ProcedureRepository
	UserRepo      repository.UserRepository
	TxManager     repository.TxManager
	Dispatcher    events.Dispatcher
	Scheduling    config.SchedulingConfig
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// NewActivityService constructs the service.
func NewActivityService(deps ActivityDependencies) *ActivityService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &ActivityService{
		activities: deps.ActivityRepo,
		logs:       deps.LogRepo,
		machines:   deps.MachineRepo,
		procedures: deps.ProcedureRepo,
		users:      deps.UserRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		scheduling: deps.Scheduling,
		now:        now,
	}
}

// ActivityCreateInput describes manual work-order creation.
type ActivityCreateInput struct {
	MachineID     string
	Description   string
	TechnicianIDs []string
	PlannedStart  *time.Time
	DurationValue int
	DurationUnit  string
	Emergency     bool
	Preventive    bool
	ProcedureID   *string
}

// CreateActivity creates a work order directly (outside ticket triage).
func (s *ActivityService) CreateActivity(ctx context.Context, input ActivityCreateInput) (*domain.Activity, error) {
	if _, err := s.machines.GetByID(ctx, input.MachineID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("machine", map[string]any{"machine_id": input.MachineID})
		}
		return nil, apperrors.MapError(err)
	}

	duration, err := parseDuration(input.DurationValue, input.DurationUnit)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(input.Description)
	var procedureID *string

	if input.Preventive && input.ProcedureID != nil {
		procedure, err := s.procedures.GetByID(ctx, *input.ProcedureID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("procedure", map[string]any{"procedure_id": *input.ProcedureID})
			}
			return nil, apperrors.MapError(err)
		}
		description = "PREVENTIVE: " + procedure.Name
		if procedure.DefaultDuration > 0 {
			duration = procedure.DefaultDuration
		} else {
			duration = s.scheduling.PreventiveDefault()
		}
		procedureID = &procedure.ID
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	technicianIDs, err := validTechnicianIDs(ctx, s.users, input.TechnicianIDs)
	if err != nil {
		return nil, err
	}

	activity := &domain.Activity{
		MachineID:         input.MachineID,
		Description:       description,
		Status:            domain.ActivityStatusOpen,
		PlannedStart:      input.PlannedStart,
		EstimatedDuration: duration,
		Emergency:         input.Emergency,
		Preventive:        input.Preventive,
		ProcedureID:       procedureID,
	}
	if activity.PlannedStart == nil {
		plannedStart := s.now()
		activity.PlannedStart = &plannedStart
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.activities.Create(ctx, activity); err != nil {
			return err
		}
		return s.activities.ReplaceTechnicians(ctx, activity.ID, technicianIDs)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	created, err := s.activities.GetByID(ctx, activity.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventActivityCreated, nil, events.ActivityCreatedPayload{
		ActivityID: created.ID,
		MachineID:  created.MachineID,
		Emergency:  created.Emergency,
		Preventive: created.Preventive,
	})
	return created, nil
}

// GetActivity returns a work order with its transition log.
func (s *ActivityService) GetActivity(ctx context.Context, id string) (*domain.Activity, []domain.ActivityLog, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("activity", map[string]any{"activity_id": id})
		}
		return nil, nil, apperrors.MapError(err)
	}
	logs, err := s.logs.ListByActivity(ctx, id)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return activity, logs, nil
}

// ListActivities returns work orders matching the filter.
func (s *ActivityService) ListActivities(ctx context.Context, filter repository.ActivityFilter) ([]domain.Activity, error) {
	result, err := s.activities.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// AssignTechnicians replaces an activity's technician set, preserving
// the given order; the first entry becomes the sequencing anchor.
func (s *ActivityService) AssignTechnicians(ctx context.Context, activityID string, technicianIDs []string, actorID string) (*domain.Activity, error) {
	cleaned, err := validTechnicianIDs(ctx, s.users, technicianIDs)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		activity, err := s.activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("activity", map[string]any{"activity_id": activityID})
			}
			return err
		}
		if activity.Status.Terminal() {
			return apperrors.NewValidationError("cannot assign technicians on a closed activity", nil)
		}
		return s.activities.ReplaceTechnicians(ctx, activityID, cleaned)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	updated, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventActivityAssigned, &actorID, events.ActivityAssignedPayload{
		ActivityID:    activityID,
		TechnicianIDs: cleaned,
	})
	return updated, nil
}

// ApplyTransition moves an activity through the state machine, applying
// the timer side effects and appending one log entry, all within a row
// lock so concurrent transitions on the same activity serialize.
func (s *ActivityService) ApplyTransition(ctx context.Context, activityID string, newStatus domain.ActivityStatus, justification string, actorID string) (*domain.Activity, *domain.ActivityLog, error) {
	if !newStatus.Valid() {
		return nil, nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	justification = strings.TrimSpace(justification)
	if (newStatus == domain.ActivityStatusPaused || newStatus == domain.ActivityStatusCancelled) && justification == "" {
		return nil, nil, apperrors.NewValidationError("justification required", map[string]any{"status": newStatus})
	}

	var (
		activity *domain.Activity
		entry    *domain.ActivityLog
		oldState domain.ActivityStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		activity, err = s.activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("activity", map[string]any{"activity_id": activityID})
			}
			return err
		}
		if activity.Status == newStatus {
			// The usual sign of two callers racing the same button.
			return apperrors.NewConflict("activity already in requested status", map[string]any{
				"activity_id": activityID,
				"status":      newStatus,
			})
		}
		if !isValidTransition(activity.Status, newStatus) {
			return apperrors.NewValidationError("invalid status transition", map[string]any{
				"from": activity.Status,
				"to":   newStatus,
			})
		}
		if (newStatus == domain.ActivityStatusExecuting || newStatus == domain.ActivityStatusFinalized) && len(activity.Technicians) == 0 {
			return apperrors.NewValidationError("at least one technician must be assigned", map[string]any{
				"status": newStatus,
			})
		}

		now := s.now()
		previous, err := s.logs.LatestByActivity(ctx, activityID)
		if err != nil {
			return err
		}

		oldState = activity.Status
		s.applySideEffects(activity, newStatus, justification, now, previous)
		activity.Status = newStatus
		if err := s.activities.Update(ctx, activity); err != nil {
			return err
		}

		entry = &domain.ActivityLog{
			ActivityID: activityID,
			ActorID:    &actorID,
			NewStatus:  newStatus,
			Note:       justification,
		}
		if previous != nil {
			elapsed := now.Sub(previous.CreatedAt)
			entry.PreviousStateDuration = &elapsed
		}
		return s.logs.Create(ctx, entry)
	})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventActivityStatusChanged, &actorID, events.ActivityStatusChangedPayload{
		ActivityID: activityID,
		OldStatus:  oldState,
		NewStatus:  newStatus,
		Note:       justification,
	})
	return activity, entry, nil
}

// applySideEffects mutates timer fields and reasons per the transition.
func (s *ActivityService) applySideEffects(activity *domain.Activity, newStatus domain.ActivityStatus, justification string, now time.Time, previous *domain.ActivityLog) {
	leavingExecuting := activity.Status == domain.ActivityStatusExecuting &&
		(newStatus == domain.ActivityStatusPaused || newStatus == domain.ActivityStatusFinalized)
	if leavingExecuting && activity.LastInteractionAt != nil {
		activity.TimeSpent += now.Sub(*activity.LastInteractionAt)
	}
	if activity.Status == domain.ActivityStatusPaused && previous != nil {
		activity.TimePaused += now.Sub(previous.CreatedAt)
	}

	switch newStatus {
	case domain.ActivityStatusExecuting:
		activity.PauseReason = nil
		interaction := now
		activity.LastInteractionAt = &interaction
	case domain.ActivityStatusPaused:
		reason := justification
		activity.PauseReason = &reason
	case domain.ActivityStatusCancelled:
		reason := justification
		activity.CancelReason = &reason
	}
}

// validTechnicianIDs validates every id against active technicians and
// removes duplicates while keeping assignment order.
func validTechnicianIDs(ctx context.Context, users repository.UserRepository, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		user, err := users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("technician", map[string]any{"user_id": id})
			}
			return nil, apperrors.MapError(err)
		}
		if !user.Active {
			return nil, apperrors.NewValidationError("technician inactive", map[string]any{"user_id": id})
		}
		if user.Role != domain.UserRoleTechnician && user.Role != domain.UserRoleSupervisor {
			return nil, apperrors.NewValidationError("user cannot be assigned maintenance work", map[string]any{
				"user_id": id,
				"role":    user.Role,
			})
		}
		cleaned = append(cleaned, id)
	}
	return cleaned, nil
}

// parseDuration converts the flexible value+unit form into a span.
func parseDuration(value int, unit string) (time.Duration, error) {
	if value < 0 {
		return 0, apperrors.NewValidationError("duration must not be negative", map[string]any{"value": value})
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "hours":
		return time.Duration(value) * time.Hour, nil
	case "days":
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, apperrors.NewValidationError("unknown duration unit", map[string]any{"unit": unit})
	}
}

func (s *ActivityService) publish(ctx context.Context, eventType events.EventType, actorID *string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
