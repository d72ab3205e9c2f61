package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/events"
	"github.com/factoryops/maintenance-service/internal/repository"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

const (
	pendingCountKey = "tickets:pending:count"
	pendingCountTTL = 30 * time.Second
)

// TicketService runs the request and triage flow: requesters file
// tickets, supervisors approve them into work orders or reject them.
type TicketService struct {
	tickets    repository.TicketRepository
	activities repository.ActivityRepository
	machines   repository.MachineRepository
	users      repository.UserRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
	redis      *redis.Client
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	MachineRepo  repository.MachineRepository
	UserRepo     repository.UserRepository
	TxManager    repository.TxManager
	Dispatcher   events.Dispatcher
	Redis        *redis.Client
	Logger       *zap.Logger
	Clock        func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		activities: deps.ActivityRepo,
		machines:   deps.MachineRepo,
		users:      deps.UserRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		redis:      deps.Redis,
		logger:     logger,
		now:        now,
	}
}

// TicketCreateInput describes a maintenance request.
type TicketCreateInput struct {
	MachineID      string
	RequesterID    string
	Problem        string
	Priority       domain.TicketPriority
	MachineStopped bool
}

// TicketApproveInput carries the work-order details chosen at triage.
type TicketApproveInput struct {
	TicketID      string
	SupervisorID  string
	TechnicianIDs []string
	PlannedStart  *time.Time
	DurationValue int
	DurationUnit  string
	Emergency     bool
}

// CreateTicket files a new maintenance request in PENDING state.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	problem := strings.TrimSpace(input.Problem)
	if problem == "" {
		return nil, apperrors.NewValidationError("problem description required", nil)
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if _, err := s.machines.GetByID(ctx, input.MachineID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("machine", map[string]any{"machine_id": input.MachineID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		MachineID:      input.MachineID,
		RequesterID:    input.RequesterID,
		Problem:        problem,
		Priority:       input.Priority,
		MachineStopped: input.MachineStopped,
		Status:         domain.TicketStatusPending,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.invalidatePendingCount(ctx)
	s.publish(ctx, events.EventTicketCreated, &ticket.RequesterID, events.TicketCreatedPayload{
		TicketID:       ticket.ID,
		MachineID:      ticket.MachineID,
		Priority:       ticket.Priority,
		MachineStopped: ticket.MachineStopped,
	})
	return ticket, nil
}

// GetTicket returns a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns tickets in triage order: stopped machines first,
// then priority, then oldest first.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ApproveTicket converts a pending ticket into a work order. The ticket
// row is locked for the whole conversion and a marker embedded in the
// activity description makes a replayed approval detectable even after
// the first transaction committed.
func (s *TicketService) ApproveTicket(ctx context.Context, input TicketApproveInput) (*domain.Activity, error) {
	duration, err := parseDuration(input.DurationValue, input.DurationUnit)
	if err != nil {
		return nil, err
	}
	technicianIDs, err := validTechnicianIDs(ctx, s.users, input.TechnicianIDs)
	if err != nil {
		return nil, err
	}

	var activityID string
	marker := ticketMarker(input.TicketID)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByIDForUpdate(ctx, input.TicketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": input.TicketID})
			}
			return err
		}
		if ticket.Status != domain.TicketStatusPending {
			return apperrors.NewConflict("ticket already triaged", map[string]any{
				"ticket_id": ticket.ID,
				"status":    ticket.Status,
			})
		}
		if existing, err := s.activities.FindByMarker(ctx, marker); err != nil {
			return err
		} else if existing != nil {
			return apperrors.NewConflict("ticket already converted to a work order", map[string]any{
				"ticket_id":   ticket.ID,
				"activity_id": existing.ID,
			})
		}

		activity := &domain.Activity{
			MachineID:         ticket.MachineID,
			Description:       fmt.Sprintf("%s %s", marker, ticket.Problem),
			Status:            domain.ActivityStatusOpen,
			PlannedStart:      input.PlannedStart,
			EstimatedDuration: duration,
			Emergency:         input.Emergency || ticket.MachineStopped,
		}
		if activity.PlannedStart == nil {
			plannedStart := s.now()
			activity.PlannedStart = &plannedStart
		}
		if err := s.activities.Create(ctx, activity); err != nil {
			return err
		}
		if len(technicianIDs) > 0 {
			if err := s.activities.ReplaceTechnicians(ctx, activity.ID, technicianIDs); err != nil {
				return err
			}
		}
		activityID = activity.ID
		return s.tickets.SetStatus(ctx, ticket.ID, domain.TicketStatusApproved, nil)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	created, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.invalidatePendingCount(ctx)
	s.publish(ctx, events.EventTicketApproved, &input.SupervisorID, events.TicketTriagedPayload{
		TicketID:   input.TicketID,
		ActivityID: &activityID,
	})
	return created, nil
}

// RejectTicket closes a pending ticket with a reason and no work order.
func (s *TicketService) RejectTicket(ctx context.Context, ticketID, supervisorID, reason string) (*domain.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("rejection reason required", nil)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return err
		}
		if ticket.Status != domain.TicketStatusPending {
			return apperrors.NewConflict("ticket already triaged", map[string]any{
				"ticket_id": ticket.ID,
				"status":    ticket.Status,
			})
		}
		return s.tickets.SetStatus(ctx, ticketID, domain.TicketStatusRejected, &reason)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	updated, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.invalidatePendingCount(ctx)
	s.publish(ctx, events.EventTicketRejected, &supervisorID, events.TicketTriagedPayload{
		TicketID: ticketID,
		Reason:   &reason,
	})
	return updated, nil
}

// PendingCount returns the number of untriaged tickets, cached briefly
// in Redis for the notification badge.
func (s *TicketService) PendingCount(ctx context.Context) (int, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, pendingCountKey).Result()
		if err == nil {
			if count, parseErr := strconv.Atoi(cached); parseErr == nil {
				return count, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("pending count cache read failed", zap.Error(err))
		}
	}

	count, err := s.tickets.CountByStatus(ctx, domain.TicketStatusPending)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if s.redis != nil {
		if err := s.redis.Set(ctx, pendingCountKey, strconv.Itoa(count), pendingCountTTL).Err(); err != nil {
			s.logger.Warn("pending count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

func (s *TicketService) invalidatePendingCount(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, pendingCountKey).Err(); err != nil {
		s.logger.Warn("pending count cache invalidation failed", zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, actorID *string, payload any) {
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

// ticketMarker builds the idempotency tag embedded in converted
// work-order descriptions.
func ticketMarker(ticketID string) string {
	return fmt.Sprintf("[TCK-%s]", ticketID)
}
