package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/repository"
	"github.com/factoryops/maintenance-service/internal/scheduling"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// BoardView is the dispatcher's dashboard: open work grouped by state
// plus the recently closed orders and the triage backlog size.
type BoardView struct {
	Open           []scheduling.ScheduledActivity
	Executing      []scheduling.ScheduledActivity
	Paused         []scheduling.ScheduledActivity
	Finalized      []domain.Activity
	PendingTickets int
}

// GanttBar is one row of the timeline chart.
type GanttBar struct {
	ActivityID string
	Label      string
	Machine    string
	Start      time.Time
	End        time.Time
	Progress   int
	Emergency  bool
	Preventive bool
	CSSClass   string
}

// ScheduleService produces the sequenced views of open work. It runs
// the preventive generator first so a due plan shows up on the board
// the moment somebody looks at it.
type ScheduleService struct {
	activities repository.ActivityRepository
	preventive *PreventiveService
	tickets    *TicketService
	fallback   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// ScheduleDependencies bundles collaborators for the service.
type ScheduleDependencies struct {
	ActivityRepo repository.ActivityRepository
	Preventive   *PreventiveService
	Tickets      *TicketService
	Fallback     time.Duration
	Logger       *zap.Logger
	Clock        func() time.Time
}

// NewScheduleService constructs the service.
func NewScheduleService(deps ScheduleDependencies) *ScheduleService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		activities: deps.ActivityRepo,
		preventive: deps.Preventive,
		tickets:    deps.Tickets,
		fallback:   deps.Fallback,
		logger:     logger,
		now:        now,
	}
}

// Timeline sequences all non-terminal work orders.
func (s *ScheduleService) Timeline(ctx context.Context) ([]scheduling.ScheduledActivity, error) {
	s.runGenerator(ctx)

	open, err := s.activities.ListWithFilter(ctx, repository.ActivityFilter{
		ExcludeStatuses: []domain.ActivityStatus{
			domain.ActivityStatusFinalized,
			domain.ActivityStatusCancelled,
		},
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return scheduling.Sequence(open, s.now(), scheduling.Options{FallbackDuration: s.fallback}), nil
}

// Board groups the sequenced timeline by state and attaches the
// finalized orders and the pending-ticket badge count.
func (s *ScheduleService) Board(ctx context.Context) (*BoardView, error) {
	timeline, err := s.Timeline(ctx)
	if err != nil {
		return nil, err
	}

	board := &BoardView{}
	for _, item := range timeline {
		switch item.Activity.Status {
		case domain.ActivityStatusExecuting:
			board.Executing = append(board.Executing, item)
		case domain.ActivityStatusPaused:
			board.Paused = append(board.Paused, item)
		default:
			board.Open = append(board.Open, item)
		}
	}

	finalized, err := s.activities.ListWithFilter(ctx, repository.ActivityFilter{
		Statuses: []domain.ActivityStatus{domain.ActivityStatusFinalized},
		Limit:    20,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	board.Finalized = finalized

	if s.tickets != nil {
		pending, err := s.tickets.PendingCount(ctx)
		if err != nil {
			s.logger.Warn("pending ticket count unavailable", zap.Error(err))
		} else {
			board.PendingTickets = pending
		}
	}
	return board, nil
}

// Gantt renders the timeline as chart bars with a coarse progress
// figure per state.
func (s *ScheduleService) Gantt(ctx context.Context) ([]GanttBar, error) {
	timeline, err := s.Timeline(ctx)
	if err != nil {
		return nil, err
	}

	bars := make([]GanttBar, 0, len(timeline))
	for _, item := range timeline {
		bars = append(bars, GanttBar{
			ActivityID: item.Activity.ID,
			Label:      item.Activity.Description,
			Machine:    item.Activity.MachineLabel(),
			Start:      item.Start,
			End:        item.End,
			Progress:   ganttProgress(item.Activity.Status),
			Emergency:  item.Activity.Emergency,
			Preventive: item.Activity.Preventive,
			CSSClass:   ganttClass(item.Activity),
		})
	}
	return bars, nil
}

func ganttProgress(status domain.ActivityStatus) int {
	switch status {
	case domain.ActivityStatusExecuting:
		return 50
	case domain.ActivityStatusPaused:
		return 25
	case domain.ActivityStatusFinalized:
		return 100
	default:
		return 0
	}
}

func ganttClass(activity domain.Activity) string {
	switch {
	case activity.Emergency:
		return "bar-emergency"
	case activity.Preventive:
		return "bar-preventive"
	case activity.Status == domain.ActivityStatusPaused:
		return "bar-paused"
	default:
		return "bar-planned"
	}
}

// runGenerator triggers preventive generation, tolerating failure so a
// broken plan cannot take the board down.
func (s *ScheduleService) runGenerator(ctx context.Context) {
	if s.preventive == nil {
		return
	}
	if _, err := s.preventive.GenerateDue(ctx); err != nil {
		s.logger.Warn("preventive generation failed during schedule build", zap.Error(err))
	}
}
