package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/events"
	"github.com/factoryops/maintenance-service/internal/repository"
)

// In-memory fakes for the repository interfaces. They mimic the
// postgres implementations closely enough for service-level tests,
// including returning pgx.ErrNoRows for missing rows.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *fakeDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *fakeDispatcher) published(eventType events.EventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, event := range d.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

type fakeActivityRepo struct {
	mu    sync.Mutex
	seq   int
	order []string
	byID  map[string]*domain.Activity
	users *fakeUserRepo
}

func newFakeActivityRepo(users *fakeUserRepo) *fakeActivityRepo {
	return &fakeActivityRepo{byID: map[string]*domain.Activity{}, users: users}
}

func (r *fakeActivityRepo) Create(_ context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	activity.ID = fmt.Sprintf("act-%d", r.seq)
	copied := *activity
	r.byID[activity.ID] = &copied
	r.order = append(r.order, activity.ID)
	return nil
}

func (r *fakeActivityRepo) Update(_ context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[activity.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *activity
	r.byID[activity.ID] = &copied
	return nil
}

func (r *fakeActivityRepo) GetByID(_ context.Context, id string) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeActivityRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Activity, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeActivityRepo) ListWithFilter(_ context.Context, filter repository.ActivityFilter) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Activity
	for _, id := range r.order {
		activity := r.byID[id]
		if !matchStatus(activity.Status, filter) {
			continue
		}
		if filter.Preventive != nil && activity.Preventive != *filter.Preventive {
			continue
		}
		if filter.Emergency != nil && activity.Emergency != *filter.Emergency {
			continue
		}
		result = append(result, *activity)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func matchStatus(status domain.ActivityStatus, filter repository.ActivityFilter) bool {
	for _, excluded := range filter.ExcludeStatuses {
		if status == excluded {
			return false
		}
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, wanted := range filter.Statuses {
		if status == wanted {
			return true
		}
	}
	return false
}

func (r *fakeActivityRepo) FindByMarker(_ context.Context, marker string) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if strings.Contains(r.byID[id].Description, marker) {
			copied := *r.byID[id]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeActivityRepo) ReplaceTechnicians(_ context.Context, activityID string, technicianIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[activityID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Technicians = nil
	for position, userID := range technicianIDs {
		assigned := domain.AssignedTechnician{ID: userID, Position: position}
		if r.users != nil {
			if user, ok := r.users.byID[userID]; ok {
				assigned.Name = user.Name
				assigned.Login = user.Login
			}
		}
		stored.Technicians = append(stored.Technicians, assigned)
	}
	return nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	seq     int
	entries []domain.ActivityLog
	now     func() time.Time
}

func (r *fakeLogRepo) Create(_ context.Context, entry *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.ID = fmt.Sprintf("log-%d", r.seq)
	if entry.CreatedAt.IsZero() {
		if r.now != nil {
			entry.CreatedAt = r.now()
		} else {
			entry.CreatedAt = time.Now()
		}
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLogRepo) ListByActivity(_ context.Context, activityID string) ([]domain.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ActivityLog
	for _, entry := range r.entries {
		if entry.ActivityID == activityID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeLogRepo) LatestByActivity(_ context.Context, activityID string) (*domain.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].ActivityID == activityID {
			copied := r.entries[i]
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeTicketRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("tck-%d", r.seq)
	ticket.CreatedAt = time.Now()
	copied := *ticket
	r.byID[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeTicketRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.byID {
		if len(filter.Statuses) > 0 {
			found := false
			for _, wanted := range filter.Statuses {
				if ticket.Status == wanted {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context, status domain.TicketStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.byID {
		if ticket.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) SetStatus(_ context.Context, id string, status domain.TicketStatus, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = status
	stored.ResponseReason = reason
	return nil
}

type fakeMachineRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Machine
}

func newFakeMachineRepo() *fakeMachineRepo {
	return &fakeMachineRepo{byID: map[string]*domain.Machine{}}
}

func (r *fakeMachineRepo) Create(_ context.Context, machine *domain.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	machine.ID = fmt.Sprintf("mch-%d", r.seq)
	copied := *machine
	r.byID[machine.ID] = &copied
	return nil
}

func (r *fakeMachineRepo) Update(_ context.Context, machine *domain.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[machine.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *machine
	r.byID[machine.ID] = &copied
	return nil
}

func (r *fakeMachineRepo) GetByID(_ context.Context, id string) (*domain.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeMachineRepo) List(_ context.Context) ([]domain.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Machine
	for _, machine := range r.byID {
		result = append(result, *machine)
	}
	return result, nil
}

type fakeProcedureRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Procedure
}

func newFakeProcedureRepo() *fakeProcedureRepo {
	return &fakeProcedureRepo{byID: map[string]*domain.Procedure{}}
}

func (r *fakeProcedureRepo) Create(_ context.Context, procedure *domain.Procedure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	procedure.ID = fmt.Sprintf("prc-%d", r.seq)
	copied := *procedure
	r.byID[procedure.ID] = &copied
	return nil
}

func (r *fakeProcedureRepo) Update(_ context.Context, procedure *domain.Procedure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[procedure.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *procedure
	r.byID[procedure.ID] = &copied
	return nil
}

func (r *fakeProcedureRepo) GetByID(_ context.Context, id string) (*domain.Procedure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeProcedureRepo) List(_ context.Context) ([]domain.Procedure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Procedure
	for _, procedure := range r.byID {
		result = append(result, *procedure)
	}
	return result, nil
}

type fakeUserRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("usr-%d", r.seq)
	copied := *user
	r.byID[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.byID[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeUserRepo) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if strings.EqualFold(user.Login, login) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.byID {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

type fakePlanRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.PreventivePlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{byID: map[string]*domain.PreventivePlan{}}
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.PreventivePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	plan.ID = fmt.Sprintf("pln-%d", r.seq)
	copied := *plan
	r.byID[plan.ID] = &copied
	return nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.PreventivePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[plan.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *plan
	r.byID[plan.ID] = &copied
	return nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id string) (*domain.PreventivePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakePlanRepo) List(_ context.Context) ([]domain.PreventivePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.PreventivePlan
	for _, plan := range r.byID {
		result = append(result, *plan)
	}
	return result, nil
}

func (r *fakePlanRepo) ListDue(_ context.Context, date time.Time) ([]domain.PreventivePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.PreventivePlan
	for _, plan := range r.byID {
		if plan.Active && !plan.NextDue.After(date) {
			result = append(result, *plan)
		}
	}
	return result, nil
}

func (r *fakePlanRepo) AdvanceNextDue(_ context.Context, id string, nextDue time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.NextDue = nextDue
	return nil
}
