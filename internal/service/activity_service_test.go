package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factoryops/maintenance-service/internal/config"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/events"
	"github.com/factoryops/maintenance-service/internal/service"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

type activityFixture struct {
	svc        *service.ActivityService
	activities *fakeActivityRepo
	logs       *fakeLogRepo
	machines   *fakeMachineRepo
	procedures *fakeProcedureRepo
	users      *fakeUserRepo
	dispatcher *fakeDispatcher
	machine    *domain.Machine
	technician *domain.User
	now        time.Time
}

func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()
	now := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)

	users := newFakeUserRepo()
	technician := &domain.User{Name: "Ana Souza", Login: "ana", Role: domain.UserRoleTechnician, Active: true}
	require.NoError(t, users.Create(context.Background(), technician))

	machines := newFakeMachineRepo()
	machine := &domain.Machine{Code: "CNC-01", Name: "Lathe"}
	require.NoError(t, machines.Create(context.Background(), machine))

	activities := newFakeActivityRepo(users)
	logs := &fakeLogRepo{now: func() time.Time { return now }}
	procedures := newFakeProcedureRepo()
	dispatcher := &fakeDispatcher{}

	svc := service.NewActivityService(service.ActivityDependencies{
		ActivityRepo:  activities,
		LogRepo:       logs,
		MachineRepo:   machines,
		ProcedureRepo: procedures,
		UserRepo:      users,
		TxManager:     fakeTxManager{},
		Dispatcher:    dispatcher,
		Scheduling:    config.SchedulingConfig{FallbackDurationMinutes: 60, PreventiveDefaultMinutes: 120},
		Clock:         func() time.Time { return now },
	})
	return &activityFixture{
		svc:        svc,
		activities: activities,
		logs:       logs,
		machines:   machines,
		procedures: procedures,
		users:      users,
		dispatcher: dispatcher,
		machine:    machine,
		technician: technician,
		now:        now,
	}
}

func (f *activityFixture) seedActivity(t *testing.T, status domain.ActivityStatus, withTechnician bool) *domain.Activity {
	t.Helper()
	ctx := context.Background()
	activity := &domain.Activity{
		MachineID:         f.machine.ID,
		Description:       "replace spindle bearing",
		Status:            domain.ActivityStatusOpen,
		EstimatedDuration: 2 * time.Hour,
	}
	require.NoError(t, f.activities.Create(ctx, activity))
	if withTechnician {
		require.NoError(t, f.activities.ReplaceTechnicians(ctx, activity.ID, []string{f.technician.ID}))
	}
	if status != domain.ActivityStatusOpen {
		stored, err := f.activities.GetByID(ctx, activity.ID)
		require.NoError(t, err)
		stored.Status = status
		require.NoError(t, f.activities.Update(ctx, stored))
	}
	stored, err := f.activities.GetByID(ctx, activity.ID)
	require.NoError(t, err)
	return stored
}

func TestCreateActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("basic creation with day duration", func(t *testing.T) {
		f := newActivityFixture(t)
		created, err := f.svc.CreateActivity(ctx, service.ActivityCreateInput{
			MachineID:     f.machine.ID,
			Description:   "overhaul gearbox",
			TechnicianIDs: []string{f.technician.ID},
			DurationValue: 2,
			DurationUnit:  "days",
		})
		require.NoError(t, err)
		require.Equal(t, domain.ActivityStatusOpen, created.Status)
		require.Equal(t, 48*time.Hour, created.EstimatedDuration)
		require.NotNil(t, created.PlannedStart)
		require.Equal(t, f.now, *created.PlannedStart)
		require.Len(t, created.Technicians, 1)
		require.Equal(t, 1, f.dispatcher.published(events.EventActivityCreated))
	})

	t.Run("duplicate technician ids collapse to one assignment", func(t *testing.T) {
		f := newActivityFixture(t)
		created, err := f.svc.CreateActivity(ctx, service.ActivityCreateInput{
			MachineID:     f.machine.ID,
			Description:   "inspect coolant pump",
			TechnicianIDs: []string{f.technician.ID, f.technician.ID},
			DurationValue: 1,
		})
		require.NoError(t, err)
		require.Len(t, created.Technicians, 1)
	})

	t.Run("preventive shortcut pulls name and duration from procedure", func(t *testing.T) {
		f := newActivityFixture(t)
		procedure := &domain.Procedure{Code: "LUB-01", Name: "Lubrication round", DefaultDuration: 45 * time.Minute}
		require.NoError(t, f.procedures.Create(ctx, procedure))

		created, err := f.svc.CreateActivity(ctx, service.ActivityCreateInput{
			MachineID:   f.machine.ID,
			Preventive:  true,
			ProcedureID: &procedure.ID,
		})
		require.NoError(t, err)
		require.Equal(t, "PREVENTIVE: Lubrication round", created.Description)
		require.Equal(t, 45*time.Minute, created.EstimatedDuration)
		require.True(t, created.Preventive)
	})

	t.Run("unknown machine", func(t *testing.T) {
		f := newActivityFixture(t)
		_, err := f.svc.CreateActivity(ctx, service.ActivityCreateInput{
			MachineID:   "missing",
			Description: "anything",
		})
		require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("malformed duration unit", func(t *testing.T) {
		f := newActivityFixture(t)
		_, err := f.svc.CreateActivity(ctx, service.ActivityCreateInput{
			MachineID:     f.machine.ID,
			Description:   "anything",
			DurationValue: 3,
			DurationUnit:  "fortnights",
		})
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("requester cannot be assigned", func(t *testing.T) {
		f := newActivityFixture(t)
		requester := &domain.User{Name: "Op", Login: "op", Role: domain.UserRoleRequester, Active: true}
		require.NoError(t, f.users.Create(ctx, requester))

		_, err := f.svc.CreateActivity(ctx, service.ActivityCreateInput{
			MachineID:     f.machine.ID,
			Description:   "anything",
			TechnicianIDs: []string{requester.ID},
		})
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})
}

func TestApplyTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("start execution stamps interaction time", func(t *testing.T) {
		f := newActivityFixture(t)
		activity := f.seedActivity(t, domain.ActivityStatusOpen, true)

		updated, entry, err := f.svc.ApplyTransition(ctx, activity.ID, domain.ActivityStatusExecuting, "", f.technician.ID)
		require.NoError(t, err)
		require.Equal(t, domain.ActivityStatusExecuting, updated.Status)
		require.NotNil(t, updated.LastInteractionAt)
		require.Equal(t, f.now, *updated.LastInteractionAt)
		require.Nil(t, entry.PreviousStateDuration)
		require.Equal(t, 1, f.dispatcher.published(events.EventActivityStatusChanged))
	})

	t.Run("pausing accrues active time since last interaction", func(t *testing.T) {
		f := newActivityFixture(t)
		activity := f.seedActivity(t, domain.ActivityStatusExecuting, true)
		startedAt := f.now.Add(-45 * time.Minute)
		activity.LastInteractionAt = &startedAt
		require.NoError(t, f.activities.Update(ctx, activity))
		require.NoError(t, f.logs.Create(ctx, &domain.ActivityLog{
			ActivityID: activity.ID,
			NewStatus:  domain.ActivityStatusExecuting,
			CreatedAt:  startedAt,
		}))

		updated, entry, err := f.svc.ApplyTransition(ctx, activity.ID, domain.ActivityStatusPaused, "waiting for parts", f.technician.ID)
		require.NoError(t, err)
		require.Equal(t, 45*time.Minute, updated.TimeSpent)
		require.NotNil(t, updated.PauseReason)
		require.Equal(t, "waiting for parts", *updated.PauseReason)
		require.NotNil(t, entry.PreviousStateDuration)
		require.Equal(t, 45*time.Minute, *entry.PreviousStateDuration)
	})

	t.Run("resuming accrues paused time and clears the reason", func(t *testing.T) {
		f := newActivityFixture(t)
		activity := f.seedActivity(t, domain.ActivityStatusPaused, true)
		reason := "waiting for parts"
		activity.PauseReason = &reason
		require.NoError(t, f.activities.Update(ctx, activity))
		pausedAt := f.now.Add(-30 * time.Minute)
		require.NoError(t, f.logs.Create(ctx, &domain.ActivityLog{
			ActivityID: activity.ID,
			NewStatus:  domain.ActivityStatusPaused,
			CreatedAt:  pausedAt,
		}))

		updated, _, err := f.svc.ApplyTransition(ctx, activity.ID, domain.ActivityStatusExecuting, "", f.technician.ID)
		require.NoError(t, err)
		require.Equal(t, 30*time.Minute, updated.TimePaused)
		require.Nil(t, updated.PauseReason)
		require.NotNil(t, updated.LastInteractionAt)
		require.Equal(t, f.now, *updated.LastInteractionAt)
	})

	t.Run("finalize accrues the last execution stretch", func(t *testing.T) {
		f := newActivityFixture(t)
		activity := f.seedActivity(t, domain.ActivityStatusExecuting, true)
		startedAt := f.now.Add(-90 * time.Minute)
		activity.LastInteractionAt = &startedAt
		activity.TimeSpent = time.Hour
		require.NoError(t, f.activities.Update(ctx, activity))

		updated, _, err := f.svc.ApplyTransition(ctx, activity.ID, domain.ActivityStatusFinalized, "", f.technician.ID)
		require.NoError(t, err)
		require.Equal(t, time.Hour+90*time.Minute, updated.TimeSpent)
		require.Equal(t, domain.ActivityStatusFinalized, updated.Status)
	})

	t.Run("cancellation records the reason", func(t *testing.T) {
		f := newActivityFixture(t)
		activity := f.seedActivity(t, domain.ActivityStatusOpen, false)

		updated, _, err := f.svc.ApplyTransition(ctx, activity.ID, domain.ActivityStatusCancelled, "machine decommissioned", f.technician.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.CancelReason)
		require.Equal(t, "machine decommissioned", *updated.CancelReason)
	})

	t.Run("guards", func(t *testing.T) {
		f := newActivityFixture(t)

		noTech := f.seedActivity(t, domain.ActivityStatusOpen, false)
		_, _, err := f.svc.ApplyTransition(ctx, noTech.ID, domain.ActivityStatusExecuting, "", f.technician.ID)
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

		executing := f.seedActivity(t, domain.ActivityStatusExecuting, true)
		_, _, err = f.svc.ApplyTransition(ctx, executing.ID, domain.ActivityStatusPaused, "  ", f.technician.ID)
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

		finalized := f.seedActivity(t, domain.ActivityStatusFinalized, true)
		_, _, err = f.svc.ApplyTransition(ctx, finalized.ID, domain.ActivityStatusExecuting, "", f.technician.ID)
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

		open := f.seedActivity(t, domain.ActivityStatusOpen, true)
		_, _, err = f.svc.ApplyTransition(ctx, open.ID, domain.ActivityStatusFinalized, "", f.technician.ID)
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("repeated transition reports a conflict", func(t *testing.T) {
		f := newActivityFixture(t)
		activity := f.seedActivity(t, domain.ActivityStatusExecuting, true)

		_, _, err := f.svc.ApplyTransition(ctx, activity.ID, domain.ActivityStatusPaused, "lunch", f.technician.ID)
		require.NoError(t, err)
		_, _, err = f.svc.ApplyTransition(ctx, activity.ID, domain.ActivityStatusPaused, "lunch", f.technician.ID)
		require.True(t, apperrors.IsCode(err, "CONFLICT"))
	})

	t.Run("unknown activity", func(t *testing.T) {
		f := newActivityFixture(t)
		_, _, err := f.svc.ApplyTransition(ctx, "missing", domain.ActivityStatusExecuting, "", f.technician.ID)
		require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})
}

func TestAssignTechnicians(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the crew preserving order", func(t *testing.T) {
		f := newActivityFixture(t)
		second := &domain.User{Name: "Bruno Lima", Login: "bruno", Role: domain.UserRoleTechnician, Active: true}
		require.NoError(t, f.users.Create(ctx, second))
		activity := f.seedActivity(t, domain.ActivityStatusOpen, true)

		updated, err := f.svc.AssignTechnicians(ctx, activity.ID, []string{second.ID, f.technician.ID}, "admin")
		require.NoError(t, err)
		require.Len(t, updated.Technicians, 2)
		require.Equal(t, second.ID, updated.Technicians[0].ID)
		require.Equal(t, 0, updated.Technicians[0].Position)
		require.Equal(t, 1, f.dispatcher.published(events.EventActivityAssigned))
	})

	t.Run("closed activity rejects reassignment", func(t *testing.T) {
		f := newActivityFixture(t)
		activity := f.seedActivity(t, domain.ActivityStatusCancelled, true)

		_, err := f.svc.AssignTechnicians(ctx, activity.ID, []string{f.technician.ID}, "admin")
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("inactive technician rejected", func(t *testing.T) {
		f := newActivityFixture(t)
		inactive := &domain.User{Name: "Gone", Login: "gone", Role: domain.UserRoleTechnician, Active: false}
		require.NoError(t, f.users.Create(ctx, inactive))
		activity := f.seedActivity(t, domain.ActivityStatusOpen, false)

		_, err := f.svc.AssignTechnicians(ctx, activity.ID, []string{inactive.ID}, "admin")
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})
}
