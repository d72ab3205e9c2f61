package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factoryops/maintenance-service/internal/config"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/events"
	"github.com/factoryops/maintenance-service/internal/repository"
	"github.com/factoryops/maintenance-service/internal/service"
)

type preventiveFixture struct {
	svc        *service.PreventiveService
	plans      *fakePlanRepo
	activities *fakeActivityRepo
	procedures *fakeProcedureRepo
	machines   *fakeMachineRepo
	dispatcher *fakeDispatcher
	machine    *domain.Machine
	today      time.Time
}

func newPreventiveFixture(t *testing.T) *preventiveFixture {
	t.Helper()
	ctx := context.Background()
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	machines := newFakeMachineRepo()
	machine := &domain.Machine{Code: "CMP-02", Name: "Compressor"}
	require.NoError(t, machines.Create(ctx, machine))

	plans := newFakePlanRepo()
	activities := newFakeActivityRepo(nil)
	procedures := newFakeProcedureRepo()
	dispatcher := &fakeDispatcher{}

	svc := service.NewPreventiveService(service.PreventiveDependencies{
		PlanRepo:      plans,
		ActivityRepo:  activities,
		ProcedureRepo: procedures,
		TxManager:     fakeTxManager{},
		Dispatcher:    dispatcher,
		Scheduling:    config.SchedulingConfig{PreventiveDefaultMinutes: 120},
		Clock:         func() time.Time { return today.Add(10 * time.Hour) },
	})
	return &preventiveFixture{
		svc:        svc,
		plans:      plans,
		activities: activities,
		procedures: procedures,
		machines:   machines,
		dispatcher: dispatcher,
		machine:    machine,
		today:      today,
	}
}

func TestGenerateDue(t *testing.T) {
	ctx := context.Background()

	t.Run("overdue plan spawns one order and advances one interval", func(t *testing.T) {
		f := newPreventiveFixture(t)
		procedure := &domain.Procedure{Code: "FLT-01", Name: "Filter change", DefaultDuration: 90 * time.Minute}
		require.NoError(t, f.procedures.Create(ctx, procedure))

		due := f.today.AddDate(0, 0, -1)
		plan := &domain.PreventivePlan{
			Name:         "weekly filter change",
			MachineID:    f.machine.ID,
			ProcedureID:  &procedure.ID,
			IntervalDays: 7,
			NextDue:      due,
			Active:       true,
		}
		require.NoError(t, f.plans.Create(ctx, plan))

		generated, err := f.svc.GenerateDue(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, generated)

		orders, err := f.activities.ListWithFilter(ctx, repository.ActivityFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		order := orders[0]
		require.True(t, order.Preventive)
		require.Equal(t, "PREVENTIVE: Filter change", order.Description)
		require.Equal(t, 90*time.Minute, order.EstimatedDuration)
		require.NotNil(t, order.PlannedStart)
		require.Equal(t, due, *order.PlannedStart)

		// The plan catches up one interval at a time, anchored on the
		// missed date rather than today.
		updated, err := f.plans.GetByID(ctx, plan.ID)
		require.NoError(t, err)
		require.Equal(t, due.AddDate(0, 0, 7), updated.NextDue)
		require.Equal(t, 1, f.dispatcher.published(events.EventPreventiveGenerated))
	})

	t.Run("plan without procedure uses plan name and default duration", func(t *testing.T) {
		f := newPreventiveFixture(t)
		plan := &domain.PreventivePlan{
			Name:         "visual inspection",
			MachineID:    f.machine.ID,
			IntervalDays: 30,
			NextDue:      f.today,
			Active:       true,
		}
		require.NoError(t, f.plans.Create(ctx, plan))

		generated, err := f.svc.GenerateDue(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, generated)

		orders, err := f.activities.ListWithFilter(ctx, repository.ActivityFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		require.Equal(t, "PREVENTIVE: visual inspection", orders[0].Description)
		require.Equal(t, 2*time.Hour, orders[0].EstimatedDuration)
	})

	t.Run("future and inactive plans are skipped", func(t *testing.T) {
		f := newPreventiveFixture(t)
		future := &domain.PreventivePlan{
			Name: "future", MachineID: f.machine.ID, IntervalDays: 7,
			NextDue: f.today.AddDate(0, 0, 3), Active: true,
		}
		inactive := &domain.PreventivePlan{
			Name: "inactive", MachineID: f.machine.ID, IntervalDays: 7,
			NextDue: f.today.AddDate(0, 0, -3), Active: false,
		}
		require.NoError(t, f.plans.Create(ctx, future))
		require.NoError(t, f.plans.Create(ctx, inactive))

		generated, err := f.svc.GenerateDue(ctx)
		require.NoError(t, err)
		require.Zero(t, generated)
	})

	t.Run("broken plan does not block the rest", func(t *testing.T) {
		f := newPreventiveFixture(t)
		missing := "prc-missing"
		broken := &domain.PreventivePlan{
			Name: "broken", MachineID: f.machine.ID, ProcedureID: &missing,
			IntervalDays: 7, NextDue: f.today, Active: true,
		}
		healthy := &domain.PreventivePlan{
			Name: "healthy", MachineID: f.machine.ID,
			IntervalDays: 7, NextDue: f.today, Active: true,
		}
		require.NoError(t, f.plans.Create(ctx, broken))
		require.NoError(t, f.plans.Create(ctx, healthy))

		generated, err := f.svc.GenerateDue(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, generated)
	})

	t.Run("second run with nothing due is a no-op", func(t *testing.T) {
		f := newPreventiveFixture(t)
		plan := &domain.PreventivePlan{
			Name: "monthly", MachineID: f.machine.ID,
			IntervalDays: 30, NextDue: f.today, Active: true,
		}
		require.NoError(t, f.plans.Create(ctx, plan))

		generated, err := f.svc.GenerateDue(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, generated)

		generated, err = f.svc.GenerateDue(ctx)
		require.NoError(t, err)
		require.Zero(t, generated)
	})
}
