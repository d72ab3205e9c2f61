package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/service"
)

func newScheduleFixture(t *testing.T) (*service.ScheduleService, *fakeActivityRepo, time.Time) {
	t.Helper()
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	activities := newFakeActivityRepo(nil)
	svc := service.NewScheduleService(service.ScheduleDependencies{
		ActivityRepo: activities,
		Fallback:     time.Hour,
		Clock:        func() time.Time { return now },
	})
	return svc, activities, now
}

func seedScheduled(t *testing.T, repo *fakeActivityRepo, status domain.ActivityStatus, emergency bool) *domain.Activity {
	t.Helper()
	ctx := context.Background()
	activity := &domain.Activity{
		MachineID:         "mch-1",
		MachineCode:       "CNC-01",
		Description:       "work",
		Status:            status,
		EstimatedDuration: time.Hour,
		Emergency:         emergency,
	}
	require.NoError(t, repo.Create(ctx, activity))
	return activity
}

func TestBoardGroupsByState(t *testing.T) {
	svc, repo, _ := newScheduleFixture(t)
	seedScheduled(t, repo, domain.ActivityStatusOpen, false)
	seedScheduled(t, repo, domain.ActivityStatusExecuting, false)
	seedScheduled(t, repo, domain.ActivityStatusPaused, false)
	seedScheduled(t, repo, domain.ActivityStatusFinalized, false)
	seedScheduled(t, repo, domain.ActivityStatusCancelled, false)

	board, err := svc.Board(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Open, 1)
	require.Len(t, board.Executing, 1)
	require.Len(t, board.Paused, 1)
	require.Len(t, board.Finalized, 1)
}

func TestTimelineExcludesClosedWork(t *testing.T) {
	svc, repo, now := newScheduleFixture(t)
	open := seedScheduled(t, repo, domain.ActivityStatusOpen, false)
	seedScheduled(t, repo, domain.ActivityStatusFinalized, false)
	seedScheduled(t, repo, domain.ActivityStatusCancelled, false)

	timeline, err := svc.Timeline(context.Background())
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	require.Equal(t, open.ID, timeline[0].Activity.ID)
	require.Equal(t, now, timeline[0].Start)
}

func TestGanttProgressAndClasses(t *testing.T) {
	svc, repo, _ := newScheduleFixture(t)
	seedScheduled(t, repo, domain.ActivityStatusExecuting, false)
	seedScheduled(t, repo, domain.ActivityStatusPaused, false)
	seedScheduled(t, repo, domain.ActivityStatusOpen, true)

	bars, err := svc.Gantt(context.Background())
	require.NoError(t, err)
	require.Len(t, bars, 3)

	byProgress := map[int]int{}
	classes := map[string]int{}
	for _, bar := range bars {
		byProgress[bar.Progress]++
		classes[bar.CSSClass]++
	}
	require.Equal(t, 1, byProgress[50])
	require.Equal(t, 1, byProgress[25])
	require.Equal(t, 1, byProgress[0])
	require.Equal(t, 1, classes["bar-emergency"])
	require.Equal(t, 1, classes["bar-paused"])
}
