package scheduling_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/scheduling"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) *time.Time {
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func tech(id string) []domain.AssignedTechnician {
	return []domain.AssignedTechnician{{ID: id, Name: id, Position: 0}}
}

func activity(id string, technicians []domain.AssignedTechnician, planned *time.Time, estimate time.Duration) domain.Activity {
	return domain.Activity{
		ID:                id,
		Status:            domain.ActivityStatusOpen,
		Technicians:       technicians,
		PlannedStart:      planned,
		EstimatedDuration: estimate,
	}
}

func findScheduled(t *testing.T, result []scheduling.ScheduledActivity, id string) scheduling.ScheduledActivity {
	t.Helper()
	for _, entry := range result {
		if entry.Activity.ID == id {
			return entry
		}
	}
	t.Fatalf("activity %s not in result", id)
	return scheduling.ScheduledActivity{}
}

func TestSequencePushesContendedActivityPastCursor(t *testing.T) {
	now := day.Add(8 * time.Hour)
	a := activity("a", tech("t1"), at(9, 0), 2*time.Hour)
	b := activity("b", tech("t1"), at(10, 0), time.Hour)

	result := scheduling.Sequence([]domain.Activity{b, a}, now, scheduling.Options{})
	require.Len(t, result, 2)

	gotA := findScheduled(t, result, "a")
	require.Equal(t, *at(9, 0), gotA.Start)
	require.Equal(t, *at(11, 0), gotA.End)

	gotB := findScheduled(t, result, "b")
	require.Equal(t, *at(11, 0), gotB.Start)
	require.Equal(t, *at(12, 0), gotB.End)
}

func TestSequenceEmergencyKeepsPlannedStart(t *testing.T) {
	now := day.Add(8 * time.Hour)
	a := activity("a", tech("t1"), at(9, 0), 2*time.Hour)
	b := activity("b", tech("t1"), at(10, 0), time.Hour)
	b.Emergency = true

	result := scheduling.Sequence([]domain.Activity{a, b}, now, scheduling.Options{})

	gotB := findScheduled(t, result, "b")
	require.Equal(t, *at(10, 0), gotB.Start)
	require.Equal(t, *at(11, 0), gotB.End)

	gotA := findScheduled(t, result, "a")
	require.Equal(t, *at(9, 0), gotA.Start)
	require.Equal(t, *at(11, 0), gotA.End)
}

func TestSequenceEmergenciesMayCollide(t *testing.T) {
	now := day.Add(8 * time.Hour)
	a := activity("a", tech("t1"), at(9, 0), 2*time.Hour)
	a.Emergency = true
	b := activity("b", tech("t1"), at(10, 0), 2*time.Hour)
	b.Emergency = true

	result := scheduling.Sequence([]domain.Activity{a, b}, now, scheduling.Options{})

	gotA := findScheduled(t, result, "a")
	gotB := findScheduled(t, result, "b")
	require.Equal(t, *at(9, 0), gotA.Start)
	require.Equal(t, *at(10, 0), gotB.Start)
	require.True(t, gotB.Start.Before(gotA.End), "emergency overlap is permitted")
}

func TestSequenceNoOverlapPerTechnician(t *testing.T) {
	now := day.Add(6 * time.Hour)
	input := []domain.Activity{
		activity("a1", tech("t1"), at(9, 0), 90*time.Minute),
		activity("a2", tech("t1"), at(9, 30), time.Hour),
		activity("a3", tech("t1"), at(9, 45), 2*time.Hour),
		activity("b1", tech("t2"), at(9, 0), time.Hour),
		activity("b2", tech("t2"), at(9, 15), time.Hour),
	}

	result := scheduling.Sequence(input, now, scheduling.Options{})

	byTech := map[string][]scheduling.ScheduledActivity{}
	for _, entry := range result {
		anchor := entry.Activity.AnchorTechnician()
		require.NotNil(t, anchor)
		byTech[anchor.ID] = append(byTech[anchor.ID], entry)
	}
	for techID, entries := range byTech {
		for i := 1; i < len(entries); i++ {
			require.False(t, entries[i].Start.Before(entries[i-1].End),
				"activities for %s overlap: %s starts before %s ends", techID, entries[i].Activity.ID, entries[i-1].Activity.ID)
		}
	}
}

func TestSequenceUnassignedActivitiesDoNotContend(t *testing.T) {
	now := day.Add(8 * time.Hour)
	a := activity("a", nil, at(9, 0), 2*time.Hour)
	b := activity("b", nil, at(9, 0), 2*time.Hour)

	result := scheduling.Sequence([]domain.Activity{a, b}, now, scheduling.Options{})

	gotA := findScheduled(t, result, "a")
	gotB := findScheduled(t, result, "b")
	require.Equal(t, gotA.Start, gotB.Start)
	require.Equal(t, gotA.End, gotB.End)
}

func TestSequenceAnchorIsFirstAssignee(t *testing.T) {
	now := day.Add(8 * time.Hour)
	multi := []domain.AssignedTechnician{
		{ID: "t1", Position: 0},
		{ID: "t2", Position: 1},
	}
	a := activity("a", multi, at(9, 0), 2*time.Hour)
	// Contends with t1 only; t2's own work is unaffected.
	b := activity("b", tech("t1"), at(9, 30), time.Hour)
	c := activity("c", tech("t2"), at(9, 30), time.Hour)

	result := scheduling.Sequence([]domain.Activity{a, b, c}, now, scheduling.Options{})

	require.Equal(t, *at(11, 0), findScheduled(t, result, "b").Start)
	require.Equal(t, *at(9, 30), findScheduled(t, result, "c").Start)
}

func TestSequenceExecutingBarTracksNow(t *testing.T) {
	now := day.Add(12 * time.Hour)

	// Started in the past, estimate already exceeded: end clamps to now.
	overdue := activity("overdue", tech("t1"), at(9, 0), time.Hour)
	overdue.Status = domain.ActivityStatusExecuting

	// Planned in the future but already running: start pulls to now.
	early := activity("early", tech("t2"), at(15, 0), time.Hour)
	early.Status = domain.ActivityStatusExecuting

	result := scheduling.Sequence([]domain.Activity{overdue, early}, now, scheduling.Options{})

	gotOverdue := findScheduled(t, result, "overdue")
	require.Equal(t, *at(9, 0), gotOverdue.Start)
	require.Equal(t, now, gotOverdue.End)
	require.False(t, gotOverdue.End.Before(now))

	gotEarly := findScheduled(t, result, "early")
	require.Equal(t, now, gotEarly.Start)
	require.Equal(t, now.Add(time.Hour), gotEarly.End)
	require.False(t, gotEarly.Start.After(now))
}

func TestSequenceExecutingClampAppliesWithoutTechnician(t *testing.T) {
	now := day.Add(12 * time.Hour)
	a := activity("a", nil, at(9, 0), time.Hour)
	a.Status = domain.ActivityStatusExecuting

	result := scheduling.Sequence([]domain.Activity{a}, now, scheduling.Options{})
	require.Equal(t, now, findScheduled(t, result, "a").End)
}

func TestSequenceDefaultsMissingInputs(t *testing.T) {
	now := day.Add(8 * time.Hour)

	noPlan := activity("no-plan", tech("t1"), nil, time.Hour)
	noDuration := activity("no-duration", tech("t2"), at(9, 0), 0)

	result := scheduling.Sequence([]domain.Activity{noPlan, noDuration}, now, scheduling.Options{})

	gotPlan := findScheduled(t, result, "no-plan")
	require.Equal(t, now, gotPlan.Start)

	gotDuration := findScheduled(t, result, "no-duration")
	require.Equal(t, *at(10, 0), gotDuration.End)
	require.Equal(t, "1h", gotDuration.DurationLabel)
}

func TestSequenceIsPureAcrossInvocations(t *testing.T) {
	now := day.Add(8 * time.Hour)
	input := []domain.Activity{
		activity("a", tech("t1"), at(9, 0), 2*time.Hour),
		activity("b", tech("t1"), at(10, 0), time.Hour),
	}

	first := scheduling.Sequence(input, now, scheduling.Options{})
	second := scheduling.Sequence(input, now, scheduling.Options{})
	require.Equal(t, first, second, "cursor state must not persist across calls")
}

func TestSequenceAnnotatesSpentTime(t *testing.T) {
	now := day.Add(8 * time.Hour)
	a := activity("a", tech("t1"), at(9, 0), 2*time.Hour)
	a.TimeSpent = 90 * time.Minute

	result := scheduling.Sequence([]domain.Activity{a}, now, scheduling.Options{})
	got := findScheduled(t, result, "a")
	require.Equal(t, "1h 30m", got.SpentLabel)
	require.Equal(t, 1.5, got.SpentHours)
	require.Equal(t, "2h", got.DurationLabel)
}
