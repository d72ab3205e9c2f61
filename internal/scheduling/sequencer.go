package scheduling

import (
	"sort"
	"time"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// DefaultFallbackDuration replaces missing or non-positive estimates.
const DefaultFallbackDuration = time.Hour

// ScheduledActivity is an activity annotated with its computed position
// on the per-technician timeline.
type ScheduledActivity struct {
	Activity      domain.Activity
	Start         time.Time
	End           time.Time
	DurationLabel string
	SpentLabel    string
	SpentHours    float64
}

// Options tunes the sequencing pass.
type Options struct {
	// FallbackDuration is used when an activity has a zero or negative
	// estimate. Defaults to one hour.
	FallbackDuration time.Duration
}

func (o Options) fallback() time.Duration {
	if o.FallbackDuration > 0 {
		return o.FallbackDuration
	}
	return DefaultFallbackDuration
}

// Sequence computes a non-overlapping per-technician timeline for the
// given activities. It is a pure function of the input snapshot and
// now; cursor state never outlives one call.
//
// Activities are processed emergencies first, then by planned start.
// Each activity is sequenced against the free-at cursor of its anchor
// technician (first assignee in assignment order); activities with no
// technicians are placed at their own planned start with no contention.
// Emergencies jump the queue: they start at their planned start and
// leave the cursor untouched, so they never delay other work and may
// overlap it, including other emergencies. Executing activities are
// clamped so the bar tracks real elapsed time: the start is pulled
// back to now when still in the future and the end never precedes now.
//
// The returned slice preserves processing order; callers re-filter and
// re-sort for presentation.
func Sequence(activities []domain.Activity, now time.Time, opts Options) []ScheduledActivity {
	ordered := make([]domain.Activity, len(activities))
	copy(ordered, activities)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Emergency != ordered[j].Emergency {
			return ordered[i].Emergency
		}
		return baseStart(&ordered[i], now).Before(baseStart(&ordered[j], now))
	})

	cursors := make(map[string]time.Time)
	result := make([]ScheduledActivity, 0, len(ordered))

	for _, act := range ordered {
		base := baseStart(&act, now)
		duration := act.EstimatedDuration
		if duration <= 0 {
			duration = opts.fallback()
		}

		var start, end time.Time
		if anchor := act.AnchorTechnician(); anchor != nil && !act.Emergency {
			cursor, seen := cursors[anchor.ID]
			if !seen {
				cursor = base
			}
			start = maxTime(base, cursor)
			end = start.Add(duration)
			start, end = clampExecuting(&act, start, end, duration, now)
			cursors[anchor.ID] = end
		} else {
			// No contention: unassigned activities occupy no queue, and
			// emergencies bypass it without advancing it.
			start = base
			end = start.Add(duration)
			start, end = clampExecuting(&act, start, end, duration, now)
		}

		result = append(result, ScheduledActivity{
			Activity:      act,
			Start:         start,
			End:           end,
			DurationLabel: FormatDuration(duration),
			SpentLabel:    FormatDuration(act.TimeSpent),
			SpentHours:    DecimalHours(act.TimeSpent),
		})
	}
	return result
}

func baseStart(act *domain.Activity, now time.Time) time.Time {
	if act.PlannedStart != nil {
		return *act.PlannedStart
	}
	// Planned start should always be present; guard anyway.
	return now
}

// clampExecuting keeps an in-progress bar anchored to the present: it
// must not look not-yet-started nor show an end in the past.
func clampExecuting(act *domain.Activity, start, end time.Time, duration time.Duration, now time.Time) (time.Time, time.Time) {
	if act.Status != domain.ActivityStatusExecuting {
		return start, end
	}
	if start.After(now) {
		start = now
	}
	end = maxTime(start.Add(duration), now)
	return start, end
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
