package domain

import "time"

// ActivityLog is an immutable audit record of one status transition.
// PreviousStateDuration holds how long the activity sat in the state
// being left, diffed against the previous log entry's timestamp.
type ActivityLog struct {
	ID                    string
	ActivityID            string
	ActorID               *string
	NewStatus             ActivityStatus
	Note                  string
	PreviousStateDuration *time.Duration
	CreatedAt             time.Time
}
