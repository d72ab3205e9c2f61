package dto

import "time"

// ScheduledActivityResponse is one sequenced work order on the
// timeline, with start and end already resolved against the
// per-technician queue.
type ScheduledActivityResponse struct {
	ActivitySummary
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	DurationLabel  string    `json:"duration_label"`
	TimeSpentLabel string    `json:"time_spent"`
	TimeSpentHours float64   `json:"time_spent_hours"`
}

// BoardResponse is the dispatcher dashboard.
type BoardResponse struct {
	Open           []ScheduledActivityResponse `json:"open"`
	Executing      []ScheduledActivityResponse `json:"executing"`
	Paused         []ScheduledActivityResponse `json:"paused"`
	Finalized      []ActivitySummary           `json:"finalized"`
	PendingTickets int                         `json:"pending_tickets"`
}

// GanttBarResponse is one chart row.
type GanttBarResponse struct {
	ActivityID string    `json:"activity_id"`
	Label      string    `json:"label"`
	Machine    string    `json:"machine"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Progress   int       `json:"progress"`
	Emergency  bool      `json:"emergency"`
	Preventive bool      `json:"preventive"`
	CSSClass   string    `json:"css_class"`
}
