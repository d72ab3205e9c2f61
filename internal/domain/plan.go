package domain

import "time"

// PreventivePlan is a recurrence rule that periodically spawns
// preventive-maintenance activities. NextDue is a date, not an instant.
type PreventivePlan struct {
	ID           string
	Name         string
	MachineID    string
	ProcedureID  *string
	IntervalDays int
	NextDue      time.Time
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
