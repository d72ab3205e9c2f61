package domain

import "time"

// ActivityStatus enumerates lifecycle states for work orders.
type ActivityStatus string

const (
	ActivityStatusOpen      ActivityStatus = "OPEN"
	ActivityStatusExecuting ActivityStatus = "EXECUTING"
	ActivityStatusPaused    ActivityStatus = "PAUSED"
	ActivityStatusFinalized ActivityStatus = "FINALIZED"
	ActivityStatusCancelled ActivityStatus = "CANCELLED"
)

// Valid reports whether the status is a known lifecycle state.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityStatusOpen, ActivityStatusExecuting, ActivityStatusPaused, ActivityStatusFinalized, ActivityStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s ActivityStatus) Terminal() bool {
	return s == ActivityStatusFinalized || s == ActivityStatusCancelled
}

// AssignedTechnician is one member of an activity's technician set,
// in stable assignment order. Position 0 is the sequencing anchor.
type AssignedTechnician struct {
	ID       string
	Name     string
	Login    string
	Position int
}

// DisplayName prefers the technician's name, falling back to login.
func (t AssignedTechnician) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Login
}

// Activity is the aggregate for a unit of maintenance work.
type Activity struct {
	ID                string
	MachineID         string
	MachineCode       string
	MachineName       string
	Description       string
	Status            ActivityStatus
	Technicians       []AssignedTechnician
	PlannedStart      *time.Time
	EstimatedDuration time.Duration
	TimeSpent         time.Duration
	TimePaused        time.Duration
	LastInteractionAt *time.Time
	Emergency         bool
	PauseReason       *string
	CancelReason      *string
	Preventive        bool
	ProcedureID       *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AnchorTechnician returns the assignee that drives sequencing, or nil
// when the activity has no technicians.
func (a *Activity) AnchorTechnician() *AssignedTechnician {
	if len(a.Technicians) == 0 {
		return nil
	}
	return &a.Technicians[0]
}

// MachineLabel combines code and name for presentation.
func (a *Activity) MachineLabel() string {
	if a.MachineName == "" {
		return a.MachineCode
	}
	return a.MachineCode + " - " + a.MachineName
}
