package dto

import "time"

// MachineRequest creates or updates a machine.
type MachineRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// MachineResponse is the wire form of a machine.
type MachineResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProcedureRequest creates or updates a procedure.
type ProcedureRequest struct {
	Code                   string `json:"code"`
	Name                   string `json:"name"`
	Instructions           string `json:"instructions"`
	DefaultDurationMinutes int    `json:"default_duration_minutes"`
}

// ProcedureResponse is the wire form of a procedure.
type ProcedureResponse struct {
	ID                     string    `json:"id"`
	Code                   string    `json:"code"`
	Name                   string    `json:"name"`
	Instructions           string    `json:"instructions"`
	DefaultDurationMinutes int64     `json:"default_duration_minutes"`
	CreatedAt              time.Time `json:"created_at"`
}

// PlanRequest creates or updates a preventive plan.
type PlanRequest struct {
	Name         string  `json:"name"`
	MachineID    string  `json:"machine_id"`
	ProcedureID  *string `json:"procedure_id"`
	IntervalDays int     `json:"interval_days"`
	NextDue      string  `json:"next_due"`
	Active       *bool   `json:"active"`
}

// PlanResponse is the wire form of a preventive plan.
type PlanResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MachineID    string    `json:"machine_id"`
	ProcedureID  *string   `json:"procedure_id,omitempty"`
	IntervalDays int       `json:"interval_days"`
	NextDue      string    `json:"next_due"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// GenerateResponse reports a preventive generation run.
type GenerateResponse struct {
	Generated int `json:"generated"`
}
