package dto

import "time"

// CreateActivityRequest creates a work order directly.
type CreateActivityRequest struct {
	MachineID     string     `json:"machine_id"`
	Description   string     `json:"description"`
	TechnicianIDs []string   `json:"technician_ids"`
	PlannedStart  *time.Time `json:"planned_start"`
	DurationValue int        `json:"duration_value"`
	DurationUnit  string     `json:"duration_unit"`
	Emergency     bool       `json:"emergency"`
	Preventive    bool       `json:"preventive"`
	ProcedureID   *string    `json:"procedure_id"`
}

// TransitionRequest carries the optional or required justification.
type TransitionRequest struct {
	Justification string `json:"justification"`
}

// AssignTechniciansRequest replaces the crew on a work order.
type AssignTechniciansRequest struct {
	TechnicianIDs []string `json:"technician_ids"`
}

// TechnicianResponse is one assigned technician.
type TechnicianResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Login    string `json:"login"`
	Position int    `json:"position"`
}

// ActivitySummary is the list representation of a work order.
type ActivitySummary struct {
	ID            string               `json:"id"`
	MachineID     string               `json:"machine_id"`
	Machine       string               `json:"machine"`
	Description   string               `json:"description"`
	Status        string               `json:"status"`
	Emergency     bool                 `json:"emergency"`
	Preventive    bool                 `json:"preventive"`
	PlannedStart  *time.Time           `json:"planned_start,omitempty"`
	EstimatedMins int64                `json:"estimated_minutes"`
	Technicians   []TechnicianResponse `json:"technicians"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ActivityDetail extends the summary with timers and the log.
type ActivityDetail struct {
	ActivitySummary
	TimeSpentLabel  string                `json:"time_spent"`
	TimeSpentHours  float64               `json:"time_spent_hours"`
	TimePausedLabel string                `json:"time_paused"`
	PauseReason     *string               `json:"pause_reason,omitempty"`
	CancelReason    *string               `json:"cancel_reason,omitempty"`
	ProcedureID     *string               `json:"procedure_id,omitempty"`
	Log             []ActivityLogResponse `json:"log"`
}

// ActivityLogResponse is one state transition record.
type ActivityLogResponse struct {
	ID              string    `json:"id"`
	NewStatus       string    `json:"new_status"`
	Note            string    `json:"note,omitempty"`
	ActorID         *string   `json:"actor_id,omitempty"`
	PreviousMinutes *int64    `json:"previous_state_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
