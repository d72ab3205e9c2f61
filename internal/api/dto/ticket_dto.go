package dto

import "time"

// CreateTicketRequest files a maintenance request.
type CreateTicketRequest struct {
	MachineID      string `json:"machine_id"`
	Problem        string `json:"problem"`
	Priority       string `json:"priority"`
	MachineStopped bool   `json:"machine_stopped"`
}

// ApproveTicketRequest converts a pending ticket into a work order.
type ApproveTicketRequest struct {
	TechnicianIDs []string   `json:"technician_ids"`
	PlannedStart  *time.Time `json:"planned_start"`
	DurationValue int        `json:"duration_value"`
	DurationUnit  string     `json:"duration_unit"`
	Emergency     bool       `json:"emergency"`
}

// RejectTicketRequest closes a pending ticket without work.
type RejectTicketRequest struct {
	Reason string `json:"reason"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID             string    `json:"id"`
	MachineID      string    `json:"machine_id"`
	RequesterID    string    `json:"requester_id"`
	Problem        string    `json:"problem"`
	Priority       string    `json:"priority"`
	MachineStopped bool      `json:"machine_stopped"`
	Status         string    `json:"status"`
	ResponseReason *string   `json:"response_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PendingCountResponse feeds the triage badge.
type PendingCountResponse struct {
	Pending int `json:"pending"`
}
