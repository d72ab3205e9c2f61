package domain

import "time"

// TicketStatus enumerates triage states for maintenance requests.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "PENDING"
	TicketStatusApproved TicketStatus = "APPROVED"
	TicketStatusRejected TicketStatus = "REJECTED"
)

// TicketPriority enumerates request urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities for triage sorting.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityHigh:
		return 3
	case TicketPriorityMedium:
		return 2
	case TicketPriorityLow:
		return 1
	}
	return 0
}

// Ticket is an unscheduled maintenance request awaiting triage. On
// approval exactly one Activity is derived from it.
type Ticket struct {
	ID             string
	MachineID      string
	RequesterID    string
	Problem        string
	Priority       TicketPriority
	MachineStopped bool
	Status         TicketStatus
	ResponseReason *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
