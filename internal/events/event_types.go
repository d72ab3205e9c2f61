package events

import (
	"time"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketApproved        EventType = "ticket_approved"
	EventTicketRejected        EventType = "ticket_rejected"
	EventActivityCreated       EventType = "activity_created"
	EventActivityStatusChanged EventType = "activity_status_changed"
	EventActivityAssigned      EventType = "activity_assigned"
	EventPreventiveGenerated   EventType = "preventive_generated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID       string                `json:"ticket_id"`
	MachineID      string                `json:"machine_id"`
	Priority       domain.TicketPriority `json:"priority"`
	MachineStopped bool                  `json:"machine_stopped"`
}

// TicketTriagedPayload covers approval and rejection.
type TicketTriagedPayload struct {
	TicketID   string  `json:"ticket_id"`
	ActivityID *string `json:"activity_id,omitempty"`
	Reason     *string `json:"reason,omitempty"`
}

// ActivityCreatedPayload payload.
type ActivityCreatedPayload struct {
	ActivityID string `json:"activity_id"`
	MachineID  string `json:"machine_id"`
	Emergency  bool   `json:"emergency"`
	Preventive bool   `json:"preventive"`
}

// ActivityStatusChangedPayload payload.
type ActivityStatusChangedPayload struct {
	ActivityID string                `json:"activity_id"`
	OldStatus  domain.ActivityStatus `json:"old_status"`
	NewStatus  domain.ActivityStatus `json:"new_status"`
	Note       string                `json:"note,omitempty"`
}

// ActivityAssignedPayload payload.
type ActivityAssignedPayload struct {
	ActivityID    string   `json:"activity_id"`
	TechnicianIDs []string `json:"technician_ids"`
}

// PreventiveGeneratedPayload payload.
type PreventiveGeneratedPayload struct {
	PlanID     string `json:"plan_id"`
	ActivityID string `json:"activity_id"`
}
