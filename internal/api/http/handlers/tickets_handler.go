package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/factoryops/maintenance-service/internal/api/dto"
	"github.com/factoryops/maintenance-service/internal/auth"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/repository"
	"github.com/factoryops/maintenance-service/internal/service"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// TicketsHandler manages request and triage endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	priority := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(req.Priority)))
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		MachineID:      req.MachineID,
		RequesterID:    principal.User.ID,
		Problem:        req.Problem,
		Priority:       priority,
		MachineStopped: req.MachineStopped,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets. Requesters see their own, staff see all.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	filter := parseTicketQuery(c)
	if principal.User.Role == domain.UserRoleRequester {
		requesterID := principal.User.ID
		filter.RequesterID = &requesterID
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ApproveTicket POST /tickets/:id/approve.
func (h *TicketsHandler) ApproveTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ApproveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	activity, err := h.service.ApproveTicket(c.UserContext(), service.TicketApproveInput{
		TicketID:      c.Params("id"),
		SupervisorID:  principal.User.ID,
		TechnicianIDs: req.TechnicianIDs,
		PlannedStart:  req.PlannedStart,
		DurationValue: req.DurationValue,
		DurationUnit:  req.DurationUnit,
		Emergency:     req.Emergency,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": activitySummary(activity, nil)})
}

// RejectTicket POST /tickets/:id/reject.
func (h *TicketsHandler) RejectTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.RejectTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.RejectTicket(c.UserContext(), c.Params("id"), principal.User.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// PendingCount GET /tickets/pending/count.
func (h *TicketsHandler) PendingCount(c *fiber.Ctx) error {
	count, err := h.service.PendingCount(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PendingCountResponse{Pending: count}})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if machineID := c.Query("machine_id"); machineID != "" {
		filter.MachineID = &machineID
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:             ticket.ID,
		MachineID:      ticket.MachineID,
		RequesterID:    ticket.RequesterID,
		Problem:        ticket.Problem,
		Priority:       string(ticket.Priority),
		MachineStopped: ticket.MachineStopped,
		Status:         string(ticket.Status),
		ResponseReason: ticket.ResponseReason,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}
