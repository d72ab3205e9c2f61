package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/factoryops/maintenance-service/internal/api/dto"
	"github.com/factoryops/maintenance-service/internal/auth"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/repository"
	"github.com/factoryops/maintenance-service/internal/service"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// ActivitiesHandler manages work-order endpoints.
type ActivitiesHandler struct {
	service  *service.ActivityService
	location *time.Location
}

// NewActivitiesHandler constructs handler.
func NewActivitiesHandler(activityService *service.ActivityService, location *time.Location) *ActivitiesHandler {
	return &ActivitiesHandler{service: activityService, location: location}
}

// CreateActivity POST /activities.
func (h *ActivitiesHandler) CreateActivity(c *fiber.Ctx) error {
	var req dto.CreateActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	activity, err := h.service.CreateActivity(c.UserContext(), service.ActivityCreateInput{
		MachineID:     req.MachineID,
		Description:   req.Description,
		TechnicianIDs: req.TechnicianIDs,
		PlannedStart:  req.PlannedStart,
		DurationValue: req.DurationValue,
		DurationUnit:  req.DurationUnit,
		Emergency:     req.Emergency,
		Preventive:    req.Preventive,
		ProcedureID:   req.ProcedureID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": activitySummary(activity, h.location)})
}

// ListActivities GET /activities.
func (h *ActivitiesHandler) ListActivities(c *fiber.Ctx) error {
	activities, err := h.service.ListActivities(c.UserContext(), parseActivityQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.ActivitySummary, 0, len(activities))
	for i := range activities {
		items = append(items, activitySummary(&activities[i], h.location))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetActivity GET /activities/:id.
func (h *ActivitiesHandler) GetActivity(c *fiber.Ctx) error {
	activity, logs, err := h.service.GetActivity(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityDetail(activity, logs, h.location)})
}

// AssignTechnicians PUT /activities/:id/technicians.
func (h *ActivitiesHandler) AssignTechnicians(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AssignTechniciansRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	activity, err := h.service.AssignTechnicians(c.UserContext(), c.Params("id"), req.TechnicianIDs, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activitySummary(activity, h.location)})
}

// ChangeStatus POST /activities/:id/status/:status.
func (h *ActivitiesHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.TransitionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	status := domain.ActivityStatus(strings.ToUpper(c.Params("status")))
	activity, _, err := h.service.ApplyTransition(c.UserContext(), c.Params("id"), status, req.Justification, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activitySummary(activity, h.location)})
}

func parseActivityQuery(c *fiber.Ctx) repository.ActivityFilter {
	filter := repository.ActivityFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ActivityStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if machineID := c.Query("machine_id"); machineID != "" {
		filter.MachineID = &machineID
	}
	if technicianID := c.Query("technician_id"); technicianID != "" {
		filter.TechnicianID = &technicianID
	}
	if preventiveStr := c.Query("preventive"); preventiveStr != "" {
		preventive := preventiveStr == "true"
		filter.Preventive = &preventive
	}
	if emergencyStr := c.Query("emergency"); emergencyStr != "" {
		emergency := emergencyStr == "true"
		filter.Emergency = &emergency
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
