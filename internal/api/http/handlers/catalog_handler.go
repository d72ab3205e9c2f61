package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/factoryops/maintenance-service/internal/api/dto"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/service"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// CatalogHandler manages machines, procedures and preventive plans.
type CatalogHandler struct {
	catalog    *service.CatalogService
	preventive *service.PreventiveService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService, preventive *service.PreventiveService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, preventive: preventive}
}

// CreateMachine POST /admin/machines.
func (h *CatalogHandler) CreateMachine(c *fiber.Ctx) error {
	var req dto.MachineRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	machine, err := h.catalog.CreateMachine(c.UserContext(), service.MachineInput{Code: req.Code, Name: req.Name})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": machineResponse(machine)})
}

// UpdateMachine PUT /admin/machines/:id.
func (h *CatalogHandler) UpdateMachine(c *fiber.Ctx) error {
	var req dto.MachineRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	machine, err := h.catalog.UpdateMachine(c.UserContext(), c.Params("id"), service.MachineInput{Code: req.Code, Name: req.Name})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": machineResponse(machine)})
}

// ListMachines GET /machines.
func (h *CatalogHandler) ListMachines(c *fiber.Ctx) error {
	machines, err := h.catalog.ListMachines(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.MachineResponse, 0, len(machines))
	for i := range machines {
		items = append(items, machineResponse(&machines[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateProcedure POST /admin/procedures.
func (h *CatalogHandler) CreateProcedure(c *fiber.Ctx) error {
	var req dto.ProcedureRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	procedure, err := h.catalog.CreateProcedure(c.UserContext(), service.ProcedureInput{
		Code:                   req.Code,
		Name:                   req.Name,
		Instructions:           req.Instructions,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": procedureResponse(procedure)})
}

// UpdateProcedure PUT /admin/procedures/:id.
func (h *CatalogHandler) UpdateProcedure(c *fiber.Ctx) error {
	var req dto.ProcedureRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	procedure, err := h.catalog.UpdateProcedure(c.UserContext(), c.Params("id"), service.ProcedureInput{
		Code:                   req.Code,
		Name:                   req.Name,
		Instructions:           req.Instructions,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": procedureResponse(procedure)})
}

// ListProcedures GET /procedures.
func (h *CatalogHandler) ListProcedures(c *fiber.Ctx) error {
	procedures, err := h.catalog.ListProcedures(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ProcedureResponse, 0, len(procedures))
	for i := range procedures {
		items = append(items, procedureResponse(&procedures[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreatePlan POST /admin/plans.
func (h *CatalogHandler) CreatePlan(c *fiber.Ctx) error {
	var req dto.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input, err := planInput(req)
	if err != nil {
		return err
	}
	plan, err := h.catalog.CreatePlan(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": planResponse(plan)})
}

// UpdatePlan PUT /admin/plans/:id.
func (h *CatalogHandler) UpdatePlan(c *fiber.Ctx) error {
	var req dto.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input, err := planInput(req)
	if err != nil {
		return err
	}
	plan, err := h.catalog.UpdatePlan(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": planResponse(plan)})
}

// ListPlans GET /admin/plans.
func (h *CatalogHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.catalog.ListPlans(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		items = append(items, planResponse(&plans[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GeneratePreventive POST /admin/plans/generate. Manual trigger for the
// same pass the schedule views run implicitly.
func (h *CatalogHandler) GeneratePreventive(c *fiber.Ctx) error {
	generated, err := h.preventive.GenerateDue(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.GenerateResponse{Generated: generated}})
}

func planInput(req dto.PlanRequest) (service.PlanInput, error) {
	input := service.PlanInput{
		Name:         req.Name,
		MachineID:    req.MachineID,
		ProcedureID:  req.ProcedureID,
		IntervalDays: req.IntervalDays,
		Active:       req.Active,
	}
	if req.NextDue != "" {
		nextDue, err := time.ParseInLocation("2006-01-02", req.NextDue, time.UTC)
		if err != nil {
			return service.PlanInput{}, apperrors.NewValidationError("next_due must be YYYY-MM-DD", nil)
		}
		input.NextDue = nextDue
	}
	return input, nil
}

func machineResponse(machine *domain.Machine) dto.MachineResponse {
	return dto.MachineResponse{
		ID:        machine.ID,
		Code:      machine.Code,
		Name:      machine.Name,
		CreatedAt: machine.CreatedAt,
	}
}

func procedureResponse(procedure *domain.Procedure) dto.ProcedureResponse {
	return dto.ProcedureResponse{
		ID:                     procedure.ID,
		Code:                   procedure.Code,
		Name:                   procedure.Name,
		Instructions:           procedure.Instructions,
		DefaultDurationMinutes: int64(procedure.DefaultDuration / time.Minute),
		CreatedAt:              procedure.CreatedAt,
	}
}

func planResponse(plan *domain.PreventivePlan) dto.PlanResponse {
	return dto.PlanResponse{
		ID:           plan.ID,
		Name:         plan.Name,
		MachineID:    plan.MachineID,
		ProcedureID:  plan.ProcedureID,
		IntervalDays: plan.IntervalDays,
		NextDue:      plan.NextDue.Format("2006-01-02"),
		Active:       plan.Active,
		CreatedAt:    plan.CreatedAt,
	}
}
