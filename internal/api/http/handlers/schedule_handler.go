package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/factoryops/maintenance-service/internal/api/dto"
	"github.com/factoryops/maintenance-service/internal/scheduling"
	"github.com/factoryops/maintenance-service/internal/service"
)

// ScheduleHandler serves the sequenced views of open work.
type ScheduleHandler struct {
	service  *service.ScheduleService
	location *time.Location
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(scheduleService *service.ScheduleService, location *time.Location) *ScheduleHandler {
	return &ScheduleHandler{service: scheduleService, location: location}
}

// Timeline GET /schedule/timeline.
func (h *ScheduleHandler) Timeline(c *fiber.Ctx) error {
	timeline, err := h.service.Timeline(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ScheduledActivityResponse, 0, len(timeline))
	for _, item := range timeline {
		items = append(items, scheduledResponse(item, h.location))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Board GET /schedule/board.
func (h *ScheduleHandler) Board(c *fiber.Ctx) error {
	board, err := h.service.Board(c.UserContext())
	if err != nil {
		return err
	}
	response := dto.BoardResponse{
		Open:           scheduledResponses(board.Open, h.location),
		Executing:      scheduledResponses(board.Executing, h.location),
		Paused:         scheduledResponses(board.Paused, h.location),
		Finalized:      make([]dto.ActivitySummary, 0, len(board.Finalized)),
		PendingTickets: board.PendingTickets,
	}
	for i := range board.Finalized {
		response.Finalized = append(response.Finalized, activitySummary(&board.Finalized[i], h.location))
	}
	return c.JSON(fiber.Map{"data": response})
}

// Gantt GET /schedule/gantt.
func (h *ScheduleHandler) Gantt(c *fiber.Ctx) error {
	bars, err := h.service.Gantt(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.GanttBarResponse, 0, len(bars))
	for _, bar := range bars {
		items = append(items, dto.GanttBarResponse{
			ActivityID: bar.ActivityID,
			Label:      bar.Label,
			Machine:    bar.Machine,
			Start:      localize(bar.Start, h.location),
			End:        localize(bar.End, h.location),
			Progress:   bar.Progress,
			Emergency:  bar.Emergency,
			Preventive: bar.Preventive,
			CSSClass:   bar.CSSClass,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func scheduledResponses(items []scheduling.ScheduledActivity, loc *time.Location) []dto.ScheduledActivityResponse {
	responses := make([]dto.ScheduledActivityResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, scheduledResponse(item, loc))
	}
	return responses
}
