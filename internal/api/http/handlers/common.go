package handlers

import (
	"strconv"
	"time"

	"github.com/factoryops/maintenance-service/internal/api/dto"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/scheduling"
)

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// localize shifts an instant into the presentation timezone. All
// storage and computation stay in UTC.
func localize(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

func localizePtr(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	shifted := localize(*t, loc)
	return &shifted
}

func technicianResponses(technicians []domain.AssignedTechnician) []dto.TechnicianResponse {
	items := make([]dto.TechnicianResponse, 0, len(technicians))
	for _, technician := range technicians {
		items = append(items, dto.TechnicianResponse{
			ID:       technician.ID,
			Name:     technician.DisplayName(),
			Login:    technician.Login,
			Position: technician.Position,
		})
	}
	return items
}

func activitySummary(activity *domain.Activity, loc *time.Location) dto.ActivitySummary {
	return dto.ActivitySummary{
		ID:            activity.ID,
		MachineID:     activity.MachineID,
		Machine:       activity.MachineLabel(),
		Description:   activity.Description,
		Status:        string(activity.Status),
		Emergency:     activity.Emergency,
		Preventive:    activity.Preventive,
		PlannedStart:  localizePtr(activity.PlannedStart, loc),
		EstimatedMins: int64(activity.EstimatedDuration / time.Minute),
		Technicians:   technicianResponses(activity.Technicians),
		CreatedAt:     localize(activity.CreatedAt, loc),
		UpdatedAt:     localize(activity.UpdatedAt, loc),
	}
}

func activityDetail(activity *domain.Activity, logs []domain.ActivityLog, loc *time.Location) dto.ActivityDetail {
	entries := make([]dto.ActivityLogResponse, 0, len(logs))
	for _, entry := range logs {
		response := dto.ActivityLogResponse{
			ID:        entry.ID,
			NewStatus: string(entry.NewStatus),
			Note:      entry.Note,
			ActorID:   entry.ActorID,
			CreatedAt: localize(entry.CreatedAt, loc),
		}
		if entry.PreviousStateDuration != nil {
			minutes := int64(*entry.PreviousStateDuration / time.Minute)
			response.PreviousMinutes = &minutes
		}
		entries = append(entries, response)
	}
	return dto.ActivityDetail{
		ActivitySummary: activitySummary(activity, loc),
		TimeSpentLabel:  scheduling.FormatDuration(activity.TimeSpent),
		TimeSpentHours:  scheduling.DecimalHours(activity.TimeSpent),
		TimePausedLabel: scheduling.FormatDuration(activity.TimePaused),
		PauseReason:     activity.PauseReason,
		CancelReason:    activity.CancelReason,
		ProcedureID:     activity.ProcedureID,
		Log:             entries,
	}
}

func scheduledResponse(item scheduling.ScheduledActivity, loc *time.Location) dto.ScheduledActivityResponse {
	return dto.ScheduledActivityResponse{
		ActivitySummary: activitySummary(&item.Activity, loc),
		Start:           localize(item.Start, loc),
		End:             localize(item.End, loc),
		DurationLabel:   item.DurationLabel,
		TimeSpentLabel:  item.SpentLabel,
		TimeSpentHours:  item.SpentHours,
	}
}
