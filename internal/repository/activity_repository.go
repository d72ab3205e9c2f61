package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// ActivityFilter captures listing parameters.
type ActivityFilter struct {
	Statuses        []domain.ActivityStatus
	ExcludeStatuses []domain.ActivityStatus
	MachineID       *string
	TechnicianID    *string
	Preventive      *bool
	Emergency       *bool
	Limit           int
	Offset          int
}

// ActivityRepository encapsulates work-order persistence.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	Update(ctx context.Context, activity *domain.Activity) error
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	// GetByIDForUpdate takes a row lock; callers must be inside a
	// transaction so concurrent transitions serialize.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Activity, error)
	ListWithFilter(ctx context.Context, filter ActivityFilter) ([]domain.Activity, error)
	// FindByMarker locates an activity whose description carries the
	// given ticket idempotency marker. Returns nil, nil when absent.
	FindByMarker(ctx context.Context, marker string) (*domain.Activity, error)
	ReplaceTechnicians(ctx context.Context, activityID string, technicianIDs []string) error
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

const activityColumns = `a.id, a.machine_id, m.code, m.name, a.description, a.status,
       a.planned_start, a.estimated_duration_seconds, a.time_spent_seconds, a.time_paused_seconds,
       a.last_interaction_at, a.emergency, a.pause_reason, a.cancel_reason,
       a.preventive, a.procedure_id, a.created_at, a.updated_at`

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	const query = `
        INSERT INTO activities (machine_id, description, status, planned_start, estimated_duration_seconds,
            time_spent_seconds, time_paused_seconds, last_interaction_at, emergency, pause_reason,
            cancel_reason, preventive, procedure_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		activity.MachineID,
		activity.Description,
		activity.Status,
		activity.PlannedStart,
		int64(activity.EstimatedDuration.Seconds()),
		int64(activity.TimeSpent.Seconds()),
		int64(activity.TimePaused.Seconds()),
		activity.LastInteractionAt,
		activity.Emergency,
		activity.PauseReason,
		activity.CancelReason,
		activity.Preventive,
		activity.ProcedureID,
	).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
}

func (r *activityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	const query = `
        UPDATE activities SET machine_id=$1, description=$2, status=$3, planned_start=$4,
            estimated_duration_seconds=$5, time_spent_seconds=$6, time_paused_seconds=$7,
            last_interaction_at=$8, emergency=$9, pause_reason=$10, cancel_reason=$11,
            preventive=$12, procedure_id=$13, updated_at=NOW()
        WHERE id=$14`
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		activity.MachineID,
		activity.Description,
		activity.Status,
		activity.PlannedStart,
		int64(activity.EstimatedDuration.Seconds()),
		int64(activity.TimeSpent.Seconds()),
		int64(activity.TimePaused.Seconds()),
		activity.LastInteractionAt,
		activity.Emergency,
		activity.PauseReason,
		activity.CancelReason,
		activity.Preventive,
		activity.ProcedureID,
		activity.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities a JOIN machines m ON m.id = a.machine_id WHERE a.id=$1`, activityColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *activityRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities a JOIN machines m ON m.id = a.machine_id WHERE a.id=$1 FOR UPDATE OF a`, activityColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *activityRepository) FindByMarker(ctx context.Context, marker string) (*domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities a JOIN machines m ON m.id = a.machine_id WHERE a.description LIKE $1 LIMIT 1`, activityColumns)
	activity, err := r.fetchSingle(ctx, query, "%"+marker+"%")
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return activity, err
}

func (r *activityRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Activity, error) {
	row := querierFrom(ctx, r.pool).QueryRow(ctx, query, arg)
	activity, err := scanActivity(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadTechnicians(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (r *activityRepository) ListWithFilter(ctx context.Context, filter ActivityFilter) ([]domain.Activity, error) {
	base := fmt.Sprintf(`SELECT %s FROM activities a JOIN machines m ON m.id = a.machine_id`, activityColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("a.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.ExcludeStatuses) > 0 {
		placeholders := make([]string, len(filter.ExcludeStatuses))
		for i, status := range filter.ExcludeStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("a.status NOT IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.MachineID != nil {
		args = append(args, *filter.MachineID)
		clauses = append(clauses, fmt.Sprintf("a.machine_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM activity_technicians at WHERE at.activity_id = a.id AND at.user_id = $%d)", len(args)))
	}
	if filter.Preventive != nil {
		args = append(args, *filter.Preventive)
		clauses = append(clauses, fmt.Sprintf("a.preventive=$%d", len(args)))
	}
	if filter.Emergency != nil {
		args = append(args, *filter.Emergency)
		clauses = append(clauses, fmt.Sprintf("a.emergency=$%d", len(args)))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY a.planned_start ASC NULLS LAST", base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTechnicians(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *activityRepository) ReplaceTechnicians(ctx context.Context, activityID string, technicianIDs []string) error {
	q := querierFrom(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM activity_technicians WHERE activity_id=$1`, activityID); err != nil {
		return err
	}
	for position, userID := range technicianIDs {
		const insert = `INSERT INTO activity_technicians (activity_id, user_id, position) VALUES ($1,$2,$3)`
		if _, err := q.Exec(ctx, insert, activityID, userID, position); err != nil {
			return err
		}
	}
	return nil
}

// attachTechnicians resolves assignment sets for a batch in one query.
func (r *activityRepository) attachTechnicians(ctx context.Context, activities []domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	ids := make([]string, 0, len(activities))
	index := make(map[string]int, len(activities))
	for i := range activities {
		ids = append(ids, activities[i].ID)
		index[activities[i].ID] = i
	}

	const query = `
        SELECT at.activity_id, u.id, u.name, u.login, at.position
        FROM activity_technicians at
        JOIN users u ON u.id = at.user_id
        WHERE at.activity_id = ANY($1)
        ORDER BY at.activity_id, at.position ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var activityID string
		var tech domain.AssignedTechnician
		if err := rows.Scan(&activityID, &tech.ID, &tech.Name, &tech.Login, &tech.Position); err != nil {
			return err
		}
		if i, ok := index[activityID]; ok {
			activities[i].Technicians = append(activities[i].Technicians, tech)
		}
	}
	return rows.Err()
}

func (r *activityRepository) loadTechnicians(ctx context.Context, target *domain.Activity) error {
	const query = `
        SELECT u.id, u.name, u.login, at.position
        FROM activity_technicians at
        JOIN users u ON u.id = at.user_id
        WHERE at.activity_id = $1
        ORDER BY at.position ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, target.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tech domain.AssignedTechnician
		if err := rows.Scan(&tech.ID, &tech.Name, &tech.Login, &tech.Position); err != nil {
			return err
		}
		target.Technicians = append(target.Technicians, tech)
	}
	return rows.Err()
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	var estimatedSec, spentSec, pausedSec int64
	if err := row.Scan(
		&activity.ID,
		&activity.MachineID,
		&activity.MachineCode,
		&activity.MachineName,
		&activity.Description,
		&activity.Status,
		&activity.PlannedStart,
		&estimatedSec,
		&spentSec,
		&pausedSec,
		&activity.LastInteractionAt,
		&activity.Emergency,
		&activity.PauseReason,
		&activity.CancelReason,
		&activity.Preventive,
		&activity.ProcedureID,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	activity.EstimatedDuration = time.Duration(estimatedSec) * time.Second
	activity.TimeSpent = time.Duration(spentSec) * time.Second
	activity.TimePaused = time.Duration(pausedSec) * time.Second
	return &activity, nil
}
