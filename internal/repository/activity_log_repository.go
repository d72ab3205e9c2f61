package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// ActivityLogRepository stores immutable status-transition records.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	ListByActivity(ctx context.Context, activityID string) ([]domain.ActivityLog, error)
	// LatestByActivity returns nil when no transitions were logged yet.
	LatestByActivity(ctx context.Context, activityID string) (*domain.ActivityLog, error)
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository builds the repository.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	const query = `
        INSERT INTO activity_logs (activity_id, actor_id, new_status, note, previous_state_seconds)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		entry.ActivityID,
		entry.ActorID,
		entry.NewStatus,
		entry.Note,
		durationSeconds(entry.PreviousStateDuration),
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityLogRepository) ListByActivity(ctx context.Context, activityID string) ([]domain.ActivityLog, error) {
	const query = `
        SELECT id, activity_id, actor_id, new_status, note, previous_state_seconds, created_at
        FROM activity_logs WHERE activity_id=$1 ORDER BY created_at ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLog
	for rows.Next() {
		entry, err := scanActivityLog(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func (r *activityLogRepository) LatestByActivity(ctx context.Context, activityID string) (*domain.ActivityLog, error) {
	const query = `
        SELECT id, activity_id, actor_id, new_status, note, previous_state_seconds, created_at
        FROM activity_logs WHERE activity_id=$1 ORDER BY created_at DESC LIMIT 1`
	entry, err := scanActivityLog(querierFrom(ctx, r.pool).QueryRow(ctx, query, activityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func scanActivityLog(row pgx.Row) (*domain.ActivityLog, error) {
	var entry domain.ActivityLog
	var prevSeconds *int64
	if err := row.Scan(
		&entry.ID,
		&entry.ActivityID,
		&entry.ActorID,
		&entry.NewStatus,
		&entry.Note,
		&prevSeconds,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	if prevSeconds != nil {
		d := time.Duration(*prevSeconds) * time.Second
		entry.PreviousStateDuration = &d
	}
	return &entry, nil
}

func durationSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	seconds := int64(d.Seconds())
	return &seconds
}
