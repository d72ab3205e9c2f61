package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// PlanRepository encapsulates preventive-maintenance plan persistence.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.PreventivePlan) error
	Update(ctx context.Context, plan *domain.PreventivePlan) error
	GetByID(ctx context.Context, id string) (*domain.PreventivePlan, error)
	List(ctx context.Context) ([]domain.PreventivePlan, error)
	// ListDue returns active plans whose next-due date is on or before
	// the given date.
	ListDue(ctx context.Context, date time.Time) ([]domain.PreventivePlan, error)
	AdvanceNextDue(ctx context.Context, id string, nextDue time.Time) error
}

type planRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository instantiates the repository.
func NewPlanRepository(pool *pgxpool.Pool) PlanRepository {
	return &planRepository{pool: pool}
}

const planColumns = `id, name, machine_id, procedure_id, interval_days, next_due, active, created_at, updated_at`

func (r *planRepository) Create(ctx context.Context, plan *domain.PreventivePlan) error {
	const query = `
        INSERT INTO preventive_plans (name, machine_id, procedure_id, interval_days, next_due, active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		plan.Name,
		plan.MachineID,
		plan.ProcedureID,
		plan.IntervalDays,
		plan.NextDue,
		plan.Active,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
}

func (r *planRepository) Update(ctx context.Context, plan *domain.PreventivePlan) error {
	const query = `
        UPDATE preventive_plans SET name=$1, machine_id=$2, procedure_id=$3, interval_days=$4,
            next_due=$5, active=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		plan.Name,
		plan.MachineID,
		plan.ProcedureID,
		plan.IntervalDays,
		plan.NextDue,
		plan.Active,
		plan.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *planRepository) GetByID(ctx context.Context, id string) (*domain.PreventivePlan, error) {
	query := `SELECT ` + planColumns + ` FROM preventive_plans WHERE id=$1`
	return scanPlan(querierFrom(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *planRepository) List(ctx context.Context) ([]domain.PreventivePlan, error) {
	query := `SELECT ` + planColumns + ` FROM preventive_plans ORDER BY next_due ASC`
	return r.queryPlans(ctx, query)
}

func (r *planRepository) ListDue(ctx context.Context, date time.Time) ([]domain.PreventivePlan, error) {
	query := `SELECT ` + planColumns + ` FROM preventive_plans WHERE active AND next_due <= $1 ORDER BY next_due ASC`
	return r.queryPlans(ctx, query, date)
}

func (r *planRepository) AdvanceNextDue(ctx context.Context, id string, nextDue time.Time) error {
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx,
		`UPDATE preventive_plans SET next_due=$1, updated_at=NOW() WHERE id=$2`, nextDue, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *planRepository) queryPlans(ctx context.Context, query string, args ...any) ([]domain.PreventivePlan, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PreventivePlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *plan)
	}
	return result, rows.Err()
}

func scanPlan(row pgx.Row) (*domain.PreventivePlan, error) {
	var plan domain.PreventivePlan
	if err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.MachineID,
		&plan.ProcedureID,
		&plan.IntervalDays,
		&plan.NextDue,
		&plan.Active,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}
