package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// ProcedureRepository encapsulates standard-procedure persistence.
type ProcedureRepository interface {
	Create(ctx context.Context, procedure *domain.Procedure) error
	Update(ctx context.Context, procedure *domain.Procedure) error
	GetByID(ctx context.Context, id string) (*domain.Procedure, error)
	List(ctx context.Context) ([]domain.Procedure, error)
}

type procedureRepository struct {
	pool *pgxpool.Pool
}

// NewProcedureRepository instantiates the repository.
func NewProcedureRepository(pool *pgxpool.Pool) ProcedureRepository {
	return &procedureRepository{pool: pool}
}

func (r *procedureRepository) Create(ctx context.Context, procedure *domain.Procedure) error {
	const query = `
        INSERT INTO procedures (code, name, instructions, default_duration_seconds)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		procedure.Code,
		procedure.Name,
		procedure.Instructions,
		int64(procedure.DefaultDuration.Seconds()),
	).Scan(&procedure.ID, &procedure.CreatedAt, &procedure.UpdatedAt)
}

func (r *procedureRepository) Update(ctx context.Context, procedure *domain.Procedure) error {
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx,
		`UPDATE procedures SET code=$1, name=$2, instructions=$3, default_duration_seconds=$4, updated_at=NOW() WHERE id=$5`,
		procedure.Code, procedure.Name, procedure.Instructions,
		int64(procedure.DefaultDuration.Seconds()), procedure.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *procedureRepository) GetByID(ctx context.Context, id string) (*domain.Procedure, error) {
	return scanProcedure(querierFrom(ctx, r.pool).QueryRow(ctx,
		`SELECT id, code, name, instructions, default_duration_seconds, created_at, updated_at FROM procedures WHERE id=$1`, id))
}

func (r *procedureRepository) List(ctx context.Context) ([]domain.Procedure, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx,
		`SELECT id, code, name, instructions, default_duration_seconds, created_at, updated_at FROM procedures ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Procedure
	for rows.Next() {
		procedure, err := scanProcedure(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *procedure)
	}
	return result, rows.Err()
}

func scanProcedure(row pgx.Row) (*domain.Procedure, error) {
	var procedure domain.Procedure
	var durationSec int64
	if err := row.Scan(
		&procedure.ID,
		&procedure.Code,
		&procedure.Name,
		&procedure.Instructions,
		&durationSec,
		&procedure.CreatedAt,
		&procedure.UpdatedAt,
	); err != nil {
		return nil, err
	}
	procedure.DefaultDuration = time.Duration(durationSec) * time.Second
	return &procedure, nil
}
