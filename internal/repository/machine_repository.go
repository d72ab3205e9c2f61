package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// MachineRepository encapsulates machine persistence.
type MachineRepository interface {
	Create(ctx context.Context, machine *domain.Machine) error
	Update(ctx context.Context, machine *domain.Machine) error
	GetByID(ctx context.Context, id string) (*domain.Machine, error)
	List(ctx context.Context) ([]domain.Machine, error)
}

type machineRepository struct {
	pool *pgxpool.Pool
}

// NewMachineRepository instantiates the repository.
func NewMachineRepository(pool *pgxpool.Pool) MachineRepository {
	return &machineRepository{pool: pool}
}

func (r *machineRepository) Create(ctx context.Context, machine *domain.Machine) error {
	const query = `
        INSERT INTO machines (code, name) VALUES ($1,$2)
        RETURNING id, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query, machine.Code, machine.Name).
		Scan(&machine.ID, &machine.CreatedAt, &machine.UpdatedAt)
}

func (r *machineRepository) Update(ctx context.Context, machine *domain.Machine) error {
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx,
		`UPDATE machines SET code=$1, name=$2, updated_at=NOW() WHERE id=$3`,
		machine.Code, machine.Name, machine.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *machineRepository) GetByID(ctx context.Context, id string) (*domain.Machine, error) {
	var machine domain.Machine
	err := querierFrom(ctx, r.pool).QueryRow(ctx,
		`SELECT id, code, name, created_at, updated_at FROM machines WHERE id=$1`, id).
		Scan(&machine.ID, &machine.Code, &machine.Name, &machine.CreatedAt, &machine.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *machineRepository) List(ctx context.Context) ([]domain.Machine, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx,
		`SELECT id, code, name, created_at, updated_at FROM machines ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Machine
	for rows.Next() {
		var machine domain.Machine
		if err := rows.Scan(&machine.ID, &machine.Code, &machine.Name, &machine.CreatedAt, &machine.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, machine)
	}
	return result, rows.Err()
}
