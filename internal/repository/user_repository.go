package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// UserFilter captures user listing parameters.
type UserFilter struct {
	Role   *domain.UserRole
	Active *bool
	Limit  int
	Offset int
}

// UserRepository encapsulates user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates the repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, login, password_hash, role, active, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, login, password_hash, role, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		user.Name,
		user.Login,
		user.PasswordHash,
		user.Role,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, login=$2, password_hash=$3, role=$4, active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		user.Name, user.Login, user.PasswordHash, user.Role, user.Active, user.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1`, userColumns)
	return scanUser(querierFrom(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(login)=LOWER($1)`, userColumns)
	return scanUser(querierFrom(ctx, r.pool).QueryRow(ctx, query, login))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	base := fmt.Sprintf(`SELECT %s FROM users`, userColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Login,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
