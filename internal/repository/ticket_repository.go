package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/factoryops/maintenance-service/internal/domain"
)

// TicketFilter captures triage listing parameters.
type TicketFilter struct {
	RequesterID *string
	MachineID   *string
	Statuses    []domain.TicketStatus
	Limit       int
	Offset      int
}

// TicketRepository encapsulates maintenance-request persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByIDForUpdate takes a row lock; approval must hold it across
	// the status check and the derived-activity creation.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error)
	SetStatus(ctx context.Context, id string, status domain.TicketStatus, reason *string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, machine_id, requester_id, problem, priority, machine_stopped, status, response_reason, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (machine_id, requester_id, problem, priority, machine_stopped, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		ticket.MachineID,
		ticket.RequesterID,
		ticket.Problem,
		ticket.Priority,
		ticket.MachineStopped,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return scanTicket(querierFrom(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 FOR UPDATE`, ticketColumns)
	return scanTicket(querierFrom(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.MachineID != nil {
		args = append(args, *filter.MachineID)
		clauses = append(clauses, fmt.Sprintf("machine_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// Triage order: stopped machines first, then priority, then age.
	query := fmt.Sprintf(`%s WHERE %s
        ORDER BY machine_stopped DESC,
                 CASE priority WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END DESC,
                 created_at ASC
        LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error) {
	var count int
	err := querierFrom(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE status=$1`, status).Scan(&count)
	return count, err
}

func (r *ticketRepository) SetStatus(ctx context.Context, id string, status domain.TicketStatus, reason *string) error {
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx,
		`UPDATE tickets SET status=$1, response_reason=$2, updated_at=NOW() WHERE id=$3`,
		status, reason, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.MachineID,
		&ticket.RequesterID,
		&ticket.Problem,
		&ticket.Priority,
		&ticket.MachineStopped,
		&ticket.Status,
		&ticket.ResponseReason,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
