package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// OrderFilter captures listing parameters.
type OrderFilter struct {
	Statuses  []domain.OrderStatus
	CreatedBy int64
	Search    string
}

// OrderRepository encapsulates order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.OrderRecord) error
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.OrderRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.OrderRecord, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.OrderRecord, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, order_number, customer_name, customer_phone, customer_address, notes,
               items, total_amount, status, created_by, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.OrderRecord) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	var createdBy *int64
	if order.CreatedBy != nil {
		createdBy = &order.CreatedBy.ID
	}

	const query = `
        INSERT INTO orders (order_number, customer_name, customer_phone, customer_address, notes, items, total_amount, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return translate(r.pool.QueryRow(ctx, query,
		order.OrderNumber,
		order.CustomerName,
		order.CustomerPhone,
		order.CustomerAddress,
		order.Notes,
		items,
		order.TotalAmount,
		order.Status,
		createdBy,
	).Scan(&order.ID, &order.CreatedAt.Time, &order.UpdatedAt.Time))
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.OrderRecord, error) {
	query := `UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + orderColumns
	order, err := scanOrder(r.pool.QueryRow(ctx, query, status, id))
	if err != nil {
		return nil, translate(err)
	}
	return order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.OrderRecord, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.OrderRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedBy > 0 {
		args = append(args, filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(customer_name) LIKE %s OR LOWER(order_number) LIKE %s)", placeholder, placeholder))
	}

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC, id DESC`,
		orderColumns, strings.Join(clauses, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OrderRecord
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.OrderRecord, error) {
	var (
		order     domain.OrderRecord
		items     []byte
		createdBy *int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.CustomerAddress,
		&order.Notes,
		&items,
		&order.TotalAmount,
		&order.Status,
		&createdBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("decode order %d items: %w", order.ID, err)
		}
	}
	if createdBy != nil {
		order.CreatedBy = &domain.Profile{ID: *createdBy}
	}
	order.CreatedAt = domain.NewTimestamp(createdAt)
	order.UpdatedAt = domain.NewTimestamp(updatedAt)
	return &order, nil
}
