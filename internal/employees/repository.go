package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// Repository persists employees.
type Repository interface {
	Get(ctx context.Context, id int64) (*Employee, error)
	List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error)
	Create(ctx context.Context, e Employee) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const employeeColumns = `id, full_name, document, position, phone, hired_at, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Employee, error) {
	var e Employee
	err := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id).Scan(
		&e.ID, &e.FullName, &e.Document, &e.Position, &e.Phone, &e.HiredAt, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	where := "WHERE 1=1"
	var args []any
	argPos := 1

	if req.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argPos)
		args = append(args, *req.IsActive)
		argPos++
	}
	if term := shared.FoldSearchTerm(req.Search); term != "" {
		where += fmt.Sprintf(" AND (search_name LIKE $%d OR document LIKE $%d)", argPos, argPos)
		args = append(args, "%"+term+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM employees "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM employees %s ORDER BY full_name LIMIT $%d OFFSET $%d", employeeColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.Document, &e.Position, &e.Phone, &e.HiredAt, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, e Employee) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (full_name, document, position, phone, hired_at, is_active, search_name)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		RETURNING id`,
		e.FullName, e.Document, e.Position, e.Phone, e.HiredAt, shared.FoldSearchTerm(e.FullName),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: document already registered", httpx.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE employees SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"full_name", "position", "phone", "hired_at"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	if v, ok := updates["full_name"]; ok {
		query += fmt.Sprintf(", search_name = $%d", argPos)
		args = append(args, shared.FoldSearchTerm(v.(string)))
		argPos++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
