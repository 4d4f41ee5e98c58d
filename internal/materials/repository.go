package materials

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/platform/db"
	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// Repository persists the material catalog and movement log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a movement
// transaction.
type TxRepository interface {
	GetMaterialForUpdate(ctx context.Context, id int64) (*Material, error)
	AdjustStock(ctx context.Context, id int64, newStock decimal.Decimal) error
	InsertMovement(ctx context.Context, m Movement) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const materialColumns = `id, code, name, unit, unit_price, stock, minimum_stock, is_active, created_at, updated_at`

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.UnitPrice, &m.Stock, &m.MinimumStock, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Material, error) {
	return scanMaterial(r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
}

func (r *Repository) List(ctx context.Context, req ListMaterialsRequest) ([]Material, int, error) {
	where := "WHERE 1=1"
	var args []any
	argPos := 1

	if req.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argPos)
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.LowStock {
		where += " AND stock <= minimum_stock"
	}
	if term := shared.FoldSearchTerm(req.Search); term != "" {
		where += fmt.Sprintf(" AND (search_name LIKE $%d OR code ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+term+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM materials "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM materials %s ORDER BY name LIMIT $%d OFFSET $%d", materialColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.UnitPrice, &m.Stock, &m.MinimumStock, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, m)
	}
	return result, total, rows.Err()
}

func (r *Repository) Create(ctx context.Context, m Material) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO materials (code, name, unit, unit_price, stock, minimum_stock, is_active, search_name)
		VALUES ($1, $2, $3, $4, 0, $5, TRUE, $6)
		RETURNING id`,
		m.Code, m.Name, m.Unit, m.UnitPrice, m.MinimumStock, shared.FoldSearchTerm(m.Name),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: code already registered", httpx.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE materials SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"name", "unit", "unit_price", "minimum_stock"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	if v, ok := updates["name"]; ok {
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

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE materials SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

const movementColumns = `id, material_id, employee_id, type, quantity, note, created_by, created_at`

func (r *Repository) ListMovements(ctx context.Context, req ListMovementsRequest) ([]Movement, int, error) {
	where := "WHERE 1=1"
	var args []any
	argPos := 1

	if req.MaterialID != 0 {
		where += fmt.Sprintf(" AND material_id = $%d", argPos)
		args = append(args, req.MaterialID)
		argPos++
	}
	if req.EmployeeID != 0 {
		where += fmt.Sprintf(" AND employee_id = $%d", argPos)
		args = append(args, req.EmployeeID)
		argPos++
	}
	if req.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, string(req.Type))
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM movements "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM movements %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", movementColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.MaterialID, &m.EmployeeID, &m.Type, &m.Quantity, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, m)
	}
	return result, total, rows.Err()
}

func (t *txRepo) GetMaterialForUpdate(ctx context.Context, id int64) (*Material, error) {
	return scanMaterial(t.tx.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) AdjustStock(ctx context.Context, id int64, newStock decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, `UPDATE materials SET stock = $1, updated_at = NOW() WHERE id = $2`, newStock, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO movements (material_id, employee_id, type, quantity, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		m.MaterialID, m.EmployeeID, string(m.Type), m.Quantity, m.Note, m.CreatedBy,
	).Scan(&id)
	return id, err
}
