package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taller-erp/taller-erp/internal/platform/db"
	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/shared"
	"github.com/taller-erp/taller-erp/internal/status"
)

// Repository persists sales and their lines.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the write operations used inside a transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, at time.Time) (string, error)
	InsertSale(ctx context.Context, s Sale) (int64, error)
	InsertLines(ctx context.Context, saleID int64, lines []SaleLine) error
	GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error)
	UpdateStatus(ctx context.Context, id int64, st status.SaleStatus) error
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

const saleColumns = `id, number, client_id, quotation_id, status, notes, labor_cost,
	subtotal, discount_amount, tax_amount, total, created_by, created_at, updated_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(
		&s.ID, &s.Number, &s.ClientID, &s.QuotationID, &s.Status, &s.Notes, &s.LaborCost,
		&s.Subtotal, &s.DiscountAmount, &s.TaxAmount, &s.Total, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, sale_id, material_id, description, quantity, unit_price,
		       discount_percent, tax_percent, discount_amount, tax_amount, line_total
		FROM sale_lines WHERE sale_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.MaterialID, &line.Description, &line.Quantity, &line.UnitPrice,
			&line.DiscountPercent, &line.TaxPercent, &line.DiscountAmount, &line.TaxAmount, &line.LineTotal); err != nil {
			return nil, err
		}
		s.Lines = append(s.Lines, line)
	}
	return s, rows.Err()
}

func (r *Repository) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	where := "WHERE 1=1"
	var args []any
	argPos := 1

	if req.ClientID != 0 {
		where += fmt.Sprintf(" AND client_id = $%d", argPos)
		args = append(args, req.ClientID)
		argPos++
	}
	if req.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(*req.Status))
		argPos++
	}
	switch req.Scope {
	case ScopeActivas:
		where += fmt.Sprintf(" AND status <> $%d", argPos)
		args = append(args, string(status.SaleAnulado))
		argPos++
	case ScopeAnuladas:
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(status.SaleAnulado))
		argPos++
	}
	if term := shared.FoldSearchTerm(req.Search); term != "" {
		where += fmt.Sprintf(" AND number ILIKE $%d", argPos)
		args = append(args, "%"+term+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM sales %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", saleColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(
			&s.ID, &s.Number, &s.ClientID, &s.QuotationID, &s.Status, &s.Notes, &s.LaborCost,
			&s.Subtotal, &s.DiscountAmount, &s.TaxAmount, &s.Total, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	return result, total, rows.Err()
}

func (t *txRepo) NextNumber(ctx context.Context, at time.Time) (string, error) {
	return shared.NextDocNumber(ctx, t.tx, "VEN", at)
}

func (t *txRepo) InsertSale(ctx context.Context, s Sale) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sales (number, client_id, quotation_id, status, notes, labor_cost,
			subtotal, discount_amount, tax_amount, total, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		s.Number, s.ClientID, s.QuotationID, string(s.Status), s.Notes, s.LaborCost,
		s.Subtotal, s.DiscountAmount, s.TaxAmount, s.Total, s.CreatedBy,
	).Scan(&id)
	return id, err
}

func (t *txRepo) InsertLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	for _, line := range lines {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO sale_lines (sale_id, material_id, description, quantity, unit_price,
				discount_percent, tax_percent, discount_amount, tax_amount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			saleID, line.MaterialID, line.Description, line.Quantity, line.UnitPrice,
			line.DiscountPercent, line.TaxPercent, line.DiscountAmount, line.TaxAmount, line.LineTotal,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepo) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	return scanSale(t.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, st status.SaleStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE sales SET status = $1, updated_at = NOW() WHERE id = $2`, string(st), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
