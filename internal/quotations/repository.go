package quotations

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

// Repository persists quotations and their items.
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
	InsertQuotation(ctx context.Context, q Quotation) (int64, error)
	ReplaceItems(ctx context.Context, quotationID int64, items []QuotationItem) error
	UpdateHeader(ctx context.Context, q Quotation) error
	GetForUpdate(ctx context.Context, id int64) (*Quotation, error)
	MarkConverted(ctx context.Context, quotationID, saleID int64) error
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

const quotationColumns = `id, number, client_id, vehicle_detail, notes, valid_until,
	global_discount_percent, labor_cost, subtotal, discount_amount, tax_amount, total,
	state, converted_sale_id, created_by, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(
		&q.ID, &q.Number, &q.ClientID, &q.VehicleDetail, &q.Notes, &q.ValidUntil,
		&q.GlobalDiscountPercent, &q.LaborCost, &q.Subtotal, &q.DiscountAmount, &q.TaxAmount, &q.Total,
		&q.State, &q.ConvertedSaleID, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, err := scanQuotation(r.pool.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, quotation_id, material_id, description, quantity, unit_price, subtotal
		FROM quotation_items WHERE quotation_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item QuotationItem
		if err := rows.Scan(&item.ID, &item.QuotationID, &item.MaterialID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		q.Items = append(q.Items, item)
	}
	return q, rows.Err()
}

func (r *Repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	where := "WHERE 1=1"
	var args []any
	argPos := 1

	if req.ClientID != 0 {
		where += fmt.Sprintf(" AND client_id = $%d", argPos)
		args = append(args, req.ClientID)
		argPos++
	}
	if req.State != nil {
		where += fmt.Sprintf(" AND state = $%d", argPos)
		args = append(args, string(*req.State))
		argPos++
	}
	if term := shared.FoldSearchTerm(req.Search); term != "" {
		where += fmt.Sprintf(" AND (number ILIKE $%d OR search_name LIKE $%d)", argPos, argPos)
		args = append(args, "%"+term+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quotations "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM quotations %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", quotationColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(
			&q.ID, &q.Number, &q.ClientID, &q.VehicleDetail, &q.Notes, &q.ValidUntil,
			&q.GlobalDiscountPercent, &q.LaborCost, &q.Subtotal, &q.DiscountAmount, &q.TaxAmount, &q.Total,
			&q.State, &q.ConvertedSaleID, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, q)
	}
	return result, total, rows.Err()
}

func (r *Repository) SetState(ctx context.Context, id int64, state status.QuotationState) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quotations SET state = $1, updated_at = NOW() WHERE id = $2`, string(state), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepo) NextNumber(ctx context.Context, at time.Time) (string, error) {
	return shared.NextDocNumber(ctx, t.tx, "COT", at)
}

func (t *txRepo) InsertQuotation(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO quotations (number, client_id, vehicle_detail, notes, valid_until,
			global_discount_percent, labor_cost, subtotal, discount_amount, tax_amount, total,
			state, created_by, search_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		q.Number, q.ClientID, q.VehicleDetail, q.Notes, q.ValidUntil,
		q.GlobalDiscountPercent, q.LaborCost, q.Subtotal, q.DiscountAmount, q.TaxAmount, q.Total,
		string(q.State), q.CreatedBy, shared.FoldSearchTerm(q.VehicleDetail),
	).Scan(&id)
	return id, err
}

func (t *txRepo) ReplaceItems(ctx context.Context, quotationID int64, items []QuotationItem) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, quotationID); err != nil {
		return err
	}
	for _, item := range items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO quotation_items (quotation_id, material_id, description, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			quotationID, item.MaterialID, item.Description, item.Quantity, item.UnitPrice, item.Subtotal,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepo) UpdateHeader(ctx context.Context, q Quotation) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE quotations SET vehicle_detail = $1, notes = $2, valid_until = $3,
			global_discount_percent = $4, labor_cost = $5, subtotal = $6,
			discount_amount = $7, tax_amount = $8, total = $9,
			search_name = $10, updated_at = NOW()
		WHERE id = $11`,
		q.VehicleDetail, q.Notes, q.ValidUntil,
		q.GlobalDiscountPercent, q.LaborCost, q.Subtotal,
		q.DiscountAmount, q.TaxAmount, q.Total,
		shared.FoldSearchTerm(q.VehicleDetail), q.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// GetForUpdate locks the quotation row for the rest of the transaction
// and returns it with its items.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*Quotation, error) {
	q, err := scanQuotation(t.tx.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	rows, err := t.tx.Query(ctx, `
		SELECT id, quotation_id, material_id, description, quantity, unit_price, subtotal
		FROM quotation_items WHERE quotation_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item QuotationItem
		if err := rows.Scan(&item.ID, &item.QuotationID, &item.MaterialID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		q.Items = append(q.Items, item)
	}
	return q, rows.Err()
}

func (t *txRepo) MarkConverted(ctx context.Context, quotationID, saleID int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE quotations SET converted_sale_id = $1, updated_at = NOW()
		WHERE id = $2 AND converted_sale_id IS NULL`,
		saleID, quotationID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quotation already converted", httpx.ErrDuplicate)
	}
	return nil
}
