package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/platform/db"
	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/shared"
	"github.com/taller-erp/taller-erp/internal/status"
)

// Repository persists purchases, their lines and payments.
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
	InsertPurchase(ctx context.Context, p Purchase) (int64, error)
	InsertLines(ctx context.Context, purchaseID int64, lines []PurchaseLine) error
	GetPurchaseForUpdate(ctx context.Context, id int64) (*Purchase, error)
	UpdateStatus(ctx context.Context, id int64, st status.PurchaseStatus) error
	InsertPayment(ctx context.Context, pay Payment) (int64, error)
	UpdatePaymentTotals(ctx context.Context, id int64, paidAmount decimal.Decimal, ps PaymentStatus) error
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

const purchaseColumns = `id, number, supplier_id, status, payment_status, notes, labor_cost,
	subtotal, discount_amount, tax_amount, total, paid_amount, created_by, created_at, updated_at`

func scanPurchase(row pgx.Row) (*Purchase, error) {
	var p Purchase
	err := row.Scan(
		&p.ID, &p.Number, &p.SupplierID, &p.Status, &p.PaymentStatus, &p.Notes, &p.LaborCost,
		&p.Subtotal, &p.DiscountAmount, &p.TaxAmount, &p.Total, &p.PaidAmount, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Purchase, error) {
	p, err := scanPurchase(r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_id, material_id, description, quantity, unit_price,
		       discount_percent, tax_percent, discount_amount, tax_amount, line_total
		FROM purchase_lines WHERE purchase_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line PurchaseLine
		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.MaterialID, &line.Description, &line.Quantity, &line.UnitPrice,
			&line.DiscountPercent, &line.TaxPercent, &line.DiscountAmount, &line.TaxAmount, &line.LineTotal); err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, line)
	}
	return p, rows.Err()
}

func (r *Repository) List(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error) {
	where := "WHERE 1=1"
	var args []any
	argPos := 1

	if req.SupplierID != 0 {
		where += fmt.Sprintf(" AND supplier_id = $%d", argPos)
		args = append(args, req.SupplierID)
		argPos++
	}
	if req.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(*req.Status))
		argPos++
	}
	if term := shared.FoldSearchTerm(req.Search); term != "" {
		where += fmt.Sprintf(" AND number ILIKE $%d", argPos)
		args = append(args, "%"+term+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM purchases "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM purchases %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", purchaseColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(
			&p.ID, &p.Number, &p.SupplierID, &p.Status, &p.PaymentStatus, &p.Notes, &p.LaborCost,
			&p.Subtotal, &p.DiscountAmount, &p.TaxAmount, &p.Total, &p.PaidAmount, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *Repository) ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	where := "WHERE 1=1"
	var args []any
	argPos := 1

	if req.PurchaseID != 0 {
		where += fmt.Sprintf(" AND purchase_id = $%d", argPos)
		args = append(args, req.PurchaseID)
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM purchase_payments "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, purchase_id, amount, method, reference, note, created_by, created_at
		FROM purchase_payments %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		var pay Payment
		if err := rows.Scan(&pay.ID, &pay.PurchaseID, &pay.Amount, &pay.Method, &pay.Reference, &pay.Note, &pay.CreatedBy, &pay.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, pay)
	}
	return result, total, rows.Err()
}

func (t *txRepo) NextNumber(ctx context.Context, at time.Time) (string, error) {
	return shared.NextDocNumber(ctx, t.tx, "COM", at)
}

func (t *txRepo) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchases (number, supplier_id, status, payment_status, notes, labor_cost,
			subtotal, discount_amount, tax_amount, total, paid_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.Number, p.SupplierID, string(p.Status), string(p.PaymentStatus), p.Notes, p.LaborCost,
		p.Subtotal, p.DiscountAmount, p.TaxAmount, p.Total, p.PaidAmount, p.CreatedBy,
	).Scan(&id)
	return id, err
}

func (t *txRepo) InsertLines(ctx context.Context, purchaseID int64, lines []PurchaseLine) error {
	for _, line := range lines {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO purchase_lines (purchase_id, material_id, description, quantity, unit_price,
				discount_percent, tax_percent, discount_amount, tax_amount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			purchaseID, line.MaterialID, line.Description, line.Quantity, line.UnitPrice,
			line.DiscountPercent, line.TaxPercent, line.DiscountAmount, line.TaxAmount, line.LineTotal,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepo) GetPurchaseForUpdate(ctx context.Context, id int64) (*Purchase, error) {
	return scanPurchase(t.tx.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, st status.PurchaseStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchases SET status = $1, updated_at = NOW() WHERE id = $2`, string(st), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertPayment(ctx context.Context, pay Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchase_payments (purchase_id, amount, method, reference, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		pay.PurchaseID, pay.Amount, pay.Method, pay.Reference, pay.Note, pay.CreatedBy,
	).Scan(&id)
	return id, err
}

func (t *txRepo) UpdatePaymentTotals(ctx context.Context, id int64, paidAmount decimal.Decimal, ps PaymentStatus) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE purchases SET paid_amount = $1, payment_status = $2, updated_at = NOW() WHERE id = $3`,
		paidAmount, string(ps), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
