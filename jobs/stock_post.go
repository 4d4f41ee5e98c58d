package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockPoster applies the inventory effect of trade documents. Approved
// purchases post inbound movements; paid sales post outbound ones. Each
// document posts at most once: a stock_postings row keyed by document
// guards replays across retries and duplicate enqueues, and annulled
// documents get their posting backed out again.
type StockPoster struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStockPoster constructs a StockPoster.
func NewStockPoster(pool *pgxpool.Pool, logger *slog.Logger) *StockPoster {
	return &StockPoster{pool: pool, logger: logger}
}

type docLine struct {
	materialID int64
	quantity   decimal.Decimal
}

// HandleStockPost processes TaskStockPost tasks.
func (p *StockPoster) HandleStockPost(ctx context.Context, t *asynq.Task) error {
	var payload StockPostPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.DocType != DocTypePurchase && payload.DocType != DocTypeSale {
		p.logger.Warn("stock post: unknown doc type", slog.String("doc_type", payload.DocType))
		return asynq.SkipRetry
	}

	posted, err := p.post(ctx, payload)
	if err != nil {
		p.logger.Error("stock post failed",
			slog.String("doc_type", payload.DocType),
			slog.Int64("doc_id", payload.DocID),
			slog.Any("error", err))
		return err
	}
	if posted {
		p.logger.Info("stock posted",
			slog.String("doc_type", payload.DocType),
			slog.Int64("doc_id", payload.DocID))
	}
	return nil
}

// HandleStockReverse processes TaskStockReverse tasks.
func (p *StockPoster) HandleStockReverse(ctx context.Context, t *asynq.Task) error {
	var payload StockPostPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.DocType != DocTypePurchase && payload.DocType != DocTypeSale {
		p.logger.Warn("stock reverse: unknown doc type", slog.String("doc_type", payload.DocType))
		return asynq.SkipRetry
	}

	reversed, err := p.reverse(ctx, payload)
	if err != nil {
		p.logger.Error("stock reversal failed",
			slog.String("doc_type", payload.DocType),
			slog.Int64("doc_id", payload.DocID),
			slog.Any("error", err))
		return err
	}
	if reversed {
		p.logger.Info("stock posting reversed",
			slog.String("doc_type", payload.DocType),
			slog.Int64("doc_id", payload.DocID))
	}
	return nil
}

// lockDocStatus takes the document's row lock, serializing the posting
// against concurrent status changes, and returns its current status.
func lockDocStatus(ctx context.Context, tx pgx.Tx, payload StockPostPayload) (string, error) {
	table := "purchases"
	if payload.DocType == DocTypeSale {
		table = "sales"
	}
	var st string
	err := tx.QueryRow(ctx, `SELECT status FROM `+table+` WHERE id = $1 FOR UPDATE`, payload.DocID).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%s %d not found", payload.DocType, payload.DocID)
	}
	return st, err
}

func (p *StockPoster) post(ctx context.Context, payload StockPostPayload) (bool, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// A document annulled while the task was queued must not move stock.
	st, err := lockDocStatus(ctx, tx, payload)
	if err != nil {
		return false, err
	}
	required := "APROBADO"
	if payload.DocType == DocTypeSale {
		required = "PAGADO"
	}
	if st != required {
		p.logger.Info("stock post skipped",
			slog.String("doc_type", payload.DocType),
			slog.Int64("doc_id", payload.DocID),
			slog.String("status", st))
		return false, nil
	}

	// Claim the document. A duplicate key means another run already
	// posted it.
	_, err = tx.Exec(ctx, `
		INSERT INTO stock_postings (doc_type, doc_id) VALUES ($1, $2)`,
		payload.DocType, payload.DocID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}

	if err := p.applyLines(ctx, tx, payload, payload.DocType == DocTypeSale); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (p *StockPoster) reverse(ctx context.Context, payload StockPostPayload) (bool, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	st, err := lockDocStatus(ctx, tx, payload)
	if err != nil {
		return false, err
	}
	if st != "ANULADO" {
		p.logger.Info("stock reversal skipped",
			slog.String("doc_type", payload.DocType),
			slog.Int64("doc_id", payload.DocID),
			slog.String("status", st))
		return false, nil
	}

	// Zero rows means the document never posted (the posting task saw it
	// annulled and skipped) or was reversed already.
	tag, err := tx.Exec(ctx, `
		UPDATE stock_postings SET reversed_at = NOW()
		WHERE doc_type = $1 AND doc_id = $2 AND reversed_at IS NULL`,
		payload.DocType, payload.DocID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := p.applyLines(ctx, tx, payload, payload.DocType != DocTypeSale); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (p *StockPoster) applyLines(ctx context.Context, tx pgx.Tx, payload StockPostPayload, outbound bool) error {
	lines, err := p.documentLines(ctx, tx, payload)
	if err != nil {
		return err
	}
	for _, line := range lines {
		delta := line.quantity
		if outbound {
			delta = delta.Neg()
		}
		tag, err := tx.Exec(ctx, `
			UPDATE materials SET stock = stock + $1, updated_at = NOW() WHERE id = $2`,
			delta, line.materialID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("material %d not found", line.materialID)
		}
	}
	return nil
}

func (p *StockPoster) documentLines(ctx context.Context, tx pgx.Tx, payload StockPostPayload) ([]docLine, error) {
	var query string
	switch payload.DocType {
	case DocTypePurchase:
		query = `SELECT material_id, quantity FROM purchase_lines WHERE purchase_id = $1 AND material_id IS NOT NULL`
	case DocTypeSale:
		query = `SELECT material_id, quantity FROM sale_lines WHERE sale_id = $1 AND material_id IS NOT NULL`
	}

	rows, err := tx.Query(ctx, query, payload.DocID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []docLine
	for rows.Next() {
		var line docLine
		if err := rows.Scan(&line.materialID, &line.quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// HandleStockIntegrity reconciles the posting ledger and flags materials
// whose stock went negative. Approved purchases and paid sales without a
// stock_postings row (an enqueue that failed after commit) are posted
// here, and annulled purchases whose posting was never backed out get
// reversed.
func (p *StockPoster) HandleStockIntegrity(ctx context.Context, t *asynq.Task) error {
	if err := p.repairDocs(ctx, DocTypePurchase, p.post, `
		SELECT d.id FROM purchases d
		LEFT JOIN stock_postings sp ON sp.doc_type = $1 AND sp.doc_id = d.id
		WHERE d.status = 'APROBADO' AND sp.doc_id IS NULL`); err != nil {
		return err
	}
	if err := p.repairDocs(ctx, DocTypeSale, p.post, `
		SELECT d.id FROM sales d
		LEFT JOIN stock_postings sp ON sp.doc_type = $1 AND sp.doc_id = d.id
		WHERE d.status = 'PAGADO' AND sp.doc_id IS NULL`); err != nil {
		return err
	}
	if err := p.repairDocs(ctx, DocTypePurchase, p.reverse, `
		SELECT d.id FROM purchases d
		JOIN stock_postings sp ON sp.doc_type = $1 AND sp.doc_id = d.id
		WHERE d.status = 'ANULADO' AND sp.reversed_at IS NULL`); err != nil {
		return err
	}

	rows, err := p.pool.Query(ctx, `SELECT id, code, stock FROM materials WHERE stock < 0`)
	if err != nil {
		return err
	}
	defer rows.Close()

	found := 0
	for rows.Next() {
		var id int64
		var code string
		var stock decimal.Decimal
		if err := rows.Scan(&id, &code, &stock); err != nil {
			return err
		}
		found++
		p.logger.Warn("negative stock detected",
			slog.Int64("material_id", id),
			slog.String("code", code),
			slog.String("stock", stock.String()))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if found == 0 {
		p.logger.Debug("stock integrity scan clean")
	}
	return nil
}

func (p *StockPoster) repairDocs(ctx context.Context, docType string, apply func(context.Context, StockPostPayload) (bool, error), query string) error {
	rows, err := p.pool.Query(ctx, query, docType)
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		applied, err := apply(ctx, StockPostPayload{DocType: docType, DocID: id})
		if err != nil {
			return err
		}
		if applied {
			p.logger.Warn("stock posting repaired",
				slog.String("doc_type", docType),
				slog.Int64("doc_id", id))
		}
	}
	return nil
}
