package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// RowQuerier is satisfied by pgxpool.Pool and pgx.Tx.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NextDocNumber allocates the next document number for a type within the
// month of at, e.g. COT-2608-0001. The per-month counter lives in
// doc_sequences and is incremented atomically, so numbers allocated inside
// a transaction are gapless on commit.
func NextDocNumber(ctx context.Context, q RowQuerier, docType string, at time.Time) (string, error) {
	period := at.Format("0601")

	var value int64
	err := q.QueryRow(ctx, `
		INSERT INTO doc_sequences (doc_type, period, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period) DO UPDATE SET value = doc_sequences.value + 1
		RETURNING value`,
		docType, period,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("allocate %s number: %w", docType, err)
	}
	return fmt.Sprintf("%s-%s-%04d", docType, period, value), nil
}
