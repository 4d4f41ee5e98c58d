package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/quotations"
	"github.com/taller-erp/taller-erp/internal/status"
)

type memoryRepo struct {
	sales  map[int64]*Sale
	nextID int64
	seq    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sales: make(map[int64]*Sale)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Sale, error) {
	if s, ok := r.sales[id]; ok {
		dup := *s
		dup.Lines = append([]SaleLine(nil), s.Lines...)
		return &dup, nil
	}
	return nil, httpx.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	var result []Sale
	for _, s := range r.sales {
		switch req.Scope {
		case ScopeActivas:
			if s.Status == status.SaleAnulado {
				continue
			}
		case ScopeAnuladas:
			if s.Status != status.SaleAnulado {
				continue
			}
		}
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (tx *memoryTx) NextNumber(ctx context.Context, at time.Time) (string, error) {
	tx.repo.seq++
	return fmt.Sprintf("VEN-%s-%04d", at.Format("0601"), tx.repo.seq), nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, s Sale) (int64, error) {
	tx.repo.nextID++
	s.ID = tx.repo.nextID
	tx.repo.sales[s.ID] = &s
	return s.ID, nil
}

func (tx *memoryTx) InsertLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	s, ok := tx.repo.sales[saleID]
	if !ok {
		return httpx.ErrNotFound
	}
	s.Lines = append([]SaleLine(nil), lines...)
	return nil
}

func (tx *memoryTx) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, st status.SaleStatus) error {
	s, ok := tx.repo.sales[id]
	if !ok {
		return httpx.ErrNotFound
	}
	s.Status = st
	return nil
}

type stubEnqueuer struct {
	enqueued []int64
}

func (e *stubEnqueuer) EnqueueStockPost(ctx context.Context, docType string, docID int64) error {
	e.enqueued = append(e.enqueued, docID)
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(repo *memoryRepo, stock *stubEnqueuer) *Service {
	svc := NewService(repo, stock, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func createSale(t *testing.T, svc *Service) *Sale {
	t.Helper()
	s, err := svc.Create(context.Background(), CreateSaleRequest{
		ClientID: 4,
		Lines: []SaleLineRequest{
			{Description: "Cambio de aceite", Quantity: dec("1"), UnitPrice: dec("120"), TaxPercent: dec("12")},
		},
	}, 1)
	require.NoError(t, err)
	return s
}

func TestCreateSaleTotals(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)

	s, err := svc.Create(context.Background(), CreateSaleRequest{
		ClientID:  4,
		LaborCost: dec("40"),
		Lines: []SaleLineRequest{
			{Description: "Pastillas", Quantity: dec("2"), UnitPrice: dec("100")},
		},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "VEN-2608-0001", s.Number)
	require.Equal(t, status.SalePendiente, s.Status)
	require.True(t, s.Subtotal.Equal(dec("200")))
	require.True(t, s.Total.Equal(dec("240")), "total %s", s.Total)
}

func TestChangeStatusPaidEnqueuesPosting(t *testing.T) {
	repo := newMemoryRepo()
	stock := &stubEnqueuer{}
	svc := newTestService(repo, stock)
	ctx := context.Background()

	s := createSale(t, svc)

	paid, err := svc.ChangeStatus(ctx, s.ID, status.SalePagado, 1)
	require.NoError(t, err)
	require.Equal(t, status.SalePagado, paid.Status)
	require.Equal(t, []int64{s.ID}, stock.enqueued)

	// paid is terminal
	_, err = svc.ChangeStatus(ctx, s.ID, status.SaleAnulado, 1)
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}

func TestAnnulAndReactivateVisibility(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubEnqueuer{})
	ctx := context.Background()

	s := createSale(t, svc)

	_, err := svc.Annul(ctx, s.ID, 1)
	require.NoError(t, err)

	active, _, err := svc.List(ctx, ListSalesRequest{Scope: ScopeActivas})
	require.NoError(t, err)
	require.Empty(t, active)

	annulled, _, err := svc.List(ctx, ListSalesRequest{Scope: ScopeAnuladas})
	require.NoError(t, err)
	require.Len(t, annulled, 1)

	// reactivation puts the sale back in the working view
	reactivated, err := svc.Reactivate(ctx, s.ID, 1)
	require.NoError(t, err)
	require.Equal(t, status.SalePendiente, reactivated.Status)

	active, _, err = svc.List(ctx, ListSalesRequest{Scope: ScopeActivas})
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestCreateFromQuotationCarriesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	materialID := int64(9)
	q := &quotations.Quotation{
		ID:             15,
		ClientID:       4,
		LaborCost:      dec("50"),
		Subtotal:       dec("200"),
		DiscountAmount: dec("20"),
		TaxAmount:      dec("27.60"),
		Total:          dec("257.60"),
		Items: []quotations.QuotationItem{
			{MaterialID: &materialID, Description: "Pastillas de freno", Quantity: dec("2"), UnitPrice: dec("100"), Subtotal: dec("200")},
		},
	}

	id, err := svc.CreateFromQuotation(ctx, q, 1)
	require.NoError(t, err)

	sale, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, status.SalePendiente, sale.Status)
	require.NotNil(t, sale.QuotationID)
	require.Equal(t, int64(15), *sale.QuotationID)
	require.True(t, sale.Total.Equal(dec("257.60")), "total %s", sale.Total)
	require.Len(t, sale.Lines, 1)
	require.Equal(t, "Pastillas de freno", sale.Lines[0].Description)
}
