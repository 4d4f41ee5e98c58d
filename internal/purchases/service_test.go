package purchases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/status"
)

type memoryRepo struct {
	purchases map[int64]*Purchase
	payments  []Payment
	nextID    int64
	seq       int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{purchases: make(map[int64]*Purchase)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Purchase, error) {
	if p, ok := r.purchases[id]; ok {
		dup := *p
		dup.Lines = append([]PurchaseLine(nil), p.Lines...)
		return &dup, nil
	}
	return nil, httpx.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error) {
	var result []Purchase
	for _, p := range r.purchases {
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (r *memoryRepo) ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	var result []Payment
	for _, pay := range r.payments {
		if req.PurchaseID != 0 && pay.PurchaseID != req.PurchaseID {
			continue
		}
		result = append(result, pay)
	}
	return result, len(result), nil
}

func (tx *memoryTx) NextNumber(ctx context.Context, at time.Time) (string, error) {
	tx.repo.seq++
	return fmt.Sprintf("COM-%s-%04d", at.Format("0601"), tx.repo.seq), nil
}

func (tx *memoryTx) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	tx.repo.nextID++
	p.ID = tx.repo.nextID
	tx.repo.purchases[p.ID] = &p
	return p.ID, nil
}

func (tx *memoryTx) InsertLines(ctx context.Context, purchaseID int64, lines []PurchaseLine) error {
	p, ok := tx.repo.purchases[purchaseID]
	if !ok {
		return httpx.ErrNotFound
	}
	p.Lines = append([]PurchaseLine(nil), lines...)
	return nil
}

func (tx *memoryTx) GetPurchaseForUpdate(ctx context.Context, id int64) (*Purchase, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, st status.PurchaseStatus) error {
	p, ok := tx.repo.purchases[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.Status = st
	return nil
}

func (tx *memoryTx) InsertPayment(ctx context.Context, pay Payment) (int64, error) {
	tx.repo.nextID++
	pay.ID = tx.repo.nextID
	tx.repo.payments = append(tx.repo.payments, pay)
	return pay.ID, nil
}

func (tx *memoryTx) UpdatePaymentTotals(ctx context.Context, id int64, paidAmount decimal.Decimal, ps PaymentStatus) error {
	p, ok := tx.repo.purchases[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.PaidAmount = paidAmount
	p.PaymentStatus = ps
	return nil
}

type stubEnqueuer struct {
	enqueued []int64
	reversed []int64
}

func (e *stubEnqueuer) EnqueueStockPost(ctx context.Context, docType string, docID int64) error {
	e.enqueued = append(e.enqueued, docID)
	return nil
}

func (e *stubEnqueuer) EnqueueStockReversal(ctx context.Context, docType string, docID int64) error {
	e.reversed = append(e.reversed, docID)
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

func createPurchase(t *testing.T, svc *Service) *Purchase {
	t.Helper()
	p, err := svc.Create(context.Background(), CreatePurchaseRequest{
		SupplierID: 3,
		Lines: []PurchaseLineRequest{
			{Description: "Aceite 10W40", Quantity: dec("5"), UnitPrice: dec("20"), TaxPercent: dec("12")},
		},
	}, 1)
	require.NoError(t, err)
	return p
}

func TestCreatePurchaseTotals(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)

	p := createPurchase(t, svc)

	require.Equal(t, "COM-2608-0001", p.Number)
	require.Equal(t, status.PurchasePendiente, p.Status)
	require.Equal(t, PaymentPendiente, p.PaymentStatus)
	require.True(t, p.Subtotal.Equal(dec("100")), "subtotal %s", p.Subtotal)
	require.True(t, p.TaxAmount.Equal(dec("12")), "tax %s", p.TaxAmount)
	require.True(t, p.Total.Equal(dec("112")), "total %s", p.Total)
	require.Len(t, p.Lines, 1)
	require.True(t, p.Lines[0].LineTotal.Equal(dec("112")))
}

func TestCreatePurchaseLaborUntaxed(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)

	p, err := svc.Create(context.Background(), CreatePurchaseRequest{
		SupplierID: 3,
		LaborCost:  dec("30"),
		Lines: []PurchaseLineRequest{
			{Description: "Filtro", Quantity: dec("2"), UnitPrice: dec("50")},
		},
	}, 1)
	require.NoError(t, err)
	require.True(t, p.Total.Equal(dec("130")), "total %s", p.Total)
	require.True(t, p.TaxAmount.Equal(dec("0")))
}

func TestChangeStatusEnforcesWorkflow(t *testing.T) {
	repo := newMemoryRepo()
	stock := &stubEnqueuer{}
	svc := newTestService(repo, stock)
	ctx := context.Background()

	p := createPurchase(t, svc)

	approved, err := svc.ChangeStatus(ctx, p.ID, status.PurchaseAprobado, 1)
	require.NoError(t, err)
	require.Equal(t, status.PurchaseAprobado, approved.Status)
	require.Equal(t, []int64{p.ID}, stock.enqueued)

	// approved purchases cannot go back to pending
	_, err = svc.ChangeStatus(ctx, p.ID, status.PurchasePendiente, 1)
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)

	// nor be rejected
	_, err = svc.ChangeStatus(ctx, p.ID, status.PurchaseRechazado, 1)
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}

func TestAnnulApprovedPurchaseEnqueuesReversal(t *testing.T) {
	repo := newMemoryRepo()
	stock := &stubEnqueuer{}
	svc := newTestService(repo, stock)
	ctx := context.Background()

	p := createPurchase(t, svc)

	_, err := svc.ChangeStatus(ctx, p.ID, status.PurchaseAprobado, 1)
	require.NoError(t, err)

	annulled, err := svc.ChangeStatus(ctx, p.ID, status.PurchaseAnulado, 1)
	require.NoError(t, err)
	require.Equal(t, status.PurchaseAnulado, annulled.Status)
	require.Equal(t, []int64{p.ID}, stock.reversed, "the inbound posting must be backed out")
}

func TestAnnulPendingPurchaseSkipsReversal(t *testing.T) {
	repo := newMemoryRepo()
	stock := &stubEnqueuer{}
	svc := newTestService(repo, stock)

	p := createPurchase(t, svc)

	// never approved, so nothing was posted and nothing gets reversed
	_, err := svc.ChangeStatus(context.Background(), p.ID, status.PurchaseAnulado, 1)
	require.NoError(t, err)
	require.Empty(t, stock.enqueued)
	require.Empty(t, stock.reversed)
}

func TestRejectedPurchaseCanBeResubmitted(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()

	p := createPurchase(t, svc)

	rejected, err := svc.ChangeStatus(ctx, p.ID, status.PurchaseRechazado, 1)
	require.NoError(t, err)
	require.Equal(t, status.PurchaseRechazado, rejected.Status)

	resubmitted, err := svc.ChangeStatus(ctx, p.ID, status.PurchasePendiente, 1)
	require.NoError(t, err)
	require.Equal(t, status.PurchasePendiente, resubmitted.Status)
}

func TestRegisterPaymentCascade(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubEnqueuer{})
	ctx := context.Background()

	p := createPurchase(t, svc)
	_, err := svc.ChangeStatus(ctx, p.ID, status.PurchaseAprobado, 1)
	require.NoError(t, err)

	// partial payment
	_, err = svc.RegisterPayment(ctx, CreatePaymentRequest{PurchaseID: p.ID, Amount: dec("50"), Method: "EFECTIVO"}, 1)
	require.NoError(t, err)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, PaymentParcial, got.PaymentStatus)
	require.True(t, got.PaidAmount.Equal(dec("50")))

	// settling the balance flips the purchase to paid in the same tx
	_, err = svc.RegisterPayment(ctx, CreatePaymentRequest{PurchaseID: p.ID, Amount: dec("62"), Method: "TRANSFERENCIA"}, 1)
	require.NoError(t, err)

	got, err = repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, PaymentPagado, got.PaymentStatus)
	require.True(t, got.PaidAmount.Equal(dec("112")))
}

func TestRegisterPaymentOverBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubEnqueuer{})
	ctx := context.Background()

	p := createPurchase(t, svc)
	_, err := svc.ChangeStatus(ctx, p.ID, status.PurchaseAprobado, 1)
	require.NoError(t, err)

	_, err = svc.RegisterPayment(ctx, CreatePaymentRequest{PurchaseID: p.ID, Amount: dec("112.01"), Method: "EFECTIVO"}, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.payments)
}

func TestRegisterPaymentRequiresApproval(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)

	p := createPurchase(t, svc)

	_, err := svc.RegisterPayment(context.Background(), CreatePaymentRequest{PurchaseID: p.ID, Amount: dec("10"), Method: "EFECTIVO"}, 1)
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}
