package quotations

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
	quotations map[int64]*Quotation
	nextID     int64
	seq        int64
	failMark   error
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{quotations: make(map[int64]*Quotation)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Quotation, error) {
	if q, ok := r.quotations[id]; ok {
		dup := *q
		dup.Items = append([]QuotationItem(nil), q.Items...)
		return &dup, nil
	}
	return nil, httpx.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	var result []Quotation
	for _, q := range r.quotations {
		if req.State != nil && q.State != *req.State {
			continue
		}
		result = append(result, *q)
	}
	return result, len(result), nil
}

func (r *memoryRepo) SetState(ctx context.Context, id int64, state status.QuotationState) error {
	q, ok := r.quotations[id]
	if !ok {
		return httpx.ErrNotFound
	}
	q.State = state
	return nil
}

func (tx *memoryTx) NextNumber(ctx context.Context, at time.Time) (string, error) {
	tx.repo.seq++
	return fmt.Sprintf("COT-%s-%04d", at.Format("0601"), tx.repo.seq), nil
}

func (tx *memoryTx) InsertQuotation(ctx context.Context, q Quotation) (int64, error) {
	tx.repo.nextID++
	q.ID = tx.repo.nextID
	tx.repo.quotations[q.ID] = &q
	return q.ID, nil
}

func (tx *memoryTx) ReplaceItems(ctx context.Context, quotationID int64, items []QuotationItem) error {
	q, ok := tx.repo.quotations[quotationID]
	if !ok {
		return httpx.ErrNotFound
	}
	q.Items = append([]QuotationItem(nil), items...)
	return nil
}

func (tx *memoryTx) UpdateHeader(ctx context.Context, q Quotation) error {
	existing, ok := tx.repo.quotations[q.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	items := existing.Items
	*existing = q
	existing.Items = items
	return nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*Quotation, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) MarkConverted(ctx context.Context, quotationID, saleID int64) error {
	if tx.repo.failMark != nil {
		return tx.repo.failMark
	}
	q, ok := tx.repo.quotations[quotationID]
	if !ok {
		return httpx.ErrNotFound
	}
	if q.ConvertedSaleID != nil {
		return fmt.Errorf("%w: quotation already converted", httpx.ErrDuplicate)
	}
	q.ConvertedSaleID = &saleID
	return nil
}

type stubConverter struct {
	nextSaleID int64
	calls      int
	voided     []int64
	err        error
}

func (c *stubConverter) CreateFromQuotation(ctx context.Context, q *Quotation, actorID int64) (int64, error) {
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	return c.nextSaleID, nil
}

func (c *stubConverter) VoidConvertedSale(ctx context.Context, saleID int64, actorID int64) error {
	c.voided = append(c.voided, saleID)
	return nil
}

// liveSales reports how many created sales were never voided.
func (c *stubConverter) liveSales() int {
	return c.calls - len(c.voided)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(repo *memoryRepo) *Service {
	return newTestServiceWith(repo, &stubConverter{nextSaleID: 99})
}

func newTestServiceWith(repo *memoryRepo, conv *stubConverter) *Service {
	svc := NewService(repo, conv, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateQuotationTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	q, err := svc.Create(context.Background(), CreateQuotationRequest{
		ClientID:              1,
		GlobalDiscountPercent: dec("10"),
		LaborCost:             dec("50"),
		Items: []QuotationItemRequest{
			{Description: "Pastillas de freno", Quantity: dec("2"), UnitPrice: dec("100")},
		},
	}, 5)
	require.NoError(t, err)

	require.Equal(t, "COT-2608-0001", q.Number)
	require.True(t, q.Subtotal.Equal(dec("200")), "subtotal %s", q.Subtotal)
	require.True(t, q.DiscountAmount.Equal(dec("20")), "discount %s", q.DiscountAmount)
	require.True(t, q.TaxAmount.Equal(dec("27.60")), "tax %s", q.TaxAmount)
	require.True(t, q.Total.Equal(dec("257.60")), "total %s", q.Total)
	require.Equal(t, status.QuotationActivo, q.State)
	require.Equal(t, status.QuotationPendiente, q.DisplayStatus)
	require.Len(t, q.Items, 1)
	require.True(t, q.Items[0].Subtotal.Equal(dec("200")))
}

func TestCreateQuotationRejectsInvalidLine(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateQuotationRequest{
		ClientID: 1,
		Items: []QuotationItemRequest{
			{Description: "Cantidad inválida", Quantity: dec("0"), UnitPrice: dec("10")},
		},
	}, 5)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationRequest{
		ClientID:  1,
		LaborCost: dec("50"),
		Items: []QuotationItemRequest{
			{Description: "Filtro", Quantity: dec("1"), UnitPrice: dec("80")},
		},
	}, 5)
	require.NoError(t, err)

	labor := dec("0")
	updated, err := svc.Update(ctx, q.ID, UpdateQuotationRequest{
		LaborCost: &labor,
		Items: &[]QuotationItemRequest{
			{Description: "Filtro premium", Quantity: dec("1"), UnitPrice: dec("100")},
		},
	}, 5)
	require.NoError(t, err)
	require.True(t, updated.Subtotal.Equal(dec("100")))
	require.True(t, updated.TaxAmount.Equal(dec("12")))
	require.True(t, updated.Total.Equal(dec("112")))
}

func TestUpdateFrozenWhenInactive(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationRequest{
		ClientID: 1,
		Items:    []QuotationItemRequest{{Description: "Aceite", Quantity: dec("1"), UnitPrice: dec("30")}},
	}, 5)
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, q.ID, 5))

	notes := "cambio"
	_, err = svc.Update(ctx, q.ID, UpdateQuotationRequest{Notes: &notes}, 5)
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}

func TestConvertMarksQuotation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationRequest{
		ClientID: 1,
		Items:    []QuotationItemRequest{{Description: "Bujías", Quantity: dec("4"), UnitPrice: dec("15")}},
	}, 5)
	require.NoError(t, err)

	converted, err := svc.Convert(ctx, q.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, converted.ConvertedSaleID)
	require.Equal(t, int64(99), *converted.ConvertedSaleID)
	require.Equal(t, status.QuotationFacturada, converted.DisplayStatus)

	// once converted the document is frozen
	_, err = svc.Convert(ctx, q.ID, 5)
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	notes := "tarde"
	_, err = svc.Update(ctx, q.ID, UpdateQuotationRequest{Notes: &notes}, 5)
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}

func TestConvertRaceCreatesNoSecondSale(t *testing.T) {
	repo := newMemoryRepo()
	conv := &stubConverter{nextSaleID: 99}
	svc := newTestServiceWith(repo, conv)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationRequest{
		ClientID: 1,
		Items:    []QuotationItemRequest{{Description: "Amortiguador", Quantity: dec("2"), UnitPrice: dec("85")}},
	}, 5)
	require.NoError(t, err)

	// a concurrent convert recorded its sale between our request and the
	// locked read
	other := int64(42)
	repo.quotations[q.ID].ConvertedSaleID = &other

	_, err = svc.Convert(ctx, q.ID, 5)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	require.Zero(t, conv.liveSales(), "losing a convert race must not create a sale")

	got, err := repo.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, other, *got.ConvertedSaleID)
}

func TestConvertVoidsSaleWhenRecordingFails(t *testing.T) {
	repo := newMemoryRepo()
	conv := &stubConverter{nextSaleID: 99}
	svc := newTestServiceWith(repo, conv)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuotationRequest{
		ClientID: 1,
		Items:    []QuotationItemRequest{{Description: "Radiador", Quantity: dec("1"), UnitPrice: dec("210")}},
	}, 5)
	require.NoError(t, err)

	repo.failMark = fmt.Errorf("write failed")

	_, err = svc.Convert(ctx, q.ID, 5)
	require.Error(t, err)
	require.Equal(t, 1, conv.calls)
	require.Equal(t, []int64{99}, conv.voided, "the created sale must be voided")
	require.Zero(t, conv.liveSales())

	got, err := repo.Get(ctx, q.ID)
	require.NoError(t, err)
	require.False(t, got.Converted())
}

func TestDisplayStatusExpired(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	past := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	q, err := svc.Create(ctx, CreateQuotationRequest{
		ClientID:   1,
		ValidUntil: &past,
		Items:      []QuotationItemRequest{{Description: "Correa", Quantity: dec("1"), UnitPrice: dec("45")}},
	}, 5)
	require.NoError(t, err)
	require.Equal(t, status.QuotationVencida, q.DisplayStatus)
}
