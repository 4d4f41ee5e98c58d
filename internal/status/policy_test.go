package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseTransitions(t *testing.T) {
	allowed := [][2]PurchaseStatus{
		{PurchasePendiente, PurchaseAprobado},
		{PurchasePendiente, PurchaseRechazado},
		{PurchasePendiente, PurchaseAnulado},
		{PurchaseRechazado, PurchasePendiente},
		{PurchaseAprobado, PurchaseAnulado},
	}
	for _, edge := range allowed {
		assert.NoError(t, TransitionPurchase(edge[0], edge[1]), "%s -> %s", edge[0], edge[1])
	}

	denied := [][2]PurchaseStatus{
		{PurchaseAprobado, PurchasePendiente},
		{PurchaseAprobado, PurchaseRechazado},
		{PurchaseAnulado, PurchasePendiente},
		{PurchaseAnulado, PurchaseAprobado},
		{PurchaseRechazado, PurchaseAprobado},
		{PurchasePendiente, PurchasePendiente},
	}
	for _, edge := range denied {
		err := TransitionPurchase(edge[0], edge[1])
		require.Error(t, err, "%s -> %s", edge[0], edge[1])
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestSaleTransitions(t *testing.T) {
	assert.NoError(t, TransitionSale(SalePendiente, SalePagado))
	assert.NoError(t, TransitionSale(SalePendiente, SaleAnulado))
	assert.NoError(t, TransitionSale(SaleAnulado, SalePendiente), "annulled sales can be reactivated")

	assert.ErrorIs(t, TransitionSale(SalePagado, SalePendiente), ErrInvalidTransition)
	assert.ErrorIs(t, TransitionSale(SalePagado, SaleAnulado), ErrInvalidTransition)
	assert.ErrorIs(t, TransitionSale(SaleAnulado, SalePagado), ErrInvalidTransition)
}

func TestUnknownStatusRejected(t *testing.T) {
	assert.ErrorIs(t, TransitionPurchase(PurchasePendiente, "PAGADO"), ErrInvalidTransition)
	assert.ErrorIs(t, TransitionSale(SalePendiente, "APROBADO"), ErrInvalidTransition)
}

func TestDeriveQuotationDisplay(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, QuotationFacturada, DeriveQuotationDisplay(true, now.AddDate(0, 0, -30), now))
	assert.Equal(t, QuotationVencida, DeriveQuotationDisplay(false, now.AddDate(0, 0, -1), now))
	assert.Equal(t, QuotationPendiente, DeriveQuotationDisplay(false, now.AddDate(0, 0, 15), now))
	assert.Equal(t, QuotationPendiente, DeriveQuotationDisplay(false, time.Time{}, now))
}
