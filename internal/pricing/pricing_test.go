package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(qty, price, discount, tax string) LineItem {
	return LineItem{
		Quantity:        dec(qty),
		UnitPrice:       dec(price),
		DiscountPercent: dec(discount),
		TaxPercent:      dec(tax),
	}
}

func TestComputeLineTotalsIdentity(t *testing.T) {
	cases := []LineItem{
		line("1", "10", "0", "0"),
		line("5", "20", "0", "12"),
		line("2.5", "99.99", "15", "12"),
		line("3", "0.01", "100", "100"),
		line("1000", "1234.56", "33.33", "12"),
	}
	for _, item := range cases {
		lt, err := ComputeLineTotals(item)
		require.NoError(t, err)

		assert.True(t, lt.Total.Equal(lt.Subtotal.Sub(lt.DiscountAmount).Add(lt.TaxAmount)),
			"total must equal subtotal - discount + tax for %+v", item)
		assert.False(t, lt.Total.IsNegative(), "line total must not be negative")
	}
}

func TestComputeLineTotalsPurchaseScenario(t *testing.T) {
	lt, err := ComputeLineTotals(line("5", "20", "0", "12"))
	require.NoError(t, err)

	assert.True(t, lt.Subtotal.Equal(dec("100")), "subtotal: %s", lt.Subtotal)
	assert.True(t, lt.DiscountAmount.Equal(dec("0")), "discount: %s", lt.DiscountAmount)
	assert.True(t, lt.TaxAmount.Equal(dec("12")), "tax: %s", lt.TaxAmount)
	assert.True(t, lt.Total.Equal(dec("112")), "total: %s", lt.Total)
}

func TestComputeLineTotalsRejectsInvalidInput(t *testing.T) {
	cases := map[string]LineItem{
		"zero quantity":     line("0", "10", "0", "0"),
		"negative quantity": line("-1", "10", "0", "0"),
		"zero price":        line("1", "0", "0", "0"),
		"negative price":    line("1", "-5", "0", "0"),
		"discount over 100": line("1", "10", "101", "0"),
		"negative discount": line("1", "10", "-1", "0"),
		"tax over 100":      line("1", "10", "0", "100.5"),
		"negative tax":      line("1", "10", "0", "-12"),
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeLineTotals(item)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestComputeQuotationTotalsScenario(t *testing.T) {
	items := []LineItem{line("2", "100", "10", "0")}

	// Per-line discount is ignored by the quotation variant: the 10% here is
	// the document-level discount.
	totals, err := ComputeQuotationTotals(items, dec("50"), dec("10"))
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(dec("200")), "subtotal: %s", totals.Subtotal)
	assert.True(t, totals.DiscountAmount.Equal(dec("20")), "discount: %s", totals.DiscountAmount)
	assert.True(t, totals.TaxAmount.Equal(dec("27.6")), "tax: %s", totals.TaxAmount)
	assert.True(t, totals.Total.Equal(dec("257.6")), "total: %s", totals.Total)
}

func TestComputeQuotationTotalsFullDiscount(t *testing.T) {
	items := []LineItem{line("4", "25", "0", "0")}

	totals, err := ComputeQuotationTotals(items, dec("50"), dec("100"))
	require.NoError(t, err)

	// base collapses to labor cost alone
	assert.True(t, totals.DiscountAmount.Equal(totals.Subtotal))
	assert.True(t, totals.TaxAmount.Equal(dec("6")), "tax: %s", totals.TaxAmount)
	assert.True(t, totals.Total.Equal(dec("56")), "total: %s", totals.Total)
}

func TestComputeTradeTotalsLaborUntaxed(t *testing.T) {
	items := []LineItem{
		line("5", "20", "0", "12"),
		line("1", "88", "0", "0"),
	}

	totals, err := ComputeTradeTotals(items, dec("40"))
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(dec("188")))
	assert.True(t, totals.TaxAmount.Equal(dec("12")))
	assert.True(t, totals.Total.Equal(dec("240")), "total: %s", totals.Total)
}

func TestComputeTradeTotalsOrderIndependent(t *testing.T) {
	items := []LineItem{
		line("2.5", "99.99", "15", "12"),
		line("7", "3.33", "0", "12"),
		line("1", "450", "5", "0"),
		line("12", "0.75", "50", "12"),
	}

	want, err := ComputeTradeTotals(items, dec("35"))
	require.NoError(t, err)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]LineItem(nil), items...)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got, err := ComputeTradeTotals(shuffled, dec("35"))
		require.NoError(t, err)
		assert.True(t, got.Total.Equal(want.Total), "permutation changed the total")
		assert.True(t, got.TaxAmount.Equal(want.TaxAmount))
	}
}

func TestComputeTradeTotalsIdempotent(t *testing.T) {
	items := []LineItem{line("2.5", "99.99", "15", "12")}

	first, err := ComputeTradeTotals(items, dec("10"))
	require.NoError(t, err)
	second, err := ComputeTradeTotals(items, dec("10"))
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
	assert.True(t, first.TaxAmount.Equal(second.TaxAmount))
}

func TestComputeTradeTotalsDoesNotMutateInput(t *testing.T) {
	items := []LineItem{line("5", "20", "10", "12")}
	before := items[0]

	_, err := ComputeTradeTotals(items, dec("0"))
	require.NoError(t, err)

	assert.True(t, before.Quantity.Equal(items[0].Quantity))
	assert.True(t, before.UnitPrice.Equal(items[0].UnitPrice))
	assert.True(t, before.DiscountPercent.Equal(items[0].DiscountPercent))
	assert.True(t, before.TaxPercent.Equal(items[0].TaxPercent))
}

func TestNegativeLaborCostRejected(t *testing.T) {
	_, err := ComputeTradeTotals(nil, dec("-1"))
	require.Error(t, err)
	_, err = ComputeQuotationTotals(nil, dec("-1"), dec("0"))
	require.Error(t, err)
}
