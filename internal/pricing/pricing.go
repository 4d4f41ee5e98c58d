// Package pricing computes monetary totals for quotations, purchases and
// sales. It is pure: no I/O, no mutation of inputs.
//
// Rounding policy: amounts are computed exactly with decimal arithmetic and
// every derived amount (subtotal, discount, tax, total) is rounded to two
// decimal places, half away from zero, before it participates in further
// sums. Callers persist the rounded values as-is.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// QuotationTaxPercent is the flat tax rate applied to a quotation's
// post-discount base, labor included.
var QuotationTaxPercent = decimal.NewFromInt(12)

var (
	hundred = decimal.NewFromInt(100)
)

// LineItem is one material line within a document.
type LineItem struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxPercent      decimal.Decimal
}

// LineTotals holds the derived amounts for a single line.
type LineTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// DocumentTotals aggregates line amounts plus the per-document labor cost.
type DocumentTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	LaborCost      decimal.Decimal
	Total          decimal.Decimal
}

// ValidationError reports an input that fails the pricing preconditions.
// Invalid numbers are rejected, never coerced to zero.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pricing: %s %s", e.Field, e.Reason)
}

func validateLine(item LineItem) error {
	if !item.Quantity.IsPositive() {
		return &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if !item.UnitPrice.IsPositive() {
		return &ValidationError{Field: "unit_price", Reason: "must be greater than zero"}
	}
	if err := validatePercent("discount_percent", item.DiscountPercent); err != nil {
		return err
	}
	return validatePercent("tax_percent", item.TaxPercent)
}

func validatePercent(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return &ValidationError{Field: field, Reason: "must be between 0 and 100"}
	}
	return nil
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeLineTotals derives subtotal, discount, tax and total for one line.
func ComputeLineTotals(item LineItem) (LineTotals, error) {
	if err := validateLine(item); err != nil {
		return LineTotals{}, err
	}

	subtotal := round2(item.Quantity.Mul(item.UnitPrice))
	discount := round2(subtotal.Mul(item.DiscountPercent).Div(hundred))
	net := subtotal.Sub(discount)
	tax := round2(net.Mul(item.TaxPercent).Div(hundred))

	return LineTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          net.Add(tax),
	}, nil
}

// ComputeQuotationTotals implements the quotation variant: a global discount
// applies to the summed subtotals, labor is added to the discounted base and
// the flat quotation tax is charged on that base, labor included.
func ComputeQuotationTotals(items []LineItem, laborCost, globalDiscountPercent decimal.Decimal) (DocumentTotals, error) {
	if laborCost.IsNegative() {
		return DocumentTotals{}, &ValidationError{Field: "labor_cost", Reason: "must not be negative"}
	}
	if err := validatePercent("global_discount_percent", globalDiscountPercent); err != nil {
		return DocumentTotals{}, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		lt, err := ComputeLineTotals(item)
		if err != nil {
			return DocumentTotals{}, err
		}
		subtotal = subtotal.Add(lt.Subtotal)
	}

	discount := round2(subtotal.Mul(globalDiscountPercent).Div(hundred))
	base := subtotal.Sub(discount).Add(laborCost)
	tax := round2(base.Mul(QuotationTaxPercent).Div(hundred))

	return DocumentTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		LaborCost:      laborCost,
		Total:          base.Add(tax),
	}, nil
}

// ComputeTradeTotals implements the purchase/sale variant: discount and tax
// apply per line and the labor cost is added untaxed.
func ComputeTradeTotals(items []LineItem, laborCost decimal.Decimal) (DocumentTotals, error) {
	if laborCost.IsNegative() {
		return DocumentTotals{}, &ValidationError{Field: "labor_cost", Reason: "must not be negative"}
	}

	totals := DocumentTotals{
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		LaborCost:      laborCost,
		Total:          decimal.Zero,
	}
	for _, item := range items {
		lt, err := ComputeLineTotals(item)
		if err != nil {
			return DocumentTotals{}, err
		}
		totals.Subtotal = totals.Subtotal.Add(lt.Subtotal)
		totals.DiscountAmount = totals.DiscountAmount.Add(lt.DiscountAmount)
		totals.TaxAmount = totals.TaxAmount.Add(lt.TaxAmount)
		totals.Total = totals.Total.Add(lt.Total)
	}
	totals.Total = totals.Total.Add(laborCost)

	return totals, nil
}
