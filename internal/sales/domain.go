// Package sales manages workshop sales, including the ones born from a
// converted quotation, and their payment workflow.
package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/status"
)

// Sale is an invoice-like document. Discount and tax apply per line and
// the labor cost is added untaxed, except for sales born from a
// quotation, which carry the quotation's amounts as agreed.
type Sale struct {
	ID             int64             `json:"id"`
	Number         string            `json:"number"`
	ClientID       int64             `json:"client_id"`
	QuotationID    *int64            `json:"quotation_id,omitempty"`
	Status         status.SaleStatus `json:"status"`
	Notes          string            `json:"notes,omitempty"`
	LaborCost      decimal.Decimal   `json:"labor_cost"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	Total          decimal.Decimal   `json:"total"`
	CreatedBy      int64             `json:"created_by"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Lines          []SaleLine        `json:"lines,omitempty"`
}

// SaleLine is one material line of a sale.
type SaleLine struct {
	ID              int64           `json:"id"`
	SaleID          int64           `json:"sale_id"`
	MaterialID      *int64          `json:"material_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	LineTotal       decimal.Decimal `json:"line_total"`
}
