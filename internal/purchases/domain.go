// Package purchases manages supplier purchases, their approval workflow
// and the payments registered against them.
package purchases

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/status"
)

// PaymentStatus tracks how much of an approved purchase has been paid.
type PaymentStatus string

const (
	PaymentPendiente PaymentStatus = "PENDIENTE"
	PaymentParcial   PaymentStatus = "PARCIAL"
	PaymentPagado    PaymentStatus = "PAGADO"
)

// Purchase is a supplier order. Discount and tax apply per line; the
// labor cost is added untaxed.
type Purchase struct {
	ID             int64                 `json:"id"`
	Number         string                `json:"number"`
	SupplierID     int64                 `json:"supplier_id"`
	Status         status.PurchaseStatus `json:"status"`
	PaymentStatus  PaymentStatus         `json:"payment_status"`
	Notes          string                `json:"notes,omitempty"`
	LaborCost      decimal.Decimal       `json:"labor_cost"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	Total          decimal.Decimal       `json:"total"`
	PaidAmount     decimal.Decimal       `json:"paid_amount"`
	CreatedBy      int64                 `json:"created_by"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Lines          []PurchaseLine        `json:"lines,omitempty"`
}

// Balance is the outstanding amount.
func (p *Purchase) Balance() decimal.Decimal {
	return p.Total.Sub(p.PaidAmount)
}

// PurchaseLine is one material line of a purchase.
type PurchaseLine struct {
	ID              int64           `json:"id"`
	PurchaseID      int64           `json:"purchase_id"`
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

// Payment is money handed to the supplier against a purchase.
type Payment struct {
	ID         int64           `json:"id"`
	PurchaseID int64           `json:"purchase_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  int64           `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}
