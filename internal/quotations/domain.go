// Package quotations manages workshop repair quotations: material items
// plus labor, a global discount and the flat quotation tax.
package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/status"
)

// Quotation is a repair estimate for a client. The stored state is the
// two-value active flag; the richer document status is derived on reads.
type Quotation struct {
	ID                    int64                   `json:"id"`
	Number                string                  `json:"number"`
	ClientID              int64                   `json:"client_id"`
	VehicleDetail         string                  `json:"vehicle_detail,omitempty"`
	Notes                 string                  `json:"notes,omitempty"`
	ValidUntil            *time.Time              `json:"valid_until,omitempty"`
	GlobalDiscountPercent decimal.Decimal         `json:"global_discount_percent"`
	LaborCost             decimal.Decimal         `json:"labor_cost"`
	Subtotal              decimal.Decimal         `json:"subtotal"`
	DiscountAmount        decimal.Decimal         `json:"discount_amount"`
	TaxAmount             decimal.Decimal         `json:"tax_amount"`
	Total                 decimal.Decimal         `json:"total"`
	State                 status.QuotationState   `json:"state"`
	DisplayStatus         status.QuotationDisplay `json:"display_status"`
	ConvertedSaleID       *int64                  `json:"converted_sale_id,omitempty"`
	CreatedBy             int64                   `json:"created_by"`
	CreatedAt             time.Time               `json:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at"`
	Items                 []QuotationItem         `json:"items,omitempty"`
}

// QuotationItem is one material line of an estimate.
type QuotationItem struct {
	ID          int64           `json:"id"`
	QuotationID int64           `json:"quotation_id"`
	MaterialID  *int64          `json:"material_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Converted reports whether the quotation was turned into a sale.
func (q *Quotation) Converted() bool {
	return q.ConvertedSaleID != nil
}
