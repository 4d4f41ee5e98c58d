package sales

import (
	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/status"
)

// SaleLineRequest is one line of a create payload.
type SaleLineRequest struct {
	MaterialID      *int64          `json:"material_id,omitempty"`
	Description     string          `json:"description" validate:"required,max=200"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

// CreateSaleRequest opens a sale in PENDIENTE.
type CreateSaleRequest struct {
	ClientID  int64             `json:"client_id" validate:"required,gt=0"`
	Notes     string            `json:"notes" validate:"omitempty,max=500"`
	LaborCost decimal.Decimal   `json:"labor_cost"`
	Lines     []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ChangeStatusRequest moves a sale along its workflow.
type ChangeStatusRequest struct {
	Status status.SaleStatus `json:"status" validate:"required,oneof=PENDIENTE PAGADO ANULADO"`
}

// ListScope selects which sales a listing shows. Annulled sales are
// hidden from the working view but stay reachable.
type ListScope string

const (
	ScopeAll      ListScope = ""
	ScopeActivas  ListScope = "activas"
	ScopeAnuladas ListScope = "anuladas"
)

// ListSalesRequest filters the listing.
type ListSalesRequest struct {
	ClientID int64
	Status   *status.SaleStatus
	Scope    ListScope
	Search   string
	Limit    int
	Offset   int
}
