package purchases

import (
	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/status"
)

// PurchaseLineRequest is one line of a create payload.
type PurchaseLineRequest struct {
	MaterialID      *int64          `json:"material_id,omitempty"`
	Description     string          `json:"description" validate:"required,max=200"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

// CreatePurchaseRequest opens a purchase in PENDIENTE.
type CreatePurchaseRequest struct {
	SupplierID int64                 `json:"supplier_id" validate:"required,gt=0"`
	Notes      string                `json:"notes" validate:"omitempty,max=500"`
	LaborCost  decimal.Decimal       `json:"labor_cost"`
	Lines      []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ChangeStatusRequest moves a purchase along its workflow.
type ChangeStatusRequest struct {
	Status status.PurchaseStatus `json:"status" validate:"required,oneof=PENDIENTE APROBADO RECHAZADO ANULADO"`
}

// CreatePaymentRequest registers a payment against an approved purchase.
type CreatePaymentRequest struct {
	PurchaseID int64           `json:"purchase_id" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,oneof=EFECTIVO TRANSFERENCIA TARJETA CHEQUE"`
	Reference  string          `json:"reference" validate:"omitempty,max=60"`
	Note       string          `json:"note" validate:"omitempty,max=200"`
}

// ListPurchasesRequest filters the listing.
type ListPurchasesRequest struct {
	SupplierID int64
	Status     *status.PurchaseStatus
	Search     string
	Limit      int
	Offset     int
}

// ListPaymentsRequest filters the payment log.
type ListPaymentsRequest struct {
	PurchaseID int64
	Limit      int
	Offset     int
}
