package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/status"
)

// QuotationItemRequest is one line of a create or update payload.
type QuotationItemRequest struct {
	MaterialID  *int64          `json:"material_id,omitempty"`
	Description string          `json:"description" validate:"required,max=200"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateQuotationRequest opens a new estimate.
type CreateQuotationRequest struct {
	ClientID              int64                  `json:"client_id" validate:"required,gt=0"`
	VehicleDetail         string                 `json:"vehicle_detail" validate:"omitempty,max=200"`
	Notes                 string                 `json:"notes" validate:"omitempty,max=500"`
	ValidUntil            *time.Time             `json:"valid_until,omitempty"`
	GlobalDiscountPercent decimal.Decimal        `json:"global_discount_percent"`
	LaborCost             decimal.Decimal        `json:"labor_cost"`
	Items                 []QuotationItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateQuotationRequest patches an estimate. Replacing the item list
// recomputes every stored amount.
type UpdateQuotationRequest struct {
	VehicleDetail         *string                 `json:"vehicle_detail,omitempty" validate:"omitempty,max=200"`
	Notes                 *string                 `json:"notes,omitempty" validate:"omitempty,max=500"`
	ValidUntil            *time.Time              `json:"valid_until,omitempty"`
	GlobalDiscountPercent *decimal.Decimal        `json:"global_discount_percent,omitempty"`
	LaborCost             *decimal.Decimal        `json:"labor_cost,omitempty"`
	Items                 *[]QuotationItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// ListQuotationsRequest filters the listing.
type ListQuotationsRequest struct {
	ClientID int64
	State    *status.QuotationState
	Search   string
	Limit    int
	Offset   int
}
