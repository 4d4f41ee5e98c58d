package materials

import "github.com/shopspring/decimal"

// CreateMaterialRequest adds a catalog item.
type CreateMaterialRequest struct {
	Code         string          `json:"code" validate:"required,max=30"`
	Name         string          `json:"name" validate:"required,max=120"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
}

// UpdateMaterialRequest patches catalog fields. Stock is never patched
// directly; it only changes through movements.
type UpdateMaterialRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Unit         *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	MinimumStock *decimal.Decimal `json:"minimum_stock,omitempty"`
}

// ListMaterialsRequest filters the catalog listing.
type ListMaterialsRequest struct {
	IsActive *bool
	LowStock bool
	Search   string
	Limit    int
	Offset   int
}

// CreateMovementRequest registers a stock movement. Quantity is checked
// by the service; validator tags do not see inside decimal.Decimal.
type CreateMovementRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	EmployeeID int64           `json:"employee_id" validate:"required,gt=0"`
	Type       MovementType    `json:"type" validate:"required,oneof=ENTRADA SALIDA SOLICITUD"`
	Quantity   decimal.Decimal `json:"quantity"`
	Note       string          `json:"note" validate:"omitempty,max=200"`
}

// ListMovementsRequest filters the movement log.
type ListMovementsRequest struct {
	MaterialID int64
	EmployeeID int64
	Type       MovementType
	Limit      int
	Offset     int
}
