// Package materials manages the workshop material catalog and its
// inventory movements.
package materials

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies an inventory movement.
type MovementType string

const (
	// MovementIn increments stock (goods received).
	MovementIn MovementType = "ENTRADA"
	// MovementOut decrements stock (goods issued).
	MovementOut MovementType = "SALIDA"
	// MovementRequest records a request without touching stock.
	MovementRequest MovementType = "SOLICITUD"
)

// ErrNegativeStock indicates an outbound movement larger than the
// available stock.
var ErrNegativeStock = errors.New("materials: insufficient stock")

// ValidMovementType reports whether t is a known movement type.
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementIn, MovementOut, MovementRequest:
		return true
	}
	return false
}

// Material is a catalog item with its running stock level.
type Material struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Stock        decimal.Decimal `json:"stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Movement is a single stock transaction tied to an employee.
type Movement struct {
	ID         int64           `json:"id"`
	MaterialID int64           `json:"material_id"`
	EmployeeID int64           `json:"employee_id"`
	Type       MovementType    `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  int64           `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}
