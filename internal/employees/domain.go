// Package employees manages the staff directory used by inventory movements.
package employees

import "time"

// Employee is a staff member. Movements reference the employee who performed
// or requested them.
type Employee struct {
	ID        int64      `json:"id"`
	FullName  string     `json:"full_name"`
	Document  string     `json:"document"`
	Position  string     `json:"position"`
	Phone     string     `json:"phone,omitempty"`
	HiredAt   *time.Time `json:"hired_at,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateEmployeeRequest registers a staff member.
type CreateEmployeeRequest struct {
	FullName string     `json:"full_name" validate:"required,max=120"`
	Document string     `json:"document" validate:"required,min=8,max=13"`
	Position string     `json:"position" validate:"required,max=80"`
	Phone    string     `json:"phone" validate:"omitempty,max=20"`
	HiredAt  *time.Time `json:"hired_at,omitempty"`
}

// UpdateEmployeeRequest patches staff fields.
type UpdateEmployeeRequest struct {
	FullName *string    `json:"full_name,omitempty" validate:"omitempty,max=120"`
	Position *string    `json:"position,omitempty" validate:"omitempty,max=80"`
	Phone    *string    `json:"phone,omitempty" validate:"omitempty,max=20"`
	HiredAt  *time.Time `json:"hired_at,omitempty"`
}

// ListEmployeesRequest filters the listing.
type ListEmployeesRequest struct {
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}
