// Package suppliers manages the supplier directory.
package suppliers

import "time"

// Supplier is a vendor the business purchases materials from.
type Supplier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	RUC         string    `json:"ruc"`
	ContactName string    `json:"contact_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
