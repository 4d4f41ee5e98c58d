// Package users manages user accounts for the administration screens.
package users

import "time"

// Roles assignable to an account.
const (
	RoleAdmin    = "ADMIN"
	RoleOperador = "OPERADOR"
)

// User represents a user account. Password hashes never leave the package.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
