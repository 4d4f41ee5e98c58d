package users

// CreateUserRequest creates a new account.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=60"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=ADMIN OPERADOR"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateUserRequest patches account fields; nil fields are left untouched.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=120"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=ADMIN OPERADOR"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

// ListUsersRequest filters the listing.
type ListUsersRequest struct {
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}
