package clients

// CreateClientRequest registers a customer.
type CreateClientRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Document string `json:"document" validate:"required,min=8,max=13"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Address  string `json:"address" validate:"omitempty,max=200"`
}

// UpdateClientRequest patches customer fields.
type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=200"`
}

// ListClientsRequest filters the listing.
type ListClientsRequest struct {
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}
