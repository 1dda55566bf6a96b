package clients

type CreateClientRequest struct {
	Name             string  `json:"name" validate:"required,max=200"`
	GSTIN            *string `json:"gstin,omitempty" validate:"omitempty,len=15"`
	StateCode        string  `json:"state_code" validate:"required,len=2,numeric"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	BillingAddress   *string `json:"billing_address,omitempty"`
	City             *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State            *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode       *string `json:"postal_code,omitempty" validate:"omitempty,max=10"`
	PaymentTermsDays int     `json:"payment_terms_days" validate:"gte=0,lte=365"`
	Notes            *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,max=200"`
	GSTIN            *string `json:"gstin,omitempty" validate:"omitempty,len=15"`
	StateCode        *string `json:"state_code,omitempty" validate:"omitempty,len=2,numeric"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	BillingAddress   *string `json:"billing_address,omitempty"`
	City             *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State            *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode       *string `json:"postal_code,omitempty" validate:"omitempty,max=10"`
	PaymentTermsDays *int    `json:"payment_terms_days,omitempty" validate:"omitempty,gte=0,lte=365"`
	IsActive         *bool   `json:"is_active,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

type ListClientsRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
