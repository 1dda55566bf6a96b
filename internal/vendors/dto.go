package vendors

type CreateVendorRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	GSTIN     *string `json:"gstin,omitempty" validate:"omitempty,len=15"`
	StateCode string  `json:"state_code" validate:"required,len=2,numeric"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   *string `json:"address,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type UpdateVendorRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=200"`
	GSTIN     *string `json:"gstin,omitempty" validate:"omitempty,len=15"`
	StateCode *string `json:"state_code,omitempty" validate:"omitempty,len=2,numeric"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   *string `json:"address,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type ListVendorsRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
