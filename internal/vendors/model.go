package vendors

import "time"

// Vendor is a supplier whose bills land in the expense book.
type Vendor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GSTIN     *string   `json:"gstin,omitempty"`
	StateCode string    `json:"state_code"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
