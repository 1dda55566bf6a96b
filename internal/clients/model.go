package clients

import "time"

// Client is a billable counterparty. StateCode is the two-digit GST state
// code from the GSTIN; invoices compare it against the seller's code to
// classify a supply as intra- or inter-state.
type Client struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	GSTIN            *string   `json:"gstin,omitempty"`
	StateCode        string    `json:"state_code"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	BillingAddress   *string   `json:"billing_address,omitempty"`
	City             *string   `json:"city,omitempty"`
	State            *string   `json:"state,omitempty"`
	PostalCode       *string   `json:"postal_code,omitempty"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	IsActive         bool      `json:"is_active"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
