package settings

import "time"

// Profile is the single seller identity printed on every document. LogoPath
// points into the document storage directory; renderers read it lazily and
// keep going when the file is missing.
type Profile struct {
	ID              int64     `json:"id"`
	LegalName       string    `json:"legal_name"`
	GSTIN           *string   `json:"gstin,omitempty"`
	StateCode       string    `json:"state_code"`
	AddressLines    []string  `json:"address_lines"`
	Phone           *string   `json:"phone,omitempty"`
	Email           *string   `json:"email,omitempty"`
	BankName        *string   `json:"bank_name,omitempty"`
	BankAccount     *string   `json:"bank_account,omitempty"`
	BankIFSC        *string   `json:"bank_ifsc,omitempty"`
	UPIID           *string   `json:"upi_id,omitempty"`
	LogoPath        *string   `json:"logo_path,omitempty"`
	PaymentTerms    *string   `json:"payment_terms,omitempty"`
	DefaultCurrency string    `json:"default_currency"`
	DefaultTaxRate  float64   `json:"default_tax_rate"`
	InvoiceDueDays  int       `json:"invoice_due_days"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	LegalName       *string   `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	GSTIN           *string   `json:"gstin,omitempty" validate:"omitempty,len=15"`
	StateCode       *string   `json:"state_code,omitempty" validate:"omitempty,len=2,numeric"`
	AddressLines    *[]string `json:"address_lines,omitempty" validate:"omitempty,max=5,dive,max=120"`
	Phone           *string   `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email           *string   `json:"email,omitempty" validate:"omitempty,email"`
	BankName        *string   `json:"bank_name,omitempty" validate:"omitempty,max=100"`
	BankAccount     *string   `json:"bank_account,omitempty" validate:"omitempty,max=30"`
	BankIFSC        *string   `json:"bank_ifsc,omitempty" validate:"omitempty,len=11"`
	UPIID           *string   `json:"upi_id,omitempty" validate:"omitempty,max=100,contains=@"`
	LogoPath        *string   `json:"logo_path,omitempty" validate:"omitempty,max=300"`
	PaymentTerms    *string   `json:"payment_terms,omitempty" validate:"omitempty,max=2000"`
	DefaultCurrency *string   `json:"default_currency,omitempty" validate:"omitempty,len=3"`
	DefaultTaxRate  *float64  `json:"default_tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	InvoiceDueDays  *int      `json:"invoice_due_days,omitempty" validate:"omitempty,gte=0,lte=365"`
}
