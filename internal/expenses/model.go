package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a purchase record. The GST split mirrors invoices: InterState
// is fixed at creation from the vendor and seller state codes, and the
// purchase register derives CGST/SGST or IGST from it.
type Expense struct {
	ID          int64           `json:"id"`
	VendorID    int64           `json:"vendor_id"`
	ClientID    *int64          `json:"client_id,omitempty"`
	Category    string          `json:"category"`
	Description *string         `json:"description,omitempty"`
	ExpenseDate time.Time       `json:"expense_date"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxableBase decimal.Decimal `json:"taxable_base"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
	InterState  bool            `json:"inter_state"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExpenseWithVendor joins the vendor display name for list views.
type ExpenseWithVendor struct {
	Expense
	VendorName string `json:"vendor_name"`
}
