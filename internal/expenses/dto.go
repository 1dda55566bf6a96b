package expenses

import "time"

type CreateExpenseRequest struct {
	VendorID    int64     `json:"vendor_id" validate:"required,gt=0"`
	ClientID    *int64    `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Category    string    `json:"category" validate:"required,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	ExpenseDate time.Time `json:"expense_date" validate:"required"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	TaxRate     *float64  `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes       *string   `json:"notes,omitempty"`
}

type UpdateExpenseRequest struct {
	ClientID    *int64     `json:"client_id,omitempty" validate:"omitempty,gte=0"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	ExpenseDate *time.Time `json:"expense_date,omitempty"`
	Amount      *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	TaxRate     *float64   `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes       *string    `json:"notes,omitempty"`
}

type ListExpensesRequest struct {
	VendorID *int64     `json:"vendor_id,omitempty"`
	ClientID *int64     `json:"client_id,omitempty"`
	Category *string    `json:"category,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}
