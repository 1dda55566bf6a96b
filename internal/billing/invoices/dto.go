package invoices

import "time"

type LineRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	LineOrder   int     `json:"line_order" validate:"gte=0"`
}

type CreateInvoiceRequest struct {
	ClientID      int64         `json:"client_id" validate:"required,gt=0"`
	IssueDate     time.Time     `json:"issue_date" validate:"required"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	Currency      string        `json:"currency" validate:"omitempty,len=3"`
	DiscountType  string        `json:"discount_type" validate:"omitempty,oneof=FIXED PERCENTAGE"`
	DiscountValue float64       `json:"discount_value" validate:"gte=0"`
	TaxRate       *float64      `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes         *string       `json:"notes,omitempty"`
	Lines         []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	IssueDate     *time.Time     `json:"issue_date,omitempty"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	DiscountType  *string        `json:"discount_type,omitempty" validate:"omitempty,oneof=FIXED PERCENTAGE"`
	DiscountValue *float64       `json:"discount_value,omitempty" validate:"omitempty,gte=0"`
	TaxRate       *float64       `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes         *string        `json:"notes,omitempty"`
	Lines         *[]LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

type ListInvoicesRequest struct {
	ClientID *int64         `json:"client_id,omitempty"`
	Status   *InvoiceStatus `json:"status,omitempty"`
	DateFrom *time.Time     `json:"date_from,omitempty"`
	DateTo   *time.Time     `json:"date_to,omitempty"`
	Limit    int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int            `json:"offset" validate:"gte=0"`
}
