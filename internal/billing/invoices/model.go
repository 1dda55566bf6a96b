package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
)

type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "DRAFT"
	StatusSent      InvoiceStatus = "SENT"
	StatusPaid      InvoiceStatus = "PAID"
	StatusOverdue   InvoiceStatus = "OVERDUE"
	StatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is a tax invoice. Monetary fields are persisted exactly as the
// totals calculator produced them; nothing downstream re-derives amounts.
// InterState is fixed at creation from the seller and buyer GST state codes.
type Invoice struct {
	ID             int64               `json:"id"`
	Number         string              `json:"number"`
	ClientID       int64               `json:"client_id"`
	IssueDate      time.Time           `json:"issue_date"`
	DueDate        time.Time           `json:"due_date"`
	Status         InvoiceStatus       `json:"status"`
	Currency       string              `json:"currency"`
	DiscountType   totals.DiscountType `json:"discount_type"`
	DiscountValue  decimal.Decimal     `json:"discount_value"`
	TaxRate        decimal.Decimal     `json:"tax_rate"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TaxableBase    decimal.Decimal     `json:"taxable_base"`
	TaxAmount      decimal.Decimal     `json:"tax_amount"`
	Total          decimal.Decimal     `json:"total"`
	InterState     bool                `json:"inter_state"`
	Notes          *string             `json:"notes,omitempty"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Lines          []InvoiceLine       `json:"lines,omitempty"`
}

type InvoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	LineOrder   int             `json:"line_order"`
}

// InvoiceWithClient joins the client display name for list views.
type InvoiceWithClient struct {
	Invoice
	ClientName string `json:"client_name"`
}

// Totals reassembles the stored amounts into the calculator's result shape.
func (i Invoice) Totals() totals.DocumentTotals {
	return totals.DocumentTotals{
		Subtotal:       i.Subtotal,
		DiscountAmount: i.DiscountAmount,
		TaxableBase:    i.TaxableBase,
		TaxAmount:      i.TaxAmount,
		Total:          i.Total,
	}
}

func discountTypeFrom(s string) totals.DiscountType {
	if s == string(totals.DiscountPercentage) {
		return totals.DiscountPercentage
	}
	return totals.DiscountFixed
}

// CanTransition reports whether the status machine allows from -> to.
func CanTransition(from, to InvoiceStatus) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent || to == StatusCancelled
	case StatusSent:
		return to == StatusPaid || to == StatusOverdue || to == StatusCancelled
	case StatusOverdue:
		return to == StatusPaid || to == StatusCancelled
	default:
		return false
	}
}
