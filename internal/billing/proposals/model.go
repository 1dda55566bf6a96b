package proposals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
)

type ProposalStatus string

const (
	StatusDraft    ProposalStatus = "DRAFT"
	StatusSent     ProposalStatus = "SENT"
	StatusAccepted ProposalStatus = "ACCEPTED"
	StatusRejected ProposalStatus = "REJECTED"
	StatusExpired  ProposalStatus = "EXPIRED"
)

// Proposal is a priced quotation. Amounts are persisted exactly as the totals
// calculator produced them, the same way invoices are. An accepted proposal
// can be converted into an invoice once; ConvertedInvoiceID records the link.
type Proposal struct {
	ID                 int64               `json:"id"`
	Number             string              `json:"number"`
	ClientID           int64               `json:"client_id"`
	IssueDate          time.Time           `json:"issue_date"`
	ValidUntil         time.Time           `json:"valid_until"`
	Status             ProposalStatus      `json:"status"`
	Currency           string              `json:"currency"`
	DiscountType       totals.DiscountType `json:"discount_type"`
	DiscountValue      decimal.Decimal     `json:"discount_value"`
	TaxRate            decimal.Decimal     `json:"tax_rate"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	DiscountAmount     decimal.Decimal     `json:"discount_amount"`
	TaxableBase        decimal.Decimal     `json:"taxable_base"`
	TaxAmount          decimal.Decimal     `json:"tax_amount"`
	Total              decimal.Decimal     `json:"total"`
	InterState         bool                `json:"inter_state"`
	Notes              *string             `json:"notes,omitempty"`
	ConvertedInvoiceID *int64              `json:"converted_invoice_id,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Lines              []ProposalLine      `json:"lines,omitempty"`
}

type ProposalLine struct {
	ID          int64           `json:"id"`
	ProposalID  int64           `json:"proposal_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	LineOrder   int             `json:"line_order"`
}

// ProposalWithClient joins the client display name for list views.
type ProposalWithClient struct {
	Proposal
	ClientName string `json:"client_name"`
}

func (p Proposal) Totals() totals.DocumentTotals {
	return totals.DocumentTotals{
		Subtotal:       p.Subtotal,
		DiscountAmount: p.DiscountAmount,
		TaxableBase:    p.TaxableBase,
		TaxAmount:      p.TaxAmount,
		Total:          p.Total,
	}
}

func discountTypeFrom(s string) totals.DiscountType {
	if s == string(totals.DiscountPercentage) {
		return totals.DiscountPercentage
	}
	return totals.DiscountFixed
}

// CanTransition reports whether the status machine allows from -> to.
// ACCEPTED, REJECTED and EXPIRED are terminal.
func CanTransition(from, to ProposalStatus) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent
	case StatusSent:
		return to == StatusAccepted || to == StatusRejected || to == StatusExpired
	default:
		return false
	}
}
