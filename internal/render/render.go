// Package render turns computed document totals into output bytes. All
// implementations consume the same Document value; amounts and the
// amount-in-words block always come from the totals calculator and the money
// formatter, never from re-typed values.
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
	"github.com/udyogbooks/udyogbooks/internal/money"
)

// Format identifies an output encoding.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// Kind distinguishes the financial document families sharing this pipeline.
type Kind string

const (
	KindInvoice  Kind = "INVOICE"
	KindProposal Kind = "PROPOSAL"
)

// Title returns the printed document title.
func (k Kind) Title() string {
	if k == KindProposal {
		return "PROPOSAL"
	}
	return "TAX INVOICE"
}

// Party is a billing identity block.
type Party struct {
	Name      string
	Address   string
	City      string
	StateCode string
	GSTIN     string
	Email     string
	Phone     string
}

// Company extends Party with the payment collection details owned by the
// settings subsystem. Renderers treat it as read-only.
type Company struct {
	Party
	BankName    string
	BankAccount string
	BankIFSC    string
	UPIID       string
	Terms       string
	LogoPNG     []byte
}

// Meta carries per-document header fields.
type Meta struct {
	Kind           Kind
	Number         string
	IssueDate      time.Time
	DueDate        *time.Time
	Status         string
	Currency       string
	Notes          string
	TaxRatePercent decimal.Decimal
	DiscountLabel  string
}

// Line is one presentational row, already priced by the totals calculator.
type Line struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Document is the complete renderer input.
type Document struct {
	Meta         Meta
	Company      Company
	Counterparty Party
	Lines        []Line
	Totals       totals.DocumentTotals
}

// AmountInWords is the single source of truth for the textual total.
func (d Document) AmountInWords() string {
	return money.ToWords(d.Totals.Total)
}

// FileName builds a download name such as inv-202601-0007.pdf.
func (d Document) FileName(f Format) string {
	base := strings.ToLower(strings.ReplaceAll(d.Meta.Number, "/", "-"))
	if base == "" {
		base = strings.ToLower(string(d.Meta.Kind))
	}
	return fmt.Sprintf("%s.%s", base, f)
}

// ConsistencyWarnings reports non-fatal data drift, currently the gap between
// the stored tax rate and the rate implied by the computed amounts. Callers
// log these and render anyway.
func (d Document) ConsistencyWarnings() []string {
	var warnings []string
	if drift, exceeded := totals.RateDrift(d.Totals, d.Meta.TaxRatePercent); exceeded {
		warnings = append(warnings, fmt.Sprintf(
			"displayed tax rate %s%% drifts %spp from stored rate %s%% on %s",
			totals.DisplayRate(d.Totals), drift.Round(2), d.Meta.TaxRatePercent, d.Meta.Number))
	}
	return warnings
}

// Renderer produces one output format from a Document.
type Renderer interface {
	Format() Format
	Render(ctx context.Context, doc Document) ([]byte, error)
}
