package render

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
)

func sampleDocument(t *testing.T, lineCount int) Document {
	t.Helper()
	lines := make([]totals.LineItem, 0, lineCount)
	for i := 0; i < lineCount; i++ {
		lines = append(lines, totals.LineItem{
			Description: fmt.Sprintf("Professional services rendered during sprint %d, including design review and deployment support", i+1),
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.RequireFromString("1250.50"),
		})
	}
	computed, err := totals.Compute(lines, totals.DiscountSpec{Type: totals.DiscountPercentage, Value: decimal.NewFromInt(10)}, decimal.NewFromInt(18))
	require.NoError(t, err)

	docLines := make([]Line, len(lines))
	for i, li := range lines {
		docLines[i] = Line{Description: li.Description, Quantity: li.Quantity, UnitPrice: li.UnitPrice, Total: li.Total()}
	}

	due := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	return Document{
		Meta: Meta{
			Kind:           KindInvoice,
			Number:         "INV-202601-0007",
			IssueDate:      time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC),
			DueDate:        &due,
			Status:         "SENT",
			Currency:       "INR",
			TaxRatePercent: decimal.NewFromInt(18),
			DiscountLabel:  "Discount (10%)",
			Notes:          "Payment due within 30 days.",
		},
		Company: Company{
			Party: Party{
				Name:      "Udyog Traders Pvt Ltd",
				Address:   "14 MG Road, Pune 411001",
				StateCode: "27",
				GSTIN:     "27AAPCU1234F1Z5",
				Email:     "billing@udyogtraders.in",
			},
			BankName:    "HDFC Bank",
			BankAccount: "50200012345678",
			BankIFSC:    "HDFC0000123",
			UPIID:       "udyogtraders@okhdfc",
			Terms:       "Goods once sold will not be taken back.",
		},
		Counterparty: Party{
			Name:      "Acme Retail LLP",
			Address:   "2nd Floor, Residency Towers, Chennai 600002",
			StateCode: "33",
			GSTIN:     "33AABCA9876K1Z2",
		},
		Lines:  docLines,
		Totals: computed,
	}
}

func TestDocumentAmountInWordsComesFromTotals(t *testing.T) {
	doc := sampleDocument(t, 1)
	words := doc.AmountInWords()
	assert.Contains(t, words, "Rupees")
	assert.Contains(t, words, "Only")
}

func TestDocumentFileName(t *testing.T) {
	doc := sampleDocument(t, 1)
	assert.Equal(t, "inv-202601-0007.pdf", doc.FileName(FormatPDF))
	assert.Equal(t, "inv-202601-0007.xlsx", doc.FileName(FormatXLSX))
}

func TestConsistencyWarningsFlagDriftedRate(t *testing.T) {
	doc := sampleDocument(t, 1)
	assert.Empty(t, doc.ConsistencyWarnings())

	// A stored rate that no longer matches the computed amounts must warn
	// without blocking rendering.
	doc.Meta.TaxRatePercent = decimal.NewFromInt(12)
	warnings := doc.ConsistencyWarnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "INV-202601-0007")
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/octet-stream", Format("dat").ContentType())
}
