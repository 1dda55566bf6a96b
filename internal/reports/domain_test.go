package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBucketForBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want AgingBucket
	}{
		{-5, BucketCurrent},
		{0, BucketCurrent},
		{1, Bucket1To30},
		{30, Bucket1To30},
		{31, Bucket31To60},
		{60, Bucket31To60},
		{61, Bucket61To90},
		{90, Bucket61To90},
		{91, Bucket90Plus},
		{400, Bucket90Plus},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BucketFor(tc.days), "days=%d", tc.days)
	}
}

func TestBuildAgingSkipsSettledInvoices(t *testing.T) {
	today := day(2026, time.March, 15)
	invoices := []InvoiceRecord{
		{ID: 1, Number: "INV-202602-0001", Status: "SENT", DueDate: day(2026, time.February, 13), Total: decimal.NewFromInt(1000)},
		{ID: 2, Number: "INV-202602-0002", Status: "PAID", DueDate: day(2026, time.January, 1), Total: decimal.NewFromInt(500)},
		{ID: 3, Number: "INV-202603-0003", Status: "CANCELLED", DueDate: day(2026, time.January, 1), Total: decimal.NewFromInt(900)},
		{ID: 4, Number: "INV-202603-0004", Status: "SENT", DueDate: day(2026, time.March, 20), Total: decimal.NewFromInt(750)},
	}

	rows := BuildAging(invoices, today)
	require.Len(t, rows, 2)
	// Sorted most-overdue first.
	assert.Equal(t, int64(1), rows[0].InvoiceID)
	assert.Equal(t, 30, rows[0].DaysOverdue)
	assert.Equal(t, Bucket1To30, rows[0].Bucket)

	// Not yet due: zero days, current bucket.
	assert.Equal(t, int64(4), rows[1].InvoiceID)
	assert.Zero(t, rows[1].DaysOverdue)
	assert.Equal(t, BucketCurrent, rows[1].Bucket)
}

func TestBuildAgingDayThirtyOneCrossesBucket(t *testing.T) {
	today := day(2026, time.March, 15)
	rows := BuildAging([]InvoiceRecord{
		{ID: 1, Status: "OVERDUE", DueDate: day(2026, time.February, 12), Total: decimal.NewFromInt(100)},
	}, today)
	require.Len(t, rows, 1)
	assert.Equal(t, 31, rows[0].DaysOverdue)
	assert.Equal(t, Bucket31To60, rows[0].Bucket)
}

func TestBuildClientRevenueMargins(t *testing.T) {
	clientA, clientB := int64(1), int64(2)
	invoices := []InvoiceRecord{
		{ClientID: clientA, ClientName: "Acme Retail LLP", Status: "PAID", Total: decimal.NewFromInt(1000)},
		{ClientID: clientA, ClientName: "Acme Retail LLP", Status: "SENT", Total: decimal.NewFromInt(500)},
		{ClientID: clientA, ClientName: "Acme Retail LLP", Status: "CANCELLED", Total: decimal.NewFromInt(9999)},
	}
	expenses := []ExpenseRecord{
		{ClientID: &clientA, Total: decimal.NewFromInt(600)},
		{ClientID: &clientB, Total: decimal.NewFromInt(250)},
		{Total: decimal.NewFromInt(4000)}, // overhead, no client
	}

	rows := BuildClientRevenue(invoices, expenses)
	require.Len(t, rows, 2)

	assert.Equal(t, clientA, rows[0].ClientID)
	assert.True(t, rows[0].Revenue.Equal(decimal.NewFromInt(1500)), "cancelled invoices excluded")
	assert.True(t, rows[0].Profit.Equal(decimal.NewFromInt(900)))
	assert.True(t, rows[0].MarginPercent.Equal(decimal.NewFromInt(60)))

	// Cost-only client: margin stays zero instead of dividing by zero.
	assert.Equal(t, clientB, rows[1].ClientID)
	assert.True(t, rows[1].Revenue.IsZero())
	assert.True(t, rows[1].Profit.Equal(decimal.NewFromInt(-250)))
	assert.True(t, rows[1].MarginPercent.IsZero())
}

func TestBuildGSTSalesSplitsByPlaceOfSupply(t *testing.T) {
	invoices := []InvoiceRecord{
		{
			Number: "INV-202601-0001", ClientName: "Acme Retail LLP", Status: "SENT",
			IssueDate: day(2026, time.January, 5), InterState: false,
			TaxableBase: decimal.NewFromInt(1000), TaxAmount: decimal.NewFromInt(180), Total: decimal.NewFromInt(1180),
		},
		{
			Number: "INV-202601-0002", ClientName: "Deccan Mills", Status: "PAID",
			IssueDate: day(2026, time.January, 9), InterState: true,
			TaxableBase: decimal.NewFromInt(2000), TaxAmount: decimal.NewFromInt(360), Total: decimal.NewFromInt(2360),
		},
	}

	rows := BuildGSTSales(invoices)
	require.Len(t, rows, 2)

	intra := rows[0]
	assert.True(t, intra.CGST.Equal(decimal.NewFromInt(90)))
	assert.True(t, intra.SGST.Equal(decimal.NewFromInt(90)))
	assert.True(t, intra.IGST.IsZero())

	inter := rows[1]
	assert.True(t, inter.IGST.Equal(decimal.NewFromInt(360)))
	assert.True(t, inter.CGST.IsZero())
	assert.True(t, inter.SGST.IsZero())
}

func TestGSTSplitOddPaiseReconciles(t *testing.T) {
	tax := decimal.RequireFromString("100.01")
	row := gstSplit("INV", day(2026, time.January, 1), "p", "", decimal.Zero, tax, decimal.Zero, false)
	assert.True(t, row.CGST.Add(row.SGST).Equal(tax), "halves must sum back to the source tax")
}

func TestSumGSTReconcilesRegister(t *testing.T) {
	invoices := []InvoiceRecord{
		{Number: "A", Status: "SENT", InterState: false, TaxableBase: decimal.NewFromInt(100), TaxAmount: decimal.RequireFromString("18.01"), Total: decimal.RequireFromString("118.01")},
		{Number: "B", Status: "SENT", InterState: true, TaxableBase: decimal.NewFromInt(200), TaxAmount: decimal.NewFromInt(36), Total: decimal.NewFromInt(236)},
	}
	rows := BuildGSTSales(invoices)
	sum := SumGST(rows)
	assert.True(t, sum.CGST.Add(sum.SGST).Add(sum.IGST).Equal(decimal.RequireFromString("54.01")))
	assert.True(t, sum.TaxableValue.Equal(decimal.NewFromInt(300)))
}

func TestBuildGSTPurchasesUsesExpenseDates(t *testing.T) {
	expenses := []ExpenseRecord{
		{VendorName: "Shakti Paper", Category: "SUPPLIES", Date: day(2026, time.February, 2), InterState: false, TaxableBase: decimal.NewFromInt(500), TaxAmount: decimal.NewFromInt(90), Total: decimal.NewFromInt(590)},
		{VendorName: "Bharat Freight", Category: "LOGISTICS", Date: day(2026, time.January, 20), InterState: true, TaxableBase: decimal.NewFromInt(300), TaxAmount: decimal.NewFromInt(54), Total: decimal.NewFromInt(354)},
	}
	rows := BuildGSTPurchases(expenses)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bharat Freight", rows[0].PartyName, "register sorted by document date")
	assert.True(t, rows[0].IGST.Equal(decimal.NewFromInt(54)))
	assert.True(t, rows[1].CGST.Equal(decimal.NewFromInt(45)))
}
