// Package reports groups raw financial records into request-scoped report
// rows: receivables aging, revenue and profit by client, and GST registers.
// Aggregation is pure; the same input snapshot always produces the same rows.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Filters narrows the record window feeding a report.
type Filters struct {
	From     *time.Time
	To       *time.Time
	ClientID *int64
	Category *string
}

// AgingBucket classifies how far past due a receivable is.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "CURRENT"
	Bucket1To30   AgingBucket = "1-30"
	Bucket31To60  AgingBucket = "31-60"
	Bucket61To90  AgingBucket = "61-90"
	Bucket90Plus  AgingBucket = "90+"
)

// BucketFor places a days-overdue count into its aging bucket. Day 30 is
// still "1-30"; day 31 starts "31-60".
func BucketFor(daysOverdue int) AgingBucket {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return Bucket90Plus
	}
}

// InvoiceRecord is the raw, fully materialised invoice projection supplied by
// the storage layer. InterState carries the place-of-supply classification
// captured at invoice creation; the aggregator never re-derives it.
type InvoiceRecord struct {
	ID          int64
	Number      string
	ClientID    int64
	ClientName  string
	GSTIN       string
	IssueDate   time.Time
	DueDate     time.Time
	Status      string
	TaxableBase decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
	InterState  bool
}

// ExpenseRecord is the raw expense projection.
type ExpenseRecord struct {
	ID          int64
	VendorName  string
	GSTIN       string
	Category    string
	ClientID    *int64
	Date        time.Time
	TaxableBase decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
	InterState  bool
}

// AgingRow is one outstanding receivable with its overdue classification.
type AgingRow struct {
	InvoiceID   int64           `json:"invoice_id"`
	Number      string          `json:"number"`
	ClientName  string          `json:"client_name"`
	DueDate     time.Time       `json:"due_date"`
	Total       decimal.Decimal `json:"total"`
	DaysOverdue int             `json:"days_overdue"`
	Bucket      AgingBucket     `json:"bucket"`
}

// RevenueRow aggregates revenue, expenses and margin for one client.
type RevenueRow struct {
	ClientID      int64           `json:"client_id"`
	ClientName    string          `json:"client_name"`
	Revenue       decimal.Decimal `json:"revenue"`
	Expenses      decimal.Decimal `json:"expenses"`
	Profit        decimal.Decimal `json:"profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

// GSTRow is one register line with the tax split by supply classification:
// intra-state tax halves into CGST+SGST, inter-state tax posts as IGST.
type GSTRow struct {
	DocNumber    string          `json:"doc_number"`
	DocDate      time.Time       `json:"doc_date"`
	PartyName    string          `json:"party_name"`
	GSTIN        string          `json:"gstin"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
	Total        decimal.Decimal `json:"total"`
}

var two = decimal.NewFromInt(2)

// BuildAging buckets unpaid invoices by how far past due they are as of the
// given day. Paid and cancelled invoices never age.
func BuildAging(invoices []InvoiceRecord, today time.Time) []AgingRow {
	rows := make([]AgingRow, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status == "PAID" || inv.Status == "CANCELLED" {
			continue
		}
		overdue := daysBetween(inv.DueDate, today)
		if overdue < 0 {
			overdue = 0
		}
		rows = append(rows, AgingRow{
			InvoiceID:   inv.ID,
			Number:      inv.Number,
			ClientName:  inv.ClientName,
			DueDate:     inv.DueDate,
			Total:       inv.Total,
			DaysOverdue: overdue,
			Bucket:      BucketFor(overdue),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DaysOverdue > rows[j].DaysOverdue })
	return rows
}

// BuildClientRevenue sums invoice and expense totals per client. Margin is
// zero, not an error, when a client has costs but no revenue.
func BuildClientRevenue(invoices []InvoiceRecord, expenses []ExpenseRecord) []RevenueRow {
	byClient := make(map[int64]*RevenueRow)
	for _, inv := range invoices {
		if inv.Status == "CANCELLED" {
			continue
		}
		row := byClient[inv.ClientID]
		if row == nil {
			row = &RevenueRow{ClientID: inv.ClientID, ClientName: inv.ClientName}
			byClient[inv.ClientID] = row
		}
		row.Revenue = row.Revenue.Add(inv.Total)
	}
	for _, exp := range expenses {
		if exp.ClientID == nil {
			continue
		}
		row := byClient[*exp.ClientID]
		if row == nil {
			row = &RevenueRow{ClientID: *exp.ClientID}
			byClient[*exp.ClientID] = row
		}
		row.Expenses = row.Expenses.Add(exp.Total)
	}

	rows := make([]RevenueRow, 0, len(byClient))
	for _, row := range byClient {
		row.Profit = row.Revenue.Sub(row.Expenses)
		if row.Revenue.IsPositive() {
			row.MarginPercent = row.Profit.Div(row.Revenue).Mul(decimal.NewFromInt(100)).Round(2)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue.Equal(rows[j].Revenue) {
			return rows[i].ClientID < rows[j].ClientID
		}
		return rows[i].Revenue.GreaterThan(rows[j].Revenue)
	})
	return rows
}

// BuildGSTSales produces the outward-supply register from issued invoices.
func BuildGSTSales(invoices []InvoiceRecord) []GSTRow {
	rows := make([]GSTRow, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status == "CANCELLED" {
			continue
		}
		rows = append(rows, gstSplit(inv.Number, inv.IssueDate, inv.ClientName, inv.GSTIN, inv.TaxableBase, inv.TaxAmount, inv.Total, inv.InterState))
	}
	sortGST(rows)
	return rows
}

// BuildGSTPurchases produces the inward-supply register from expenses.
func BuildGSTPurchases(expenses []ExpenseRecord) []GSTRow {
	rows := make([]GSTRow, 0, len(expenses))
	for _, exp := range expenses {
		number := exp.Category
		rows = append(rows, gstSplit(number, exp.Date, exp.VendorName, exp.GSTIN, exp.TaxableBase, exp.TaxAmount, exp.Total, exp.InterState))
	}
	sortGST(rows)
	return rows
}

// SumGST totals a register; the per-row split keeps CGST+SGST+IGST equal to
// the source tax amounts, so the summary reconciles exactly.
func SumGST(rows []GSTRow) GSTRow {
	sum := GSTRow{DocNumber: "TOTAL"}
	for _, r := range rows {
		sum.TaxableValue = sum.TaxableValue.Add(r.TaxableValue)
		sum.CGST = sum.CGST.Add(r.CGST)
		sum.SGST = sum.SGST.Add(r.SGST)
		sum.IGST = sum.IGST.Add(r.IGST)
		sum.Total = sum.Total.Add(r.Total)
	}
	return sum
}

func gstSplit(number string, date time.Time, party, gstin string, base, tax, total decimal.Decimal, interState bool) GSTRow {
	row := GSTRow{
		DocNumber:    number,
		DocDate:      date,
		PartyName:    party,
		GSTIN:        gstin,
		TaxableValue: base,
		Total:        total,
	}
	if interState {
		row.IGST = tax
		return row
	}
	// Halve into CGST and give SGST the remainder so the pair always sums
	// back to the source tax even on odd paise.
	row.CGST = tax.Div(two).RoundBank(2)
	row.SGST = tax.Sub(row.CGST)
	return row
}

func sortGST(rows []GSTRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DocDate.Equal(rows[j].DocDate) {
			return rows[i].DocNumber < rows[j].DocNumber
		}
		return rows[i].DocDate.Before(rows[j].DocDate)
	})
}

// daysBetween counts whole calendar days from a to b, ignoring clock time.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}
