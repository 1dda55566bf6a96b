package reports

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/udyogbooks/udyogbooks/internal/render"
)

const exportDateLayout = "2006-01-02"

func writeAgingCSV(w io.Writer, rows []AgingRow, asOf time.Time) error {
	streamer := render.NewCSVStreamer(w)
	if err := streamer.WriteComment("# Report: Receivables Aging"); err != nil {
		return err
	}
	if err := streamer.WriteComment(fmt.Sprintf("# As of: %s", asOf.Format(exportDateLayout))); err != nil {
		return err
	}
	if err := streamer.WriteRow([]string{"Invoice", "Client", "Due Date", "Amount", "Days Overdue", "Bucket"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := streamer.WriteRow([]string{
			row.Number,
			row.ClientName,
			row.DueDate.Format(exportDateLayout),
			formatDecimal(row.Total),
			strconv.Itoa(row.DaysOverdue),
			string(row.Bucket),
		}); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func writeRevenueCSV(w io.Writer, rows []RevenueRow, f Filters) error {
	streamer := render.NewCSVStreamer(w)
	if err := streamer.WriteComment("# Report: Revenue by Client"); err != nil {
		return err
	}
	if err := streamer.WriteComment("# Window: " + filterWindow(f)); err != nil {
		return err
	}
	if err := streamer.WriteRow([]string{"Client", "Revenue", "Expenses", "Profit", "Margin %"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := streamer.WriteRow([]string{
			row.ClientName,
			formatDecimal(row.Revenue),
			formatDecimal(row.Expenses),
			formatDecimal(row.Profit),
			row.MarginPercent.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func writeGSTCSV(w io.Writer, title string, rows []GSTRow, f Filters) error {
	streamer := render.NewCSVStreamer(w)
	if err := streamer.WriteComment("# Report: " + title); err != nil {
		return err
	}
	if err := streamer.WriteComment("# Window: " + filterWindow(f)); err != nil {
		return err
	}
	if err := streamer.WriteRow([]string{"Document", "Date", "Party", "GSTIN", "Taxable Value", "CGST", "SGST", "IGST", "Total"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := streamer.WriteRow(gstCSVRow(row, row.DocDate.Format(exportDateLayout))); err != nil {
			return err
		}
	}
	sum := SumGST(rows)
	if err := streamer.WriteRow(gstCSVRow(sum, "")); err != nil {
		return err
	}
	return streamer.Close()
}

func gstCSVRow(row GSTRow, date string) []string {
	return []string{
		row.DocNumber,
		date,
		row.PartyName,
		row.GSTIN,
		formatDecimal(row.TaxableValue),
		formatDecimal(row.CGST),
		formatDecimal(row.SGST),
		formatDecimal(row.IGST),
		formatDecimal(row.Total),
	}
}

// writeGSTXLSX renders a register as a single-sheet workbook with numeric
// amount cells, mirroring the filing spreadsheets accountants expect.
func writeGSTXLSX(w io.Writer, sheet string, rows []GSTRow) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("#,##,##0.00")})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E1E4EB"}},
	})
	if err != nil {
		return err
	}

	header := []interface{}{"Document", "Date", "Party", "GSTIN", "Taxable Value", "CGST", "SGST", "IGST", "Total"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "I1", headerStyle); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", "A", 18)
	_ = f.SetColWidth(sheet, "C", "C", 30)
	_ = f.SetColWidth(sheet, "D", "D", 18)
	_ = f.SetColWidth(sheet, "E", "I", 14)

	line := 2
	for _, row := range rows {
		values := []interface{}{
			row.DocNumber,
			row.DocDate.Format(exportDateLayout),
			row.PartyName,
			row.GSTIN,
			row.TaxableValue.InexactFloat64(),
			row.CGST.InexactFloat64(),
			row.SGST.InexactFloat64(),
			row.IGST.InexactFloat64(),
			row.Total.InexactFloat64(),
		}
		cell := fmt.Sprintf("A%d", line)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("E%d", line), fmt.Sprintf("I%d", line), amountStyle); err != nil {
			return err
		}
		line++
	}

	sum := SumGST(rows)
	totals := []interface{}{
		"TOTAL", "", "", "",
		sum.TaxableValue.InexactFloat64(),
		sum.CGST.InexactFloat64(),
		sum.SGST.InexactFloat64(),
		sum.IGST.InexactFloat64(),
		sum.Total.InexactFloat64(),
	}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", line), &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("E%d", line), fmt.Sprintf("I%d", line), amountStyle); err != nil {
		return err
	}

	return f.Write(w)
}

func filterWindow(f Filters) string {
	from, to := "beginning", "today"
	if f.From != nil {
		from = f.From.Format(exportDateLayout)
	}
	if f.To != nil {
		to = f.To.Format(exportDateLayout)
	}
	return from + " to " + to
}

func formatDecimal(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func strPtr(s string) *string { return &s }
