package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// xlsxPageBudget is the printable vertical budget per page in points.
	// Row heights accumulate against it so page breaks follow content, not a
	// fixed row count.
	xlsxPageBudget  = 680.0
	xlsxBaseRowPts  = 15.0
	xlsxDescWrapAt  = 52
	xlsxNumFmtIN    = "#,##,##0.00"
	xlsxNumFmtPlain = "#,##0.00"
)

// XLSXRenderer writes the document as a spreadsheet with numeric currency
// cells and a totals summary block after the last data row.
type XLSXRenderer struct {
	logger *slog.Logger
}

// NewXLSX constructs a spreadsheet renderer.
func NewXLSX(logger *slog.Logger) *XLSXRenderer {
	return &XLSXRenderer{logger: logger}
}

// Format implements Renderer.
func (r *XLSXRenderer) Format() Format { return FormatXLSX }

// Render implements Renderer.
func (r *XLSXRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := sheetName(doc.Meta.Kind)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("render/xlsx: rename sheet: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 6); err != nil {
		return nil, fmt.Errorf("render/xlsx: col width: %w", err)
	}
	_ = f.SetColWidth(sheet, "B", "B", 52)
	_ = f.SetColWidth(sheet, "C", "E", 16)

	numFmt := xlsxNumFmtPlain
	if strings.EqualFold(doc.Meta.Currency, "INR") {
		numFmt = xlsxNumFmtIN
	}
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("render/xlsx: amount style: %w", err)
	}
	boldAmountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("render/xlsx: bold amount style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E1E4EB"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("render/xlsx: header style: %w", err)
	}
	shadedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F6F7F9"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("render/xlsx: shaded style: %w", err)
	}

	row := 1
	meta := [][]any{
		{doc.Company.Name},
		{doc.Meta.Kind.Title()},
		{"Number", doc.Meta.Number},
		{"Date", doc.Meta.IssueDate.Format("02 Jan 2006")},
	}
	if doc.Meta.DueDate != nil {
		meta = append(meta, []any{"Due", doc.Meta.DueDate.Format("02 Jan 2006")})
	}
	meta = append(meta, []any{billedPartyLabel(doc.Meta.Kind), doc.Counterparty.Name})
	if doc.Counterparty.GSTIN != "" {
		meta = append(meta, []any{"GSTIN", doc.Counterparty.GSTIN})
	}
	for _, m := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &m); err != nil {
			return nil, fmt.Errorf("render/xlsx: meta row: %w", err)
		}
		row++
	}
	row++

	headerRow := row
	headers := []any{"#", "Description", "Qty", fmt.Sprintf("Rate (%s)", doc.Meta.Currency), fmt.Sprintf("Amount (%s)", doc.Meta.Currency)}
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(sheet, cell, &headers); err != nil {
		return nil, fmt.Errorf("render/xlsx: header row: %w", err)
	}
	hFirst, _ := excelize.CoordinatesToCellName(1, headerRow)
	hLast, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	_ = f.SetCellStyle(sheet, hFirst, hLast, headerStyle)

	// Reprint the column header on every printed page.
	if err := f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Titles",
		RefersTo: fmt.Sprintf("'%s'!$%d:$%d", sheet, headerRow, headerRow),
		Scope:    sheet,
	}); err != nil && r.logger != nil {
		r.logger.Warn("set print titles", slog.Any("error", err))
	}

	row = headerRow + 1
	pageUsed := 0.0
	for i, line := range doc.Lines {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render/xlsx: %s: %w", doc.Meta.Number, err)
		}
		rowPts := estimateRowPts(line.Description)
		if pageUsed+rowPts > xlsxPageBudget {
			brk, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.InsertPageBreak(sheet, brk); err != nil && r.logger != nil {
				r.logger.Warn("insert page break", slog.Any("error", err))
			}
			pageUsed = 0
		}
		pageUsed += rowPts

		values := []any{
			i + 1,
			line.Description,
			line.Quantity.InexactFloat64(),
			line.UnitPrice.InexactFloat64(),
			line.Total.InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("render/xlsx: line row %d: %w", i+1, err)
		}
		if i%2 == 1 {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(2, row)
			_ = f.SetCellStyle(sheet, first, last, shadedStyle)
		}
		dFirst, _ := excelize.CoordinatesToCellName(4, row)
		dLast, _ := excelize.CoordinatesToCellName(5, row)
		_ = f.SetCellStyle(sheet, dFirst, dLast, amountStyle)
		row++
	}

	row++
	type summaryRow struct {
		label string
		value float64
		style int
	}
	summary := []summaryRow{{"Subtotal", doc.Totals.Subtotal.InexactFloat64(), amountStyle}}
	if doc.Totals.DiscountAmount.IsPositive() {
		label := "Discount"
		if doc.Meta.DiscountLabel != "" {
			label = doc.Meta.DiscountLabel
		}
		summary = append(summary,
			summaryRow{label, doc.Totals.DiscountAmount.Neg().InexactFloat64(), amountStyle},
			summaryRow{"Taxable Value", doc.Totals.TaxableBase.InexactFloat64(), amountStyle},
		)
	}
	summary = append(summary,
		summaryRow{fmt.Sprintf("GST @ %s%%", doc.Meta.TaxRatePercent), doc.Totals.TaxAmount.InexactFloat64(), amountStyle},
		summaryRow{fmt.Sprintf("Total (%s)", doc.Meta.Currency), doc.Totals.Total.InexactFloat64(), boldAmountStyle},
	)
	for _, s := range summary {
		labelCell, _ := excelize.CoordinatesToCellName(4, row)
		valueCell, _ := excelize.CoordinatesToCellName(5, row)
		_ = f.SetCellValue(sheet, labelCell, s.label)
		_ = f.SetCellValue(sheet, valueCell, s.value)
		_ = f.SetCellStyle(sheet, valueCell, valueCell, s.style)
		row++
	}

	row++
	wordsCell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetCellValue(sheet, wordsCell, "Amount in Words: "+doc.AmountInWords())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render/xlsx: write %s: %w", doc.Meta.Number, err)
	}
	return buf.Bytes(), nil
}

func sheetName(k Kind) string {
	if k == KindProposal {
		return "Proposal"
	}
	return "Invoice"
}

// estimateRowPts approximates the printed height of a row from the wrapped
// line count of its description.
func estimateRowPts(desc string) float64 {
	lines := 1 + len(desc)/xlsxDescWrapAt
	return float64(lines) * xlsxBaseRowPts
}
