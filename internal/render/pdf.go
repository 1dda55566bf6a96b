package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/jung-kurt/gofpdf"

	"github.com/udyogbooks/udyogbooks/internal/money"
	"github.com/udyogbooks/udyogbooks/internal/upi"
)

const (
	pdfMarginLeft   = 12.0
	pdfMarginTop    = 14.0
	pdfMarginRight  = 12.0
	pdfPageBottom   = 272.0 // content limit on A4 before footer
	pdfLineHeight   = 5.0
	pdfRowPadding   = 2.0
	pdfHeaderHeight = 8.0
)

// column widths, mm; sums to the printable width of an A4 portrait page.
var pdfCols = []float64{12, 89, 20, 32, 33}

// PDFRenderer draws the document directly with gofpdf. Page breaks are
// content-driven: a row that would overflow the vertical budget starts a new
// page and the column header is reprinted.
type PDFRenderer struct {
	logger *slog.Logger
}

// NewPDF constructs a PDF renderer.
func NewPDF(logger *slog.Logger) *PDFRenderer {
	return &PDFRenderer{logger: logger}
}

// Format implements Renderer.
func (r *PDFRenderer) Format() Format { return FormatPDF }

// Render implements Renderer.
func (r *PDFRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginLeft, pdfMarginTop, pdfMarginRight)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("%s %s", doc.Meta.Kind.Title(), doc.Meta.Number), true)
	pdf.AddPage()

	r.drawLetterhead(pdf, doc)
	r.drawParties(pdf, doc)
	r.drawTableHeader(pdf)

	fill := false
	for i, line := range doc.Lines {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render/pdf: %s: %w", doc.Meta.Number, err)
		}
		descLines := pdf.SplitText(line.Description, pdfCols[1]-2*pdfRowPadding)
		rowH := float64(len(descLines))*pdfLineHeight + 2*pdfRowPadding
		if pdf.GetY()+rowH > pdfPageBottom {
			pdf.AddPage()
			r.drawTableHeader(pdf)
		}
		r.drawRow(pdf, i+1, line, descLines, rowH, doc.Meta.Currency, fill)
		fill = !fill
	}

	r.drawTotals(pdf, doc)
	r.drawPaymentBlock(pdf, doc)
	r.drawFooter(pdf, doc)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render/pdf: %s: %w", doc.Meta.Number, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render/pdf: output %s: %w", doc.Meta.Number, err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) drawLetterhead(pdf *gofpdf.Fpdf, doc Document) {
	x := pdfMarginLeft
	if len(doc.Company.LogoPNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("company-logo", opts, bytes.NewReader(doc.Company.LogoPNG))
		if pdf.Err() {
			// A broken logo must not sink the whole document.
			if r.logger != nil {
				r.logger.Warn("skip company logo", slog.String("document", doc.Meta.Number), slog.Any("error", pdf.Error()))
			}
			pdf.ClearError()
		} else {
			pdf.ImageOptions("company-logo", x, pdfMarginTop, 24, 0, false, opts, 0, "")
			x += 28
		}
	}

	pdf.SetXY(x, pdfMarginTop)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 7, doc.Company.Name, "", 1, "L", false, 0, "")
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "", 9)
	for _, l := range []string{doc.Company.Address, companyContactLine(doc.Company), gstinLine(doc.Company.Party)} {
		if l == "" {
			continue
		}
		pdf.CellFormat(0, 4.5, l, "", 1, "L", false, 0, "")
		pdf.SetX(x)
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, doc.Meta.Kind.Title(), "T", 1, "C", false, 0, "")
}

func (r *PDFRenderer) drawParties(pdf *gofpdf.Fpdf, doc Document) {
	pdf.Ln(2)
	top := pdf.GetY()
	half := (210 - pdfMarginLeft - pdfMarginRight) / 2

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(half, 5, billedPartyLabel(doc.Meta.Kind), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, l := range partyLines(doc.Counterparty) {
		pdf.CellFormat(half, 4.5, l, "", 1, "L", false, 0, "")
	}
	left := pdf.GetY()

	pdf.SetXY(pdfMarginLeft+half, top)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(half, 5, "Document Details", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	details := []string{
		"Number: " + doc.Meta.Number,
		"Date: " + doc.Meta.IssueDate.Format("02 Jan 2006"),
	}
	if doc.Meta.DueDate != nil {
		details = append(details, "Due: "+doc.Meta.DueDate.Format("02 Jan 2006"))
	}
	if doc.Meta.Status != "" {
		details = append(details, "Status: "+doc.Meta.Status)
	}
	details = append(details, "Currency: "+doc.Meta.Currency)
	for _, l := range details {
		pdf.SetX(pdfMarginLeft + half)
		pdf.CellFormat(half, 4.5, l, "", 1, "L", false, 0, "")
	}
	if pdf.GetY() < left {
		pdf.SetY(left)
	}
	pdf.Ln(3)
}

func (r *PDFRenderer) drawTableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(225, 228, 235)
	headers := []string{"#", "Description", "Qty", "Rate", "Amount"}
	aligns := []string{"C", "L", "R", "R", "R"}
	for i, h := range headers {
		pdf.CellFormat(pdfCols[i], pdfHeaderHeight, h, "1", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func (r *PDFRenderer) drawRow(pdf *gofpdf.Fpdf, n int, line Line, descLines []string, rowH float64, currency string, fill bool) {
	// Shading alternates per row; it is presentation only and never feeds
	// back into any computed value.
	pdf.SetFillColor(246, 247, 249)
	x, y := pdfMarginLeft, pdf.GetY()

	pdf.Rect(x, y, sum(pdfCols), rowH, borderStyle(fill))
	pdf.SetXY(x, y+pdfRowPadding)
	pdf.CellFormat(pdfCols[0], pdfLineHeight, fmt.Sprintf("%d", n), "", 0, "C", false, 0, "")
	descX := x + pdfCols[0]
	for i, dl := range descLines {
		pdf.SetXY(descX, y+pdfRowPadding+float64(i)*pdfLineHeight)
		pdf.CellFormat(pdfCols[1], pdfLineHeight, dl, "", 0, "L", false, 0, "")
	}
	pdf.SetXY(descX+pdfCols[1], y+pdfRowPadding)
	pdf.CellFormat(pdfCols[2], pdfLineHeight, line.Quantity.String(), "", 0, "R", false, 0, "")
	pdf.CellFormat(pdfCols[3], pdfLineHeight, money.Group(line.UnitPrice, currency), "", 0, "R", false, 0, "")
	pdf.CellFormat(pdfCols[4], pdfLineHeight, money.Group(line.Total, currency), "", 0, "R", false, 0, "")
	pdf.SetXY(x, y+rowH)
	r.drawColumnRules(pdf, y, rowH)
}

func (r *PDFRenderer) drawColumnRules(pdf *gofpdf.Fpdf, y, rowH float64) {
	x := pdfMarginLeft
	for _, w := range pdfCols[:len(pdfCols)-1] {
		x += w
		pdf.Line(x, y, x, y+rowH)
	}
}

func (r *PDFRenderer) drawTotals(pdf *gofpdf.Fpdf, doc Document) {
	if pdf.GetY()+60 > pdfPageBottom {
		pdf.AddPage()
	}
	pdf.Ln(3)
	labelW, valueW := 45.0, 33.0
	indent := sum(pdfCols) - labelW - valueW + pdfMarginLeft
	cur := doc.Meta.Currency

	type totalRow struct {
		label string
		value string
		bold  bool
	}
	rows := []totalRow{{"Subtotal", money.Group(doc.Totals.Subtotal, cur), false}}
	if doc.Totals.DiscountAmount.IsPositive() {
		label := "Discount"
		if doc.Meta.DiscountLabel != "" {
			label = doc.Meta.DiscountLabel
		}
		rows = append(rows,
			totalRow{label, "-" + money.Group(doc.Totals.DiscountAmount, cur), false},
			totalRow{"Taxable Value", money.Group(doc.Totals.TaxableBase, cur), false},
		)
	}
	rows = append(rows,
		totalRow{fmt.Sprintf("GST @ %s%%", doc.Meta.TaxRatePercent.String()), money.Group(doc.Totals.TaxAmount, cur), false},
		totalRow{fmt.Sprintf("Total (%s)", cur), money.Group(doc.Totals.Total, cur), true},
	)

	for _, row := range rows {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9.5)
		pdf.SetX(indent)
		pdf.CellFormat(labelW, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 6, row.value, "B", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Amount in Words: "+doc.AmountInWords(), "", "L", false)
}

func (r *PDFRenderer) drawPaymentBlock(pdf *gofpdf.Fpdf, doc Document) {
	if pdf.GetY()+42 > pdfPageBottom {
		pdf.AddPage()
	}
	pdf.Ln(4)
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 5, "Payment Details", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, l := range []string{
		nonEmpty("Bank: ", doc.Company.BankName),
		nonEmpty("Account: ", doc.Company.BankAccount),
		nonEmpty("IFSC: ", doc.Company.BankIFSC),
		nonEmpty("UPI: ", doc.Company.UPIID),
	} {
		if l == "" {
			continue
		}
		pdf.CellFormat(0, 4.5, l, "", 1, "L", false, 0, "")
	}

	if doc.Meta.Kind == KindInvoice && doc.Company.UPIID != "" {
		payload := upi.PayURL(doc.Company.UPIID, doc.Company.Name, doc.Totals.Total, doc.Meta.Number)
		img, err := upi.QRPNG(payload)
		if err != nil {
			// QR failure degrades to a document without the scan block.
			if r.logger != nil {
				r.logger.Warn("skip upi qr", slog.String("document", doc.Meta.Number), slog.Any("error", err))
			}
			return
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("upi-qr", opts, bytes.NewReader(img))
		pdf.ImageOptions("upi-qr", 210-pdfMarginRight-32, top, 32, 32, false, opts, 0, "")
		pdf.SetXY(210-pdfMarginRight-32, top+33)
		pdf.SetFont("Helvetica", "", 7.5)
		pdf.CellFormat(32, 4, "Scan to pay", "", 1, "C", false, 0, "")
	}
}

func (r *PDFRenderer) drawFooter(pdf *gofpdf.Fpdf, doc Document) {
	if doc.Company.Terms == "" && doc.Meta.Notes == "" {
		return
	}
	if pdf.GetY()+25 > pdfPageBottom {
		pdf.AddPage()
	}
	pdf.Ln(5)
	if doc.Meta.Notes != "" {
		pdf.SetFont("Helvetica", "B", 8.5)
		pdf.CellFormat(0, 4.5, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8.5)
		pdf.MultiCell(0, 4, doc.Meta.Notes, "", "L", false)
		pdf.Ln(2)
	}
	if doc.Company.Terms != "" {
		pdf.SetFont("Helvetica", "B", 8.5)
		pdf.CellFormat(0, 4.5, "Terms & Conditions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8.5)
		pdf.MultiCell(0, 4, doc.Company.Terms, "", "L", false)
	}
}

func borderStyle(fill bool) string {
	if fill {
		return "DF"
	}
	return "D"
}

func sum(ws []float64) float64 {
	var t float64
	for _, w := range ws {
		t += w
	}
	return t
}

func nonEmpty(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func billedPartyLabel(k Kind) string {
	if k == KindProposal {
		return "Prepared For"
	}
	return "Billed To"
}

func companyContactLine(c Company) string {
	switch {
	case c.Email != "" && c.Phone != "":
		return c.Email + " | " + c.Phone
	case c.Email != "":
		return c.Email
	default:
		return c.Phone
	}
}

func gstinLine(p Party) string {
	if p.GSTIN == "" {
		return ""
	}
	return "GSTIN: " + p.GSTIN
}

func partyLines(p Party) []string {
	lines := []string{p.Name}
	for _, l := range []string{p.Address, p.City, gstinLine(p), p.Email, p.Phone} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
