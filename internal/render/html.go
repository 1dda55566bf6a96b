package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/udyogbooks/udyogbooks/internal/money"
	"github.com/udyogbooks/udyogbooks/internal/upi"
	"github.com/udyogbooks/udyogbooks/web"
)

// HTMLRenderer executes the embedded printable-document template. The same
// bytes serve as the browser print view and as input for archival.
type HTMLRenderer struct {
	templates *template.Template
	logger    *slog.Logger
}

type htmlData struct {
	Doc         Document
	QRDataURI   template.URL
	LogoDataURI template.URL
}

// NewHTML parses the embedded templates once at construction.
func NewHTML(logger *slog.Logger) (*HTMLRenderer, error) {
	funcMap := template.FuncMap{
		"formatMoney": func(amount decimal.Decimal, code string) string {
			return money.Format(amount, code)
		},
		"formatDate": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				return v.Format("02 Jan 2006")
			case *time.Time:
				if v == nil {
					return ""
				}
				return v.Format("02 Jan 2006")
			default:
				return ""
			}
		},
		"inc": func(i int) int { return i + 1 },
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/documents/*.html")
	if err != nil {
		return nil, fmt.Errorf("render/html: parse templates: %w", err)
	}
	return &HTMLRenderer{templates: tpl, logger: logger}, nil
}

// Format implements Renderer.
func (r *HTMLRenderer) Format() Format { return FormatHTML }

// Render implements Renderer.
func (r *HTMLRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render/html: %s: %w", doc.Meta.Number, err)
	}
	data := htmlData{Doc: doc}
	if len(doc.Company.LogoPNG) > 0 {
		data.LogoDataURI = pngDataURI(doc.Company.LogoPNG)
	}
	if doc.Meta.Kind == KindInvoice && doc.Company.UPIID != "" {
		payload := upi.PayURL(doc.Company.UPIID, doc.Company.Name, doc.Totals.Total, doc.Meta.Number)
		img, err := upi.QRPNG(payload)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("skip upi qr", slog.String("document", doc.Meta.Number), slog.Any("error", err))
			}
		} else {
			data.QRDataURI = pngDataURI(img)
		}
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "documents/document.html", data); err != nil {
		return nil, fmt.Errorf("render/html: execute %s: %w", doc.Meta.Number, err)
	}
	return buf.Bytes(), nil
}

func pngDataURI(img []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
}
