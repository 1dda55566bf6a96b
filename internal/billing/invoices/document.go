package invoices

import (
	"context"
	"fmt"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/render"
)

// RenderDocument assembles the renderer input for one invoice. Amounts come
// from the stored totals; the renderers never price anything themselves.
func (s *Service) RenderDocument(ctx context.Context, id int64) (render.Document, error) {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return render.Document{}, fmt.Errorf("get invoice: %w", err)
	}

	client, err := s.clientRepo.Get(ctx, invoice.ClientID)
	if err != nil {
		return render.Document{}, fmt.Errorf("get client: %w", err)
	}

	company, err := s.profiles.RenderCompany(ctx)
	if err != nil {
		return render.Document{}, fmt.Errorf("load company profile: %w", err)
	}

	dueDate := invoice.DueDate
	doc := render.Document{
		Meta: render.Meta{
			Kind:           render.KindInvoice,
			Number:         invoice.Number,
			IssueDate:      invoice.IssueDate,
			DueDate:        &dueDate,
			Status:         string(invoice.Status),
			Currency:       invoice.Currency,
			Notes:          derefString(invoice.Notes),
			TaxRatePercent: invoice.TaxRate,
			DiscountLabel:  discountLabel(invoice),
		},
		Company:      company,
		Counterparty: clientParty(client),
		Lines:        renderLines(invoice.Lines),
		Totals:       invoice.Totals(),
	}
	return doc, nil
}

func renderLines(lines []InvoiceLine) []render.Line {
	out := make([]render.Line, len(lines))
	for i, l := range lines {
		out[i] = render.Line{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.LineTotal,
		}
	}
	return out
}

func clientParty(c *clients.Client) render.Party {
	party := render.Party{
		Name:      c.Name,
		StateCode: c.StateCode,
		GSTIN:     derefString(c.GSTIN),
		Email:     derefString(c.Email),
		Phone:     derefString(c.Phone),
	}
	address := derefString(c.BillingAddress)
	if city := derefString(c.City); city != "" {
		if address != "" {
			address += "\n"
		}
		address += city
		if postal := derefString(c.PostalCode); postal != "" {
			address += " " + postal
		}
	}
	party.Address = address
	party.City = derefString(c.City)
	return party
}

func discountLabel(inv *Invoice) string {
	if inv.DiscountAmount.IsZero() {
		return ""
	}
	if inv.DiscountType == totals.DiscountPercentage {
		return fmt.Sprintf("Discount (%s%%)", inv.DiscountValue.StringFixed(0))
	}
	return "Discount"
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
