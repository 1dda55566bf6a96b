package proposals

import (
	"context"
	"fmt"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/render"
)

// RenderDocument assembles the renderer input for one proposal. Amounts come
// from the stored totals. Proposals carry no payment block; the renderers
// skip the UPI QR for this kind.
func (s *Service) RenderDocument(ctx context.Context, id int64) (render.Document, error) {
	proposal, err := s.repo.Get(ctx, id)
	if err != nil {
		return render.Document{}, fmt.Errorf("get proposal: %w", err)
	}

	client, err := s.clientRepo.Get(ctx, proposal.ClientID)
	if err != nil {
		return render.Document{}, fmt.Errorf("get client: %w", err)
	}

	company, err := s.profiles.RenderCompany(ctx)
	if err != nil {
		return render.Document{}, fmt.Errorf("load company profile: %w", err)
	}

	validUntil := proposal.ValidUntil
	doc := render.Document{
		Meta: render.Meta{
			Kind:           render.KindProposal,
			Number:         proposal.Number,
			IssueDate:      proposal.IssueDate,
			DueDate:        &validUntil,
			Status:         string(proposal.Status),
			Currency:       proposal.Currency,
			Notes:          derefString(proposal.Notes),
			TaxRatePercent: proposal.TaxRate,
			DiscountLabel:  discountLabel(proposal),
		},
		Company:      company,
		Counterparty: clientParty(client),
		Lines:        renderLines(proposal.Lines),
		Totals:       proposal.Totals(),
	}
	return doc, nil
}

func renderLines(lines []ProposalLine) []render.Line {
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

func discountLabel(p *Proposal) string {
	if p.DiscountAmount.IsZero() {
		return ""
	}
	if p.DiscountType == totals.DiscountPercentage {
		return fmt.Sprintf("Discount (%s%%)", p.DiscountValue.StringFixed(0))
	}
	return "Discount"
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
