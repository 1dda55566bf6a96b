package proposals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/udyogbooks/udyogbooks/internal/billing/invoices"
	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/render"
	"github.com/udyogbooks/udyogbooks/internal/settings"
)

var (
	ErrInvalidStatus    = errors.New("invalid status transition")
	ErrNotDraft         = errors.New("only DRAFT proposals can be edited")
	ErrNotAccepted      = errors.New("only ACCEPTED proposals can be converted")
	ErrAlreadyConverted = errors.New("proposal is already converted to an invoice")
)

// defaultValidityDays sets how long a proposal stays open when the caller
// gives no explicit valid-until date.
const defaultValidityDays = 30

// ProfileSource yields the company profile and its renderer projection;
// satisfied by settings.Service.
type ProfileSource interface {
	Get(ctx context.Context) (*settings.Profile, error)
	RenderCompany(ctx context.Context) (render.Company, error)
}

// InvoiceCreator turns an accepted proposal into a real invoice; satisfied
// by invoices.Service.
type InvoiceCreator interface {
	Create(ctx context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error)
}

type Service struct {
	repo       Repository
	clientRepo clients.Repository
	profiles   ProfileSource
	invoicer   InvoiceCreator
	onWrite    func()
	now        func() time.Time
}

func NewService(repo Repository, clientRepo clients.Repository, profiles ProfileSource, invoicer InvoiceCreator) *Service {
	return &Service{
		repo:       repo,
		clientRepo: clientRepo,
		profiles:   profiles,
		invoicer:   invoicer,
		now:        time.Now,
	}
}

// OnWrite registers a hook run after any state-changing operation.
func (s *Service) OnWrite(fn func()) {
	s.onWrite = fn
}

func (s *Service) notifyWrite() {
	if s.onWrite != nil {
		s.onWrite()
	}
}

func (s *Service) Create(ctx context.Context, req CreateProposalRequest) (*Proposal, error) {
	client, err := s.clientRepo.Get(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load company profile: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = profile.DefaultCurrency
	}
	taxRate := decimal.NewFromFloat(profile.DefaultTaxRate)
	if req.TaxRate != nil {
		taxRate = decimal.NewFromFloat(*req.TaxRate)
	}

	validUntil := req.IssueDate.AddDate(0, 0, defaultValidityDays)
	if req.ValidUntil != nil {
		validUntil = *req.ValidUntil
	}
	if validUntil.Before(req.IssueDate) {
		return nil, fmt.Errorf("%w: valid-until precedes issue date", totals.ErrInvalidLine)
	}

	lines, discount, computed, err := priceLines(req.Lines, req.DiscountType, req.DiscountValue, taxRate)
	if err != nil {
		return nil, err
	}

	proposal := Proposal{
		ClientID:       req.ClientID,
		IssueDate:      req.IssueDate,
		ValidUntil:     validUntil,
		Status:         StatusDraft,
		Currency:       currency,
		DiscountType:   discount.Type,
		DiscountValue:  discount.Value,
		TaxRate:        taxRate,
		Subtotal:       computed.Subtotal,
		DiscountAmount: computed.DiscountAmount,
		TaxableBase:    computed.TaxableBase,
		TaxAmount:      computed.TaxAmount,
		Total:          computed.Total,
		InterState:     client.StateCode != profile.StateCode,
		Notes:          req.Notes,
	}

	var proposalID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.GenerateNumber(ctx, req.IssueDate)
		if err != nil {
			return fmt.Errorf("generate proposal number: %w", err)
		}
		proposal.Number = number

		proposalID, err = repo.Create(ctx, proposal)
		if err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		return repo.ReplaceLines(ctx, proposalID, lines)
	})
	if err != nil {
		return nil, err
	}

	s.notifyWrite()
	return s.repo.Get(ctx, proposalID)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProposalRequest) (*Proposal, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if existing.Status != StatusDraft {
		return nil, ErrNotDraft
	}

	updates := make(map[string]interface{})
	if req.IssueDate != nil {
		updates["issue_date"] = *req.IssueDate
	}
	if req.ValidUntil != nil {
		updates["valid_until"] = *req.ValidUntil
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	// Any pricing input change reprices the whole document.
	repricing := req.Lines != nil || req.DiscountType != nil || req.DiscountValue != nil || req.TaxRate != nil
	var newLines []ProposalLine
	if repricing {
		lineReqs := linesAsRequests(existing.Lines)
		if req.Lines != nil {
			lineReqs = *req.Lines
		}
		discountType := string(existing.DiscountType)
		if req.DiscountType != nil {
			discountType = *req.DiscountType
		}
		discountValue := existing.DiscountValue.InexactFloat64()
		if req.DiscountValue != nil {
			discountValue = *req.DiscountValue
		}
		taxRate := existing.TaxRate
		if req.TaxRate != nil {
			taxRate = decimal.NewFromFloat(*req.TaxRate)
		}

		lines, discount, computed, err := priceLines(lineReqs, discountType, discountValue, taxRate)
		if err != nil {
			return nil, err
		}
		newLines = lines
		updates["discount_type"] = string(discount.Type)
		updates["discount_value"] = discount.Value.String()
		updates["tax_rate"] = taxRate.String()
		updates["subtotal"] = computed.Subtotal.String()
		updates["discount_amount"] = computed.DiscountAmount.String()
		updates["taxable_base"] = computed.TaxableBase.String()
		updates["tax_amount"] = computed.TaxAmount.String()
		updates["total"] = computed.Total.String()
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return err
			}
		}
		if newLines != nil {
			return repo.ReplaceLines(ctx, id, newLines)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}

	s.notifyWrite()
	return s.repo.Get(ctx, id)
}

func (s *Service) Send(ctx context.Context, id int64) (*Proposal, error) {
	return s.transition(ctx, id, StatusSent)
}

func (s *Service) Accept(ctx context.Context, id int64) (*Proposal, error) {
	return s.transition(ctx, id, StatusAccepted)
}

func (s *Service) Reject(ctx context.Context, id int64) (*Proposal, error) {
	return s.transition(ctx, id, StatusRejected)
}

func (s *Service) transition(ctx context.Context, id int64, to ProposalStatus) (*Proposal, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if !CanTransition(existing.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, existing.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.notifyWrite()
	return s.repo.Get(ctx, id)
}

// ConvertToInvoice reprices the accepted proposal's lines through the invoice
// pipeline and records the resulting invoice on the proposal. Conversion is
// one-shot; the proposal keeps its ACCEPTED status.
func (s *Service) ConvertToInvoice(ctx context.Context, id int64) (*invoices.Invoice, error) {
	proposal, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if proposal.Status != StatusAccepted {
		return nil, ErrNotAccepted
	}
	if proposal.ConvertedInvoiceID != nil {
		return nil, ErrAlreadyConverted
	}

	taxRate := proposal.TaxRate.InexactFloat64()
	req := invoices.CreateInvoiceRequest{
		ClientID:      proposal.ClientID,
		IssueDate:     dateOnly(s.now()),
		Currency:      proposal.Currency,
		DiscountType:  string(proposal.DiscountType),
		DiscountValue: proposal.DiscountValue.InexactFloat64(),
		TaxRate:       &taxRate,
		Notes:         proposal.Notes,
	}
	for _, l := range proposal.Lines {
		req.Lines = append(req.Lines, invoices.LineRequest{
			Description: l.Description,
			Quantity:    l.Quantity.InexactFloat64(),
			UnitPrice:   l.UnitPrice.InexactFloat64(),
			LineOrder:   l.LineOrder,
		})
	}

	invoice, err := s.invoicer.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create invoice from proposal: %w", err)
	}
	if err := s.repo.SetConverted(ctx, id, invoice.ID); err != nil {
		return nil, fmt.Errorf("record conversion: %w", err)
	}

	s.notifyWrite()
	return invoice, nil
}

// MarkExpired flips every SENT proposal past its valid-until date; the
// scheduler runs it daily.
func (s *Service) MarkExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark expired: %w", err)
	}
	if n > 0 {
		s.notifyWrite()
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Proposal, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProposalsRequest) ([]ProposalWithClient, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

func priceLines(reqs []LineRequest, discountType string, discountValue float64, taxRate decimal.Decimal) ([]ProposalLine, totals.DiscountSpec, totals.DocumentTotals, error) {
	items := make([]totals.LineItem, len(reqs))
	lines := make([]ProposalLine, len(reqs))
	for i, lr := range reqs {
		qty := decimal.NewFromFloat(lr.Quantity)
		price := decimal.NewFromFloat(lr.UnitPrice)
		items[i] = totals.LineItem{Description: lr.Description, Quantity: qty, UnitPrice: price}
		order := lr.LineOrder
		if order == 0 {
			order = i + 1
		}
		lines[i] = ProposalLine{
			Description: lr.Description,
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   items[i].Total(),
			LineOrder:   order,
		}
	}

	discount := totals.DiscountSpec{
		Type:  discountTypeFrom(discountType),
		Value: decimal.NewFromFloat(discountValue),
	}

	computed, err := totals.Compute(items, discount, taxRate)
	if err != nil {
		return nil, totals.DiscountSpec{}, totals.DocumentTotals{}, err
	}
	return lines, discount, computed, nil
}

func linesAsRequests(lines []ProposalLine) []LineRequest {
	reqs := make([]LineRequest, len(lines))
	for i, l := range lines {
		reqs[i] = LineRequest{
			Description: l.Description,
			Quantity:    l.Quantity.InexactFloat64(),
			UnitPrice:   l.UnitPrice.InexactFloat64(),
			LineOrder:   l.LineOrder,
		}
	}
	return reqs
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
