package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/render"
	"github.com/udyogbooks/udyogbooks/internal/settings"
)

var (
	ErrInvalidStatus = errors.New("invalid status transition")
	ErrNotDraft      = errors.New("only DRAFT invoices can be edited")
)

// ProfileSource yields the company profile and its renderer projection;
// satisfied by settings.Service.
type ProfileSource interface {
	Get(ctx context.Context) (*settings.Profile, error)
	RenderCompany(ctx context.Context) (render.Company, error)
}

// Service owns invoice lifecycle and is the only writer of invoice amounts:
// every create and edit reprices the document through the totals calculator.
type Service struct {
	repo       Repository
	clientRepo clients.Repository
	profiles   ProfileSource
	onWrite    func()
	now        func() time.Time
}

func NewService(repo Repository, clientRepo clients.Repository, profiles ProfileSource) *Service {
	return &Service{
		repo:       repo,
		clientRepo: clientRepo,
		profiles:   profiles,
		now:        time.Now,
	}
}

// OnWrite registers a hook run after any state-changing operation; the app
// wires it to the report cache bust.
func (s *Service) OnWrite(fn func()) {
	s.onWrite = fn
}

func (s *Service) notifyWrite() {
	if s.onWrite != nil {
		s.onWrite()
	}
}

func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
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

	dueDate := req.IssueDate.AddDate(0, 0, dueDays(client, profile))
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if dueDate.Before(req.IssueDate) {
		return nil, fmt.Errorf("%w: due date precedes issue date", totals.ErrInvalidLine)
	}

	lines, discount, computed, err := priceLines(req.Lines, req.DiscountType, req.DiscountValue, taxRate)
	if err != nil {
		return nil, err
	}

	invoice := Invoice{
		ClientID:       req.ClientID,
		IssueDate:      req.IssueDate,
		DueDate:        dueDate,
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

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.GenerateNumber(ctx, req.IssueDate)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}
		invoice.Number = number

		invoiceID, err = repo.Create(ctx, invoice)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return repo.ReplaceLines(ctx, invoiceID, lines)
	})
	if err != nil {
		return nil, err
	}

	s.notifyWrite()
	return s.repo.Get(ctx, invoiceID)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if existing.Status != StatusDraft {
		return nil, ErrNotDraft
	}

	updates := make(map[string]interface{})
	if req.IssueDate != nil {
		updates["issue_date"] = *req.IssueDate
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	// Any pricing input change reprices the whole document.
	repricing := req.Lines != nil || req.DiscountType != nil || req.DiscountValue != nil || req.TaxRate != nil
	var newLines []InvoiceLine
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
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	s.notifyWrite()
	return s.repo.Get(ctx, id)
}

func (s *Service) Send(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, StatusSent, nil)
}

func (s *Service) MarkPaid(ctx context.Context, id int64) (*Invoice, error) {
	paidAt := s.now()
	return s.transition(ctx, id, StatusPaid, &paidAt)
}

func (s *Service) Cancel(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, StatusCancelled, nil)
}

func (s *Service) transition(ctx context.Context, id int64, to InvoiceStatus, paidAt *time.Time) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if !CanTransition(existing.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, existing.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to, paidAt); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.notifyWrite()
	return s.repo.Get(ctx, id)
}

// MarkOverdue flips every past-due SENT invoice; the scheduler runs it daily.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	if n > 0 {
		s.notifyWrite()
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithClient, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// priceLines runs the calculator over request lines and returns storable
// line rows together with the document totals.
func priceLines(reqs []LineRequest, discountType string, discountValue float64, taxRate decimal.Decimal) ([]InvoiceLine, totals.DiscountSpec, totals.DocumentTotals, error) {
	items := make([]totals.LineItem, len(reqs))
	lines := make([]InvoiceLine, len(reqs))
	for i, lr := range reqs {
		qty := decimal.NewFromFloat(lr.Quantity)
		price := decimal.NewFromFloat(lr.UnitPrice)
		items[i] = totals.LineItem{Description: lr.Description, Quantity: qty, UnitPrice: price}
		order := lr.LineOrder
		if order == 0 {
			order = i + 1
		}
		lines[i] = InvoiceLine{
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

func linesAsRequests(lines []InvoiceLine) []LineRequest {
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

func dueDays(client *clients.Client, profile *settings.Profile) int {
	if client.PaymentTermsDays > 0 {
		return client.PaymentTermsDays
	}
	return profile.InvoiceDueDays
}
