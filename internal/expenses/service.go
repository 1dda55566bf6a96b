package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/settings"
	"github.com/udyogbooks/udyogbooks/internal/vendors"
)

// ProfileSource yields the company profile; satisfied by settings.Service.
type ProfileSource interface {
	Get(ctx context.Context) (*settings.Profile, error)
}

// Service owns expense records. Tax amounts run through the same totals
// calculator as invoices so the purchase register reconciles with it.
type Service struct {
	repo       Repository
	vendorRepo vendors.Repository
	clientRepo clients.Repository
	profiles   ProfileSource
	onWrite    func()
	now        func() time.Time
}

func NewService(repo Repository, vendorRepo vendors.Repository, clientRepo clients.Repository, profiles ProfileSource) *Service {
	return &Service{
		repo:       repo,
		vendorRepo: vendorRepo,
		clientRepo: clientRepo,
		profiles:   profiles,
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

func (s *Service) Create(ctx context.Context, req CreateExpenseRequest) (*Expense, error) {
	vendor, err := s.vendorRepo.Get(ctx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("verify vendor: %w", err)
	}
	if req.ClientID != nil {
		if _, err := s.clientRepo.Get(ctx, *req.ClientID); err != nil {
			return nil, fmt.Errorf("verify client: %w", err)
		}
	}

	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load company profile: %w", err)
	}

	taxRate := decimal.NewFromFloat(profile.DefaultTaxRate)
	if req.TaxRate != nil {
		taxRate = decimal.NewFromFloat(*req.TaxRate)
	}

	computed, err := priceExpense(req.Amount, taxRate)
	if err != nil {
		return nil, err
	}

	expense := Expense{
		VendorID:    req.VendorID,
		ClientID:    req.ClientID,
		Category:    req.Category,
		Description: req.Description,
		ExpenseDate: req.ExpenseDate,
		TaxRate:     taxRate,
		TaxableBase: computed.TaxableBase,
		TaxAmount:   computed.TaxAmount,
		Total:       computed.Total,
		InterState:  vendor.StateCode != profile.StateCode,
		Notes:       req.Notes,
	}

	id, err := s.repo.Create(ctx, expense)
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.notifyWrite()
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateExpenseRequest) (*Expense, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}

	updates := make(map[string]interface{})
	if req.ClientID != nil {
		if *req.ClientID == 0 {
			updates["client_id"] = nil
		} else {
			if _, err := s.clientRepo.Get(ctx, *req.ClientID); err != nil {
				return nil, fmt.Errorf("verify client: %w", err)
			}
			updates["client_id"] = *req.ClientID
		}
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ExpenseDate != nil {
		updates["expense_date"] = *req.ExpenseDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if req.Amount != nil || req.TaxRate != nil {
		amount := existing.TaxableBase.InexactFloat64()
		if req.Amount != nil {
			amount = *req.Amount
		}
		taxRate := existing.TaxRate
		if req.TaxRate != nil {
			taxRate = decimal.NewFromFloat(*req.TaxRate)
		}

		computed, err := priceExpense(amount, taxRate)
		if err != nil {
			return nil, err
		}
		updates["tax_rate"] = taxRate.String()
		updates["taxable_base"] = computed.TaxableBase.String()
		updates["tax_amount"] = computed.TaxAmount.String()
		updates["total"] = computed.Total.String()
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update expense: %w", err)
		}
		s.notifyWrite()
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.notifyWrite()
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Expense, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListExpensesRequest) ([]ExpenseWithVendor, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// priceExpense treats the expense as a one-line document with no discount so
// its tax comes out of the same calculator the invoices use.
func priceExpense(amount float64, taxRate decimal.Decimal) (totals.DocumentTotals, error) {
	items := []totals.LineItem{{
		Description: "expense",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromFloat(amount),
	}}
	return totals.Compute(items, totals.DiscountSpec{Type: totals.DiscountFixed, Value: decimal.Zero}, taxRate)
}
