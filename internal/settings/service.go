package settings

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/udyogbooks/udyogbooks/internal/render"
)

type Service struct {
	logger *slog.Logger
	repo   Repository
}

func NewService(logger *slog.Logger, repo Repository) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Profile, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, req UpdateProfileRequest) (*Profile, error) {
	updates := make(map[string]interface{})
	if req.LegalName != nil {
		updates["legal_name"] = *req.LegalName
	}
	if req.GSTIN != nil {
		updates["gstin"] = *req.GSTIN
	}
	if req.StateCode != nil {
		updates["state_code"] = *req.StateCode
	}
	if req.AddressLines != nil {
		updates["address_lines"] = *req.AddressLines
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.BankName != nil {
		updates["bank_name"] = *req.BankName
	}
	if req.BankAccount != nil {
		updates["bank_account"] = *req.BankAccount
	}
	if req.BankIFSC != nil {
		updates["bank_ifsc"] = *req.BankIFSC
	}
	if req.UPIID != nil {
		updates["upi_id"] = *req.UPIID
	}
	if req.LogoPath != nil {
		updates["logo_path"] = *req.LogoPath
	}
	if req.PaymentTerms != nil {
		updates["payment_terms"] = *req.PaymentTerms
	}
	if req.DefaultCurrency != nil {
		updates["default_currency"] = *req.DefaultCurrency
	}
	if req.DefaultTaxRate != nil {
		updates["default_tax_rate"] = *req.DefaultTaxRate
	}
	if req.InvoiceDueDays != nil {
		updates["invoice_due_days"] = *req.InvoiceDueDays
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, updates); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	return s.repo.Get(ctx)
}

// RenderCompany projects the profile into the shape the document renderers
// take. A missing or unreadable logo degrades to no logo.
func (s *Service) RenderCompany(ctx context.Context) (render.Company, error) {
	p, err := s.repo.Get(ctx)
	if err != nil {
		return render.Company{}, err
	}

	company := render.Company{
		Party: render.Party{
			Name:      p.LegalName,
			Address:   strings.Join(p.AddressLines, "\n"),
			StateCode: p.StateCode,
			GSTIN:     deref(p.GSTIN),
			Email:     deref(p.Email),
			Phone:     deref(p.Phone),
		},
		BankName:    deref(p.BankName),
		BankAccount: deref(p.BankAccount),
		BankIFSC:    deref(p.BankIFSC),
		UPIID:       deref(p.UPIID),
		Terms:       deref(p.PaymentTerms),
	}

	if p.LogoPath != nil && *p.LogoPath != "" {
		logo, err := os.ReadFile(*p.LogoPath)
		if err != nil {
			s.logger.Warn("company logo unreadable", slog.String("path", *p.LogoPath), slog.Any("error", err))
		} else {
			company.LogoPNG = logo
		}
	}
	return company, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
