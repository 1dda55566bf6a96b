package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Repository supplies the raw record windows the aggregators consume.
type Repository interface {
	OpenInvoices(ctx context.Context) ([]InvoiceRecord, error)
	IssuedInvoices(ctx context.Context, f Filters) ([]InvoiceRecord, error)
	Expenses(ctx context.Context, f Filters) ([]ExpenseRecord, error)
}

// Service assembles report rows from repository snapshots. Results for a
// given filter set are cached briefly and built once under concurrent load.
type Service struct {
	logger *slog.Logger
	repo   Repository
	cache  *reportCache
	now    func() time.Time
}

func NewService(logger *slog.Logger, repo Repository) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger: logger,
		repo:   repo,
		cache:  newReportCache(reportCacheTTL),
		now:    time.Now,
	}
}

// Aging returns outstanding receivables bucketed by days overdue as of today.
func (s *Service) Aging(ctx context.Context) ([]AgingRow, error) {
	today := s.now()
	key := fmt.Sprintf("aging|%s", today.Format("2006-01-02"))
	rows, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		invoices, err := s.repo.OpenInvoices(ctx)
		if err != nil {
			return nil, fmt.Errorf("reports: load open invoices: %w", err)
		}
		return BuildAging(invoices, today), nil
	})
	if err != nil {
		return nil, err
	}
	return rows.([]AgingRow), nil
}

// RevenueByClient returns per-client revenue, cost and margin for the window.
func (s *Service) RevenueByClient(ctx context.Context, f Filters) ([]RevenueRow, error) {
	key := cacheKey("revenue", f)
	rows, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		invoices, err := s.repo.IssuedInvoices(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("reports: load invoices: %w", err)
		}
		expenses, err := s.repo.Expenses(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("reports: load expenses: %w", err)
		}
		return BuildClientRevenue(invoices, expenses), nil
	})
	if err != nil {
		return nil, err
	}
	return rows.([]RevenueRow), nil
}

// GSTSales returns the outward-supply register for the window.
func (s *Service) GSTSales(ctx context.Context, f Filters) ([]GSTRow, error) {
	key := cacheKey("gst_sales", f)
	rows, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		invoices, err := s.repo.IssuedInvoices(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("reports: load invoices: %w", err)
		}
		return BuildGSTSales(invoices), nil
	})
	if err != nil {
		return nil, err
	}
	return rows.([]GSTRow), nil
}

// GSTPurchases returns the inward-supply register for the window.
func (s *Service) GSTPurchases(ctx context.Context, f Filters) ([]GSTRow, error) {
	key := cacheKey("gst_purchases", f)
	rows, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		expenses, err := s.repo.Expenses(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("reports: load expenses: %w", err)
		}
		return BuildGSTPurchases(expenses), nil
	})
	if err != nil {
		return nil, err
	}
	return rows.([]GSTRow), nil
}

// Bust drops every cached report; called after invoice or expense writes.
func (s *Service) Bust() {
	s.cache.Bust()
}

func (s *Service) cached(ctx context.Context, key string, build func(context.Context) (any, error)) (any, error) {
	if v, ok := s.cache.Get(key); ok {
		reportCacheHits.Inc()
		return v, nil
	}
	reportCacheMisses.Inc()

	v, err, shared := singleflightBuild(ctx, key, build)
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("report build shared", slog.String("key", key))
	}
	s.cache.Set(key, v)
	return v, nil
}
