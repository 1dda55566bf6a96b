package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	open     []InvoiceRecord
	issued   []InvoiceRecord
	expenses []ExpenseRecord

	openCalls   int
	issuedCalls int
}

func (s *stubRepository) OpenInvoices(ctx context.Context) ([]InvoiceRecord, error) {
	s.openCalls++
	return s.open, nil
}

func (s *stubRepository) IssuedInvoices(ctx context.Context, f Filters) ([]InvoiceRecord, error) {
	s.issuedCalls++
	return s.issued, nil
}

func (s *stubRepository) Expenses(ctx context.Context, f Filters) ([]ExpenseRecord, error) {
	return s.expenses, nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(nil, repo)
	svc.now = func() time.Time { return day(2026, time.March, 15) }
	return svc
}

func TestServiceAgingCachesSnapshot(t *testing.T) {
	repo := &stubRepository{open: []InvoiceRecord{
		{ID: 1, Status: "OVERDUE", DueDate: day(2026, time.January, 1), Total: decimal.NewFromInt(100)},
	}}
	svc := newTestService(repo)

	first, err := svc.Aging(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, Bucket61To90, first[0].Bucket)

	_, err = svc.Aging(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.openCalls, "second request must hit the cache")

	svc.Bust()
	_, err = svc.Aging(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.openCalls, "bust drops the cached snapshot")
}

func TestServiceRevenueByClient(t *testing.T) {
	clientID := int64(7)
	repo := &stubRepository{
		issued: []InvoiceRecord{
			{ClientID: clientID, ClientName: "Acme Retail LLP", Status: "PAID", Total: decimal.NewFromInt(2000)},
		},
		expenses: []ExpenseRecord{
			{ClientID: &clientID, Total: decimal.NewFromInt(500)},
		},
	}
	svc := newTestService(repo)

	rows, err := svc.RevenueByClient(context.Background(), Filters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Profit.Equal(decimal.NewFromInt(1500)))
	assert.True(t, rows[0].MarginPercent.Equal(decimal.NewFromInt(75)))
}

func TestServiceGSTRegistersShareFilterCacheKeys(t *testing.T) {
	repo := &stubRepository{issued: []InvoiceRecord{
		{Number: "INV-202603-0001", Status: "SENT", InterState: true, TaxAmount: decimal.NewFromInt(36), TaxableBase: decimal.NewFromInt(200), Total: decimal.NewFromInt(236)},
	}}
	svc := newTestService(repo)

	from := day(2026, time.March, 1)
	f := Filters{From: &from}
	rows, err := svc.GSTSales(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IGST.Equal(decimal.NewFromInt(36)))

	// Same filters, different report: distinct cache entries, one more fetch.
	_, err = svc.GSTSales(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.issuedCalls)
}
