package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/render"
	"github.com/udyogbooks/udyogbooks/internal/settings"
)

type memRepository struct {
	nextID   int64
	invoices map[int64]*Invoice
	seq      map[string]int64
}

func newMemRepository() *memRepository {
	return &memRepository{invoices: make(map[int64]*Invoice), seq: make(map[string]int64)}
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (m *memRepository) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithClient, int, error) {
	var out []InvoiceWithClient
	for _, inv := range m.invoices {
		out = append(out, InvoiceWithClient{Invoice: *inv})
	}
	return out, len(out), nil
}

func (m *memRepository) Create(ctx context.Context, inv Invoice) (int64, error) {
	m.nextID++
	inv.ID = m.nextID
	m.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (m *memRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "issue_date":
			inv.IssueDate = v.(time.Time)
		case "due_date":
			inv.DueDate = v.(time.Time)
		case "notes":
			s := v.(string)
			inv.Notes = &s
		case "discount_type":
			inv.DiscountType = discountTypeFrom(v.(string))
		case "discount_value":
			inv.DiscountValue = decimal.RequireFromString(v.(string))
		case "tax_rate":
			inv.TaxRate = decimal.RequireFromString(v.(string))
		case "subtotal":
			inv.Subtotal = decimal.RequireFromString(v.(string))
		case "discount_amount":
			inv.DiscountAmount = decimal.RequireFromString(v.(string))
		case "taxable_base":
			inv.TaxableBase = decimal.RequireFromString(v.(string))
		case "tax_amount":
			inv.TaxAmount = decimal.RequireFromString(v.(string))
		case "total":
			inv.Total = decimal.RequireFromString(v.(string))
		}
	}
	return nil
}

func (m *memRepository) ReplaceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error {
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return ErrNotFound
	}
	inv.Lines = lines
	return nil
}

func (m *memRepository) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus, paidAt *time.Time) error {
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	if paidAt != nil {
		inv.PaidAt = paidAt
	}
	return nil
}

func (m *memRepository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	period := date.Format("200601")
	m.seq[period]++
	return fmt.Sprintf("INV-%s-%04d", period, m.seq[period]), nil
}

func (m *memRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, inv := range m.invoices {
		if inv.Status == StatusSent && inv.DueDate.Before(asOf) {
			inv.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

type stubClientRepo struct {
	byID map[int64]*clients.Client
}

func (s *stubClientRepo) WithTx(ctx context.Context, fn func(context.Context, clients.Repository) error) error {
	return fn(ctx, s)
}

func (s *stubClientRepo) Get(ctx context.Context, id int64) (*clients.Client, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, clients.ErrNotFound
	}
	return c, nil
}

func (s *stubClientRepo) List(ctx context.Context, req clients.ListClientsRequest) ([]clients.Client, int, error) {
	return nil, 0, nil
}

func (s *stubClientRepo) Create(ctx context.Context, c clients.Client) (int64, error) {
	return 0, nil
}

func (s *stubClientRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
}

type stubProfileSource struct {
	profile settings.Profile
}

func (s *stubProfileSource) Get(ctx context.Context) (*settings.Profile, error) {
	p := s.profile
	return &p, nil
}

func (s *stubProfileSource) RenderCompany(ctx context.Context) (render.Company, error) {
	return render.Company{Party: render.Party{Name: s.profile.LegalName, StateCode: s.profile.StateCode}}, nil
}

func newTestService(t *testing.T) (*Service, *memRepository, *stubClientRepo) {
	t.Helper()
	repo := newMemRepository()
	clientRepo := &stubClientRepo{byID: map[int64]*clients.Client{
		1: {ID: 1, Name: "Sharma Traders", StateCode: "29", PaymentTermsDays: 15},
		2: {ID: 2, Name: "Delhi Metals", StateCode: "07"},
	}}
	profiles := &stubProfileSource{profile: settings.Profile{
		LegalName:       "UdyogBooks Test Co",
		StateCode:       "29",
		DefaultCurrency: "INR",
		DefaultTaxRate:  18,
		InvoiceDueDays:  30,
	}}
	svc := NewService(repo, clientRepo, profiles)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc, repo, clientRepo
}

func TestCreateComputesTotalsServerSide(t *testing.T) {
	svc, _, _ := newTestService(t)

	issue := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:      1,
		IssueDate:     issue,
		DiscountType:  "PERCENTAGE",
		DiscountValue: 10,
		Lines: []LineRequest{
			{Description: "Consulting", Quantity: 2, UnitPrice: 500},
			{Description: "Support retainer", Quantity: 1, UnitPrice: 1000},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "INV-202603-0001", inv.Number)
	require.Equal(t, StatusDraft, inv.Status)
	require.Equal(t, "INR", inv.Currency)
	require.Equal(t, "2000", inv.Subtotal.String())
	require.Equal(t, "200", inv.DiscountAmount.String())
	require.Equal(t, "1800", inv.TaxableBase.String())
	require.Equal(t, "324", inv.TaxAmount.String())
	require.Equal(t, "2124", inv.Total.String())
	require.False(t, inv.InterState)
	require.Len(t, inv.Lines, 2)

	// Client payment terms (15 days) win over the profile default.
	require.Equal(t, issue.AddDate(0, 0, 15), inv.DueDate)
}

func TestCreateClassifiesInterState(t *testing.T) {
	svc, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:  2,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Steel rods", Quantity: 10, UnitPrice: 250}},
	})
	require.NoError(t, err)
	require.True(t, inv.InterState)

	// No client payment terms, so the profile default applies.
	require.Equal(t, inv.IssueDate.AddDate(0, 0, 30), inv.DueDate)
}

func TestCreateRejectsDueBeforeIssue(t *testing.T) {
	svc, _, _ := newTestService(t)

	issue := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due := issue.AddDate(0, 0, -1)
	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:  1,
		IssueDate: issue,
		DueDate:   &due,
		Lines:     []LineRequest{{Description: "Consulting", Quantity: 1, UnitPrice: 100}},
	})
	require.Error(t, err)
}

func TestCreateUnknownClient(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:  99,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Consulting", Quantity: 1, UnitPrice: 100}},
	})
	require.ErrorIs(t, err, clients.ErrNotFound)
}

func TestUpdateRepricesOnDiscountChange(t *testing.T) {
	svc, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:  1,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Consulting", Quantity: 1, UnitPrice: 1000}},
	})
	require.NoError(t, err)
	require.Equal(t, "1180", inv.Total.String())

	discountType := "FIXED"
	discountValue := 100.0
	updated, err := svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
	})
	require.NoError(t, err)
	require.Equal(t, "100", updated.DiscountAmount.String())
	require.Equal(t, "900", updated.TaxableBase.String())
	require.Equal(t, "162", updated.TaxAmount.String())
	require.Equal(t, "1062", updated.Total.String())
}

func TestUpdateRejectsNonDraft(t *testing.T) {
	svc, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:  1,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Consulting", Quantity: 1, UnitPrice: 1000}},
	})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), inv.ID)
	require.NoError(t, err)

	notes := "late edit"
	_, err = svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestStatusTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:  1,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Consulting", Quantity: 1, UnitPrice: 1000}},
	})
	require.NoError(t, err)

	// DRAFT cannot be paid directly.
	_, err = svc.MarkPaid(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	sent, err := svc.Send(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)

	paid, err := svc.MarkPaid(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// PAID is terminal.
	_, err = svc.Cancel(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestMarkOverdueFlipsPastDueSent(t *testing.T) {
	svc, repo, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:  1,
		IssueDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Consulting", Quantity: 1, UnitPrice: 1000}},
	})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), inv.ID)
	require.NoError(t, err)

	n, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Equal(t, StatusOverdue, repo.invoices[inv.ID].Status)

	// OVERDUE can still be collected.
	paid, err := svc.MarkPaid(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
}

func TestWriteHookFiresOnStateChanges(t *testing.T) {
	svc, _, _ := newTestService(t)

	var busts int
	svc.OnWrite(func() { busts++ })

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID:  1,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Consulting", Quantity: 1, UnitPrice: 1000}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, busts)

	_, err = svc.Send(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 2, busts)
}
