package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/settings"
	"github.com/udyogbooks/udyogbooks/internal/vendors"
)

type memRepository struct {
	nextID   int64
	expenses map[int64]*Expense
}

func newMemRepository() *memRepository {
	return &memRepository{expenses: make(map[int64]*Expense)}
}

func (m *memRepository) Get(ctx context.Context, id int64) (*Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *memRepository) List(ctx context.Context, req ListExpensesRequest) ([]ExpenseWithVendor, int, error) {
	var out []ExpenseWithVendor
	for _, e := range m.expenses {
		out = append(out, ExpenseWithVendor{Expense: *e})
	}
	return out, len(out), nil
}

func (m *memRepository) Create(ctx context.Context, e Expense) (int64, error) {
	m.nextID++
	e.ID = m.nextID
	m.expenses[e.ID] = &e
	return e.ID, nil
}

func (m *memRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	e, ok := m.expenses[id]
	if !ok {
		return ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "client_id":
			if v == nil {
				e.ClientID = nil
			} else {
				val := v.(int64)
				e.ClientID = &val
			}
		case "category":
			e.Category = v.(string)
		case "description":
			s := v.(string)
			e.Description = &s
		case "expense_date":
			e.ExpenseDate = v.(time.Time)
		case "tax_rate":
			e.TaxRate = decimal.RequireFromString(v.(string))
		case "taxable_base":
			e.TaxableBase = decimal.RequireFromString(v.(string))
		case "tax_amount":
			e.TaxAmount = decimal.RequireFromString(v.(string))
		case "total":
			e.Total = decimal.RequireFromString(v.(string))
		case "notes":
			s := v.(string)
			e.Notes = &s
		}
	}
	return nil
}

func (m *memRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.expenses[id]; !ok {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *memRepository) Categories(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, e := range m.expenses {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out, nil
}

type stubVendorRepo struct {
	byID map[int64]*vendors.Vendor
}

func (s *stubVendorRepo) WithTx(ctx context.Context, fn func(context.Context, vendors.Repository) error) error {
	return fn(ctx, s)
}

func (s *stubVendorRepo) Get(ctx context.Context, id int64) (*vendors.Vendor, error) {
	v, ok := s.byID[id]
	if !ok {
		return nil, vendors.ErrNotFound
	}
	return v, nil
}

func (s *stubVendorRepo) List(ctx context.Context, req vendors.ListVendorsRequest) ([]vendors.Vendor, int, error) {
	return nil, 0, nil
}

func (s *stubVendorRepo) Create(ctx context.Context, v vendors.Vendor) (int64, error) {
	return 0, nil
}

func (s *stubVendorRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
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

func newTestService(t *testing.T) (*Service, *memRepository) {
	t.Helper()
	repo := newMemRepository()
	vendorRepo := &stubVendorRepo{byID: map[int64]*vendors.Vendor{
		1: {ID: 1, Name: "Gupta Supplies", StateCode: "29"},
		2: {ID: 2, Name: "Mumbai Paper Co", StateCode: "27"},
	}}
	clientRepo := &stubClientRepo{byID: map[int64]*clients.Client{
		1: {ID: 1, Name: "Sharma Traders", StateCode: "29"},
	}}
	profiles := &stubProfileSource{profile: settings.Profile{
		LegalName:      "UdyogBooks Test Co",
		StateCode:      "29",
		DefaultTaxRate: 18,
	}}
	return NewService(repo, vendorRepo, clientRepo, profiles), repo
}

func TestCreateComputesTaxAndSupplyType(t *testing.T) {
	svc, _ := newTestService(t)

	intra, err := svc.Create(context.Background(), CreateExpenseRequest{
		VendorID:    1,
		Category:    "Office Supplies",
		ExpenseDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:      1000,
	})
	require.NoError(t, err)
	require.Equal(t, "1000", intra.TaxableBase.String())
	require.Equal(t, "180", intra.TaxAmount.String())
	require.Equal(t, "1180", intra.Total.String())
	require.False(t, intra.InterState)

	inter, err := svc.Create(context.Background(), CreateExpenseRequest{
		VendorID:    2,
		Category:    "Printing",
		ExpenseDate: time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		Amount:      500,
	})
	require.NoError(t, err)
	require.True(t, inter.InterState)
}

func TestCreateWithExplicitRate(t *testing.T) {
	svc, _ := newTestService(t)

	rate := 5.0
	e, err := svc.Create(context.Background(), CreateExpenseRequest{
		VendorID:    1,
		Category:    "Courier",
		ExpenseDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:      200,
		TaxRate:     &rate,
	})
	require.NoError(t, err)
	require.Equal(t, "10", e.TaxAmount.String())
	require.Equal(t, "210", e.Total.String())
}

func TestCreateRejectsUnknownVendor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateExpenseRequest{
		VendorID:    99,
		Category:    "Office Supplies",
		ExpenseDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:      100,
	})
	require.ErrorIs(t, err, vendors.ErrNotFound)
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	svc, _ := newTestService(t)

	clientID := int64(42)
	_, err := svc.Create(context.Background(), CreateExpenseRequest{
		VendorID:    1,
		ClientID:    &clientID,
		Category:    "Travel",
		ExpenseDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:      100,
	})
	require.ErrorIs(t, err, clients.ErrNotFound)
}

func TestUpdateAmountReprices(t *testing.T) {
	svc, _ := newTestService(t)

	e, err := svc.Create(context.Background(), CreateExpenseRequest{
		VendorID:    1,
		Category:    "Office Supplies",
		ExpenseDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:      1000,
	})
	require.NoError(t, err)

	amount := 2000.0
	updated, err := svc.Update(context.Background(), e.ID, UpdateExpenseRequest{Amount: &amount})
	require.NoError(t, err)
	require.Equal(t, "2000", updated.TaxableBase.String())
	require.Equal(t, "360", updated.TaxAmount.String())
	require.Equal(t, "2360", updated.Total.String())
}

func TestUpdateCanClearClientLink(t *testing.T) {
	svc, repo := newTestService(t)

	clientID := int64(1)
	e, err := svc.Create(context.Background(), CreateExpenseRequest{
		VendorID:    1,
		ClientID:    &clientID,
		Category:    "Travel",
		ExpenseDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:      100,
	})
	require.NoError(t, err)
	require.NotNil(t, e.ClientID)

	zero := int64(0)
	updated, err := svc.Update(context.Background(), e.ID, UpdateExpenseRequest{ClientID: &zero})
	require.NoError(t, err)
	require.Nil(t, updated.ClientID)
	require.Nil(t, repo.expenses[e.ID].ClientID)
}

func TestDeleteFiresWriteHook(t *testing.T) {
	svc, _ := newTestService(t)

	var busts int
	svc.OnWrite(func() { busts++ })

	e, err := svc.Create(context.Background(), CreateExpenseRequest{
		VendorID:    1,
		Category:    "Office Supplies",
		ExpenseDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:      100,
	})
	require.NoError(t, err)
	require.Equal(t, 1, busts)

	require.NoError(t, svc.Delete(context.Background(), e.ID))
	require.Equal(t, 2, busts)

	_, err = svc.Get(context.Background(), e.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
