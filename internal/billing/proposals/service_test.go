package proposals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/udyogbooks/udyogbooks/internal/billing/invoices"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/render"
	"github.com/udyogbooks/udyogbooks/internal/settings"
)

type memRepository struct {
	nextID    int64
	proposals map[int64]*Proposal
	seq       map[string]int64
}

func newMemRepository() *memRepository {
	return &memRepository{proposals: make(map[int64]*Proposal), seq: make(map[string]int64)}
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepository) Get(ctx context.Context, id int64) (*Proposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memRepository) List(ctx context.Context, req ListProposalsRequest) ([]ProposalWithClient, int, error) {
	var out []ProposalWithClient
	for _, p := range m.proposals {
		out = append(out, ProposalWithClient{Proposal: *p})
	}
	return out, len(out), nil
}

func (m *memRepository) Create(ctx context.Context, p Proposal) (int64, error) {
	m.nextID++
	p.ID = m.nextID
	m.proposals[p.ID] = &p
	return p.ID, nil
}

func (m *memRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	p, ok := m.proposals[id]
	if !ok {
		return ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "issue_date":
			p.IssueDate = v.(time.Time)
		case "valid_until":
			p.ValidUntil = v.(time.Time)
		case "notes":
			s := v.(string)
			p.Notes = &s
		case "discount_type":
			p.DiscountType = discountTypeFrom(v.(string))
		case "discount_value":
			p.DiscountValue = decimal.RequireFromString(v.(string))
		case "tax_rate":
			p.TaxRate = decimal.RequireFromString(v.(string))
		case "subtotal":
			p.Subtotal = decimal.RequireFromString(v.(string))
		case "discount_amount":
			p.DiscountAmount = decimal.RequireFromString(v.(string))
		case "taxable_base":
			p.TaxableBase = decimal.RequireFromString(v.(string))
		case "tax_amount":
			p.TaxAmount = decimal.RequireFromString(v.(string))
		case "total":
			p.Total = decimal.RequireFromString(v.(string))
		}
	}
	return nil
}

func (m *memRepository) ReplaceLines(ctx context.Context, proposalID int64, lines []ProposalLine) error {
	p, ok := m.proposals[proposalID]
	if !ok {
		return ErrNotFound
	}
	p.Lines = lines
	return nil
}

func (m *memRepository) UpdateStatus(ctx context.Context, id int64, status ProposalStatus) error {
	p, ok := m.proposals[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *memRepository) SetConverted(ctx context.Context, id, invoiceID int64) error {
	p, ok := m.proposals[id]
	if !ok || p.ConvertedInvoiceID != nil {
		return ErrNotFound
	}
	p.ConvertedInvoiceID = &invoiceID
	return nil
}

func (m *memRepository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	period := date.Format("200601")
	m.seq[period]++
	return fmt.Sprintf("PRO-%s-%04d", period, m.seq[period]), nil
}

func (m *memRepository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, p := range m.proposals {
		if p.Status == StatusSent && p.ValidUntil.Before(asOf) {
			p.Status = StatusExpired
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

type stubInvoicer struct {
	created []invoices.CreateInvoiceRequest
	fail    error
}

func (s *stubInvoicer) Create(ctx context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.created = append(s.created, req)
	return &invoices.Invoice{ID: int64(100 + len(s.created)), Number: "INV-202603-0001"}, nil
}

func newTestService(t *testing.T) (*Service, *memRepository, *stubInvoicer) {
	t.Helper()
	repo := newMemRepository()
	clientRepo := &stubClientRepo{byID: map[int64]*clients.Client{
		1: {ID: 1, Name: "Sharma Traders", StateCode: "29"},
		2: {ID: 2, Name: "Delhi Metals", StateCode: "07"},
	}}
	profiles := &stubProfileSource{profile: settings.Profile{
		LegalName:       "UdyogBooks Test Co",
		StateCode:       "29",
		DefaultCurrency: "INR",
		DefaultTaxRate:  18,
		InvoiceDueDays:  30,
	}}
	invoicer := &stubInvoicer{}
	svc := NewService(repo, clientRepo, profiles, invoicer)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc, repo, invoicer
}

func createDraft(t *testing.T, svc *Service) *Proposal {
	t.Helper()
	p, err := svc.Create(context.Background(), CreateProposalRequest{
		ClientID:  1,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Website redesign", Quantity: 1, UnitPrice: 50000}},
	})
	require.NoError(t, err)
	return p
}

func TestCreateDefaultsValidity(t *testing.T) {
	svc, _, _ := newTestService(t)

	p := createDraft(t, svc)
	require.Equal(t, "PRO-202603-0001", p.Number)
	require.Equal(t, StatusDraft, p.Status)
	require.Equal(t, p.IssueDate.AddDate(0, 0, defaultValidityDays), p.ValidUntil)
	require.Equal(t, "50000", p.Subtotal.String())
	require.Equal(t, "9000", p.TaxAmount.String())
	require.Equal(t, "59000", p.Total.String())
	require.False(t, p.InterState)
}

func TestCreateRejectsValidUntilBeforeIssue(t *testing.T) {
	svc, _, _ := newTestService(t)

	issue := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	until := issue.AddDate(0, 0, -1)
	_, err := svc.Create(context.Background(), CreateProposalRequest{
		ClientID:   1,
		IssueDate:  issue,
		ValidUntil: &until,
		Lines:      []LineRequest{{Description: "Website redesign", Quantity: 1, UnitPrice: 50000}},
	})
	require.Error(t, err)
}

func TestUpdateRepricesDraft(t *testing.T) {
	svc, _, _ := newTestService(t)

	p := createDraft(t, svc)
	lines := []LineRequest{{Description: "Website redesign", Quantity: 1, UnitPrice: 40000}}
	updated, err := svc.Update(context.Background(), p.ID, UpdateProposalRequest{Lines: &lines})
	require.NoError(t, err)
	require.Equal(t, "40000", updated.Subtotal.String())
	require.Equal(t, "47200", updated.Total.String())
}

func TestTransitionsAndTerminalStates(t *testing.T) {
	svc, _, _ := newTestService(t)

	p := createDraft(t, svc)

	// DRAFT cannot be accepted directly.
	_, err := svc.Accept(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	sent, err := svc.Send(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)

	rejected, err := svc.Reject(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)

	// REJECTED is terminal.
	_, err = svc.Send(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestConvertRequiresAccepted(t *testing.T) {
	svc, _, invoicer := newTestService(t)

	p := createDraft(t, svc)
	_, err := svc.ConvertToInvoice(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrNotAccepted)

	_, err = svc.Send(context.Background(), p.ID)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), p.ID)
	require.NoError(t, err)

	invoice, err := svc.ConvertToInvoice(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotZero(t, invoice.ID)
	require.Len(t, invoicer.created, 1)
	require.Equal(t, p.ClientID, invoicer.created[0].ClientID)
	require.Len(t, invoicer.created[0].Lines, 1)
	require.Equal(t, 50000.0, invoicer.created[0].Lines[0].UnitPrice)

	// Conversion is one-shot.
	_, err = svc.ConvertToInvoice(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrAlreadyConverted)
}

func TestMarkExpiredFlipsStaleSent(t *testing.T) {
	svc, repo, _ := newTestService(t)

	p, err := svc.Create(context.Background(), CreateProposalRequest{
		ClientID:  1,
		IssueDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Lines:     []LineRequest{{Description: "Website redesign", Quantity: 1, UnitPrice: 50000}},
	})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), p.ID)
	require.NoError(t, err)

	n, err := svc.MarkExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Equal(t, StatusExpired, repo.proposals[p.ID].Status)
}
