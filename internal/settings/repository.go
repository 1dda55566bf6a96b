package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("profile not configured")

// Repository persists the company profile. The table holds exactly one row.
type Repository interface {
	Get(ctx context.Context) (*Profile, error)
	Update(ctx context.Context, updates map[string]interface{}) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context) (*Profile, error) {
	query := `
		SELECT id, legal_name, gstin, state_code, address_lines, phone, email,
		       bank_name, bank_account, bank_ifsc, upi_id, logo_path, payment_terms,
		       default_currency, default_tax_rate, invoice_due_days, updated_at
		FROM company_profile
		ORDER BY id
		LIMIT 1`

	var p Profile
	var gstin, phone, email, bankName, bankAccount, bankIFSC, upiID, logoPath, terms pgtype.Text
	var taxRate pgtype.Numeric
	var updatedAt pgtype.Timestamptz

	err := r.pool.QueryRow(ctx, query).Scan(
		&p.ID, &p.LegalName, &gstin, &p.StateCode, &p.AddressLines, &phone, &email,
		&bankName, &bankAccount, &bankIFSC, &upiID, &logoPath, &terms,
		&p.DefaultCurrency, &taxRate, &p.InvoiceDueDays, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.GSTIN = textPtr(gstin)
	p.Phone = textPtr(phone)
	p.Email = textPtr(email)
	p.BankName = textPtr(bankName)
	p.BankAccount = textPtr(bankAccount)
	p.BankIFSC = textPtr(bankIFSC)
	p.UPIID = textPtr(upiID)
	p.LogoPath = textPtr(logoPath)
	p.PaymentTerms = textPtr(terms)
	if taxRate.Valid {
		f, _ := taxRate.Float64Value()
		p.DefaultTaxRate = f.Float64
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

func (r *repository) Update(ctx context.Context, updates map[string]interface{}) error {
	query := "UPDATE company_profile SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"legal_name", "gstin", "state_code", "address_lines", "phone", "email",
		"bank_name", "bank_account", "bank_ifsc", "upi_id", "logo_path",
		"payment_terms", "default_currency", "default_tax_rate", "invoice_due_days",
	} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}
