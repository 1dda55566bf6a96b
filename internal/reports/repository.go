package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgRepository reads report snapshots straight from PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const invoiceColumns = `
	i.id, i.number, i.client_id, c.name, COALESCE(c.gstin, ''),
	i.issue_date, i.due_date, i.status,
	i.taxable_base, i.tax_amount, i.total, i.inter_state`

// OpenInvoices returns every invoice that can still age: sent or overdue.
func (r *PgRepository) OpenInvoices(ctx context.Context) ([]InvoiceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.status IN ('SENT', 'OVERDUE')
		ORDER BY i.due_date ASC, i.id ASC`, invoiceColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// IssuedInvoices returns invoices issued inside the filter window, all
// statuses included; the aggregators decide what counts.
func (r *PgRepository) IssuedInvoices(ctx context.Context, f Filters) ([]InvoiceRecord, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if f.From != nil {
		conditions = append(conditions, fmt.Sprintf("i.issue_date >= $%d", argPos))
		args = append(args, *f.From)
		argPos++
	}
	if f.To != nil {
		conditions = append(conditions, fmt.Sprintf("i.issue_date <= $%d", argPos))
		args = append(args, *f.To)
		argPos++
	}
	if f.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("i.client_id = $%d", argPos))
		args = append(args, *f.ClientID)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		%s
		ORDER BY i.issue_date ASC, i.id ASC`, invoiceColumns, whereClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// Expenses returns expenses inside the filter window.
func (r *PgRepository) Expenses(ctx context.Context, f Filters) ([]ExpenseRecord, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if f.From != nil {
		conditions = append(conditions, fmt.Sprintf("e.expense_date >= $%d", argPos))
		args = append(args, *f.From)
		argPos++
	}
	if f.To != nil {
		conditions = append(conditions, fmt.Sprintf("e.expense_date <= $%d", argPos))
		args = append(args, *f.To)
		argPos++
	}
	if f.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("e.client_id = $%d", argPos))
		args = append(args, *f.ClientID)
		argPos++
	}
	if f.Category != nil {
		conditions = append(conditions, fmt.Sprintf("e.category = $%d", argPos))
		args = append(args, *f.Category)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	query := fmt.Sprintf(`
		SELECT e.id, v.name, COALESCE(v.gstin, ''), e.category, e.client_id,
		       e.expense_date, e.taxable_base, e.tax_amount, e.total, e.inter_state
		FROM expenses e
		JOIN vendors v ON v.id = e.vendor_id
		%s
		ORDER BY e.expense_date ASC, e.id ASC`, whereClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ExpenseRecord
	for rows.Next() {
		var rec ExpenseRecord
		var clientID pgtype.Int8
		var date pgtype.Date
		var base, tax, total pgtype.Numeric

		if err := rows.Scan(
			&rec.ID, &rec.VendorName, &rec.GSTIN, &rec.Category, &clientID,
			&date, &base, &tax, &total, &rec.InterState,
		); err != nil {
			return nil, err
		}
		if clientID.Valid {
			val := clientID.Int64
			rec.ClientID = &val
		}
		if date.Valid {
			rec.Date = date.Time
		}
		rec.TaxableBase = numericToDecimal(base)
		rec.TaxAmount = numericToDecimal(tax)
		rec.Total = numericToDecimal(total)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanInvoices(rows pgx.Rows) ([]InvoiceRecord, error) {
	var records []InvoiceRecord
	for rows.Next() {
		var rec InvoiceRecord
		var issueDate, dueDate pgtype.Date
		var base, tax, total pgtype.Numeric

		if err := rows.Scan(
			&rec.ID, &rec.Number, &rec.ClientID, &rec.ClientName, &rec.GSTIN,
			&issueDate, &dueDate, &rec.Status,
			&base, &tax, &total, &rec.InterState,
		); err != nil {
			return nil, err
		}
		if issueDate.Valid {
			rec.IssueDate = issueDate.Time
		}
		if dueDate.Valid {
			rec.DueDate = dueDate.Time
		}
		rec.TaxableBase = numericToDecimal(base)
		rec.TaxAmount = numericToDecimal(tax)
		rec.Total = numericToDecimal(total)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
