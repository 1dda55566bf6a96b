package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/udyogbooks/udyogbooks/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithClient, int, error)
	Create(ctx context.Context, invoice Invoice) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	ReplaceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error
	UpdateStatus(ctx context.Context, id int64, status InvoiceStatus, paidAt *time.Time) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const invoiceColumns = `i.id, i.number, i.client_id, i.issue_date, i.due_date, i.status,
	i.currency, i.discount_type, i.discount_value, i.tax_rate,
	i.subtotal, i.discount_amount, i.taxable_base, i.tax_amount, i.total,
	i.inter_state, i.notes, i.paid_at, i.created_at, i.updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices i WHERE i.id = $1", invoiceColumns)
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return inv, nil
}

func (r *repository) lines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, line_total, line_order
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_order, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		var qty, price, total pgtype.Numeric
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &qty, &price, &total, &l.LineOrder); err != nil {
			return nil, err
		}
		l.Quantity = numericToDecimal(qty)
		l.UnitPrice = numericToDecimal(price)
		l.LineTotal = numericToDecimal(total)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithClient, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("i.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("i.issue_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("i.issue_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices i %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, c.name AS client_name
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		%s
		ORDER BY i.issue_date DESC, i.id DESC
		LIMIT $%d OFFSET $%d`, invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []InvoiceWithClient
	for rows.Next() {
		item, err := scanInvoiceWithClient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *item)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	query := `
		INSERT INTO invoices (
			number, client_id, issue_date, due_date, status, currency,
			discount_type, discount_value, tax_rate,
			subtotal, discount_amount, taxable_base, tax_amount, total,
			inter_state, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		inv.Number,
		inv.ClientID,
		inv.IssueDate,
		inv.DueDate,
		string(inv.Status),
		inv.Currency,
		string(inv.DiscountType),
		inv.DiscountValue.String(),
		inv.TaxRate.String(),
		inv.Subtotal.String(),
		inv.DiscountAmount.String(),
		inv.TaxableBase.String(),
		inv.TaxAmount.String(),
		inv.Total.String(),
		inv.InterState,
		textOrNull(inv.Notes),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE invoices SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"issue_date", "due_date", "discount_type", "discount_value", "tax_rate",
		"subtotal", "discount_amount", "taxable_base", "tax_amount", "total", "notes",
	} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM invoice_lines WHERE invoice_id = $1", invoiceID); err != nil {
		return err
	}
	for _, l := range lines {
		_, err := r.db.Exec(ctx, `
			INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, line_total, line_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			invoiceID, l.Description, l.Quantity.String(), l.UnitPrice.String(), l.LineTotal.String(), l.LineOrder,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus, paidAt *time.Time) error {
	var paid pgtype.Timestamptz
	if paidAt != nil {
		paid = pgtype.Timestamptz{Time: *paidAt, Valid: true}
	}
	tag, err := r.db.Exec(ctx,
		"UPDATE invoices SET status = $1, paid_at = COALESCE($2, paid_at), updated_at = NOW() WHERE id = $3",
		string(status), paid, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GenerateNumber allocates INV-{YYYYMM}-{SEQ} from a per-period sequence row.
func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	period := date.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "INV", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%04d", period, seq), nil
}

func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE invoices SET status = 'OVERDUE', updated_at = NOW() WHERE status = 'SENT' AND due_date < $1",
		asOf,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var scanned scannedInvoice
	if err := row.Scan(scanned.targets(&inv)...); err != nil {
		return nil, err
	}
	scanned.apply(&inv)
	return &inv, nil
}

func scanInvoiceWithClient(row pgx.Row) (*InvoiceWithClient, error) {
	var item InvoiceWithClient
	var scanned scannedInvoice
	targets := append(scanned.targets(&item.Invoice), &item.ClientName)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	scanned.apply(&item.Invoice)
	return &item, nil
}

// scannedInvoice holds the nullable columns between Scan and conversion.
type scannedInvoice struct {
	status        string
	discountType  string
	issueDate     pgtype.Date
	dueDate       pgtype.Date
	discountValue pgtype.Numeric
	taxRate       pgtype.Numeric
	subtotal      pgtype.Numeric
	discountAmt   pgtype.Numeric
	taxableBase   pgtype.Numeric
	taxAmount     pgtype.Numeric
	total         pgtype.Numeric
	notes         pgtype.Text
	paidAt        pgtype.Timestamptz
	createdAt     pgtype.Timestamptz
	updatedAt     pgtype.Timestamptz
}

func (s *scannedInvoice) targets(inv *Invoice) []interface{} {
	return []interface{}{
		&inv.ID, &inv.Number, &inv.ClientID, &s.issueDate, &s.dueDate, &s.status,
		&inv.Currency, &s.discountType, &s.discountValue, &s.taxRate,
		&s.subtotal, &s.discountAmt, &s.taxableBase, &s.taxAmount, &s.total,
		&inv.InterState, &s.notes, &s.paidAt, &s.createdAt, &s.updatedAt,
	}
}

func (s *scannedInvoice) apply(inv *Invoice) {
	inv.Status = InvoiceStatus(s.status)
	inv.DiscountType = discountTypeFrom(s.discountType)
	if s.issueDate.Valid {
		inv.IssueDate = s.issueDate.Time
	}
	if s.dueDate.Valid {
		inv.DueDate = s.dueDate.Time
	}
	inv.DiscountValue = numericToDecimal(s.discountValue)
	inv.TaxRate = numericToDecimal(s.taxRate)
	inv.Subtotal = numericToDecimal(s.subtotal)
	inv.DiscountAmount = numericToDecimal(s.discountAmt)
	inv.TaxableBase = numericToDecimal(s.taxableBase)
	inv.TaxAmount = numericToDecimal(s.taxAmount)
	inv.Total = numericToDecimal(s.total)
	if s.notes.Valid {
		val := s.notes.String
		inv.Notes = &val
	}
	if s.paidAt.Valid {
		val := s.paidAt.Time
		inv.PaidAt = &val
	}
	if s.createdAt.Valid {
		inv.CreatedAt = s.createdAt.Time
	}
	if s.updatedAt.Valid {
		inv.UpdatedAt = s.updatedAt.Time
	}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
