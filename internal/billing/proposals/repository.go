package proposals

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
	Get(ctx context.Context, id int64) (*Proposal, error)
	List(ctx context.Context, req ListProposalsRequest) ([]ProposalWithClient, int, error)
	Create(ctx context.Context, proposal Proposal) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	ReplaceLines(ctx context.Context, proposalID int64, lines []ProposalLine) error
	UpdateStatus(ctx context.Context, id int64, status ProposalStatus) error
	SetConverted(ctx context.Context, id, invoiceID int64) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
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

const proposalColumns = `p.id, p.number, p.client_id, p.issue_date, p.valid_until, p.status,
	p.currency, p.discount_type, p.discount_value, p.tax_rate,
	p.subtotal, p.discount_amount, p.taxable_base, p.tax_amount, p.total,
	p.inter_state, p.notes, p.converted_invoice_id, p.created_at, p.updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Proposal, error) {
	query := fmt.Sprintf("SELECT %s FROM proposals p WHERE p.id = $1", proposalColumns)
	prop, err := scanProposal(r.db.QueryRow(ctx, query, id))
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
	prop.Lines = lines
	return prop, nil
}

func (r *repository) lines(ctx context.Context, proposalID int64) ([]ProposalLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, proposal_id, description, quantity, unit_price, line_total, line_order
		FROM proposal_lines
		WHERE proposal_id = $1
		ORDER BY line_order, id`, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []ProposalLine
	for rows.Next() {
		var l ProposalLine
		var qty, price, total pgtype.Numeric
		if err := rows.Scan(&l.ID, &l.ProposalID, &l.Description, &qty, &price, &total, &l.LineOrder); err != nil {
			return nil, err
		}
		l.Quantity = numericToDecimal(qty)
		l.UnitPrice = numericToDecimal(price)
		l.LineTotal = numericToDecimal(total)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListProposalsRequest) ([]ProposalWithClient, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("p.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("p.issue_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("p.issue_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM proposals p %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, c.name AS client_name
		FROM proposals p
		JOIN clients c ON c.id = p.client_id
		%s
		ORDER BY p.issue_date DESC, p.id DESC
		LIMIT $%d OFFSET $%d`, proposalColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []ProposalWithClient
	for rows.Next() {
		item, err := scanProposalWithClient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *item)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Proposal) (int64, error) {
	query := `
		INSERT INTO proposals (
			number, client_id, issue_date, valid_until, status, currency,
			discount_type, discount_value, tax_rate,
			subtotal, discount_amount, taxable_base, tax_amount, total,
			inter_state, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		p.Number,
		p.ClientID,
		p.IssueDate,
		p.ValidUntil,
		string(p.Status),
		p.Currency,
		string(p.DiscountType),
		p.DiscountValue.String(),
		p.TaxRate.String(),
		p.Subtotal.String(),
		p.DiscountAmount.String(),
		p.TaxableBase.String(),
		p.TaxAmount.String(),
		p.Total.String(),
		p.InterState,
		textOrNull(p.Notes),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE proposals SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"issue_date", "valid_until", "discount_type", "discount_value", "tax_rate",
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

func (r *repository) ReplaceLines(ctx context.Context, proposalID int64, lines []ProposalLine) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM proposal_lines WHERE proposal_id = $1", proposalID); err != nil {
		return err
	}
	for _, l := range lines {
		_, err := r.db.Exec(ctx, `
			INSERT INTO proposal_lines (proposal_id, description, quantity, unit_price, line_total, line_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			proposalID, l.Description, l.Quantity.String(), l.UnitPrice.String(), l.LineTotal.String(), l.LineOrder,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status ProposalStatus) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE proposals SET status = $1, updated_at = NOW() WHERE id = $2",
		string(status), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetConverted(ctx context.Context, id, invoiceID int64) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE proposals SET converted_invoice_id = $1, updated_at = NOW() WHERE id = $2 AND converted_invoice_id IS NULL",
		invoiceID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GenerateNumber allocates PRO-{YYYYMM}-{SEQ} from a per-period sequence row.
func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	period := date.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "PRO", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PRO-%s-%04d", period, seq), nil
}

func (r *repository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE proposals SET status = 'EXPIRED', updated_at = NOW() WHERE status = 'SENT' AND valid_until < $1",
		asOf,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanProposal(row pgx.Row) (*Proposal, error) {
	var prop Proposal
	var scanned scannedProposal
	if err := row.Scan(scanned.targets(&prop)...); err != nil {
		return nil, err
	}
	scanned.apply(&prop)
	return &prop, nil
}

func scanProposalWithClient(row pgx.Row) (*ProposalWithClient, error) {
	var item ProposalWithClient
	var scanned scannedProposal
	targets := append(scanned.targets(&item.Proposal), &item.ClientName)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	scanned.apply(&item.Proposal)
	return &item, nil
}

// scannedProposal holds the nullable columns between Scan and conversion.
type scannedProposal struct {
	status        string
	discountType  string
	issueDate     pgtype.Date
	validUntil    pgtype.Date
	discountValue pgtype.Numeric
	taxRate       pgtype.Numeric
	subtotal      pgtype.Numeric
	discountAmt   pgtype.Numeric
	taxableBase   pgtype.Numeric
	taxAmount     pgtype.Numeric
	total         pgtype.Numeric
	notes         pgtype.Text
	convertedID   pgtype.Int8
	createdAt     pgtype.Timestamptz
	updatedAt     pgtype.Timestamptz
}

func (s *scannedProposal) targets(p *Proposal) []interface{} {
	return []interface{}{
		&p.ID, &p.Number, &p.ClientID, &s.issueDate, &s.validUntil, &s.status,
		&p.Currency, &s.discountType, &s.discountValue, &s.taxRate,
		&s.subtotal, &s.discountAmt, &s.taxableBase, &s.taxAmount, &s.total,
		&p.InterState, &s.notes, &s.convertedID, &s.createdAt, &s.updatedAt,
	}
}

func (s *scannedProposal) apply(p *Proposal) {
	p.Status = ProposalStatus(s.status)
	p.DiscountType = discountTypeFrom(s.discountType)
	if s.issueDate.Valid {
		p.IssueDate = s.issueDate.Time
	}
	if s.validUntil.Valid {
		p.ValidUntil = s.validUntil.Time
	}
	p.DiscountValue = numericToDecimal(s.discountValue)
	p.TaxRate = numericToDecimal(s.taxRate)
	p.Subtotal = numericToDecimal(s.subtotal)
	p.DiscountAmount = numericToDecimal(s.discountAmt)
	p.TaxableBase = numericToDecimal(s.taxableBase)
	p.TaxAmount = numericToDecimal(s.taxAmount)
	p.Total = numericToDecimal(s.total)
	if s.notes.Valid {
		val := s.notes.String
		p.Notes = &val
	}
	if s.convertedID.Valid {
		val := s.convertedID.Int64
		p.ConvertedInvoiceID = &val
	}
	if s.createdAt.Valid {
		p.CreatedAt = s.createdAt.Time
	}
	if s.updatedAt.Valid {
		p.UpdatedAt = s.updatedAt.Time
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
