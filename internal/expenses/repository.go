package expenses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Expense, error)
	List(ctx context.Context, req ListExpensesRequest) ([]ExpenseWithVendor, int, error)
	Create(ctx context.Context, expense Expense) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const expenseColumns = `e.id, e.vendor_id, e.client_id, e.category, e.description,
	e.expense_date, e.tax_rate, e.taxable_base, e.tax_amount, e.total,
	e.inter_state, e.notes, e.created_at, e.updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Expense, error) {
	query := fmt.Sprintf("SELECT %s FROM expenses e WHERE e.id = $1", expenseColumns)
	exp, err := scanExpense(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return exp, nil
}

func (r *repository) List(ctx context.Context, req ListExpensesRequest) ([]ExpenseWithVendor, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.VendorID != nil {
		conditions = append(conditions, fmt.Sprintf("e.vendor_id = $%d", argPos))
		args = append(args, *req.VendorID)
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("e.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Category != nil {
		conditions = append(conditions, fmt.Sprintf("e.category = $%d", argPos))
		args = append(args, *req.Category)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("e.expense_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("e.expense_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM expenses e %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, v.name AS vendor_name
		FROM expenses e
		JOIN vendors v ON v.id = e.vendor_id
		%s
		ORDER BY e.expense_date DESC, e.id DESC
		LIMIT $%d OFFSET $%d`, expenseColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []ExpenseWithVendor
	for rows.Next() {
		var item ExpenseWithVendor
		var scanned scannedExpense
		targets := append(scanned.targets(&item.Expense), &item.VendorName)
		if err := rows.Scan(targets...); err != nil {
			return nil, 0, err
		}
		scanned.apply(&item.Expense)
		result = append(result, item)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, e Expense) (int64, error) {
	query := `
		INSERT INTO expenses (
			vendor_id, client_id, category, description, expense_date,
			tax_rate, taxable_base, tax_amount, total, inter_state, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		e.VendorID,
		int8OrNull(e.ClientID),
		e.Category,
		textOrNull(e.Description),
		e.ExpenseDate,
		e.TaxRate.String(),
		e.TaxableBase.String(),
		e.TaxAmount.String(),
		e.Total.String(),
		e.InterState,
		textOrNull(e.Notes),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE expenses SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"client_id", "category", "description", "expense_date",
		"tax_rate", "taxable_base", "tax_amount", "total", "notes",
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

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM expenses WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories lists the distinct categories in use, for filter dropdowns.
func (r *repository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, "SELECT DISTINCT category FROM expenses ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	var scanned scannedExpense
	if err := row.Scan(scanned.targets(&e)...); err != nil {
		return nil, err
	}
	scanned.apply(&e)
	return &e, nil
}

type scannedExpense struct {
	clientID    pgtype.Int8
	description pgtype.Text
	expenseDate pgtype.Date
	taxRate     pgtype.Numeric
	taxableBase pgtype.Numeric
	taxAmount   pgtype.Numeric
	total       pgtype.Numeric
	notes       pgtype.Text
	createdAt   pgtype.Timestamptz
	updatedAt   pgtype.Timestamptz
}

func (s *scannedExpense) targets(e *Expense) []interface{} {
	return []interface{}{
		&e.ID, &e.VendorID, &s.clientID, &e.Category, &s.description,
		&s.expenseDate, &s.taxRate, &s.taxableBase, &s.taxAmount, &s.total,
		&e.InterState, &s.notes, &s.createdAt, &s.updatedAt,
	}
}

func (s *scannedExpense) apply(e *Expense) {
	if s.clientID.Valid {
		val := s.clientID.Int64
		e.ClientID = &val
	}
	if s.description.Valid {
		val := s.description.String
		e.Description = &val
	}
	if s.expenseDate.Valid {
		e.ExpenseDate = s.expenseDate.Time
	}
	e.TaxRate = numericToDecimal(s.taxRate)
	e.TaxableBase = numericToDecimal(s.taxableBase)
	e.TaxAmount = numericToDecimal(s.taxAmount)
	e.Total = numericToDecimal(s.total)
	if s.notes.Valid {
		val := s.notes.String
		e.Notes = &val
	}
	if s.createdAt.Valid {
		e.CreatedAt = s.createdAt.Time
	}
	if s.updatedAt.Valid {
		e.UpdatedAt = s.updatedAt.Time
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

func int8OrNull(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}
