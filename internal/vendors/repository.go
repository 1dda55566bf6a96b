package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udyogbooks/udyogbooks/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Vendor, error)
	List(ctx context.Context, req ListVendorsRequest) ([]Vendor, int, error)
	Create(ctx context.Context, vendor Vendor) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
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

const vendorColumns = `id, name, gstin, state_code, email, phone, address,
	is_active, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Vendor, error) {
	query := fmt.Sprintf("SELECT %s FROM vendors WHERE id = $1", vendorColumns)
	v, err := scanVendor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, req ListVendorsRequest) ([]Vendor, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR gstin ILIKE $%d)", argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vendors %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM vendors
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, vendorColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		vendors = append(vendors, *v)
	}
	return vendors, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, v Vendor) (int64, error) {
	query := `
		INSERT INTO vendors (name, gstin, state_code, email, phone, address, is_active, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		v.Name,
		textOrNull(v.GSTIN),
		v.StateCode,
		textOrNull(v.Email),
		textOrNull(v.Phone),
		textOrNull(v.Address),
		v.IsActive,
		textOrNull(v.Notes),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE vendors SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"name", "gstin", "state_code", "email", "phone", "address", "is_active", "notes"} {
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

func scanVendor(row pgx.Row) (*Vendor, error) {
	var v Vendor
	var gstin, email, phone, address, notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&v.ID, &v.Name, &gstin, &v.StateCode, &email, &phone, &address,
		&v.IsActive, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.GSTIN = textPtr(gstin)
	v.Email = textPtr(email)
	v.Phone = textPtr(phone)
	v.Address = textPtr(address)
	v.Notes = textPtr(notes)
	if createdAt.Valid {
		v.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		v.UpdatedAt = updatedAt.Time
	}
	return &v, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
