package clients

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

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, client Client) (int64, error)
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

const clientColumns = `id, name, gstin, state_code, email, phone, billing_address,
	city, state, postal_code, payment_terms_days, is_active, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	query := fmt.Sprintf("SELECT %s FROM clients WHERE id = $1", clientColumns)
	c, err := scanClient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
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
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR gstin ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM clients
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, clientColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, *c)
	}
	return clients, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	query := `
		INSERT INTO clients (
			name, gstin, state_code, email, phone, billing_address,
			city, state, postal_code, payment_terms_days, is_active, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		c.Name,
		textOrNull(c.GSTIN),
		c.StateCode,
		textOrNull(c.Email),
		textOrNull(c.Phone),
		textOrNull(c.BillingAddress),
		textOrNull(c.City),
		textOrNull(c.State),
		textOrNull(c.PostalCode),
		c.PaymentTermsDays,
		c.IsActive,
		textOrNull(c.Notes),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE clients SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"name", "gstin", "state_code", "email", "phone", "billing_address",
		"city", "state", "postal_code", "payment_terms_days", "is_active", "notes",
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

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var gstin, email, phone, address, city, state, postal, notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&c.ID, &c.Name, &gstin, &c.StateCode, &email, &phone, &address,
		&city, &state, &postal, &c.PaymentTermsDays, &c.IsActive, &notes,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.GSTIN = textPtr(gstin)
	c.Email = textPtr(email)
	c.Phone = textPtr(phone)
	c.BillingAddress = textPtr(address)
	c.City = textPtr(city)
	c.State = textPtr(state)
	c.PostalCode = textPtr(postal)
	c.Notes = textPtr(notes)
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return &c, nil
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
