package shipments

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const columns = `id, order_id, user_dni, address, city, postal_code, status, created_at, updated_at`

func scan(row pgx.Row) (*Shipment, error) {
	var s Shipment
	if err := row.Scan(&s.ID, &s.OrderID, &s.UserDNI, &s.Address, &s.City, &s.PostalCode,
		&s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create opens the single shipment of an order.
func (r *Repo) Create(ctx context.Context, in Input) (*Shipment, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	status := StatusPending
	if in.Status != nil {
		status = *in.Status
	}
	s, err := scan(r.DB.QueryRow(ctx, `
		INSERT INTO shipments(order_id, user_dni, address, city, postal_code, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+columns,
		*in.OrderID, *in.UserDNI, *in.Address, *in.City, *in.PostalCode, status))
	switch {
	case postgres.IsUniqueViolation(err):
		return nil, apperr.Conflict("a shipment already exists for order %s", *in.OrderID)
	case postgres.IsForeignKeyViolation(err):
		return nil, apperr.Invalid("order or customer does not exist")
	}
	return s, err
}

func (r *Repo) List(ctx context.Context) ([]Shipment, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+columns+` FROM shipments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Shipment{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id int64, in Input) (*Shipment, error) {
	if err := in.ValidateUpdate(); err != nil {
		return nil, err
	}
	s, err := scan(r.DB.QueryRow(ctx, `
		UPDATE shipments SET
			address = COALESCE($2, address),
			city = COALESCE($3, city),
			postal_code = COALESCE($4, postal_code),
			status = COALESCE($5, status),
			updated_at = now()
		WHERE id=$1 RETURNING `+columns,
		id, in.Address, in.City, in.PostalCode, in.Status))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("shipment %d not found", id)
	}
	return s, err
}
