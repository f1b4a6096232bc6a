package coupons

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const columns = `id, code, discount, discount_type, expiration_date, is_active, created_by, created_at`

func scan(row pgx.Row) (*Coupon, error) {
	var c Coupon
	if err := row.Scan(&c.ID, &c.Code, &c.Discount, &c.Type, &c.ExpirationDate, &c.IsActive,
		&c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) Create(ctx context.Context, createdBy string, in Input) (*Coupon, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	exp, _ := in.Expiration()
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	var by *string
	if createdBy != "" {
		by = &createdBy
	}
	c, err := scan(r.DB.QueryRow(ctx, `
		INSERT INTO coupons(code, discount, discount_type, expiration_date, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+columns,
		*in.Code, *in.Discount, *in.Type, *exp, active, by))
	if postgres.IsUniqueViolation(err) {
		return nil, apperr.Conflict("coupon %s already exists", *in.Code)
	}
	return c, err
}

func (r *Repo) List(ctx context.Context) ([]Coupon, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+columns+` FROM coupons ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Coupon{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	c, err := scan(r.DB.QueryRow(ctx, `SELECT `+columns+` FROM coupons WHERE code=$1`, code))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("coupon %s not found", code)
	}
	return c, err
}

// Update locks the coupon, merges the partial input and validates the merged row.
func (r *Repo) Update(ctx context.Context, code string, in Input) (*Coupon, error) {
	if err := in.ValidateUpdate(); err != nil {
		return nil, err
	}
	var out *Coupon
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		cur, err := scan(tx.QueryRow(ctx, `SELECT `+columns+` FROM coupons WHERE code=$1 FOR UPDATE`, code))
		if postgres.IsNoRows(err) {
			return apperr.NotFound("coupon %s not found", code)
		}
		if err != nil {
			return err
		}
		next, err := in.Merge(*cur)
		if err != nil {
			return err
		}
		out, err = scan(tx.QueryRow(ctx, `
			UPDATE coupons SET code=$2, discount=$3, discount_type=$4, expiration_date=$5, is_active=$6
			WHERE id=$1 RETURNING `+columns,
			cur.ID, next.Code, next.Discount, next.Type, next.ExpirationDate, next.IsActive))
		if postgres.IsUniqueViolation(err) {
			return apperr.Conflict("coupon %s already exists", next.Code)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, code string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM coupons WHERE code=$1`, code)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("coupon %s not found", code)
	}
	return nil
}
