package orders

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres Store.
type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `o.id, o.user_dni, o.status, o.created_at, o.updated_at,
	EXISTS (SELECT 1 FROM payments p WHERE p.order_id = o.id)`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var st string
	if err := row.Scan(&o.ID, &o.UserDNI, &st, &o.CreatedAt, &o.UpdatedAt, &o.HasPayment); err != nil {
		return nil, err
	}
	o.Status = Status(st)
	return &o, nil
}

func (r *Repo) Insert(ctx context.Context, o *Order) error {
	return postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders(id, user_dni, status) VALUES ($1, $2, $3)
			RETURNING created_at, updated_at`,
			o.ID, o.UserDNI, string(o.Status)).Scan(&o.CreatedAt, &o.UpdatedAt)
		if postgres.IsUniqueViolation(err) {
			return ErrIDTaken
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperr.NotFound("user %s not found", o.UserDNI)
		}
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, o.ID, o.Lines)
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID string, lines []Line) error {
	for i := range lines {
		l := &lines[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO order_products(order_id, product_sku, quantity, price_cents, unit_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			orderID, l.SKU, l.Quantity, l.PriceCents, l.UnitID).Scan(&l.ID)
		if postgres.IsForeignKeyViolation(err) {
			return apperr.NotFound("product %s or its unit not found", l.SKU)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// PriceLines resolves SKUs against the catalog, keeping an explicit price when one is given.
func (r *Repo) PriceLines(ctx context.Context, items []ItemInput) ([]Line, error) {
	skus := make([]string, 0, len(items))
	for _, it := range items {
		skus = append(skus, it.SKU)
	}
	rows, err := r.DB.Query(ctx, `SELECT sku, name, price_cents FROM products WHERE sku = ANY($1)`, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pp struct {
		name  string
		price int64
	}
	bySKU := map[string]pp{}
	for rows.Next() {
		var sku string
		var p pp
		if err := rows.Scan(&sku, &p.name, &p.price); err != nil {
			return nil, err
		}
		bySKU[sku] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Line, 0, len(items))
	for _, it := range items {
		p, ok := bySKU[it.SKU]
		if !ok {
			return nil, apperr.NotFound("product with sku %s not found", it.SKU)
		}
		price := p.price
		if it.PriceCents != nil {
			price = *it.PriceCents
		}
		out = append(out, Line{SKU: it.SKU, ProductName: p.name, Quantity: it.Quantity, PriceCents: price, UnitID: it.UnitID})
	}
	return out, nil
}

func (r *Repo) CartLines(ctx context.Context, userDNI string, cartID int64) ([]Line, error) {
	var owner string
	err := r.DB.QueryRow(ctx, `SELECT user_dni FROM carts WHERE id=$1`, cartID).Scan(&owner)
	if postgres.IsNoRows(err) || (err == nil && owner != userDNI) {
		return nil, apperr.NotFound("cart %d not found", cartID)
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.Query(ctx, `
		SELECT ci.product_sku, p.name, ci.quantity, p.price_cents, p.unit_id
		FROM cart_items ci JOIN products p ON p.sku = ci.product_sku
		WHERE ci.cart_id = $1 ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.SKU, &l.ProductName, &l.Quantity, &l.PriceCents, &l.UnitID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id=$1`, id))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("order %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	o.Lines, err = loadLines(ctx, r.DB, id)
	return o, err
}

func loadLines(ctx context.Context, q postgres.Querier, orderID string) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT op.id, op.product_sku, p.name, op.quantity, op.price_cents, op.unit_id
		FROM order_products op JOIN products p ON p.sku = op.product_sku
		WHERE op.order_id = $1 ORDER BY op.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.SKU, &l.ProductName, &l.Quantity, &l.PriceCents, &l.UnitID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, userDNI string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.user_dni=$1 ORDER BY o.created_at DESC`, userDNI)
}

func (r *Repo) List(ctx context.Context, limit, offset int) ([]Order, int, error) {
	var count int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return nil, 0, err
	}
	out, err := r.list(ctx, `SELECT `+orderColumns+` FROM orders o ORDER BY o.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	return out, count, err
}

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = loadLines(ctx, r.DB, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CompareAndSetStatus only writes when the row still carries the expected status.
func (r *Repo) CompareAndSetStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`,
		id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *Repo) Delete(ctx context.Context, id, userDNI string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1 AND user_dni=$2`, id, userDNI)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("order %s not found", id)
	}
	return nil
}

func (r *Repo) IsSuperuser(ctx context.Context, dni string) (bool, error) {
	var super bool
	err := r.DB.QueryRow(ctx, `SELECT is_superuser FROM users WHERE dni=$1`, dni).Scan(&super)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperr.NotFound("user %s not found", dni)
	}
	return super, err
}

func (r *Repo) SyncPending(ctx context.Context, userDNI, newID string, lines []Line) (*Order, error) {
	var id string
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT id FROM orders WHERE user_dni=$1 AND status='PENDING'
			ORDER BY created_at DESC LIMIT 1 FOR UPDATE`, userDNI).Scan(&id)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			id = newID
			_, err = tx.Exec(ctx, `INSERT INTO orders(id, user_dni, status) VALUES ($1, $2, 'PENDING')`, id, userDNI)
			if postgres.IsUniqueViolation(err) {
				return ErrIDTaken
			}
			if err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if _, err := tx.Exec(ctx, `DELETE FROM order_products WHERE order_id=$1`, id); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE orders SET updated_at=now() WHERE id=$1`, id); err != nil {
				return err
			}
		}
		return insertLines(ctx, tx, id, lines)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}
