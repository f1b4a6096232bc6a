package carts

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"sort"
	"strings"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, c *Cart) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO carts(user_dni, name, description) VALUES ($1, $2, $3)
		RETURNING id, updated_at`, c.UserDNI, c.Name, c.Description).Scan(&c.ID, &c.UpdatedAt)
	switch {
	case postgres.IsUniqueViolation(err):
		return apperr.Conflict("cart with name %s already exists", c.Name)
	case postgres.IsForeignKeyViolation(err):
		return apperr.NotFound("user %s not found", c.UserDNI)
	}
	return err
}

func (r *Repo) ListByUser(ctx context.Context, userDNI string) ([]Cart, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_dni, name, description, updated_at FROM carts
		WHERE user_dni=$1 ORDER BY updated_at DESC`, userDNI)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Cart{}
	for rows.Next() {
		var c Cart
		if err := rows.Scan(&c.ID, &c.UserDNI, &c.Name, &c.Description, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteByName(ctx context.Context, userDNI, name string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM carts WHERE user_dni=$1 AND name=$2`, userDNI, name)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("cart with name %s not found", name)
	}
	return nil
}

// AddItems upserts every item into the cart: an existing line for the same SKU is incremented.
// Unknown SKUs reject the whole batch.
func (r *Repo) AddItems(ctx context.Context, userDNI string, cartID int64, items []ItemInput) ([]Item, error) {
	merged, err := Merge(items)
	if err != nil {
		return nil, err
	}
	err = postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockCart(ctx, tx, userDNI, cartID); err != nil {
			return err
		}
		skus := make([]string, 0, len(merged))
		for _, it := range merged {
			skus = append(skus, it.SKU)
		}
		if err := requireProducts(ctx, tx, skus); err != nil {
			return err
		}
		for _, it := range merged {
			if _, err := tx.Exec(ctx, `
				INSERT INTO cart_items(cart_id, product_sku, quantity) VALUES ($1, $2, $3)
				ON CONFLICT (cart_id, product_sku)
				DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
				cartID, it.SKU, it.Quantity); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `UPDATE carts SET updated_at=now() WHERE id=$1`, cartID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.Items(ctx, userDNI, cartID)
}

func lockCart(ctx context.Context, tx pgx.Tx, userDNI string, cartID int64) error {
	var owner string
	err := tx.QueryRow(ctx, `SELECT user_dni FROM carts WHERE id=$1 FOR UPDATE`, cartID).Scan(&owner)
	if postgres.IsNoRows(err) || (err == nil && owner != userDNI) {
		return apperr.NotFound("cart %d not found", cartID)
	}
	return err
}

func requireProducts(ctx context.Context, tx pgx.Tx, skus []string) error {
	rows, err := tx.Query(ctx, `SELECT sku FROM products WHERE sku = ANY($1)`, skus)
	if err != nil {
		return err
	}
	found := map[string]bool{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return err
		}
		found[s] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	var missing []string
	for _, s := range skus {
		if !found[s] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperr.NotFound("products not found for skus: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (r *Repo) Items(ctx context.Context, userDNI string, cartID int64) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_sku, p.name, ci.quantity, p.price_cents
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.sku = ci.product_sku
		WHERE ci.cart_id=$1 AND c.user_dni=$2 ORDER BY ci.id`, cartID, userDNI)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.SKU, &it.ProductName, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) RemoveItem(ctx context.Context, userDNI string, cartID, itemID int64) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items ci USING carts c
		WHERE ci.id=$1 AND ci.cart_id=$2 AND c.id = ci.cart_id AND c.user_dni=$3`, itemID, cartID, userDNI)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("cart item %d not found", itemID)
	}
	return nil
}
