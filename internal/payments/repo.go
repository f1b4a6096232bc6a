package payments

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	"github.com/ariefcatur/go-retail-backend/internal/orders"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (r *Repo) ByOrder(ctx context.Context, orderID string) (*Payment, error) {
	var p Payment
	var method, status string
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, amount_cents, method, status, paid_at
		FROM payments WHERE order_id=$1`, orderID).
		Scan(&p.ID, &p.OrderID, &p.AmountCents, &method, &status, &p.PaidAt)
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("payment for order %s not found", orderID)
	}
	if err != nil {
		return nil, err
	}
	p.Method, p.Status = Method(method), Status(status)
	return &p, nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) LockOrder(ctx context.Context, orderID string) (string, orders.Status, error) {
	var dni, st string
	err := t.tx.QueryRow(ctx, `SELECT user_dni, status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&dni, &st)
	if postgres.IsNoRows(err) {
		return "", "", apperr.NotFound("order %s not found", orderID)
	}
	return dni, orders.Status(st), err
}

func (t *pgTx) PaymentExists(ctx context.Context, orderID string) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE order_id=$1)`, orderID).Scan(&ok)
	return ok, err
}

func (t *pgTx) OrderTotal(ctx context.Context, orderID string) (int64, error) {
	var total int64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(price_cents * quantity), 0)::BIGINT
		FROM order_products WHERE order_id=$1`, orderID).Scan(&total)
	return total, err
}

func (t *pgTx) InsertPayment(ctx context.Context, p *Payment) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO payments(order_id, amount_cents, method, status, paid_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.OrderID, p.AmountCents, string(p.Method), string(p.Status), p.PaidAt).Scan(&p.ID)
	if postgres.IsUniqueViolation(err) {
		return apperr.Conflict("order %s already has a payment", p.OrderID)
	}
	return err
}

func (t *pgTx) SetOrderStatus(ctx context.Context, orderID string, status orders.Status) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, string(status))
	return err
}

// LockLines locks the products of the order in SKU order, so concurrent confirmations
// sharing products queue instead of deadlocking, then reads the lines against the locked stock.
func (t *pgTx) LockLines(ctx context.Context, orderID string) ([]inventory.Line, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT sku, stock FROM products
		WHERE sku IN (SELECT product_sku FROM order_products WHERE order_id=$1)
		ORDER BY sku FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	stock := map[string]int{}
	for rows.Next() {
		var sku string
		var n int
		if err := rows.Scan(&sku, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stock[sku] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = t.tx.Query(ctx, `
		SELECT id, product_sku, quantity FROM order_products
		WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []inventory.Line
	for rows.Next() {
		var l inventory.Line
		if err := rows.Scan(&l.LineID, &l.SKU, &l.Requested); err != nil {
			return nil, err
		}
		l.Stock = stock[l.SKU]
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) Apply(ctx context.Context, o inventory.Outcome) error {
	switch o.Action {
	case inventory.ActionDrop:
		_, err := t.tx.Exec(ctx, `DELETE FROM order_products WHERE id=$1`, o.LineID)
		return err
	case inventory.ActionClamp:
		if _, err := t.tx.Exec(ctx, `UPDATE order_products SET quantity=$2 WHERE id=$1`, o.LineID, o.Fulfilled); err != nil {
			return err
		}
	}
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE sku=$1 AND stock >= $2`, o.SKU, o.Fulfilled)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("stock of %s changed under lock", o.SKU)
	}
	return nil
}
