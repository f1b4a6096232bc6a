package purchases

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
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

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) InsertPurchase(ctx context.Context, p *Purchase) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchases(purchased_by, global_sell_percentage) VALUES ($1, $2)
		RETURNING id, purchase_date`, p.PurchasedBy, p.GlobalSellPercentage).Scan(&p.ID, &p.PurchaseDate)
	if postgres.IsForeignKeyViolation(err) {
		return apperr.Invalid("user %s does not exist", *p.PurchasedBy)
	}
	return err
}

func (t *pgTx) SetGlobalPercentage(ctx context.Context, id int64, pct *float64) (float64, error) {
	var global float64
	err := t.tx.QueryRow(ctx, `
		UPDATE purchases SET global_sell_percentage = COALESCE($2, global_sell_percentage)
		WHERE id=$1 RETURNING global_sell_percentage`, id, pct).Scan(&global)
	if postgres.IsNoRows(err) {
		return 0, apperr.NotFound("purchase %d not found", id)
	}
	return global, err
}

func (t *pgTx) ReplaceItems(ctx context.Context, purchaseID int64, items []Item) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM purchase_items WHERE purchase_id=$1`, purchaseID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO purchase_items(purchase_id, product_sku, quantity, purchase_price_cents, sell_percentage, unit_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			purchaseID, it.SKU, it.Quantity, it.PurchasePriceCents, it.SellPercentage, it.UnitID)
	}
	br := t.tx.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if postgres.IsForeignKeyViolation(err) {
				return apperr.Invalid("one or more products or units of measure do not exist")
			}
			return err
		}
	}
	return br.Close()
}

func (t *pgTx) OpenOrderDemand(ctx context.Context) ([]inventory.Demand, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT o.id, op.product_sku, op.quantity, p.stock
		FROM orders o
		JOIN order_products op ON op.order_id = o.id
		JOIN products p ON p.sku = op.product_sku
		WHERE o.status IN ('PENDING', 'PROCESSING')
		ORDER BY o.id, op.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []inventory.Demand
	for rows.Next() {
		var d inventory.Demand
		if err := rows.Scan(&d.OrderID, &d.SKU, &d.Requested, &d.Stock); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (t *pgTx) SaveBacklog(ctx context.Context, orderIDs []string, shortfalls []inventory.Shortfall) error {
	keep := make([]string, 0, len(shortfalls))
	for _, s := range shortfalls {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO missing_items(product_sku, order_id, stock, missing_quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (product_sku, order_id)
			DO UPDATE SET stock = EXCLUDED.stock, missing_quantity = EXCLUDED.missing_quantity, last_updated = now()`,
			s.SKU, s.OrderID, s.Stock, s.Missing); err != nil {
			return err
		}
		keep = append(keep, s.OrderID+"/"+s.SKU)
	}
	if len(orderIDs) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx, `
		DELETE FROM missing_items
		WHERE order_id = ANY($1) AND NOT (order_id || '/' || product_sku = ANY($2))`, orderIDs, keep)
	return err
}

func (r *Repo) Get(ctx context.Context, id int64) (*Purchase, error) {
	var p Purchase
	err := r.DB.QueryRow(ctx, `
		SELECT id, purchased_by, global_sell_percentage, purchase_date FROM purchases WHERE id=$1`, id).
		Scan(&p.ID, &p.PurchasedBy, &p.GlobalSellPercentage, &p.PurchaseDate)
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("purchase %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	byID, err := r.items(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	p.Items = byID[id]
	p.Price()
	return &p, nil
}

// List returns purchases newest first.
func (r *Repo) List(ctx context.Context) ([]Purchase, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, purchased_by, global_sell_percentage, purchase_date
		FROM purchases ORDER BY purchase_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Purchase{}
	var ids []int64
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.PurchasedBy, &p.GlobalSellPercentage, &p.PurchaseDate); err != nil {
			return nil, err
		}
		out = append(out, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	byID, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = byID[out[i].ID]
		out[i].Price()
	}
	return out, nil
}

func (r *Repo) items(ctx context.Context, purchaseIDs []int64) (map[int64][]Item, error) {
	out := map[int64][]Item{}
	if len(purchaseIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT pi.purchase_id, pi.id, pi.product_sku, p.name, pi.quantity, pi.purchase_price_cents,
		       pi.sell_percentage, pi.unit_id, u.weight
		FROM purchase_items pi
		JOIN products p ON p.sku = pi.product_sku
		LEFT JOIN units_of_measure u ON u.id = pi.unit_id
		WHERE pi.purchase_id = ANY($1)
		ORDER BY pi.id`, purchaseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pid int64
		var it Item
		if err := rows.Scan(&pid, &it.ID, &it.SKU, &it.ProductName, &it.Quantity, &it.PurchasePriceCents,
			&it.SellPercentage, &it.UnitID, &it.UnitWeight); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], it)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM purchases WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("purchase %d not found", id)
	}
	return nil
}

func (r *Repo) MissingItems(ctx context.Context) ([]MissingItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT m.id, m.product_sku, p.name, m.order_id, m.stock, m.missing_quantity, m.last_updated
		FROM missing_items m JOIN products p ON p.sku = m.product_sku
		ORDER BY m.last_updated DESC, m.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MissingItem{}
	for rows.Next() {
		var m MissingItem
		if err := rows.Scan(&m.ID, &m.SKU, &m.ProductName, &m.OrderID, &m.Stock, &m.Missing, &m.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
