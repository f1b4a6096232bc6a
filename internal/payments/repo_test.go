package payments

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	"github.com/ariefcatur/go-retail-backend/internal/postgres/pgtest"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

func stockOf(t *testing.T, pool *pgxpool.Pool, sku string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE sku=$1`, sku).Scan(&n))
	return n
}

func lineQuantities(t *testing.T, pool *pgxpool.Pool, orderID string) []int {
	t.Helper()
	rows, err := pool.Query(context.Background(), `SELECT quantity FROM order_products WHERE order_id=$1 ORDER BY id`, orderID)
	require.NoError(t, err)
	defer rows.Close()
	out := []int{}
	for rows.Next() {
		var q int
		require.NoError(t, rows.Scan(&q))
		out = append(out, q)
	}
	require.NoError(t, rows.Err())
	return out
}

func orderStatus(t *testing.T, pool *pgxpool.Pool, orderID string) string {
	t.Helper()
	var st string
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&st))
	return st
}

func TestConfirmAgainstPostgres(t *testing.T) {
	pool := pgtest.Pool(t)
	svc := &Service{Store: &Repo{DB: pool}}
	ctx := context.Background()
	dni := pgtest.User(t, pool)

	t.Run("enough stock decrements the product", func(t *testing.T) {
		sku := pgtest.Product(t, pool, 5, 1000)
		id := pgtest.Order(t, pool, dni, "PENDING", pgtest.Line{SKU: sku, Quantity: 3, Price: 1000})

		p, res, err := svc.Confirm(ctx, Input{OrderID: id})
		require.NoError(t, err)
		assert.Equal(t, int64(3000), p.AmountCents)
		assert.True(t, res.Applied)
		require.Len(t, res.Lines, 1)
		assert.Equal(t, inventory.ActionDecrement, res.Lines[0].Action)

		assert.Equal(t, "PROCESSING", orderStatus(t, pool, id))
		assert.Equal(t, 2, stockOf(t, pool, sku))
		assert.Equal(t, []int{3}, lineQuantities(t, pool, id))
	})

	t.Run("short stock clamps the line", func(t *testing.T) {
		sku := pgtest.Product(t, pool, 2, 1000)
		id := pgtest.Order(t, pool, dni, "PENDING", pgtest.Line{SKU: sku, Quantity: 3, Price: 1000})

		_, res, err := svc.Confirm(ctx, Input{OrderID: id})
		require.NoError(t, err)
		require.Len(t, res.Lines, 1)
		assert.Equal(t, inventory.ActionClamp, res.Lines[0].Action)
		assert.Equal(t, 2, res.Lines[0].Fulfilled)

		assert.Equal(t, 0, stockOf(t, pool, sku))
		assert.Equal(t, []int{2}, lineQuantities(t, pool, id))
	})

	t.Run("no stock drops the line", func(t *testing.T) {
		sku := pgtest.Product(t, pool, 0, 1000)
		id := pgtest.Order(t, pool, dni, "PENDING", pgtest.Line{SKU: sku, Quantity: 3, Price: 1000})

		_, res, err := svc.Confirm(ctx, Input{OrderID: id})
		require.NoError(t, err)
		require.Len(t, res.Lines, 1)
		assert.Equal(t, inventory.ActionDrop, res.Lines[0].Action)

		assert.Equal(t, 0, stockOf(t, pool, sku))
		assert.Empty(t, lineQuantities(t, pool, id))
		assert.Equal(t, "PROCESSING", orderStatus(t, pool, id))
	})

	t.Run("lines sharing a product see earlier lines", func(t *testing.T) {
		sku := pgtest.Product(t, pool, 4, 500)
		id := pgtest.Order(t, pool, dni, "PENDING",
			pgtest.Line{SKU: sku, Quantity: 3, Price: 500},
			pgtest.Line{SKU: sku, Quantity: 3, Price: 500})

		_, res, err := svc.Confirm(ctx, Input{OrderID: id})
		require.NoError(t, err)
		require.Len(t, res.Lines, 2)
		assert.Equal(t, inventory.ActionDecrement, res.Lines[0].Action)
		assert.Equal(t, inventory.ActionClamp, res.Lines[1].Action)

		assert.Equal(t, 0, stockOf(t, pool, sku))
		assert.Equal(t, []int{3, 1}, lineQuantities(t, pool, id))
	})

	t.Run("concurrent confirmations never oversell", func(t *testing.T) {
		sku := pgtest.Product(t, pool, 4, 1000)
		a := pgtest.Order(t, pool, dni, "PENDING", pgtest.Line{SKU: sku, Quantity: 3, Price: 1000})
		b := pgtest.Order(t, pool, dni, "PENDING", pgtest.Line{SKU: sku, Quantity: 3, Price: 1000})

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, id := range []string{a, b} {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				_, _, errs[i] = svc.Confirm(ctx, Input{OrderID: id})
			}(i, id)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		assert.Equal(t, 0, stockOf(t, pool, sku))
		got := append(lineQuantities(t, pool, a), lineQuantities(t, pool, b)...)
		assert.ElementsMatch(t, []int{3, 1}, got)
	})

	t.Run("second confirmation is a conflict and leaves stock alone", func(t *testing.T) {
		sku := pgtest.Product(t, pool, 5, 1000)
		id := pgtest.Order(t, pool, dni, "PENDING", pgtest.Line{SKU: sku, Quantity: 1, Price: 1000})

		_, _, err := svc.Confirm(ctx, Input{OrderID: id})
		require.NoError(t, err)
		_, _, err = svc.Confirm(ctx, Input{OrderID: id})
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Equal(t, 4, stockOf(t, pool, sku))

		p, err := svc.ByOrder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), p.AmountCents)
	})
}
