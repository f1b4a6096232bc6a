package purchases

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/postgres/pgtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func backlogFor(t *testing.T, repo *Repo, orderIDs ...string) map[string]MissingItem {
	t.Helper()
	all, err := repo.MissingItems(context.Background())
	require.NoError(t, err)
	want := map[string]bool{}
	for _, id := range orderIDs {
		want[id] = true
	}
	out := map[string]MissingItem{}
	for _, m := range all {
		if want[m.OrderID] {
			out[m.OrderID+"/"+m.SKU] = m
		}
	}
	return out
}

func TestBacklogAgainstPostgres(t *testing.T) {
	pool := pgtest.Pool(t)
	repo := &Repo{DB: pool}
	svc := &Service{Store: repo}
	ctx := context.Background()

	dni := pgtest.User(t, pool)
	unit := pgtest.Unit(t, pool, 1)
	short := pgtest.Product(t, pool, 2, 1000)
	plenty := pgtest.Product(t, pool, 50, 1000)

	pending := pgtest.Order(t, pool, dni, "PENDING",
		pgtest.Line{SKU: short, Quantity: 3, Price: 1000},
		pgtest.Line{SKU: short, Quantity: 2, Price: 1000},
		pgtest.Line{SKU: plenty, Quantity: 1, Price: 1000})
	processing := pgtest.Order(t, pool, dni, "PROCESSING", pgtest.Line{SKU: short, Quantity: 4, Price: 1000})
	delivered := pgtest.Order(t, pool, dni, "DELIVERED", pgtest.Line{SKU: short, Quantity: 9, Price: 1000})

	pct := 30.0
	record := func(t *testing.T) *Recorded {
		t.Helper()
		rec, err := svc.Create(ctx, Input{
			PurchasedBy:          dni,
			GlobalSellPercentage: &pct,
			Items:                []ItemInput{{SKU: plenty, Quantity: 1, PurchasePrice: decimal.RequireFromString("5.00"), UnitID: &unit}},
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Delete(context.Background(), rec.Purchase.ID) })
		return rec
	}

	t.Run("open orders short of stock are recorded", func(t *testing.T) {
		rec := record(t)
		require.Len(t, rec.Purchase.Items, 1)
		assert.Equal(t, int64(500), rec.Purchase.Items[0].PurchasePriceCents)

		got := backlogFor(t, repo, pending, processing, delivered)
		require.Len(t, got, 2)
		assert.Equal(t, 3, got[pending+"/"+short].Missing)
		assert.Equal(t, 2, got[pending+"/"+short].Stock)
		assert.Equal(t, 2, got[processing+"/"+short].Missing)
	})

	t.Run("recording again updates rows in place", func(t *testing.T) {
		before := backlogFor(t, repo, pending)
		_, err := pool.Exec(ctx, `UPDATE products SET stock = 4 WHERE sku=$1`, short)
		require.NoError(t, err)

		record(t)
		got := backlogFor(t, repo, pending, processing)
		require.Len(t, got, 1)
		row := got[pending+"/"+short]
		assert.Equal(t, before[pending+"/"+short].ID, row.ID)
		assert.Equal(t, 1, row.Missing)
		assert.Equal(t, 4, row.Stock)
	})

	t.Run("restocked products leave the backlog", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE products SET stock = 10 WHERE sku=$1`, short)
		require.NoError(t, err)

		rec := record(t)
		assert.Empty(t, backlogFor(t, repo, pending, processing, delivered))
		for _, s := range rec.Missing {
			assert.NotEqual(t, short, s.SKU)
		}
	})
}
