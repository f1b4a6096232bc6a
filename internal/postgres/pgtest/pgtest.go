// Package pgtest opens the test database named by POSTGRES_TEST_DSN and seeds rows
// that repository tests share. Every seeded row is removed when the test ends.
package pgtest

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"os"
	"strings"
	"testing"
)

// Pool skips the test unless POSTGRES_TEST_DSN is set, then returns a migrated pool.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

// Tag returns a short random suffix for keys that must not collide across runs.
func Tag() string { return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]) }

func exec(t testing.TB, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("seed: %v\n%s", err, sql)
	}
}

// User inserts a client and deletes it, with its orders, on cleanup.
func User(t testing.TB, pool *pgxpool.Pool) string {
	t.Helper()
	dni := "T" + Tag()
	exec(t, pool, `INSERT INTO users(dni, username, email, password_hash) VALUES ($1, $1, $1 || '@test.local', 'x')`, dni)
	t.Cleanup(func() { exec(t, pool, `DELETE FROM users WHERE dni=$1`, dni) })
	return dni
}

// Product inserts a product with the given stock and deletes it on cleanup.
func Product(t testing.TB, pool *pgxpool.Pool, stock int, priceCents int64) string {
	t.Helper()
	sku := "SKU-" + Tag()
	exec(t, pool, `INSERT INTO products(sku, name, price_cents, stock) VALUES ($1, $1, $2, $3)`, sku, priceCents, stock)
	t.Cleanup(func() { exec(t, pool, `DELETE FROM products WHERE sku=$1`, sku) })
	return sku
}

// Unit inserts a unit of measure and deletes it on cleanup.
func Unit(t testing.TB, pool *pgxpool.Pool, weight float64) int64 {
	t.Helper()
	name := "unit-" + Tag()
	var id int64
	if err := pool.QueryRow(context.Background(),
		`INSERT INTO units_of_measure(name, weight) VALUES ($1, $2) RETURNING id`, name, weight).Scan(&id); err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	t.Cleanup(func() { exec(t, pool, `DELETE FROM units_of_measure WHERE id=$1`, id) })
	return id
}

type Line struct {
	SKU      string
	Quantity int
	Price    int64
}

// Order inserts an order with its lines. It goes away with its owner.
func Order(t testing.TB, pool *pgxpool.Pool, dni, status string, lines ...Line) string {
	t.Helper()
	id := "ORD-" + Tag()
	exec(t, pool, `INSERT INTO orders(id, user_dni, status) VALUES ($1, $2, $3)`, id, dni, status)
	for _, l := range lines {
		exec(t, pool, `INSERT INTO order_products(order_id, product_sku, quantity, price_cents) VALUES ($1, $2, $3, $4)`,
			id, l.SKU, l.Quantity, l.Price)
	}
	return id
}
