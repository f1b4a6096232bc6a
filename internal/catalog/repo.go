package catalog

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"strings"
)

type Repo struct{ DB *pgxpool.Pool }

// ---- categories ----

func (r *Repo) CreateCategory(ctx context.Context, c *Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.Invalid("name is required")
	}
	err := r.DB.QueryRow(ctx, `INSERT INTO categories(name, description) VALUES ($1, $2) RETURNING id`,
		c.Name, c.Description).Scan(&c.ID)
	if postgres.IsUniqueViolation(err) {
		return apperr.Conflict("category %s already exists", c.Name)
	}
	return err
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateCategory(ctx context.Context, id int64, name, description *string) (*Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `
		UPDATE categories SET name = COALESCE($2, name), description = COALESCE($3, description)
		WHERE id=$1 RETURNING id, name, description`, id, name, description).Scan(&c.ID, &c.Name, &c.Description)
	switch {
	case postgres.IsNoRows(err):
		return nil, apperr.NotFound("category %d not found", id)
	case postgres.IsUniqueViolation(err):
		return nil, apperr.Conflict("category name already exists")
	}
	return &c, err
}

func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.DB, `DELETE FROM categories WHERE id=$1`, id, "category")
}

// ---- units of measure ----

func (r *Repo) CreateUnit(ctx context.Context, u *Unit) error {
	if err := u.Validate(); err != nil {
		return err
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO units_of_measure(name, abbreviation, weight) VALUES ($1, $2, $3) RETURNING id`,
		u.Name, u.Abbreviation, u.Weight).Scan(&u.ID)
	if postgres.IsUniqueViolation(err) {
		return apperr.Conflict("unit %s already exists", u.Name)
	}
	return err
}

func (r *Repo) ListUnits(ctx context.Context) ([]Unit, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, abbreviation, weight FROM units_of_measure ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Unit{}
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Abbreviation, &u.Weight); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) GetUnit(ctx context.Context, id int64) (*Unit, error) {
	var u Unit
	err := r.DB.QueryRow(ctx, `SELECT id, name, abbreviation, weight FROM units_of_measure WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Abbreviation, &u.Weight)
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("unit of measure %d not found", id)
	}
	return &u, err
}

func (r *Repo) UpdateUnit(ctx context.Context, id int64, name, abbreviation *string, weight *float64) (*Unit, error) {
	if weight != nil && *weight < 0 {
		return nil, apperr.Invalid("weight must not be negative")
	}
	var u Unit
	err := r.DB.QueryRow(ctx, `
		UPDATE units_of_measure SET name = COALESCE($2, name), abbreviation = COALESCE($3, abbreviation),
			weight = COALESCE($4, weight)
		WHERE id=$1 RETURNING id, name, abbreviation, weight`, id, name, abbreviation, weight).
		Scan(&u.ID, &u.Name, &u.Abbreviation, &u.Weight)
	switch {
	case postgres.IsNoRows(err):
		return nil, apperr.NotFound("unit of measure %d not found", id)
	case postgres.IsUniqueViolation(err):
		return nil, apperr.Conflict("unit name already exists")
	}
	return &u, err
}

func (r *Repo) DeleteUnit(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.DB, `DELETE FROM units_of_measure WHERE id=$1`, id, "unit of measure")
}

// ---- products ----

const productColumns = `sku, name, description, price_cents, stock, category_id, unit_id,
	rank, recommended, best_seller, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.CategoryID, &p.UnitID,
		&p.Rank, &p.Recommended, &p.BestSeller, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct checks sku and name uniqueness and the category before inserting.
func (r *Repo) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	var skuTaken, nameTaken, categoryOK bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE sku=$1),
		       EXISTS (SELECT 1 FROM products WHERE name=$2),
		       EXISTS (SELECT 1 FROM categories WHERE id=$3)`,
		*in.SKU, *in.Name, *in.CategoryID).Scan(&skuTaken, &nameTaken, &categoryOK)
	if err != nil {
		return nil, err
	}
	switch {
	case skuTaken:
		return nil, apperr.Conflict("product with sku %s already exists", *in.SKU)
	case nameTaken:
		return nil, apperr.Conflict("product with name %s already exists", *in.Name)
	case !categoryOK:
		return nil, apperr.Invalid("category %d does not exist", *in.CategoryID)
	}

	p, err := scanProduct(r.DB.QueryRow(ctx, `
		INSERT INTO products(sku, name, description, price_cents, stock, category_id, unit_id,
			rank, recommended, best_seller)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, 0), COALESCE($9, FALSE), COALESCE($10, FALSE))
		RETURNING `+productColumns,
		*in.SKU, *in.Name, *in.Description, *in.PriceCents, *in.Stock, in.CategoryID, in.UnitID,
		in.Rank, in.Recommended, in.BestSeller))
	switch {
	case postgres.IsUniqueViolation(err):
		return nil, apperr.Conflict("product with sku %s or name %s already exists", *in.SKU, *in.Name)
	case postgres.IsForeignKeyViolation(err):
		return nil, apperr.Invalid("category or unit does not exist")
	}
	return p, err
}

func (r *Repo) ListProducts(ctx context.Context, limit, offset int) (ProductPage, error) {
	page := ProductPage{Limit: limit, Offset: offset}
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&page.Count); err != nil {
		return page, err
	}
	var err error
	page.Results, err = r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY sku LIMIT $1 OFFSET $2`, limit, offset)
	return page, err
}

func (r *Repo) Recommended(ctx context.Context, limit int) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE recommended
		ORDER BY rank DESC, sku LIMIT $1`, limit)
}

func (r *Repo) queryProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, sku string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku=$1`, sku))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("product %s not found", sku)
	}
	return p, err
}

func (r *Repo) UpdateProduct(ctx context.Context, sku string, in ProductInput) (*Product, error) {
	if err := in.ValidateUpdate(); err != nil {
		return nil, err
	}
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price_cents = COALESCE($4, price_cents),
			stock = COALESCE($5, stock),
			category_id = COALESCE($6, category_id),
			unit_id = COALESCE($7, unit_id),
			rank = COALESCE($8, rank),
			recommended = COALESCE($9, recommended),
			best_seller = COALESCE($10, best_seller),
			updated_at = now()
		WHERE sku=$1 RETURNING `+productColumns,
		sku, in.Name, in.Description, in.PriceCents, in.Stock, in.CategoryID, in.UnitID,
		in.Rank, in.Recommended, in.BestSeller))
	switch {
	case postgres.IsNoRows(err):
		return nil, apperr.NotFound("product %s not found", sku)
	case postgres.IsUniqueViolation(err):
		return nil, apperr.Conflict("product name already exists")
	case postgres.IsForeignKeyViolation(err):
		return nil, apperr.Invalid("category or unit does not exist")
	}
	return p, err
}

func (r *Repo) DeleteProduct(ctx context.Context, sku string) error {
	return deleteOne(ctx, r.DB, `DELETE FROM products WHERE sku=$1`, sku, "product")
}

// ---- reviews ----

func (r *Repo) AddReview(ctx context.Context, rv *Review) error {
	if err := rv.Validate(); err != nil {
		return err
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO product_reviews(user_dni, product_sku, review, rank) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, rv.UserDNI, rv.SKU, rv.Review, rv.Rank).Scan(&rv.ID, &rv.CreatedAt)
	if postgres.IsForeignKeyViolation(err) {
		return apperr.NotFound("product %s not found", rv.SKU)
	}
	return err
}

func (r *Repo) ListReviews(ctx context.Context, sku string) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_dni, product_sku, review, rank, created_at
		FROM product_reviews WHERE product_sku=$1 ORDER BY created_at DESC`, sku)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.UserDNI, &rv.SKU, &rv.Review, &rv.Rank, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func deleteOne(ctx context.Context, q postgres.Querier, sql string, id any, what string) error {
	ct, err := q.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("%s %v not found", what, id)
	}
	return nil
}
