package httpx

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/catalog"
	"github.com/go-chi/chi/v5"
	"net/http"
	"time"
)

type CatalogStore interface {
	CreateCategory(ctx context.Context, c *catalog.Category) error
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	UpdateCategory(ctx context.Context, id int64, name, description *string) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CreateUnit(ctx context.Context, u *catalog.Unit) error
	ListUnits(ctx context.Context) ([]catalog.Unit, error)
	UpdateUnit(ctx context.Context, id int64, name, abbreviation *string, weight *float64) (*catalog.Unit, error)
	DeleteUnit(ctx context.Context, id int64) error
	CreateProduct(ctx context.Context, in catalog.ProductInput) (*catalog.Product, error)
	ListProducts(ctx context.Context, limit, offset int) (catalog.ProductPage, error)
	Recommended(ctx context.Context, limit int) ([]catalog.Product, error)
	GetProduct(ctx context.Context, sku string) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, sku string, in catalog.ProductInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, sku string) error
	AddReview(ctx context.Context, rv *catalog.Review) error
	ListReviews(ctx context.Context, sku string) ([]catalog.Review, error)
}

type CatalogHandler struct {
	Store CatalogStore
	Guard Guard
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products/list/", h.listProducts)
	r.Get("/products/recommended/", h.recommended)
	r.Get("/products/product/details/", h.productDetails)
	r.Get("/products/product/reviews/", h.listReviews)
	r.Get("/products/categories/", h.listCategories)
	r.Get("/products/units/", h.listUnits)

	h.Guard.User(r).Post("/products/product/reviews/create/", h.addReview)

	admin := h.Guard.Admin(r)
	admin.Post("/products/create/", h.createProduct)
	admin.Put("/products/product/update/", h.updateProduct)
	admin.Delete("/products/product/remove/", h.removeProduct)
	admin.Post("/products/categories/create/", h.createCategory)
	admin.Put("/products/categories/update/", h.updateCategory)
	admin.Delete("/products/categories/remove/", h.removeCategory)
	admin.Post("/products/units/create/", h.createUnit)
	admin.Put("/products/units/update/", h.updateUnit)
	admin.Delete("/products/units/remove/", h.removeUnit)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	page, err := h.Store.ListProducts(ctx, limit, offset)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) recommended(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	ps, err := h.Store.Recommended(ctx, queryInt(r, "limit", 10))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) productDetails(w http.ResponseWriter, r *http.Request) {
	sku, err := queryStr(r, "sku")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	p, err := h.Store.GetProduct(ctx, sku)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	p, err := h.Store.CreateProduct(ctx, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	if in.SKU == nil || *in.SKU == "" {
		writeErr(w, r, apperr.Invalid("sku is required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	p, err := h.Store.UpdateProduct(ctx, *in.SKU, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	sku, err := queryStr(r, "sku")
	if err == nil {
		err = h.Store.DeleteProduct(r.Context(), sku)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) listReviews(w http.ResponseWriter, r *http.Request) {
	sku, err := queryStr(r, "sku")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	rs, err := h.Store.ListReviews(r.Context(), sku)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *CatalogHandler) addReview(w http.ResponseWriter, r *http.Request) {
	var rv catalog.Review
	if err := decode(r, &rv); err != nil {
		writeErr(w, r, err)
		return
	}
	rv.UserDNI = principal(r).DNI
	if err := h.Store.AddReview(r.Context(), &rv); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Store.ListCategories(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if err := decode(r, &c); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.Store.CreateCategory(r.Context(), &c); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type categoryUpdate struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryUpdate
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.ID == 0 {
		writeErr(w, r, apperr.Invalid("id is required"))
		return
	}
	c, err := h.Store.UpdateCategory(r.Context(), req.ID, req.Name, req.Description)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) removeCategory(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err == nil {
		err = h.Store.DeleteCategory(r.Context(), id)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) listUnits(w http.ResponseWriter, r *http.Request) {
	us, err := h.Store.ListUnits(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

func (h *CatalogHandler) createUnit(w http.ResponseWriter, r *http.Request) {
	var u catalog.Unit
	if err := decode(r, &u); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.Store.CreateUnit(r.Context(), &u); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type unitUpdate struct {
	ID           int64    `json:"id"`
	Name         *string  `json:"name"`
	Abbreviation *string  `json:"abbreviation"`
	Weight       *float64 `json:"weight"`
}

func (h *CatalogHandler) updateUnit(w http.ResponseWriter, r *http.Request) {
	var req unitUpdate
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.ID == 0 {
		writeErr(w, r, apperr.Invalid("id is required"))
		return
	}
	u, err := h.Store.UpdateUnit(r.Context(), req.ID, req.Name, req.Abbreviation, req.Weight)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *CatalogHandler) removeUnit(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err == nil {
		err = h.Store.DeleteUnit(r.Context(), id)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
