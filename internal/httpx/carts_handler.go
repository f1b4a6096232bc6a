package httpx

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/carts"
	"github.com/go-chi/chi/v5"
	"net/http"
	"time"
)

type CartStore interface {
	Create(ctx context.Context, c *carts.Cart) error
	ListByUser(ctx context.Context, userDNI string) ([]carts.Cart, error)
	DeleteByName(ctx context.Context, userDNI, name string) error
	AddItems(ctx context.Context, userDNI string, cartID int64, items []carts.ItemInput) ([]carts.Item, error)
	Items(ctx context.Context, userDNI string, cartID int64) ([]carts.Item, error)
	RemoveItem(ctx context.Context, userDNI string, cartID, itemID int64) error
}

type CartsHandler struct {
	Store CartStore
	Guard Guard
}

func (h *CartsHandler) Register(r *chi.Mux) {
	user := h.Guard.User(r)
	user.Post("/carts/create/", h.createCart)
	user.Get("/orders/carts/", h.listCarts)
	user.Delete("/orders/carts/delete/", h.deleteCart)
	user.Post("/carts/items/create/", h.addItems)
	user.Post("/carts/products/create/", h.addItems)
	user.Get("/carts/products/list/", h.listItems)
	user.Delete("/carts/products/remove/", h.removeItem)
}

func (h *CartsHandler) createCart(w http.ResponseWriter, r *http.Request) {
	var c carts.Cart
	if err := decode(r, &c); err != nil {
		writeErr(w, r, err)
		return
	}
	c.UserDNI = principal(r).DNI
	if err := h.Store.Create(r.Context(), &c); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CartsHandler) listCarts(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Store.ListByUser(r.Context(), principal(r).DNI)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CartsHandler) deleteCart(w http.ResponseWriter, r *http.Request) {
	name, err := queryStr(r, "name")
	if err == nil {
		err = h.Store.DeleteByName(r.Context(), principal(r).DNI, name)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addItemsReq struct {
	Cart  int64             `json:"cart"`
	Items []carts.ItemInput `json:"items"`
}

func (h *CartsHandler) addItems(w http.ResponseWriter, r *http.Request) {
	var req addItemsReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Cart == 0 {
		writeErr(w, r, apperr.Invalid("cart is required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.Store.AddItems(ctx, principal(r).DNI, req.Cart, req.Items)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, items)
}

func (h *CartsHandler) listItems(w http.ResponseWriter, r *http.Request) {
	cartID, err := queryID(r, "cart")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	items, err := h.Store.Items(r.Context(), principal(r).DNI, cartID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CartsHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := queryID(r, "cart")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	itemID, err := queryID(r, "item")
	if err == nil {
		err = h.Store.RemoveItem(r.Context(), principal(r).DNI, cartID, itemID)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
