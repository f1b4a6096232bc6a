package httpx

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/purchases"
	"github.com/go-chi/chi/v5"
	"net/http"
	"strconv"
	"time"
)

type PurchaseService interface {
	Create(ctx context.Context, in purchases.Input) (*purchases.Recorded, error)
	Update(ctx context.Context, id int64, in purchases.Input) (*purchases.Purchase, error)
	Get(ctx context.Context, id int64) (*purchases.Purchase, error)
	List(ctx context.Context) ([]purchases.Purchase, error)
	Delete(ctx context.Context, id int64) error
	MissingItems(ctx context.Context) ([]purchases.MissingItem, error)
}

type PurchasesHandler struct {
	Purchases PurchaseService
	Guard     Guard
}

func (h *PurchasesHandler) Register(r *chi.Mux) {
	admin := h.Guard.Admin(r)
	admin.Post("/purchases/", h.create)
	admin.Put("/purchases/", h.update)
	admin.Delete("/purchases/", h.remove)
	admin.Get("/purchases/list/", h.list)
	admin.Get("/purchases/missing-items/", h.missing)
	admin.Get("/purchases/{id}/", h.get)
}

func (h *PurchasesHandler) create(w http.ResponseWriter, r *http.Request) {
	var in purchases.Input
	if err := decode(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	rec, err := h.Purchases.Create(ctx, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type purchaseUpdate struct {
	PurchaseID int64 `json:"purchase_id"`
	purchases.Input
}

func (h *PurchasesHandler) update(w http.ResponseWriter, r *http.Request) {
	var req purchaseUpdate
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.PurchaseID == 0 {
		writeErr(w, r, apperr.Invalid("purchase_id is required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	p, err := h.Purchases.Update(ctx, req.PurchaseID, req.Input)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PurchasesHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "purchase_id")
	if err == nil {
		err = h.Purchases.Delete(r.Context(), id)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PurchasesHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Purchases.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *PurchasesHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErr(w, r, apperr.Invalid("purchase id must be a number"))
		return
	}
	p, err := h.Purchases.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PurchasesHandler) missing(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Purchases.MissingItems(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}
