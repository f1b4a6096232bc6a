package httpx

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/coupons"
	"github.com/go-chi/chi/v5"
	"net/http"
)

type CouponStore interface {
	Create(ctx context.Context, createdBy string, in coupons.Input) (*coupons.Coupon, error)
	List(ctx context.Context) ([]coupons.Coupon, error)
	Update(ctx context.Context, code string, in coupons.Input) (*coupons.Coupon, error)
	Delete(ctx context.Context, code string) error
}

type CouponValidator interface {
	Validate(ctx context.Context, code string) (coupons.Validation, error)
}

type CouponsHandler struct {
	Store     CouponStore
	Validator CouponValidator
	Guard     Guard
}

func (h *CouponsHandler) Register(r *chi.Mux) {
	h.Guard.User(r).Post("/coupons/validate/", h.validate)
	admin := h.Guard.Admin(r)
	admin.Post("/coupons/create/", h.create)
	admin.Get("/coupons/", h.list)
	admin.Put("/coupons/update/", h.update)
	admin.Delete("/coupons/delete/", h.remove)
}

type couponCode struct {
	Code string `json:"coupon_code"`
}

func (h *CouponsHandler) validate(w http.ResponseWriter, r *http.Request) {
	var req couponCode
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Code == "" {
		writeErr(w, r, apperr.Invalid("coupon_code is required"))
		return
	}
	res, err := h.Validator.Validate(r.Context(), req.Code)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, coupons.Validation{Error: "coupon not found"})
		return
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !res.Valid {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CouponsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in coupons.Input
	if err := decode(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	c, err := h.Store.Create(r.Context(), principal(r).DNI, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CouponsHandler) list(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Store.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CouponsHandler) update(w http.ResponseWriter, r *http.Request) {
	code, err := queryStr(r, "code")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var in coupons.Input
	if err := decode(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	c, err := h.Store.Update(r.Context(), code, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CouponsHandler) remove(w http.ResponseWriter, r *http.Request) {
	code, err := queryStr(r, "code")
	if err == nil {
		err = h.Store.Delete(r.Context(), code)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
