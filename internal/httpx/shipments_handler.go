package httpx

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/shipments"
	"github.com/go-chi/chi/v5"
	"net/http"
)

type ShipmentStore interface {
	Create(ctx context.Context, in shipments.Input) (*shipments.Shipment, error)
	List(ctx context.Context) ([]shipments.Shipment, error)
	Update(ctx context.Context, id int64, in shipments.Input) (*shipments.Shipment, error)
}

type ShipmentsHandler struct {
	Store  ShipmentStore
	Orders OrderLookup
	Guard  Guard
}

func (h *ShipmentsHandler) Register(r *chi.Mux) {
	h.Guard.User(r).Post("/customer/shipment/create/", h.create)
	admin := h.Guard.Admin(r)
	admin.Get("/shipments/", h.list)
	admin.Put("/shipments/update/", h.update)
}

func (h *ShipmentsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in shipments.Input
	if err := decode(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	p := principal(r)
	if in.UserDNI == nil {
		in.UserDNI = &p.DNI
	}
	if err := in.ValidateCreate(); err != nil {
		writeErr(w, r, err)
		return
	}
	if !p.Admin {
		o, err := h.Orders.Get(r.Context(), *in.OrderID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if o.UserDNI != p.DNI || *in.UserDNI != p.DNI {
			writeErr(w, r, apperr.Forbidden("shipments can only be created for your own orders"))
			return
		}
	}
	s, err := h.Store.Create(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *ShipmentsHandler) list(w http.ResponseWriter, r *http.Request) {
	ss, err := h.Store.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ss)
}

type shipmentUpdate struct {
	Shipment int64 `json:"shipment"`
	shipments.Input
}

func (h *ShipmentsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req shipmentUpdate
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Shipment == 0 {
		writeErr(w, r, apperr.Invalid("shipment ID is missing"))
		return
	}
	s, err := h.Store.Update(r.Context(), req.Shipment, req.Input)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
