package httpx

import (
	"context"
	"encoding/json"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	"github.com/ariefcatur/go-retail-backend/internal/orders"
	"github.com/ariefcatur/go-retail-backend/internal/payments"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"net/http"
	"time"
)

type OrderService interface {
	CreateFromCart(ctx context.Context, userDNI string, cartID int64) (*orders.Order, error)
	CreateForClient(ctx context.Context, clientDNI string, items []orders.ItemInput) (*orders.Order, error)
	Get(ctx context.Context, id string) (*orders.Order, error)
	ListByUser(ctx context.Context, userDNI string) ([]orders.Order, error)
	List(ctx context.Context, limit, offset int) (orders.Page, error)
	Cancel(ctx context.Context, id, userDNI string) (*orders.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*orders.Order, error)
	Delete(ctx context.Context, id, userDNI string) error
}

type PaymentConfirmer interface {
	Confirm(ctx context.Context, in payments.Input) (*payments.Payment, inventory.Result, error)
}

type StatusCache interface {
	OrderStatus(ctx context.Context, orderID string) ([]byte, bool)
	SetOrderStatus(ctx context.Context, orderID string, body []byte)
}

type OrdersHandler struct {
	Orders   OrderService
	Payments PaymentConfirmer
	Cache    StatusCache
	Guard    Guard
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	user := h.Guard.User(r)
	user.Post("/carts/orders/create/", h.createFromCart)
	user.Get("/carts/orders/list/", h.listMine)
	user.Delete("/carts/orders/order/delete/", h.deleteMine)
	user.Put("/orders/order/cancel/", h.cancel)
	user.Get("/orders/{id}/status", h.getStatus)
	user.Get("/dashboard/order/details/", h.details)

	admin := h.Guard.Admin(r)
	admin.Get("/dashboard/orders/", h.list)
	admin.Post("/dashboard/orders/create/", h.createForClient)
	admin.Put("/dashboard/order/update/", h.updateStatus)
}

type createFromCartReq struct {
	Cart int64 `json:"cart"`
}

func (h *OrdersHandler) createFromCart(w http.ResponseWriter, r *http.Request) {
	var req createFromCartReq
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

	o, err := h.Orders.CreateFromCart(ctx, principal(r).DNI, req.Cart)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

type createForClientReq struct {
	Client        string             `json:"client"`
	OrderItems    []orders.ItemInput `json:"order_items"`
	IsPaid        bool               `json:"is_paid"`
	PaymentMethod payments.Method    `json:"payment_method,omitempty"`
	PaymentAmount *decimal.Decimal   `json:"payment_amount,omitempty"`
	PaymentDate   *time.Time         `json:"payment_date,omitempty"`
}

// payment builds the confirmation input for orderID. Empty fields fall back to
// CASH, the order total and now.
func (req createForClientReq) payment(orderID string) (payments.Input, error) {
	in := payments.Input{OrderID: orderID, Method: req.PaymentMethod, PaidAt: req.PaymentDate}
	if in.Method != "" && !in.Method.Valid() {
		return in, apperr.Invalid("invalid payment method %q", in.Method)
	}
	if req.PaymentAmount != nil {
		if req.PaymentAmount.IsNegative() {
			return in, apperr.Invalid("payment amount must not be negative")
		}
		cents := req.PaymentAmount.Shift(2).Round(0).IntPart()
		in.AmountCents = &cents
	}
	return in, nil
}

type createForClientResp struct {
	Order          *orders.Order     `json:"order"`
	Payment        *payments.Payment `json:"payment,omitempty"`
	Reconciliation *inventory.Result `json:"reconciliation,omitempty"`
}

// createForClient places an order from the dashboard. is_paid confirms it right away.
func (h *OrdersHandler) createForClient(w http.ResponseWriter, r *http.Request) {
	var req createForClientReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if _, err := req.payment(""); req.IsPaid && err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.CreateForClient(ctx, req.Client, req.OrderItems)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	resp := createForClientResp{Order: o}
	if req.IsPaid {
		in, _ := req.payment(o.ID)
		p, res, err := h.Payments.Confirm(ctx, in)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		resp.Payment, resp.Reconciliation = p, &res
		if fresh, err := h.Orders.Get(ctx, o.ID); err == nil {
			resp.Order = fresh
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	mine, err := h.Orders.ListByUser(r.Context(), principal(r).DNI)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}

func (h *OrdersHandler) deleteMine(w http.ResponseWriter, r *http.Request) {
	id, err := queryStr(r, "order")
	if err == nil {
		err = h.Orders.Delete(r.Context(), id, principal(r).DNI)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type orderRef struct {
	Order  string `json:"order"`
	Status string `json:"status,omitempty"`
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req orderRef
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Order == "" {
		writeErr(w, r, apperr.Invalid("order is required"))
		return
	}
	o, err := h.Orders.Cancel(r.Context(), req.Order, principal(r).DNI)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.Orders.List(r.Context(), queryInt(r, "limit", defaultPageSize), queryInt(r, "offset", 0))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) details(w http.ResponseWriter, r *http.Request) {
	id, err := queryStr(r, "order")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if p := principal(r); !p.Admin && p.DNI != o.UserDNI {
		writeErr(w, r, apperr.Forbidden("order %s belongs to another user", id))
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req orderRef
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Order == "" || req.Status == "" {
		writeErr(w, r, apperr.Invalid("order and status are required"))
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), req.Order, req.Status)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type statusBody struct {
	OrderID string `json:"order_id"`
	UserDNI string `json:"user_dni"`
	Status  string `json:"status"`
}

// getStatus serves the order status from Redis, falling back to the database.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	p := principal(r)

	if b, ok := h.Cache.OrderStatus(ctx, orderID); ok {
		var cached statusBody
		if err := json.Unmarshal(b, &cached); err == nil {
			if !p.Admin && cached.UserDNI != p.DNI {
				writeErr(w, r, apperr.NotFound("order %s not found", orderID))
				return
			}
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	o, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !p.Admin && o.UserDNI != p.DNI {
		writeErr(w, r, apperr.NotFound("order %s not found", orderID))
		return
	}
	body := statusBody{OrderID: o.ID, UserDNI: o.UserDNI, Status: string(o.Status)}
	b, _ := json.Marshal(body)
	h.Cache.SetOrderStatus(ctx, orderID, b)
	writeJSON(w, http.StatusOK, body)
}
