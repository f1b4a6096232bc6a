package httpx

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	"github.com/ariefcatur/go-retail-backend/internal/orders"
	"github.com/ariefcatur/go-retail-backend/internal/payments"
	"github.com/ariefcatur/go-retail-backend/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"log"
	"net/http"
	"time"
)

type PaymentService interface {
	PaymentConfirmer
	ByOrder(ctx context.Context, orderID string) (*payments.Payment, error)
}

type CheckoutService interface {
	CreatePreference(ctx context.Context, userDNI string, items []orders.ItemInput) (*payments.Preference, *orders.Order, error)
	Charge(ctx context.Context, userDNI string, req payments.ChargeRequest, idempotencyKey string) (*payments.ChargeResult, error)
}

type OrderLookup interface {
	Get(ctx context.Context, id string) (*orders.Order, error)
}

// Idempotency is satisfied by *redisx.Cache.
type Idempotency interface {
	Claim(ctx context.Context, scope, key, value string) (string, bool, error)
	Complete(ctx context.Context, scope, key, value string)
	Release(ctx context.Context, scope, key string)
}

type PaymentsHandler struct {
	Payments PaymentService
	Checkout CheckoutService
	Orders   OrderLookup
	Idem     Idempotency
	Guard    Guard
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	user := h.Guard.User(r)
	user.Post("/payment/process/", h.process)
	user.Get("/payment/details/", h.details)
	user.Post("/payments/create-preference/", h.createPreference)
	user.Post("/process_payment/", h.charge)
}

const claimPending = "pending"

type confirmResp struct {
	Payment        *payments.Payment `json:"payment"`
	Reconciliation inventory.Result  `json:"reconciliation"`
}

// idempotent runs fn at most once per caller and client key. A repeated key replays the
// stored payment of the order fn returned; a key still in flight is rejected with 409.
// A non-empty wantOrder must match the replayed order, else the key was reused for
// another order and the request is rejected with 409.
// An empty order ID from fn means nothing was recorded and the key stays reusable.
func (h *PaymentsHandler) idempotent(w http.ResponseWriter, r *http.Request, scope, key, wantOrder string,
	fn func(ctx context.Context) (orderID string, body any, err error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	scope = scope + ":" + principal(r).DNI

	claimed := false
	if key != "" && h.Idem != nil {
		prev, fresh, err := h.Idem.Claim(ctx, scope, key, claimPending)
		switch {
		case err != nil:
			log.Printf("idempotency claim %s/%s: %v", scope, key, err)
		case !fresh && prev == claimPending:
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a request with this idempotency key is in progress"})
			return
		case !fresh && wantOrder != "" && prev != wantOrder:
			writeJSON(w, http.StatusConflict, map[string]string{"error": "idempotency key was already used for another order"})
			return
		case !fresh:
			p, err := h.Payments.ByOrder(ctx, prev)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			w.Header().Set("Idempotent-Replay", "true")
			writeJSON(w, http.StatusOK, map[string]any{"payment": p})
			return
		default:
			claimed = true
		}
	}

	orderID, body, err := fn(ctx)
	if err != nil {
		if claimed {
			h.Idem.Release(ctx, scope, key)
		}
		writeErr(w, r, err)
		return
	}
	switch {
	case claimed && orderID != "":
		h.Idem.Complete(ctx, scope, key, orderID)
	case claimed:
		h.Idem.Release(ctx, scope, key)
	}
	writeJSON(w, http.StatusCreated, body)
}

func (h *PaymentsHandler) process(w http.ResponseWriter, r *http.Request) {
	var in payments.Input
	if err := decode(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	if in.OrderID == "" {
		writeErr(w, r, apperr.Invalid("order is required"))
		return
	}
	p := principal(r)
	h.idempotent(w, r, redisx.ScopePaymentCreate, r.Header.Get("Idempotency-Key"), in.OrderID,
		func(ctx context.Context) (string, any, error) {
			if !p.Admin {
				o, err := h.Orders.Get(ctx, in.OrderID)
				if err != nil {
					return "", nil, err
				}
				if o.UserDNI != p.DNI {
					return "", nil, apperr.NotFound("order %s not found", in.OrderID)
				}
			}
			pay, res, err := h.Payments.Confirm(ctx, in)
			if err != nil {
				return "", nil, err
			}
			return in.OrderID, confirmResp{Payment: pay, Reconciliation: res}, nil
		})
}

func (h *PaymentsHandler) details(w http.ResponseWriter, r *http.Request) {
	orderID, err := queryStr(r, "order")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if p := principal(r); !p.Admin {
		o, err := h.Orders.Get(ctx, orderID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if o.UserDNI != p.DNI {
			writeErr(w, r, apperr.NotFound("payment for order %s not found", orderID))
			return
		}
	}
	pay, err := h.Payments.ByOrder(ctx, orderID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

type preferenceReq struct {
	Items []orders.ItemInput `json:"items"`
}

type preferenceResp struct {
	ID        string        `json:"id"`
	InitPoint string        `json:"init_point"`
	Order     *orders.Order `json:"order"`
}

func (h *PaymentsHandler) createPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceReq
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	pref, o, err := h.Checkout.CreatePreference(ctx, principal(r).DNI, req.Items)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preferenceResp{ID: pref.ID, InitPoint: pref.InitPoint, Order: o})
}

// charge creates a gateway payment for the caller's pending order.
func (h *PaymentsHandler) charge(w http.ResponseWriter, r *http.Request) {
	var req payments.ChargeRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	key := r.Header.Get("X-Idempotency-Key")
	if key == "" {
		key = uuid.NewString()
	}
	dni := principal(r).DNI
	h.idempotent(w, r, redisx.ScopeGatewayCharge, key, "", func(ctx context.Context) (string, any, error) {
		res, err := h.Checkout.Charge(ctx, dni, req, key)
		if err != nil {
			return "", nil, err
		}
		if res.Payment == nil {
			return "", res, nil
		}
		return res.OrderID, res, nil
	})
}
