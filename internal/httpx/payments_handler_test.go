package httpx

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	"github.com/ariefcatur/go-retail-backend/internal/orders"
	"github.com/ariefcatur/go-retail-backend/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
)

type memIdem struct{ m map[string]string }

func (i *memIdem) Claim(_ context.Context, scope, key, value string) (string, bool, error) {
	k := scope + "/" + key
	if prev, ok := i.m[k]; ok {
		return prev, false, nil
	}
	i.m[k] = value
	return value, true, nil
}

func (i *memIdem) Complete(_ context.Context, scope, key, value string) { i.m[scope+"/"+key] = value }

func (i *memIdem) Release(_ context.Context, scope, key string) { delete(i.m, scope+"/"+key) }

type memPayments struct {
	byOrder map[string]*payments.Payment
	fail    error
	calls   int
}

func (p *memPayments) Confirm(_ context.Context, in payments.Input) (*payments.Payment, inventory.Result, error) {
	p.calls++
	if p.fail != nil {
		return nil, inventory.Result{}, p.fail
	}
	if _, dup := p.byOrder[in.OrderID]; dup {
		return nil, inventory.Result{}, apperr.Conflict("order %s already has a payment", in.OrderID)
	}
	pay := &payments.Payment{ID: int64(len(p.byOrder) + 1), OrderID: in.OrderID, AmountCents: 1500, Status: payments.StatusApproved}
	p.byOrder[in.OrderID] = pay
	return pay, inventory.Result{OrderID: in.OrderID, Applied: true}, nil
}

func (p *memPayments) ByOrder(_ context.Context, id string) (*payments.Payment, error) {
	pay, ok := p.byOrder[id]
	if !ok {
		return nil, apperr.NotFound("payment for order %s not found", id)
	}
	return pay, nil
}

func newPaymentsFixture() (*PaymentsHandler, *memPayments, *memIdem) {
	fo := &fakeOrders{byID: map[string]*orders.Order{
		"ORD-ABCD1-1222": {ID: "ORD-ABCD1-1222", UserDNI: customer.dni, Status: orders.StatusPending},
		"ORD-EFGH2-9888": {ID: "ORD-EFGH2-9888", UserDNI: stranger.dni, Status: orders.StatusPending},
		"ORD-IJKL3-1222": {ID: "ORD-IJKL3-1222", UserDNI: customer.dni, Status: orders.StatusPending},
	}}
	pays := &memPayments{byOrder: map[string]*payments.Payment{}}
	idem := &memIdem{m: map[string]string{}}
	return &PaymentsHandler{Payments: pays, Orders: fo, Idem: idem, Guard: testGuard}, pays, idem
}

func TestProcessPaymentIdempotency(t *testing.T) {
	in := payments.Input{OrderID: "ORD-ABCD1-1222", Method: payments.MethodCash}

	t.Run("repeated key replays the stored payment", func(t *testing.T) {
		h, pays, _ := newPaymentsFixture()

		rr := serve(t, h, customer, http.MethodPost, "/payment/process/", in, "Idempotency-Key", "k1")
		require.Equal(t, http.StatusCreated, rr.Code)

		rr = serve(t, h, customer, http.MethodPost, "/payment/process/", in, "Idempotency-Key", "k1")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "true", rr.Header().Get("Idempotent-Replay"))
		assert.Equal(t, 1, pays.calls)
	})

	t.Run("keys are private to each caller", func(t *testing.T) {
		h, pays, _ := newPaymentsFixture()

		rr := serve(t, h, customer, http.MethodPost, "/payment/process/", in, "Idempotency-Key", "shared")
		require.Equal(t, http.StatusCreated, rr.Code)

		other := payments.Input{OrderID: "ORD-EFGH2-9888", Method: payments.MethodCash}
		rr = serve(t, h, stranger, http.MethodPost, "/payment/process/", other, "Idempotency-Key", "shared")
		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, rr.Header().Get("Idempotent-Replay"))
		assert.Equal(t, "ORD-EFGH2-9888", decodeBody[confirmResp](t, rr).Payment.OrderID)
		assert.Equal(t, 2, pays.calls)
	})

	t.Run("key reused for another order is rejected", func(t *testing.T) {
		h, pays, _ := newPaymentsFixture()

		rr := serve(t, h, customer, http.MethodPost, "/payment/process/", in, "Idempotency-Key", "k4")
		require.Equal(t, http.StatusCreated, rr.Code)

		second := payments.Input{OrderID: "ORD-IJKL3-1222", Method: payments.MethodCash}
		rr = serve(t, h, customer, http.MethodPost, "/payment/process/", second, "Idempotency-Key", "k4")
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, 1, pays.calls)
		assert.NotContains(t, pays.byOrder, "ORD-IJKL3-1222")
	})

	t.Run("key in flight is rejected", func(t *testing.T) {
		h, pays, idem := newPaymentsFixture()
		idem.m["payment:create:"+customer.dni+"/k2"] = claimPending

		rr := serve(t, h, customer, http.MethodPost, "/payment/process/", in, "Idempotency-Key", "k2")
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Zero(t, pays.calls)
	})

	t.Run("failure releases the key", func(t *testing.T) {
		h, pays, idem := newPaymentsFixture()
		pays.fail = errors.New("db down")

		rr := serve(t, h, customer, http.MethodPost, "/payment/process/", in, "Idempotency-Key", "k3")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Empty(t, idem.m)

		pays.fail = nil
		rr = serve(t, h, customer, http.MethodPost, "/payment/process/", in, "Idempotency-Key", "k3")
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("without a key a second payment conflicts", func(t *testing.T) {
		h, _, _ := newPaymentsFixture()
		assert.Equal(t, http.StatusCreated, serve(t, h, customer, http.MethodPost, "/payment/process/", in).Code)
		assert.Equal(t, http.StatusBadRequest, serve(t, h, customer, http.MethodPost, "/payment/process/", in).Code)
	})

	t.Run("only the owner or an admin can pay", func(t *testing.T) {
		h, pays, _ := newPaymentsFixture()
		assert.Equal(t, http.StatusNotFound, serve(t, h, stranger, http.MethodPost, "/payment/process/", in).Code)
		assert.Zero(t, pays.calls)
		assert.Equal(t, http.StatusCreated, serve(t, h, staff, http.MethodPost, "/payment/process/", in).Code)
	})
}

func TestPaymentDetails(t *testing.T) {
	h, pays, _ := newPaymentsFixture()
	pays.byOrder["ORD-ABCD1-1222"] = &payments.Payment{ID: 7, OrderID: "ORD-ABCD1-1222"}

	rr := serve(t, h, customer, http.MethodGet, "/payment/details/?order=ORD-ABCD1-1222", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(7), decodeBody[payments.Payment](t, rr).ID)

	assert.Equal(t, http.StatusNotFound, serve(t, h, stranger, http.MethodGet, "/payment/details/?order=ORD-ABCD1-1222", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, customer, http.MethodGet, "/payment/details/", nil).Code)
}
