package payments

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	"github.com/ariefcatur/go-retail-backend/internal/orders"
	"github.com/shopspring/decimal"
	"log"
)

type PendingOrders interface {
	SyncPending(ctx context.Context, userDNI string, items []orders.ItemInput) (*orders.Order, error)
	ListByUser(ctx context.Context, userDNI string) ([]orders.Order, error)
}

// Checkout glues the buyer's pending order to the payment gateway.
type Checkout struct {
	Orders   PendingOrders
	Gateway  Gateway
	Payments *Service
	BackURL  string
	Currency string
}

type ChargeResult struct {
	OrderID        string            `json:"order_id"`
	Charge         *Charge           `json:"charge"`
	Payment        *Payment          `json:"payment,omitempty"`
	Reconciliation *inventory.Result `json:"reconciliation,omitempty"`
}

func CentsToAmount(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

func AmountToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// CreatePreference syncs the pending order with items and opens a gateway checkout for it.
func (c *Checkout) CreatePreference(ctx context.Context, userDNI string, items []orders.ItemInput) (*Preference, *orders.Order, error) {
	o, err := c.Orders.SyncPending(ctx, userDNI, items)
	if err != nil {
		return nil, nil, err
	}
	currency := c.Currency
	if currency == "" {
		currency = "ARS"
	}
	req := PreferenceRequest{
		BackURLs: BackURLs{
			Success: c.BackURL + "/success",
			Failure: c.BackURL + "/failure",
			Pending: c.BackURL + "/pending",
		},
		AutoReturn:        "approved",
		ExternalReference: o.ID,
	}
	for _, l := range o.Lines {
		title := l.ProductName
		if title == "" {
			title = l.SKU
		}
		req.Items = append(req.Items, PreferenceItem{
			ID: l.SKU, Title: title, Quantity: l.Quantity,
			UnitPrice: CentsToAmount(l.PriceCents), CurrencyID: currency,
		})
	}
	pref, err := c.Gateway.CreatePreference(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return pref, o, nil
}

// Charge bills the buyer's newest PENDING order. An approved charge is confirmed locally.
func (c *Checkout) Charge(ctx context.Context, userDNI string, req ChargeRequest, idempotencyKey string) (*ChargeResult, error) {
	if req.Token == "" || req.PaymentMethodID == "" {
		return nil, apperr.Invalid("token and payment_method_id are required")
	}
	list, err := c.Orders.ListByUser(ctx, userDNI)
	if err != nil {
		return nil, err
	}
	var pending *orders.Order
	for i := range list {
		if list[i].Status != orders.StatusPending {
			continue
		}
		if pending == nil || list[i].CreatedAt.After(pending.CreatedAt) {
			pending = &list[i]
		}
	}
	if pending == nil {
		return nil, apperr.NotFound("no pending order for user %s", userDNI)
	}

	total := pending.TotalCents()
	if total <= 0 {
		return nil, apperr.Invalid("order %s has nothing to pay", pending.ID)
	}
	if req.TransactionAmount > 0 && AmountToCents(req.TransactionAmount) != total {
		return nil, apperr.Invalid("transaction_amount must equal the order total %s",
			decimal.New(total, -2).StringFixed(2))
	}
	req.ExternalReference = pending.ID
	req.TransactionAmount = CentsToAmount(total)
	if req.Installments <= 0 {
		req.Installments = 1
	}
	ch, err := c.Gateway.CreateCharge(ctx, req, idempotencyKey)
	if err != nil {
		return nil, err
	}
	out := &ChargeResult{OrderID: pending.ID, Charge: ch}
	if !ch.Approved() || c.Payments == nil {
		return out, nil
	}

	amount := AmountToCents(ch.TransactionAmount)
	if amount < total {
		log.Printf("checkout: charge %d for %s approved %d cents of %d, order left pending", ch.ID, pending.ID, amount, total)
		return out, nil
	}
	p, res, err := c.Payments.Confirm(ctx, Input{
		OrderID: pending.ID, AmountCents: &amount, Method: ch.Method(), Status: StatusApproved,
	})
	if err != nil {
		return nil, err
	}
	out.Payment, out.Reconciliation = p, &res
	return out, nil
}
