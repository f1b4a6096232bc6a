package payments

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	"github.com/ariefcatur/go-retail-backend/internal/orders"
	"time"
)

// Store runs confirmations inside a single database transaction.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	ByOrder(ctx context.Context, orderID string) (*Payment, error)
}

// Tx is the unit of work of one confirmation. Implementations must hold row locks
// on the order and on every product returned by LockLines until commit.
type Tx interface {
	LockOrder(ctx context.Context, orderID string) (userDNI string, status orders.Status, err error)
	PaymentExists(ctx context.Context, orderID string) (bool, error)
	OrderTotal(ctx context.Context, orderID string) (int64, error)
	InsertPayment(ctx context.Context, p *Payment) error
	SetOrderStatus(ctx context.Context, orderID string, status orders.Status) error
	LockLines(ctx context.Context, orderID string) ([]inventory.Line, error)
	Apply(ctx context.Context, o inventory.Outcome) error
}

type StatusCache interface {
	ForgetOrderStatus(ctx context.Context, orderID string)
}

type Service struct {
	Store  Store
	Events *events.Emitter
	Cache  StatusCache
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Confirm records the payment for an order and, when the order is still PENDING,
// moves it to PROCESSING and reconciles its lines against stock. Everything happens
// in one transaction: any failure leaves no payment, no status change and no stock change.
func (s *Service) Confirm(ctx context.Context, in Input) (*Payment, inventory.Result, error) {
	if in.OrderID == "" {
		return nil, inventory.Result{}, apperr.Invalid("order is required")
	}
	if in.Method == "" {
		in.Method = MethodCash
	}
	if in.Status == "" {
		in.Status = StatusApproved
	}
	if !in.Method.Valid() {
		return nil, inventory.Result{}, apperr.Invalid("invalid payment method %q", in.Method)
	}
	if !in.Status.Valid() {
		return nil, inventory.Result{}, apperr.Invalid("invalid payment status %q", in.Status)
	}
	if in.AmountCents != nil && *in.AmountCents < 0 {
		return nil, inventory.Result{}, apperr.Invalid("payment amount must not be negative")
	}

	var (
		p       *Payment
		res     inventory.Result
		userDNI string
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		dni, st, err := tx.LockOrder(ctx, in.OrderID)
		if err != nil {
			return err
		}
		userDNI = dni
		exists, err := tx.PaymentExists(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("order %s already has a payment", in.OrderID)
		}

		p = &Payment{OrderID: in.OrderID, Method: in.Method, Status: in.Status, PaidAt: s.now()}
		if in.PaidAt != nil {
			p.PaidAt = *in.PaidAt
		}
		if in.AmountCents != nil {
			p.AmountCents = *in.AmountCents
		} else if p.AmountCents, err = tx.OrderTotal(ctx, in.OrderID); err != nil {
			return err
		}
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}

		res = inventory.Result{OrderID: in.OrderID, PreviousStatus: string(st), Status: string(st), Lines: []inventory.Outcome{}}
		if st != orders.StatusPending {
			return nil
		}
		if err := tx.SetOrderStatus(ctx, in.OrderID, orders.StatusProcessing); err != nil {
			return err
		}
		lines, err := tx.LockLines(ctx, in.OrderID)
		if err != nil {
			return err
		}
		for _, o := range inventory.Reconcile(lines) {
			if err := tx.Apply(ctx, o); err != nil {
				return fmt.Errorf("reconcile %s: %w", o.SKU, err)
			}
			res.Lines = append(res.Lines, o)
		}
		res.Applied = true
		res.Status = string(orders.StatusProcessing)
		return nil
	})
	if err != nil {
		return nil, inventory.Result{}, err
	}

	s.afterCommit(ctx, userDNI, p, res)
	return p, res, nil
}

func (s *Service) afterCommit(ctx context.Context, userDNI string, p *Payment, res inventory.Result) {
	if res.Applied {
		if s.Cache != nil {
			s.Cache.ForgetOrderStatus(ctx, p.OrderID)
		}
		s.Events.Emit(ctx, events.EventOrderStatusChanged, p.OrderID, events.OrderStatusChangedPayload{
			OrderID: p.OrderID, UserDNI: userDNI, From: res.PreviousStatus, To: res.Status, Reason: "payment",
		})
	}
	payload := events.PaymentConfirmedPayload{
		OrderID: p.OrderID, UserDNI: userDNI, AmountCents: p.AmountCents,
		Method: string(p.Method), Status: string(p.Status), Applied: res.Applied,
	}
	for _, o := range res.Lines {
		payload.Lines = append(payload.Lines, events.LineAdjustment{
			SKU: o.SKU, Requested: o.Requested, Fulfilled: o.Fulfilled, Action: string(o.Action),
		})
	}
	s.Events.Emit(ctx, events.EventPaymentConfirmed, p.OrderID, payload)
}

func (s *Service) ByOrder(ctx context.Context, orderID string) (*Payment, error) {
	if orderID == "" {
		return nil, apperr.Invalid("order is required")
	}
	return s.Store.ByOrder(ctx, orderID)
}
