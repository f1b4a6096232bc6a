package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/events"
)

// ErrIDTaken is returned by Store.Insert when the generated order ID already exists.
var ErrIDTaken = errors.New("order id already taken")

const maxIDAttempts = 5

type Store interface {
	Insert(ctx context.Context, o *Order) error
	PriceLines(ctx context.Context, items []ItemInput) ([]Line, error)
	CartLines(ctx context.Context, userDNI string, cartID int64) ([]Line, error)
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userDNI string) ([]Order, error)
	List(ctx context.Context, limit, offset int) ([]Order, int, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to Status) (bool, error)
	Delete(ctx context.Context, id, userDNI string) error
	IsSuperuser(ctx context.Context, dni string) (bool, error)
	// SyncPending replaces the lines of the user's newest PENDING order,
	// creating it under newID when there is none.
	SyncPending(ctx context.Context, userDNI, newID string, lines []Line) (*Order, error)
}

type StatusCache interface {
	ForgetOrderStatus(ctx context.Context, orderID string)
}

type Service struct {
	Store  Store
	Events *events.Emitter
	Cache  StatusCache
	NewID  func(dni string) string
}

func (s *Service) newID(dni string) string {
	if s.NewID != nil {
		return s.NewID(dni)
	}
	return NewID(dni)
}

func (s *Service) CreateFromCart(ctx context.Context, userDNI string, cartID int64) (*Order, error) {
	lines, err := s.Store.CartLines(ctx, userDNI, cartID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.Invalid("cart %d is empty", cartID)
	}
	return s.create(ctx, userDNI, lines)
}

// CreateForClient places an order on behalf of clientDNI from the dashboard.
func (s *Service) CreateForClient(ctx context.Context, clientDNI string, items []ItemInput) (*Order, error) {
	if clientDNI == "" || len(items) == 0 {
		return nil, apperr.Invalid("client and order_items are required")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	super, err := s.Store.IsSuperuser(ctx, clientDNI)
	if err != nil {
		return nil, err
	}
	if super {
		return nil, apperr.Forbidden("a superuser cannot create an order for themself")
	}
	lines, err := s.Store.PriceLines(ctx, items)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, clientDNI, lines)
}

func (s *Service) create(ctx context.Context, userDNI string, lines []Line) (*Order, error) {
	o := &Order{UserDNI: userDNI, Status: StatusPending, Lines: lines}
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		o.ID = s.newID(userDNI)
		if err = s.Store.Insert(ctx, o); !errors.Is(err, ErrIDTaken) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	payload := events.OrderCreatedPayload{OrderID: o.ID, UserDNI: userDNI, TotalCents: o.TotalCents()}
	for _, l := range o.Lines {
		payload.Lines = append(payload.Lines, events.OrderLine{SKU: l.SKU, Quantity: l.Quantity, PriceCents: l.PriceCents})
	}
	s.Events.Emit(ctx, events.EventOrderCreated, o.ID, payload)
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userDNI string) ([]Order, error) {
	return s.Store.ListByUser(ctx, userDNI)
}

func (s *Service) List(ctx context.Context, limit, offset int) (Page, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	res, count, err := s.Store.List(ctx, limit, offset)
	if err != nil {
		return Page{}, err
	}
	if res == nil {
		res = []Order{}
	}
	return Page{Count: count, Limit: limit, Offset: offset, Results: res}, nil
}

// Cancel moves the buyer's own order to CANCELLED. Stock is not restored.
func (s *Service) Cancel(ctx context.Context, id, userDNI string) (*Order, error) {
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserDNI != userDNI {
		return nil, apperr.NotFound("order %s not found or does not belong to user", id)
	}
	if !CanCancel(o.Status, o.HasPayment) {
		return nil, apperr.Invalid("order cannot be cancelled in status %s", o.Status)
	}
	return s.move(ctx, o, StatusCancelled, "cancel")
}

// UpdateStatus is the dashboard transition, validated against the transition table.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	to, ok := ParseStatus(status)
	if !ok {
		return nil, apperr.Invalid("the given status %q isn't valid", status)
	}
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, apperr.Invalid("transition %s -> %s is not allowed", o.Status, to)
	}
	return s.move(ctx, o, to, "dashboard")
}

func (s *Service) move(ctx context.Context, o *Order, to Status, reason string) (*Order, error) {
	from := o.Status
	ok, err := s.Store.CompareAndSetStatus(ctx, o.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Invalid("order %s changed status concurrently, retry", o.ID)
	}
	o.Status = to
	if s.Cache != nil {
		s.Cache.ForgetOrderStatus(ctx, o.ID)
	}
	s.Events.Emit(ctx, events.EventOrderStatusChanged, o.ID, events.OrderStatusChangedPayload{
		OrderID: o.ID, UserDNI: o.UserDNI, From: string(from), To: string(to), Reason: reason,
	})
	return o, nil
}

func (s *Service) Delete(ctx context.Context, id, userDNI string) error {
	if err := s.Store.Delete(ctx, id, userDNI); err != nil {
		return err
	}
	if s.Cache != nil {
		s.Cache.ForgetOrderStatus(ctx, id)
	}
	return nil
}

// SyncPending aligns the buyer's PENDING order with a checkout request.
func (s *Service) SyncPending(ctx context.Context, userDNI string, items []ItemInput) (*Order, error) {
	if len(items) == 0 {
		return nil, apperr.Invalid("items are required")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].PriceCents = nil
	}
	lines, err := s.Store.PriceLines(ctx, items)
	if err != nil {
		return nil, err
	}
	var o *Order
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if o, err = s.Store.SyncPending(ctx, userDNI, s.newID(userDNI), lines); !errors.Is(err, ErrIDTaken) {
			break
		}
	}
	return o, err
}

func validateItems(items []ItemInput) error {
	for _, it := range items {
		if it.SKU == "" {
			return apperr.Invalid("every item needs a sku")
		}
		if it.Quantity <= 0 {
			return apperr.Invalid("invalid quantity for sku %s", it.SKU)
		}
		if it.PriceCents != nil && *it.PriceCents < 0 {
			return apperr.Invalid("invalid price for sku %s", it.SKU)
		}
	}
	return nil
}
