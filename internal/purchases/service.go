package purchases

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	"strconv"
)

type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, id int64) (*Purchase, error)
	List(ctx context.Context) ([]Purchase, error)
	Delete(ctx context.Context, id int64) error
	MissingItems(ctx context.Context) ([]MissingItem, error)
}

type Tx interface {
	InsertPurchase(ctx context.Context, p *Purchase) error
	// SetGlobalPercentage returns the stored percentage after the optional update.
	SetGlobalPercentage(ctx context.Context, id int64, pct *float64) (float64, error)
	ReplaceItems(ctx context.Context, purchaseID int64, items []Item) error
	// OpenOrderDemand lists every line of PENDING and PROCESSING orders with current stock.
	OpenOrderDemand(ctx context.Context) ([]inventory.Demand, error)
	// SaveBacklog upserts shortfalls and clears rows of the given orders that are no longer short.
	SaveBacklog(ctx context.Context, orderIDs []string, shortfalls []inventory.Shortfall) error
}

type Service struct {
	Store  Store
	Events *events.Emitter
}

type Recorded struct {
	Purchase *Purchase             `json:"purchase"`
	Missing  []inventory.Shortfall `json:"missing_items"`
}

// Create records the purchase and recomputes the missing-items backlog in the same transaction.
func (s *Service) Create(ctx context.Context, in Input) (*Recorded, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	p := &Purchase{PurchasedBy: &in.PurchasedBy, GlobalSellPercentage: *in.GlobalSellPercentage}
	var shortfalls []inventory.Shortfall
	err := s.Store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertPurchase(ctx, p); err != nil {
			return err
		}
		if err := tx.ReplaceItems(ctx, p.ID, in.toItems()); err != nil {
			return err
		}
		demand, err := tx.OpenOrderDemand(ctx)
		if err != nil {
			return err
		}
		shortfalls = inventory.Shortfalls(demand)
		return tx.SaveBacklog(ctx, orderIDs(demand), shortfalls)
	})
	if err != nil {
		return nil, err
	}

	saved, err := s.Store.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.Events.Emit(ctx, events.EventPurchaseRecorded, strconv.FormatInt(saved.ID, 10), events.PurchaseRecordedPayload{
		PurchaseID:   saved.ID,
		PurchasedBy:  in.PurchasedBy,
		ItemCount:    len(saved.Items),
		TotalCost:    saved.TotalCost.StringFixed(2),
		MissingItems: len(shortfalls),
	})
	return &Recorded{Purchase: saved, Missing: shortfalls}, nil
}

// Update replaces the items of a purchase. The backlog is left untouched.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Purchase, error) {
	if err := in.ValidateUpdate(); err != nil {
		return nil, err
	}
	err := s.Store.InTx(ctx, func(tx Tx) error {
		global, err := tx.SetGlobalPercentage(ctx, id, in.GlobalSellPercentage)
		if err != nil {
			return err
		}
		items := in.toItems()
		for i := range items {
			if items[i].SellPercentage == nil {
				items[i].SellPercentage = &global
			}
		}
		return tx.ReplaceItems(ctx, id, items)
	})
	if err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Purchase, error) { return s.Store.Get(ctx, id) }

func (s *Service) List(ctx context.Context) ([]Purchase, error) { return s.Store.List(ctx) }

func (s *Service) Delete(ctx context.Context, id int64) error { return s.Store.Delete(ctx, id) }

func (s *Service) MissingItems(ctx context.Context) ([]MissingItem, error) {
	return s.Store.MissingItems(ctx)
}

func orderIDs(demand []inventory.Demand) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range demand {
		if !seen[d.OrderID] {
			seen[d.OrderID] = true
			out = append(out, d.OrderID)
		}
	}
	return out
}
