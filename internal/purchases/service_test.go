package purchases

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	"github.com/ariefcatur/go-retail-backend/internal/events/eventstest"
	"github.com/ariefcatur/go-retail-backend/internal/inventory"
	kafkax "github.com/ariefcatur/go-retail-backend/internal/kafka"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type memStore struct {
	purchases map[int64]*Purchase
	demand    []inventory.Demand
	backlog   map[string]inventory.Shortfall
	cleared   []string
}

func newMemStore() *memStore {
	return &memStore{purchases: map[int64]*Purchase{}, backlog: map[string]inventory.Shortfall{}}
}

func (m *memStore) InTx(_ context.Context, fn func(tx Tx) error) error { return fn(m) }

func (m *memStore) InsertPurchase(_ context.Context, p *Purchase) error {
	p.ID = int64(len(m.purchases) + 1)
	cp := *p
	m.purchases[p.ID] = &cp
	return nil
}

func (m *memStore) SetGlobalPercentage(_ context.Context, id int64, pct *float64) (float64, error) {
	p, ok := m.purchases[id]
	if !ok {
		return 0, apperr.NotFound("purchase %d not found", id)
	}
	if pct != nil {
		p.GlobalSellPercentage = *pct
	}
	return p.GlobalSellPercentage, nil
}

func (m *memStore) ReplaceItems(_ context.Context, id int64, items []Item) error {
	m.purchases[id].Items = items
	return nil
}

func (m *memStore) OpenOrderDemand(context.Context) ([]inventory.Demand, error) { return m.demand, nil }

func (m *memStore) SaveBacklog(_ context.Context, orderIDs []string, sf []inventory.Shortfall) error {
	m.cleared = orderIDs
	for _, s := range sf {
		m.backlog[s.OrderID+"/"+s.SKU] = s
	}
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Purchase, error) {
	p, ok := m.purchases[id]
	if !ok {
		return nil, apperr.NotFound("purchase %d not found", id)
	}
	cp := *p
	cp.Items = append([]Item(nil), p.Items...)
	cp.Price()
	return &cp, nil
}

func (m *memStore) List(context.Context) ([]Purchase, error) { return nil, nil }
func (m *memStore) Delete(context.Context, int64) error { return nil }
func (m *memStore) MissingItems(context.Context) ([]MissingItem, error) { return nil, nil }

func unit(id int64) *int64 { return &id }

func validInput() Input {
	return Input{
		PurchasedBy:          "30111222",
		GlobalSellPercentage: f64(25),
		Items: []ItemInput{
			{SKU: "YERBA-1KG", Quantity: 4, PurchasePrice: decimal.RequireFromString("12.50"), UnitID: unit(1)},
		},
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("records items and the backlog of open orders", func(t *testing.T) {
		store := newMemStore()
		store.demand = []inventory.Demand{
			{OrderID: "ORD-AAAA1-0001", SKU: "YERBA-1KG", Requested: 5, Stock: 2},
			{OrderID: "ORD-AAAA1-0001", SKU: "MATE", Requested: 1, Stock: 9},
			{OrderID: "ORD-BBBB2-0002", SKU: "YERBA-1KG", Requested: 1, Stock: 2},
		}
		rec := &eventstest.Recorder{}
		svc := &Service{Store: store, Events: events.NewEmitter(rec, "test")}

		out, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		assert.Equal(t, "50.00", out.Purchase.TotalCost.StringFixed(2))
		assert.Equal(t, int64(1250), out.Purchase.Items[0].PurchasePriceCents)

		require.Len(t, out.Missing, 1)
		assert.Equal(t, inventory.Shortfall{OrderID: "ORD-AAAA1-0001", SKU: "YERBA-1KG", Stock: 2, Missing: 3}, out.Missing[0])
		assert.Contains(t, store.backlog, "ORD-AAAA1-0001/YERBA-1KG")
		assert.ElementsMatch(t, []string{"ORD-AAAA1-0001", "ORD-BBBB2-0002"}, store.cleared)

		require.Equal(t, []string{events.EventPurchaseRecorded}, rec.Types())
		p, err := kafkax.UnwrapPayload[events.PurchaseRecordedPayload](rec.Messages()[0].Envelope.Payload)
		require.NoError(t, err)
		assert.Equal(t, "50.00", p.TotalCost)
		assert.Equal(t, 1, p.MissingItems)
	})

	t.Run("validation", func(t *testing.T) {
		svc := &Service{Store: newMemStore()}

		low := validInput()
		low.GlobalSellPercentage = f64(9.5)
		_, err := svc.Create(ctx, low)
		assert.ErrorIs(t, err, apperr.ErrInvalid)

		noUnit := validInput()
		noUnit.Items[0].UnitID = nil
		_, err = svc.Create(ctx, noUnit)
		assert.ErrorIs(t, err, apperr.ErrInvalid)

		empty := validInput()
		empty.Items = nil
		_, err = svc.Create(ctx, empty)
		assert.ErrorIs(t, err, apperr.ErrInvalid)

		noBuyer := validInput()
		noBuyer.PurchasedBy = ""
		_, err = svc.Create(ctx, noBuyer)
		assert.ErrorIs(t, err, apperr.ErrInvalid)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := &Service{Store: store}
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	store.demand = []inventory.Demand{{OrderID: "ORD-CCCC3-0003", SKU: "YERBA-1KG", Requested: 9, Stock: 0}}

	in := Input{Items: []ItemInput{
		{SKU: "MATE", Quantity: 2, PurchasePrice: decimal.RequireFromString("3"), UnitID: unit(2)},
	}}
	p, err := svc.Update(ctx, created.Purchase.ID, in)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "MATE", p.Items[0].SKU)
	require.NotNil(t, p.Items[0].SellPercentage)
	assert.Equal(t, 25.0, *p.Items[0].SellPercentage)
	assert.Empty(t, store.backlog, "updates do not touch the backlog")

	_, err = svc.Update(ctx, 99, in)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
