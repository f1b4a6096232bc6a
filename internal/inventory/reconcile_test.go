package inventory

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestReconcile(t *testing.T) {
	t.Run("stock covers the line", func(t *testing.T) {
		out := Reconcile([]Line{{LineID: 1, SKU: "A1", Requested: 3, Stock: 5}})
		assert.Equal(t, []Outcome{{LineID: 1, SKU: "A1", Requested: 3, Fulfilled: 3, Action: ActionDecrement, StockAfter: 2}}, out)
	})

	t.Run("exact stock is a full decrement", func(t *testing.T) {
		out := Reconcile([]Line{{LineID: 1, SKU: "A1", Requested: 3, Stock: 3}})
		assert.Equal(t, ActionDecrement, out[0].Action)
		assert.Equal(t, 0, out[0].StockAfter)
	})

	t.Run("partial stock clamps the line", func(t *testing.T) {
		out := Reconcile([]Line{{LineID: 1, SKU: "A1", Requested: 3, Stock: 2}})
		assert.Equal(t, []Outcome{{LineID: 1, SKU: "A1", Requested: 3, Fulfilled: 2, Action: ActionClamp, StockAfter: 0}}, out)
	})

	t.Run("no stock drops the line", func(t *testing.T) {
		out := Reconcile([]Line{{LineID: 1, SKU: "A1", Requested: 3, Stock: 0}})
		assert.Equal(t, []Outcome{{LineID: 1, SKU: "A1", Requested: 3, Fulfilled: 0, Action: ActionDrop, StockAfter: 0}}, out)
	})

	t.Run("lines of the same sku share stock", func(t *testing.T) {
		out := Reconcile([]Line{
			{LineID: 1, SKU: "A1", Requested: 3, Stock: 4},
			{LineID: 2, SKU: "B2", Requested: 1, Stock: 9},
			{LineID: 3, SKU: "A1", Requested: 3, Stock: 4},
			{LineID: 4, SKU: "A1", Requested: 1, Stock: 4},
		})
		assert.Equal(t, ActionDecrement, out[0].Action)
		assert.Equal(t, ActionDecrement, out[1].Action)
		assert.Equal(t, ActionClamp, out[2].Action)
		assert.Equal(t, 1, out[2].Fulfilled)
		assert.Equal(t, ActionDrop, out[3].Action)
	})
}

func TestResultAdjusted(t *testing.T) {
	r := Result{Lines: Reconcile([]Line{
		{LineID: 1, SKU: "A1", Requested: 1, Stock: 5},
		{LineID: 2, SKU: "B2", Requested: 4, Stock: 1},
		{LineID: 3, SKU: "C3", Requested: 2, Stock: 0},
	})}
	adj := r.Adjusted()
	if assert.Len(t, adj, 2) {
		assert.Equal(t, "B2", adj[0].SKU)
		assert.Equal(t, "C3", adj[1].SKU)
	}
}
