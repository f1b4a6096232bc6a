package inventory

import "sort"

// Demand is one open order line and the current stock of its product.
type Demand struct {
	OrderID   string
	SKU       string
	Requested int
	Stock     int
}

type Shortfall struct {
	OrderID string `json:"order_id"`
	SKU     string `json:"sku"`
	Stock   int    `json:"stock"`
	Missing int    `json:"missing_quantity"`
}

// Shortfalls returns one entry per (order, product) whose requested quantity exceeds stock.
// Duplicate lines of the same product in one order are summed first.
func Shortfalls(demand []Demand) []Shortfall {
	type key struct{ order, sku string }
	totals := map[key]*Shortfall{}
	var order []key
	for _, d := range demand {
		k := key{d.OrderID, d.SKU}
		s, ok := totals[k]
		if !ok {
			s = &Shortfall{OrderID: d.OrderID, SKU: d.SKU, Stock: d.Stock}
			totals[k] = s
			order = append(order, k)
		}
		s.Missing += d.Requested
	}

	out := make([]Shortfall, 0, len(order))
	for _, k := range order {
		s := totals[k]
		s.Missing -= s.Stock
		if s.Missing > 0 {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderID != out[j].OrderID {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}
