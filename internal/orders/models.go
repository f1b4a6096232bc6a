package orders

import "time"

type Order struct {
	ID         string    `json:"id"`
	UserDNI    string    `json:"user_dni"`
	Status     Status    `json:"status"`
	HasPayment bool      `json:"has_payment"`
	Lines      []Line    `json:"lines"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Line is one order line. PriceCents is the unit price captured when the order was placed.
type Line struct {
	ID          int64  `json:"id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
	UnitID      *int64 `json:"measure_unity,omitempty"`
}

func (o Order) TotalCents() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.PriceCents * int64(l.Quantity)
	}
	return total
}

// ItemInput is a requested line. PriceCents is honoured only for dashboard-created orders.
type ItemInput struct {
	SKU        string `json:"sku"`
	Quantity   int    `json:"quantity"`
	PriceCents *int64 `json:"price_cents,omitempty"`
	UnitID     *int64 `json:"measure_unity,omitempty"`
}

type Page struct {
	Count   int     `json:"count"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
	Results []Order `json:"results"`
}
