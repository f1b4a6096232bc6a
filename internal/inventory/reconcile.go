// Package inventory decides how confirmed orders consume stock and how much demand is left unmet.
package inventory

type Action string

const (
	// ActionDecrement: stock covered the whole line.
	ActionDecrement Action = "DECREMENTED"
	// ActionClamp: the line was cut down to the remaining stock, which is now zero.
	ActionClamp Action = "CLAMPED"
	// ActionDrop: no stock left, the line was removed.
	ActionDrop Action = "DROPPED"
)

// Line is an order line together with the stock of its product as read under lock.
type Line struct {
	LineID    int64
	SKU       string
	Requested int
	Stock     int
}

type Outcome struct {
	LineID    int64  `json:"line_id"`
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Fulfilled int    `json:"fulfilled"`
	Action    Action `json:"action"`
	// StockAfter is the product stock once this line has been applied.
	StockAfter int `json:"stock_after"`
}

// Reconcile plans every line in order. Lines sharing a SKU see the stock left by earlier lines.
func Reconcile(lines []Line) []Outcome {
	remaining := make(map[string]int, len(lines))
	out := make([]Outcome, 0, len(lines))
	for _, l := range lines {
		stock, seen := remaining[l.SKU]
		if !seen {
			stock = l.Stock
		}
		if stock < 0 {
			stock = 0
		}
		o := Outcome{LineID: l.LineID, SKU: l.SKU, Requested: l.Requested}
		switch {
		case stock >= l.Requested:
			o.Action, o.Fulfilled = ActionDecrement, l.Requested
		case stock > 0:
			o.Action, o.Fulfilled = ActionClamp, stock
		default:
			o.Action = ActionDrop
		}
		o.StockAfter = stock - o.Fulfilled
		remaining[l.SKU] = o.StockAfter
		out = append(out, o)
	}
	return out
}

// Result is what a payment confirmation did to its order.
type Result struct {
	OrderID        string `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	// Applied is false when the order had already left PENDING and stock was left alone.
	Applied bool      `json:"applied"`
	Lines   []Outcome `json:"lines"`
}

func (r Result) Adjusted() []Outcome {
	var out []Outcome
	for _, o := range r.Lines {
		if o.Action != ActionDecrement {
			out = append(out, o)
		}
	}
	return out
}
