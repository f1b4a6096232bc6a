package purchases

import (
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/shopspring/decimal"
	"strings"
	"time"
)

// MinGlobalSellPercentage is the lowest markup accepted for a purchase.
const MinGlobalSellPercentage = 10

type Purchase struct {
	ID                   int64           `json:"id"`
	PurchasedBy          *string         `json:"purchased_by"`
	GlobalSellPercentage float64         `json:"global_sell_percentage"`
	PurchaseDate         time.Time       `json:"purchase_date"`
	Items                []Item          `json:"purchase_items"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalEstimatedProfit decimal.Decimal `json:"total_estimated_profit"`
}

type Item struct {
	ID                 int64           `json:"id"`
	SKU                string          `json:"product"`
	ProductName        string          `json:"product_name,omitempty"`
	Quantity           int             `json:"quantity"`
	PurchasePriceCents int64           `json:"purchase_price_cents"`
	SellPercentage     *float64        `json:"sell_percentage"`
	UnitID             *int64          `json:"unity"`
	UnitWeight         *float64        `json:"unit_weight,omitempty"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	EstimatedProfit    decimal.Decimal `json:"estimated_profit"`
	SalePricePerWeight decimal.Decimal `json:"sale_price_per_weight"`
}

type MissingItem struct {
	ID          int64     `json:"id"`
	SKU         string    `json:"product"`
	ProductName string    `json:"product_name"`
	OrderID     string    `json:"order"`
	Stock       int       `json:"stock"`
	Missing     int       `json:"missing_quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

type ItemInput struct {
	SKU            string          `json:"product"`
	Quantity       int             `json:"quantity"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SellPercentage *float64        `json:"sell_percentage"`
	UnitID         *int64          `json:"unity"`
}

type Input struct {
	PurchasedBy          string      `json:"purchased_by"`
	GlobalSellPercentage *float64    `json:"global_sell_percentage"`
	Items                []ItemInput `json:"items"`
}

func (in Input) validateItems() error {
	if len(in.Items) == 0 {
		return apperr.Invalid("at least one purchase item is required")
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.SKU) == "" || it.Quantity <= 0 || !it.PurchasePrice.IsPositive() || it.UnitID == nil {
			return apperr.Invalid("each item must have product, quantity, purchase_price and unity")
		}
		if it.SellPercentage != nil && *it.SellPercentage < 0 {
			return apperr.Invalid("sell_percentage must not be negative")
		}
	}
	return nil
}

func validGlobal(pct float64) error {
	if pct < MinGlobalSellPercentage {
		return apperr.Invalid("global sell percentage must be at least %d%%", MinGlobalSellPercentage)
	}
	return nil
}

func (in Input) ValidateCreate() error {
	if strings.TrimSpace(in.PurchasedBy) == "" || in.GlobalSellPercentage == nil {
		return apperr.Invalid("purchased_by, global_sell_percentage and items are required")
	}
	if err := validGlobal(*in.GlobalSellPercentage); err != nil {
		return err
	}
	return in.validateItems()
}

func (in Input) ValidateUpdate() error {
	if in.GlobalSellPercentage != nil {
		if err := validGlobal(*in.GlobalSellPercentage); err != nil {
			return err
		}
	}
	return in.validateItems()
}

// toItems converts request lines, keeping cents as the stored price unit.
func (in Input) toItems() []Item {
	out := make([]Item, 0, len(in.Items))
	for _, it := range in.Items {
		out = append(out, Item{
			SKU:                it.SKU,
			Quantity:           it.Quantity,
			PurchasePriceCents: it.PurchasePrice.Shift(2).Round(0).IntPart(),
			SellPercentage:     it.SellPercentage,
			UnitID:             it.UnitID,
		})
	}
	return out
}
