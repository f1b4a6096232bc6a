package carts

import (
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"sort"
	"strings"
	"time"
)

type Cart struct {
	ID          int64     `json:"id"`
	UserDNI     string    `json:"user"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"last_updated"`
}

type Item struct {
	ID          int64  `json:"id"`
	CartID      int64  `json:"cart"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
}

type ItemInput struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (c Cart) Validate() error {
	if c.UserDNI == "" || strings.TrimSpace(c.Name) == "" {
		return apperr.Invalid("user and name are required")
	}
	return nil
}

// Merge validates items and folds repeated SKUs into one line. Quantity defaults to 1.
func Merge(items []ItemInput) ([]ItemInput, error) {
	if len(items) == 0 {
		return nil, apperr.Invalid("products are required")
	}
	qty := map[string]int{}
	for _, it := range items {
		if it.SKU == "" {
			return nil, apperr.Invalid("every product needs a sku")
		}
		if it.Quantity == 0 {
			it.Quantity = 1
		}
		if it.Quantity < 0 {
			return nil, apperr.Invalid("invalid quantity for sku %s", it.SKU)
		}
		qty[it.SKU] += it.Quantity
	}
	out := make([]ItemInput, 0, len(qty))
	for sku, q := range qty {
		out = append(out, ItemInput{SKU: sku, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}
