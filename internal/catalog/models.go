package catalog

import (
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"strings"
	"time"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Unit struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Abbreviation string  `json:"abbreviation"`
	Weight       float64 `json:"weight"`
}

type Product struct {
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	CategoryID  *int64    `json:"category_id"`
	UnitID      *int64    `json:"unit_id,omitempty"`
	Rank        int       `json:"rank"`
	Recommended bool      `json:"recommended"`
	BestSeller  bool      `json:"best_seller"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Review struct {
	ID        int64     `json:"id"`
	UserDNI   string    `json:"user"`
	SKU       string    `json:"product"`
	Review    string    `json:"review"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductInput carries create and partial-update fields; nil means "not sent".
type ProductInput struct {
	SKU         *string `json:"sku"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Stock       *int    `json:"stock"`
	CategoryID  *int64  `json:"category_id"`
	UnitID      *int64  `json:"unit_id"`
	Rank        *int    `json:"rank"`
	Recommended *bool   `json:"recommended"`
	BestSeller  *bool   `json:"best_seller"`
}

func blank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

// ValidateCreate requires sku, name, description, price, stock and category_id.
func (in ProductInput) ValidateCreate() error {
	if blank(in.SKU) || blank(in.Name) || blank(in.Description) ||
		in.PriceCents == nil || in.Stock == nil || in.CategoryID == nil {
		return apperr.Invalid("sku, name, description, price_cents, stock and category_id are required")
	}
	return in.validateValues()
}

func (in ProductInput) ValidateUpdate() error {
	if in.SKU != nil {
		return apperr.Invalid("sku cannot be changed")
	}
	if in.Name != nil && blank(in.Name) {
		return apperr.Invalid("name cannot be empty")
	}
	return in.validateValues()
}

func (in ProductInput) validateValues() error {
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return apperr.Invalid("price must not be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return apperr.Invalid("stock must not be negative")
	}
	return nil
}

func (r Review) Validate() error {
	if strings.TrimSpace(r.Review) == "" {
		return apperr.Invalid("review is required")
	}
	if len(r.Review) > 525 {
		return apperr.Invalid("review is longer than 525 characters")
	}
	if r.Rank < 1 || r.Rank > 5 {
		return apperr.Invalid("rank must be between 1 and 5")
	}
	return nil
}

func (u Unit) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return apperr.Invalid("name is required")
	}
	if u.Weight < 0 {
		return apperr.Invalid("weight must not be negative")
	}
	return nil
}

type ProductPage struct {
	Count   int       `json:"count"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
	Results []Product `json:"results"`
}
