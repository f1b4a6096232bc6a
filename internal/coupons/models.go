package coupons

import (
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"strings"
	"time"
)

type DiscountType string

const (
	TypePercentage DiscountType = "PERCENTAGE"
	TypeFixed      DiscountType = "FIXED"
)

func (t DiscountType) Valid() bool { return t == TypePercentage || t == TypeFixed }

const dateLayout = "2006-01-02"

type Coupon struct {
	ID             int64        `json:"id"`
	Code           string       `json:"coupon_code"`
	Discount       int          `json:"discount"`
	Type           DiscountType `json:"discount_type"`
	ExpirationDate time.Time    `json:"expiration_date"`
	IsActive       bool         `json:"is_active"`
	CreatedBy      *string      `json:"created_by,omitempty"`
	CreatedAt      time.Time    `json:"creation_date"`
}

// today returns the calendar date of now in loc as a UTC midnight, the way DATE columns scan.
func today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsValid reports whether the coupon can be redeemed on the store-local date of now.
// A coupon expiring today is already invalid.
func (c Coupon) IsValid(now time.Time, loc *time.Location) bool {
	return c.IsActive && dateOnly(c.ExpirationDate).After(today(now, loc))
}

type Input struct {
	Code           *string       `json:"coupon_code"`
	Discount       *int          `json:"discount"`
	Type           *DiscountType `json:"discount_type"`
	ExpirationDate *string       `json:"expiration_date"`
	IsActive       *bool         `json:"is_active"`
}

// Expiration parses the YYYY-MM-DD expiration date, if any.
func (in Input) Expiration() (*time.Time, error) {
	if in.ExpirationDate == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *in.ExpirationDate)
	if err != nil {
		return nil, apperr.Invalid("expiration_date must be YYYY-MM-DD")
	}
	return &t, nil
}

func (in Input) ValidateCreate() error {
	if in.Code == nil || strings.TrimSpace(*in.Code) == "" || in.Discount == nil ||
		in.Type == nil || in.ExpirationDate == nil {
		return apperr.Invalid("coupon_code, discount, discount_type and expiration_date are required")
	}
	return in.ValidateUpdate()
}

func (in Input) ValidateUpdate() error {
	if in.Code != nil && len(*in.Code) > 15 {
		return apperr.Invalid("coupon_code must be at most 15 characters")
	}
	if in.Discount != nil && *in.Discount < 0 {
		return apperr.Invalid("discount must not be negative")
	}
	if in.Type != nil && !in.Type.Valid() {
		return apperr.Invalid("discount_type must be PERCENTAGE or FIXED")
	}
	if in.Type != nil && *in.Type == TypePercentage && in.Discount != nil && *in.Discount > 100 {
		return apperr.Invalid("a percentage discount cannot exceed 100")
	}
	_, err := in.Expiration()
	return err
}

// Merge applies the non-nil fields of in to c and validates the result,
// so a partial update cannot leave a percentage coupon above 100.
func (in Input) Merge(c Coupon) (Coupon, error) {
	if err := in.ValidateUpdate(); err != nil {
		return c, err
	}
	if in.Code != nil {
		c.Code = *in.Code
	}
	if in.Discount != nil {
		c.Discount = *in.Discount
	}
	if in.Type != nil {
		c.Type = *in.Type
	}
	if exp, _ := in.Expiration(); exp != nil {
		c.ExpirationDate = *exp
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if c.Type == TypePercentage && c.Discount > 100 {
		return c, apperr.Invalid("a percentage discount cannot exceed 100")
	}
	return c, nil
}

// Validation is the body returned by the validate endpoint.
type Validation struct {
	Valid    bool         `json:"valid"`
	Type     DiscountType `json:"type,omitempty"`
	Discount int          `json:"discount,omitempty"`
	Error    string       `json:"error,omitempty"`
}
