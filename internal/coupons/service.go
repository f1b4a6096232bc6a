package coupons

import (
	"context"
	"time"
)

type Finder interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
}

// Validator checks codes against the store's calendar. It never mutates a coupon.
type Validator struct {
	Coupons  Finder
	Location *time.Location
	Now      func() time.Time
}

// Validate returns the validation body, or the lookup error for unknown codes.
func (v *Validator) Validate(ctx context.Context, code string) (Validation, error) {
	c, err := v.Coupons.GetByCode(ctx, code)
	if err != nil {
		return Validation{}, err
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if !c.IsValid(now(), v.Location) {
		return Validation{Error: "coupon is expired or inactive"}, nil
	}
	return Validation{Valid: true, Type: c.Type, Discount: c.Discount}, nil
}
