package httpx

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/coupons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
)

type memCoupons struct {
	created   []string
	createdBy string
	deleted   []string
}

func (m *memCoupons) Create(_ context.Context, createdBy string, in coupons.Input) (*coupons.Coupon, error) {
	if in.Code == nil {
		return nil, apperr.Invalid("coupon_code is required")
	}
	m.created = append(m.created, *in.Code)
	m.createdBy = createdBy
	return &coupons.Coupon{ID: 1, Code: *in.Code, CreatedBy: &createdBy}, nil
}

func (m *memCoupons) List(context.Context) ([]coupons.Coupon, error) { return []coupons.Coupon{}, nil }

func (m *memCoupons) Update(_ context.Context, code string, _ coupons.Input) (*coupons.Coupon, error) {
	return &coupons.Coupon{Code: code}, nil
}

func (m *memCoupons) Delete(_ context.Context, code string) error {
	if code != "SALE10" {
		return apperr.NotFound("coupon %s not found", code)
	}
	m.deleted = append(m.deleted, code)
	return nil
}

type fixedValidator struct{}

func (fixedValidator) Validate(_ context.Context, code string) (coupons.Validation, error) {
	switch code {
	case "SALE10":
		return coupons.Validation{Valid: true, Type: coupons.TypePercentage, Discount: 10}, nil
	case "OLD":
		return coupons.Validation{Error: "coupon is expired or inactive"}, nil
	}
	return coupons.Validation{}, apperr.NotFound("coupon %s not found", code)
}

func TestCouponValidate(t *testing.T) {
	h := &CouponsHandler{Store: &memCoupons{}, Validator: fixedValidator{}, Guard: testGuard}

	rr := serve(t, h, customer, http.MethodPost, "/coupons/validate/", couponCode{Code: "SALE10"})
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeBody[coupons.Validation](t, rr)
	assert.True(t, v.Valid)
	assert.Equal(t, 10, v.Discount)

	rr = serve(t, h, customer, http.MethodPost, "/coupons/validate/", couponCode{Code: "OLD"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	v = decodeBody[coupons.Validation](t, rr)
	assert.False(t, v.Valid)
	assert.Equal(t, "coupon is expired or inactive", v.Error)

	rr = serve(t, h, customer, http.MethodPost, "/coupons/validate/", couponCode{Code: "NOPE"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(t, h, customer, http.MethodPost, "/coupons/validate/", couponCode{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, http.StatusUnauthorized, serve(t, h, anon, http.MethodPost, "/coupons/validate/", couponCode{Code: "SALE10"}).Code)
}

func TestCouponAdmin(t *testing.T) {
	store := &memCoupons{}
	h := &CouponsHandler{Store: store, Validator: fixedValidator{}, Guard: testGuard}
	code := "SALE10"

	rr := serve(t, h, staff, http.MethodPost, "/coupons/create/", coupons.Input{Code: &code})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []string{"SALE10"}, store.created)
	assert.Equal(t, staff.dni, store.createdBy)

	assert.Equal(t, http.StatusNoContent, serve(t, h, staff, http.MethodDelete, "/coupons/delete/?code=SALE10", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(t, h, staff, http.MethodDelete, "/coupons/delete/?code=X", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, staff, http.MethodPut, "/coupons/update/", coupons.Input{}).Code)
	assert.Equal(t, http.StatusForbidden, serve(t, h, customer, http.MethodDelete, "/coupons/delete/?code=SALE10", nil).Code)
}
