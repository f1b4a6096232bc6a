package shipments

import (
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"regexp"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var postalCode = regexp.MustCompile(`^\d{4,10}$`)

type Shipment struct {
	ID         int64     `json:"id"`
	OrderID    string    `json:"order"`
	UserDNI    string    `json:"customer"`
	Address    string    `json:"shipment_address"`
	City       string    `json:"shipment_city"`
	PostalCode string    `json:"postal_code"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Input carries create and partial-update fields; nil means "leave as is".
type Input struct {
	OrderID    *string `json:"order"`
	UserDNI    *string `json:"customer"`
	Address    *string `json:"shipment_address"`
	City       *string `json:"shipment_city"`
	PostalCode *string `json:"postal_code"`
	Status     *Status `json:"status"`
}

func blank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

func (in Input) ValidateCreate() error {
	if blank(in.UserDNI) || blank(in.OrderID) {
		return apperr.Invalid("customer and order are required")
	}
	if blank(in.Address) || blank(in.City) {
		return apperr.Invalid("shipment_address and shipment_city are required")
	}
	if in.PostalCode == nil {
		return apperr.Invalid("postal_code is required")
	}
	return in.validateFields()
}

func (in Input) ValidateUpdate() error {
	if in.Address != nil && blank(in.Address) {
		return apperr.Invalid("shipment_address must not be empty")
	}
	if in.City != nil && blank(in.City) {
		return apperr.Invalid("shipment_city must not be empty")
	}
	return in.validateFields()
}

func (in Input) validateFields() error {
	if in.PostalCode != nil && !postalCode.MatchString(*in.PostalCode) {
		return apperr.Invalid("postal code must contain between 4 and 10 digits")
	}
	if in.Status != nil && !in.Status.Valid() {
		return apperr.Invalid("unknown shipment status %q", *in.Status)
	}
	return nil
}
