package orders

import "strings"

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusProcessing     Status = "PROCESSING"
	StatusShipped        Status = "SHIPPED"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusReturned       Status = "RETURNED"
	StatusFailed         Status = "FAILED"
	StatusOnHold         Status = "ON_HOLD"
)

var AllStatuses = []Status{
	StatusPending, StatusProcessing, StatusShipped, StatusOutForDelivery, StatusDelivered,
	StatusCancelled, StatusReturned, StatusFailed, StatusOnHold,
}

// validNext is the dashboard transition table. Terminal states have no exits.
var validNext = map[Status]map[Status]bool{
	StatusPending:        {StatusProcessing: true, StatusOnHold: true, StatusCancelled: true, StatusFailed: true},
	StatusProcessing:     {StatusShipped: true, StatusOnHold: true, StatusCancelled: true, StatusFailed: true},
	StatusShipped:        {StatusOutForDelivery: true, StatusDelivered: true, StatusReturned: true, StatusFailed: true},
	StatusOutForDelivery: {StatusDelivered: true, StatusReturned: true, StatusFailed: true},
	StatusOnHold:         {StatusPending: true, StatusProcessing: true, StatusCancelled: true, StatusFailed: true},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusReturned:       {},
	StatusFailed:         {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}

// ParseStatus accepts any casing of the nine enumerated values.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// CanCancel reports whether the buyer may cancel an order in status s.
// FAILED orders become cancelable once a payment exists for them.
func CanCancel(s Status, hasPayment bool) bool {
	switch s {
	case StatusPending, StatusOnHold:
		return true
	case StatusFailed:
		return hasPayment
	}
	return false
}
