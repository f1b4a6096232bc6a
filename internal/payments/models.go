package payments

import "time"

type Method string

const (
	MethodCash       Method = "CASH"
	MethodDebitCard  Method = "DEBIT_CARD"
	MethodCreditCard Method = "CREDIT_CARD"
)

type Status string

const (
	StatusApproved    Status = "APPROVED"
	StatusPending     Status = "PENDING"
	StatusInProcess   Status = "IN_PROCESS"
	StatusRejected    Status = "REJECTED"
	StatusCanceled    Status = "CANCELED"
	StatusRefunded    Status = "REFUNDED"
	StatusChargedBack Status = "CHARGED_BACK"
)

var methods = map[Method]bool{MethodCash: true, MethodDebitCard: true, MethodCreditCard: true}

var statuses = map[Status]bool{
	StatusApproved: true, StatusPending: true, StatusInProcess: true, StatusRejected: true,
	StatusCanceled: true, StatusRefunded: true, StatusChargedBack: true,
}

func (m Method) Valid() bool { return methods[m] }
func (s Status) Valid() bool { return statuses[s] }

type Payment struct {
	ID          int64     `json:"id"`
	OrderID     string    `json:"order"`
	AmountCents int64     `json:"payment_amount_cents"`
	Method      Method    `json:"payment_method"`
	Status      Status    `json:"payment_status"`
	PaidAt      time.Time `json:"payment_date"`
}

// Input describes a payment to record. A nil AmountCents means "charge the order total".
type Input struct {
	OrderID     string     `json:"order"`
	AmountCents *int64     `json:"payment_amount_cents,omitempty"`
	Method      Method     `json:"payment_method"`
	Status      Status     `json:"payment_status"`
	PaidAt      *time.Time `json:"payment_date,omitempty"`
}
