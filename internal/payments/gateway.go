package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Gateway is the external card processor.
type Gateway interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	CreateCharge(ctx context.Context, req ChargeRequest, idempotencyKey string) (*Charge, error)
}

type PreferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	ExternalReference string           `json:"external_reference"`
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type Payer struct {
	Email          string         `json:"email"`
	Identification Identification `json:"identification"`
}

type ChargeRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Token             string  `json:"token"`
	Description       string  `json:"description,omitempty"`
	Installments      int     `json:"installments"`
	PaymentMethodID   string  `json:"payment_method_id"`
	IssuerID          string  `json:"issuer_id,omitempty"`
	Payer             Payer   `json:"payer"`
	ExternalReference string  `json:"external_reference,omitempty"`
}

type Charge struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	PaymentTypeID     string  `json:"payment_type_id"`
	TransactionAmount float64 `json:"transaction_amount"`
	ExternalReference string  `json:"external_reference"`
}

// Approved reports whether the gateway settled the charge.
func (c Charge) Approved() bool { return strings.EqualFold(c.Status, "approved") }

// Method maps the gateway payment type onto a local payment method.
func (c Charge) Method() Method {
	if c.PaymentTypeID == "debit_card" {
		return MethodDebitCard
	}
	return MethodCreditCard
}

// MercadoPago talks to the MercadoPago REST API.
type MercadoPago struct {
	BaseURL     string
	AccessToken string
	HTTP        *http.Client
}

func NewMercadoPago(baseURL, accessToken string) *MercadoPago {
	return &MercadoPago{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: accessToken,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
	}
}

type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway returned %d: %s", e.StatusCode, e.Body)
}

func (m *MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	var out Preference
	if err := m.post(ctx, "/checkout/preferences", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MercadoPago) CreateCharge(ctx context.Context, req ChargeRequest, idempotencyKey string) (*Charge, error) {
	var out Charge
	if err := m.post(ctx, "/v1/payments", req, idempotencyKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MercadoPago) post(ctx context.Context, path string, body any, idempotencyKey string, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.AccessToken)
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	client := m.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &GatewayError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// MockGateway approves everything unless Fail is set. Used when no access token is configured.
type MockGateway struct {
	Fail    error
	Status  string
	charges int64
}

func (g *MockGateway) CreatePreference(_ context.Context, req PreferenceRequest) (*Preference, error) {
	if g.Fail != nil {
		return nil, g.Fail
	}
	id := "mock-pref-" + req.ExternalReference
	return &Preference{ID: id, InitPoint: "https://mock.gateway.local/checkout/" + id}, nil
}

func (g *MockGateway) CreateCharge(_ context.Context, req ChargeRequest, _ string) (*Charge, error) {
	if g.Fail != nil {
		return nil, g.Fail
	}
	g.charges++
	status := g.Status
	if status == "" {
		status = "approved"
	}
	return &Charge{
		ID:                g.charges,
		Status:            status,
		StatusDetail:      "accredited",
		PaymentTypeID:     "credit_card",
		TransactionAmount: req.TransactionAmount,
		ExternalReference: req.ExternalReference,
	}, nil
}
