package notify

import (
	"bytes"
	"fmt"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	"github.com/shopspring/decimal"
	"html/template"
	"strings"
)

type Recipient struct {
	Email string
	Name  string
}

var statusText = map[string]string{
	"PROCESSING":       "is being prepared",
	"SHIPPED":          "has been shipped",
	"OUT_FOR_DELIVERY": "is out for delivery",
	"DELIVERED":        "has been delivered",
	"ON_HOLD":          "is on hold",
	"CANCELLED":        "was cancelled",
	"FAILED":           "could not be completed",
	"RETURNED":         "was returned",
	"PENDING":          "is waiting for payment",
}

var page = template.Must(template.New("mail").Parse(`<html>
<body>
<p>Dear {{.Name}},</p>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .Lines}}<ul>
{{range .Lines}}<li>{{.}}</li>
{{end}}</ul>
{{end}}<p>Best regards,<br>The store team</p>
</body>
</html>`))

type body struct {
	Name       string
	Paragraphs []string
	Lines      []string
}

func build(to Recipient, subject string, b body) (Message, error) {
	if b.Name = to.Name; b.Name == "" {
		b.Name = "customer"
	}
	var html bytes.Buffer
	if err := page.Execute(&html, b); err != nil {
		return Message{}, err
	}
	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\n", b.Name)
	for _, p := range b.Paragraphs {
		text.WriteString(p + "\n\n")
	}
	for _, l := range b.Lines {
		text.WriteString("  - " + l + "\n")
	}
	if len(b.Lines) > 0 {
		text.WriteString("\n")
	}
	text.WriteString("Best regards,\nThe store team\n")
	return Message{To: to.Email, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func RenderStatusChanged(to Recipient, p events.OrderStatusChangedPayload) (Message, error) {
	what, ok := statusText[p.To]
	if !ok {
		what = "changed status to " + p.To
	}
	return build(to, fmt.Sprintf("Order %s %s", p.OrderID, what), body{
		Paragraphs: []string{fmt.Sprintf("Your order %s %s.", p.OrderID, what)},
	})
}

func describe(l events.LineAdjustment) string {
	switch l.Action {
	case "DROPPED":
		return fmt.Sprintf("%s: out of stock, removed from your order (requested %d)", l.SKU, l.Requested)
	case "CLAMPED":
		return fmt.Sprintf("%s: only %d of %d available", l.SKU, l.Fulfilled, l.Requested)
	}
	return fmt.Sprintf("%s: %d", l.SKU, l.Fulfilled)
}

// RenderPaymentConfirmed lists every line stock reconciliation had to shorten or drop.
func RenderPaymentConfirmed(to Recipient, p events.PaymentConfirmedPayload) (Message, error) {
	amount := decimal.New(p.AmountCents, -2).StringFixed(2)
	b := body{Paragraphs: []string{
		fmt.Sprintf("We received your payment of $%s for order %s.", amount, p.OrderID),
	}}
	for _, l := range p.Lines {
		if l.Action != "DECREMENTED" {
			b.Lines = append(b.Lines, describe(l))
		}
	}
	if len(b.Lines) > 0 {
		b.Paragraphs = append(b.Paragraphs,
			"Some items could not be fully supplied from our stock and were adjusted:")
	}
	return build(to, fmt.Sprintf("Payment received for order %s", p.OrderID), b)
}
