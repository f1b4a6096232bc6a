package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	kafkax "github.com/ariefcatur/go-retail-backend/internal/kafka"
	"github.com/ariefcatur/go-retail-backend/internal/users"
	kafkago "github.com/segmentio/kafka-go"
	"log"
	"strings"
)

type Users interface {
	Get(ctx context.Context, dni string) (*users.User, error)
}

type Dedup interface {
	FirstSeen(ctx context.Context, service, eventID string) (bool, error)
	Unsee(ctx context.Context, service, eventID string)
}

// Service turns order events into customer e-mails.
type Service struct {
	Users       Users
	Mailer      Mailer
	Dedup       Dedup
	ServiceName string
}

func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Printf("notify: skip undecodable message at %s/%d: %v", m.Topic, m.Offset, err)
		return nil
	}
	if env.EventType != events.EventOrderStatusChanged && env.EventType != events.EventPaymentConfirmed {
		return nil
	}

	first, err := s.Dedup.FirstSeen(ctx, s.ServiceName, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	if err := s.deliver(ctx, env); err != nil {
		s.Dedup.Unsee(ctx, s.ServiceName, env.EventID)
		return err
	}
	return nil
}

func (s *Service) recipient(ctx context.Context, dni string) (Recipient, error) {
	u, err := s.Users.Get(ctx, dni)
	if err != nil {
		return Recipient{}, fmt.Errorf("recipient %s: %w", dni, err)
	}
	return Recipient{Email: u.Email, Name: strings.TrimSpace(u.FirstName + " " + u.LastName)}, nil
}

func (s *Service) deliver(ctx context.Context, env events.Envelope) error {
	var (
		msg Message
		dni string
		err error
	)
	switch env.EventType {
	case events.EventOrderStatusChanged:
		p, perr := kafkax.UnwrapPayload[events.OrderStatusChangedPayload](env.Payload)
		if perr != nil {
			return perr
		}
		// payment confirmations already tell the buyer about PROCESSING
		if p.Reason == "payment" {
			return nil
		}
		dni = p.UserDNI
		to, rerr := s.recipient(ctx, dni)
		if rerr != nil {
			return rerr
		}
		msg, err = RenderStatusChanged(to, p)
	case events.EventPaymentConfirmed:
		p, perr := kafkax.UnwrapPayload[events.PaymentConfirmedPayload](env.Payload)
		if perr != nil {
			return perr
		}
		dni = p.UserDNI
		to, rerr := s.recipient(ctx, dni)
		if rerr != nil {
			return rerr
		}
		msg, err = RenderPaymentConfirmed(to, p)
	}
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return err
	}
	log.Printf("notify: %s mail sent to %s (%s)", env.EventType, msg.To, dni)
	return nil
}
