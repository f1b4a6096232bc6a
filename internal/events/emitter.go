package events

import (
	"context"
	kafkax "github.com/ariefcatur/go-retail-backend/internal/kafka"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"log"
	"strconv"
	"time"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Emitter wraps payloads in a v1 Envelope and hands them to the producer.
// A nil *Emitter drops every event, which keeps tests and tools free of Kafka.
type Emitter struct {
	Pub     Publisher
	Service string
	Now     func() time.Time
}

func NewEmitter(pub Publisher, service string) *Emitter {
	return &Emitter{Pub: pub, Service: service, Now: time.Now}
}

// Emit publishes eventType keyed by correlationID. It is best effort and never fails the caller.
func (e *Emitter) Emit(ctx context.Context, eventType, correlationID string, payload any) {
	if e == nil || e.Pub == nil {
		return
	}
	topic, ok := TopicFor(eventType)
	if !ok {
		log.Printf("events: no topic for %s", eventType)
		return
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    now().UTC(),
		Producer:      e.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	e.Pub.Publish(topic, PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(ev.EventVersion))},
	)
}
