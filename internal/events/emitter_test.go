package events_test

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	"github.com/ariefcatur/go-retail-backend/internal/events/eventstest"
	kafkax "github.com/ariefcatur/go-retail-backend/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestEmit(t *testing.T) {
	rec := &eventstest.Recorder{}
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("ART", -3*3600))
	em := &events.Emitter{Pub: rec, Service: "retail-api", Now: func() time.Time { return fixed }}

	em.Emit(context.Background(), events.EventOrderStatusChanged, "ORD-ABCD1-1234", events.OrderStatusChangedPayload{
		OrderID: "ORD-ABCD1-1234", From: "PENDING", To: "CANCELLED", Reason: "cancel",
	})

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	m := msgs[0]
	assert.Equal(t, events.TopicOrderStatusChanged, m.Topic)
	assert.Equal(t, "ORD-ABCD1-1234", m.Key)
	assert.Equal(t, 1, m.Envelope.EventVersion)
	assert.Equal(t, "retail-api", m.Envelope.Producer)
	assert.True(t, fixed.Equal(m.Envelope.OccurredAt))
	assert.NotEmpty(t, m.Envelope.EventID)

	p, err := kafkax.UnwrapPayload[events.OrderStatusChangedPayload](m.Envelope.Payload)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", p.To)
}

func TestEmitIgnoresUnknownEventsAndNilEmitter(t *testing.T) {
	rec := &eventstest.Recorder{}
	em := events.NewEmitter(rec, "retail-api")
	em.Emit(context.Background(), "SomethingElse", "x", struct{}{})
	assert.Empty(t, rec.Messages())

	var nilEmitter *events.Emitter
	assert.NotPanics(t, func() {
		nilEmitter.Emit(context.Background(), events.EventOrderCreated, "x", struct{}{})
	})
}
