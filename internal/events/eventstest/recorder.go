// Package eventstest provides an in-memory Publisher for tests.
package eventstest

import (
	"encoding/json"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	kafkago "github.com/segmentio/kafka-go"
	"sync"
)

type Message struct {
	Topic    string
	Key      string
	Envelope events.Envelope
}

type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Publish(topic string, key, value []byte, _ ...kafkago.Header) {
	var env events.Envelope
	_ = json.Unmarshal(value, &env)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Topic: topic, Key: string(key), Envelope: env})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Types lists the event types in publish order.
func (r *Recorder) Types() []string {
	var out []string
	for _, m := range r.Messages() {
		out = append(out, m.Envelope.EventType)
	}
	return out
}
