package kafka

import (
	"context"
	"github.com/segmentio/kafka-go"
	"log"
	"time"
)

// Producer buffers messages in memory and writes them from a single goroutine.
// The writer has no default topic; each message names its own.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, buf int) *Producer {
	p := &Producer{
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
	p.w = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Printf("kafka write failed (%d msgs): %v", len(msgs), err)
			}
		},
	}
	return p
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				if err := p.w.WriteMessages(context.Background(), m); err != nil {
					log.Printf("kafka publish %s: %v", m.Topic, err)
				}
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				_ = p.w.Close()
				return
			}
			_ = p.w.WriteMessages(context.Background(), m)
		default:
			_ = p.w.Close()
			return
		}
	}
}

// Publish never blocks the caller on a full buffer; overflow is dropped and logged.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	m := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case p.inbox <- m:
	default:
		log.Printf("kafka inbox full, dropping message for %s", topic)
	}
}

// Close stops accepting messages; the loop flushes what is left and exits.
func (p *Producer) Close() { close(p.inbox) }

func (p *Producer) WaitClosed() { <-p.closeCh }
