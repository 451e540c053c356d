package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	WriteTimeout time.Duration
}

// KafkaPublisher forwards events to a Kafka topic keyed by ticket id.
type KafkaPublisher struct {
	mu      sync.Mutex
	w       *kafka.Writer
	timeout time.Duration
}

// NewKafkaPublisher builds a synchronous writer for cfg.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
			Transport: &kafka.Transport{
				ClientID:    cfg.ClientID,
				MetadataTTL: 10 * time.Second,
			},
		},
		timeout: timeout,
	}
}

// Publish writes event as JSON.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	w := p.w
	p.mu.Unlock()
	if w == nil {
		return context.Canceled
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return w.WriteMessages(cctx, kafka.Message{
		Key:   []byte(event.TicketID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.w == nil {
		return nil
	}
	err := p.w.Close()
	p.w = nil
	return err
}
