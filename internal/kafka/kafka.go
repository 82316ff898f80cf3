// Package kafka publishes room telemetry to a Kafka topic, for sites that
// collect building data on a Kafka bus instead of (or as well as) MQTT.
package kafka

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config configures a Publisher.
type Config struct {
	Brokers []string
	Topic   string
	// Key partitions records; the room name keeps one room's records ordered.
	Key string
	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes each telemetry payload as one Kafka record.
// The writer is asynchronous so a slow broker never blocks the cycle;
// delivery errors arrive through the completion callback and are logged.
type Publisher struct {
	w       messageWriter
	cfg     Config
	healthy atomic.Bool
}

// NewPublisher creates an async Kafka publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: no topic configured")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	p := &Publisher{cfg: cfg}
	p.healthy.Store(true)
	p.w = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.WriteTimeout,
		BatchTimeout: 50 * time.Millisecond,
		Completion:   p.completion,
	}
	return p, nil
}

func newPublisherWithWriter(cfg Config, w messageWriter) *Publisher {
	p := &Publisher{cfg: cfg, w: w}
	p.healthy.Store(true)
	return p
}

func (p *Publisher) completion(_ []kafka.Message, err error) {
	if err != nil {
		if p.healthy.Swap(false) {
			log.Printf("kafka: write to %s failed: %v", p.cfg.Topic, err)
		}
		return
	}
	if !p.healthy.Swap(true) {
		log.Printf("kafka: writes to %s recovered", p.cfg.Topic)
	}
}

// Publish enqueues the payload.
func (p *Publisher) Publish(payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.WriteTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(p.cfg.Key),
		Value: append([]byte(nil), payload...),
		Time:  time.Now(),
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// IsConnected reports whether the last completed write succeeded.
// kafka-go dials lazily, so a fresh publisher counts as connected.
func (p *Publisher) IsConnected() bool {
	return p.healthy.Load()
}

// Close flushes pending records and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
