package mqtt

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/room-controller/internal/telemetry"
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Topics   Topics
	BootID   string

	// ConnectTimeout bounds each connection attempt.
	ConnectTimeout time.Duration
	// StartupRetries bounds the blocking connection attempts made by
	// NewRealPublisher before falling back to background retries.
	StartupRetries uint64
	// PublishTimeout bounds how long a publish may block the cycle.
	PublishTimeout time.Duration
	// QueueSize is the number of lifecycle events kept while disconnected.
	QueueSize int
}

// DefaultOptions returns options for the given broker and topics.
func DefaultOptions(broker, clientID string, topics Topics) Options {
	return Options{
		Broker:         broker,
		ClientID:       clientID,
		Topics:         topics,
		ConnectTimeout: 5 * time.Second,
		StartupRetries: 4,
		PublishTimeout: 2 * time.Second,
		QueueSize:      16,
	}
}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	opts   Options
	queue  *eventQueue

	mu        sync.Mutex
	connected bool
	everUp    bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRealPublisher creates a publisher and tries to connect with a bounded
// exponential backoff. If the broker stays unreachable it returns a usable
// publisher that keeps retrying in the background; Publish reports
// telemetry.ErrNotConnected until then.
func NewRealPublisher(o Options) *RealPublisher {
	p := &RealPublisher{
		opts:  o,
		queue: newEventQueue(o.QueueSize),
		done:  make(chan struct{}),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Minute).
		SetConnectTimeout(o.ConnectTimeout).
		SetWill(o.Topics.System, string(WillPayload(o.BootID)), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)
	p.client = paho.NewClient(opts)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	if err := p.connect(ctx, backoff.WithMaxRetries(newBackOff(), o.StartupRetries)); err != nil {
		log.Printf("mqtt: broker %s unreachable (%v), retrying in background", o.Broker, err)
		go func() {
			defer close(p.done)
			if err := p.connect(ctx, newBackOff()); err != nil {
				log.Printf("mqtt: background connect stopped: %v", err)
			}
		}()
	} else {
		close(p.done)
	}

	return p
}

func newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0 // bounded by retries or context instead
	return bo
}

// connect attempts the initial connection under the given backoff policy.
// Once connected, paho's auto-reconnect takes over.
func (p *RealPublisher) connect(ctx context.Context, b backoff.BackOff) error {
	return backoff.Retry(func() error {
		token := p.client.Connect()
		if !token.WaitTimeout(p.opts.ConnectTimeout) {
			return fmt.Errorf("connection timeout")
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: connect to %s failed: %v", p.opts.Broker, err)
			return fmt.Errorf("connect to broker: %w", err)
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everUp
	p.everUp = true
	p.mu.Unlock()

	log.Printf("mqtt: connected to %s", p.opts.Broker)

	// Runs on paho's goroutine; publish without waiting on tokens.
	pending, dropped := p.queue.take()
	if dropped > 0 {
		log.Printf("mqtt: %d queued events were dropped while disconnected", dropped)
	}
	for _, e := range pending {
		c.Publish(p.opts.Topics.System, 1, e.retained, e.payload)
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{
			Timestamp: time.Now(),
			Event:     EventReconnected,
			BootID:    p.opts.BootID,
		})
		c.Publish(p.opts.Topics.System, 1, false, payload)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected && p.client.IsConnectionOpen()
}

// Publish sends a telemetry payload. QoS 0, not retained: a lost record is
// superseded by the next one.
func (p *RealPublisher) Publish(payload []byte) error {
	if !p.IsConnected() {
		return telemetry.ErrNotConnected
	}
	token := p.client.Publish(p.opts.Topics.Telemetry, 0, false, payload)
	if !token.WaitTimeout(p.opts.PublishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a lifecycle event with QoS 1. While disconnected the
// event is queued and sent on the next connection.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	if event.BootID == "" {
		event.BootID = p.opts.BootID
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	if !p.IsConnected() {
		p.queue.add(pendingEvent{event: event.Event, payload: payload, retained: event.Retained})
		return fmt.Errorf("queued %s: %w", event.Event, telemetry.ErrNotConnected)
	}

	token := p.client.Publish(p.opts.Topics.System, 1, event.Retained, payload)
	if !token.WaitTimeout(p.opts.PublishTimeout) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// Close stops background retries and disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.cancel()
	<-p.done
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
