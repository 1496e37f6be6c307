package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yeremiapane/siparist/utils"
)

// Publisher sends an event to the queue named by route. Implementations
// log failures and return them; callers never fail an operation on them.
type Publisher interface {
	Publish(ctx context.Context, route string, event interface{}) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

// AMQPPublisher publishes persistent JSON messages to durable queues through
// the default exchange, one queue per route. The connection is opened
// lazily and reopened after a failure.
type AMQPPublisher struct {
	url string

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, declared: make(map[string]bool)}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
	p.declared = make(map[string]bool)
}

func (p *AMQPPublisher) Publish(ctx context.Context, route string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		utils.ErrorLogger.Printf("rabbitmq: marshal %s failed: %v", route, err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		utils.ErrorLogger.Printf("rabbitmq: connect failed: %v", err)
		return err
	}

	if !p.declared[route] {
		if _, err := ch.QueueDeclare(
			route, // name
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			utils.ErrorLogger.Printf("rabbitmq: queue declare %s failed: %v", route, err)
			p.resetLocked()
			return err
		}
		p.declared[route] = true
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", route, false, false, msg); err != nil {
		utils.ErrorLogger.Printf("rabbitmq: publish %s failed: %v", route, err)
		p.resetLocked()
		return err
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

// RecordingPublisher keeps every event in memory. Handy in tests and for a
// dry-run deployment without a broker.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Route string
	Event interface{}
}

func (r *RecordingPublisher) Publish(_ context.Context, route string, event interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Route: route, Event: event})
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

// Routes returns the routes published so far, in order.
func (r *RecordingPublisher) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Route)
	}
	return out
}
