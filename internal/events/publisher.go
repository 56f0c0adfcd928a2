// Package events publishes record lifecycle events to RabbitMQ so that
// downstream consumers (notifications, reporting) can react without polling
// the database. Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	QueueOperationCreated = "operation.created"
	QueueOperationSigned  = "operation.signed"
)

// defaultDialTimeout applies when Publish is called without a deadline.
const defaultDialTimeout = 5 * time.Second

// Publisher sends a JSON payload to a named queue
type Publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
	Close() error
}

// NewPublisher returns a RabbitMQ publisher for url, or a no-op publisher when
// url is empty.
func NewPublisher(url string) Publisher {
	if url == "" {
		return NopPublisher{}
	}
	return newAMQPPublisher(url)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type amqpPublisher struct {
	url  string
	dial dialFunc

	// sem is a one-slot lock that callers can stop waiting on when their
	// context ends.
	sem      chan struct{}
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

func newAMQPPublisher(url string) *amqpPublisher {
	var d net.Dialer
	return &amqpPublisher{
		url:      url,
		dial:     d.DialContext,
		sem:      make(chan struct{}, 1),
		declared: map[string]bool{},
	}
}

func (p *amqpPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rabbitmq: waiting for publisher: %w", ctx.Err())
	}
}

func (p *amqpPublisher) unlock() { <-p.sem }

// dialConfig makes both the TCP connect and the AMQP handshake end with ctx.
func (p *amqpPublisher) dialConfig(ctx context.Context) amqp.Config {
	return amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			deadline, ok := ctx.Deadline()
			if !ok {
				deadline = time.Now().Add(defaultDialTimeout)
			}
			dctx, cancel := context.WithDeadline(ctx, deadline)
			defer cancel()

			conn, err := p.dial(dctx, network, addr)
			if err != nil {
				return nil, err
			}
			// Cleared by the client once the handshake completes.
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	}
}

// channel returns an open channel, dialling again if the broker dropped us.
func (p *amqpPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	conn, err := amqp.DialConfig(p.url, p.dialConfig(ctx))
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.declared = map[string]bool{}
	return ch, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	if !p.declared[queue] {
		// Durable so messages survive broker restarts
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("rabbitmq: queue declare failed: %w", err)
		}
		p.declared[queue] = true
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	return nil
}

func (p *amqpPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.unlock()
	return p.closeLocked()
}

func (p *amqpPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}
