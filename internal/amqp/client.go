// Package amqp publishes ledger and emotion events to a RabbitMQ topic
// exchange and lets tools subscribe to them.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finmood/internal/core"
	"finmood/internal/emotion"
)

const publishTimeout = 5 * time.Second

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("amqp client closed")

// channel is the subset of *amqp091.Channel the client uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Recorder receives publish outcomes.
type Recorder interface {
	ObservePublish(routingKey string, err error)
}

type Client struct {
	conn         *amqp091.Connection
	mu           sync.Mutex
	channel      channel
	exchangeName string
	recorder     Recorder
	now          func() time.Time
	closed       bool
}

// NewClient dials url and declares a durable topic exchange.
func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client, err := newClient(ch, exchangeName)
	if err != nil {
		conn.Close()
		return nil, err
	}
	client.conn = conn
	return client, nil
}

func newClient(ch channel, exchangeName string) (*Client, error) {
	c := &Client{channel: ch, exchangeName: exchangeName, now: time.Now}
	if err := c.setup(); err != nil {
		ch.Close()
		return nil, fmt.Errorf("setup exchange: %w", err)
	}
	return c, nil
}

// WithRecorder attaches a metrics recorder and returns c.
func (c *Client) WithRecorder(r Recorder) *Client {
	c.recorder = r
	return c
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// PublishTransactionEvent publishes a transaction.* event.
func (c *Client) PublishTransactionEvent(ctx context.Context, event string, tx core.Transaction) error {
	return c.publish(ctx, NewTransactionEvent(event, tx, c.now()))
}

// PublishEmotionAnalyzed publishes an emotion.analyzed event.
func (c *Client) PublishEmotionAnalyzed(ctx context.Context, textLength int, scores emotion.ScoreSet) error {
	return c.publish(ctx, NewEmotionAnalyzedEvent(textLength, scores, c.now()))
}

func (c *Client) publish(ctx context.Context, e *Event) error {
	err := c.doPublish(ctx, e)
	if c.recorder != nil {
		c.recorder.ObservePublish(e.Type, err)
	}
	return err
}

func (c *Client) doPublish(ctx context.Context, e *Event) error {
	body, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		e.Type,         // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    e.ID,
			Type:         e.Type,
			Timestamp:    e.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	slog.DebugContext(ctx, "Published event",
		"id", e.ID,
		"type", e.Type,
		"exchange", c.exchangeName)

	return nil
}

// Subscribe binds an exclusive, auto-deleted queue to bindingKey (a topic
// pattern such as "transaction.*" or "#") and calls handler for every event
// until ctx is done. Undecodable messages are rejected without requeue.
// A handler error requeues the message once; a failing redelivery is dropped.
func (c *Client) Subscribe(ctx context.Context, bindingKey string, handler func(*Event) error) error {
	c.mu.Lock()
	q, err := c.channel.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err == nil {
		err = c.channel.QueueBind(q.Name, bindingKey, c.exchangeName, false, nil)
	}
	var msgs <-chan amqp091.Delivery
	if err == nil {
		msgs, err = c.channel.Consume(
			q.Name, // queue
			"",     // consumer
			false,  // auto-ack
			true,   // exclusive
			false,  // no-local
			false,  // no-wait
			nil,    // args
		)
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("subscribe %q: %w", bindingKey, err)
	}

	slog.InfoContext(ctx, "Subscribed to events", "exchange", c.exchangeName, "binding", bindingKey)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			e, err := EventFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal event", "error", err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handler(e); err != nil {
				// A failed delivery is retried once, then dropped.
				requeue := !delivery.Redelivered
				slog.ErrorContext(ctx, "Failed to handle event",
					"error", err, "id", e.ID, "type", e.Type, "requeued", requeue)
				_ = delivery.Nack(false, requeue)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Healthy reports whether the client can still publish.
func (c *Client) Healthy(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.conn != nil && c.conn.IsClosed() {
		return errors.New("amqp connection lost")
	}
	return nil
}

// Close closes the channel and the connection. It is safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
