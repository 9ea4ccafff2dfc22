package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var (
	ErrCircuitOpen   = errors.New("circuit breaker is open")
	ErrChannelClosed = errors.New("message channel closed")
)

// Publisher is implemented by Client; services accept it so a nil or fake
// publisher can stand in when no broker is configured.
type Publisher interface {
	Publish(ctx context.Context, env *Envelope) error
}

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	cbMu         sync.Mutex
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{url: url, exchangeName: exchangeName, queueName: queueName}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	c.conn = conn
	c.channel = channel

	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key equals the queue name on the direct exchange.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// openChannel returns a live channel, reconnecting when the previous one died.
func (c *Client) openChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil || c.channel.IsClosed() || c.conn == nil || c.conn.IsClosed() {
		if err := c.connectLocked(); err != nil {
			return nil, err
		}
	}
	return c.channel, nil
}

// Publish sends env to the queue as a persistent JSON message.
func (c *Client) Publish(ctx context.Context, env *Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", env.Type, ErrCircuitOpen)
	}

	body, err := env.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	channel, err := c.openChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		pubCtx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    env.Timestamp,
			Type:         string(env.Type),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.DebugContext(ctx, "Published message",
		"type", env.Type,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Handler processes one decoded message. Returning an error requeues it.
type Handler func(ctx context.Context, env *Envelope) error

// Consume delivers messages to handler until ctx is cancelled or the
// channel closes. Undecodable messages are dropped.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	channel, err := c.openChannel()
	if err != nil {
		return err
	}
	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}
			handleDelivery(ctx, delivery, handler)
		}
	}
}

// acknowledger is the part of amqp091.Delivery that handleDelivery needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type delivery struct {
	acknowledger
	body []byte
}

func handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	dispatch(ctx, delivery{acknowledger: d, body: d.Body}, handler)
}

func dispatch(ctx context.Context, d delivery, handler Handler) {
	env, err := EnvelopeFromJSON(d.body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode message", "error", err)
		d.Nack(false, false)
		return
	}

	if err := handler(ctx, env); err != nil {
		requeue := !errors.Is(err, ErrPermanent)
		slog.ErrorContext(ctx, "Failed to handle message", "type", env.Type, "requeue", requeue, "error", err)
		d.Nack(false, requeue)
		return
	}

	d.Ack(false)
	slog.DebugContext(ctx, "Processed message", "type", env.Type)
}

// ConsumeWithRetry runs Consume and reconnects with exponential backoff
// whenever the broker connection drops.
func (c *Client) ConsumeWithRetry(ctx context.Context, handler Handler) error {
	for attempt := 0; ; attempt++ {
		err := c.Consume(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, ErrChannelClosed) && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP consumer disconnected, retrying",
			"attempt", attempt+1,
			"backoff", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection", "eof", "broken pipe", "dial amqp"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.cbMu.Lock()
	last := c.lastFailure
	c.cbMu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.cbMu.Lock()
	c.lastFailure = time.Now()
	c.cbMu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}
