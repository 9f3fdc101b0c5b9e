package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultPrefetch    = 8
	returnBuffer       = 16
)

// BusConfig describes the notification topology.
type BusConfig struct {
	URL         string
	Exchange    string
	RoutingKey  string
	Queue       string
	Prefetch    int
	DialTimeout time.Duration
}

// DeadLetterExchange is the exchange receiving rejected deliveries.
func (c BusConfig) DeadLetterExchange() string {
	return c.Exchange + ".dlx"
}

// DeadLetterQueue is the queue bound to the dead letter exchange.
func (c BusConfig) DeadLetterQueue() string {
	return c.Queue + ".dlq"
}

// Confirmation is a pending broker acknowledgement of one publishing.
type Confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// Channel is the part of *amqp.Channel used by the bus.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyReturn(c chan amqp.Return) chan amqp.Return
	PublishWithDeferredConfirmWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) (Confirmation, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	ConsumeWithContext(
		ctx context.Context,
		queue, consumer string,
		autoAck, exclusive, noLocal, noWait bool,
		args amqp.Table,
	) (<-chan amqp.Delivery, error)
	IsClosed() bool
	Close() error
}

// Connection is the part of *amqp.Connection used by the bus.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

// Dialer opens a connection to the broker at url.
type Dialer func(url string) (Connection, error)

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return amqpChannel{ch}, nil
}

type amqpChannel struct {
	*amqp.Channel
}

func (c amqpChannel) PublishWithDeferredConfirmWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp.Publishing,
) (Confirmation, error) {
	dc, err := c.Channel.PublishWithDeferredConfirmWithContext(ctx, exchange, key, mandatory, immediate, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, fmt.Errorf("channel is not in confirm mode")
	}
	return dc, nil
}

func dialAMQP(timeout time.Duration) Dialer {
	return func(url string) (Connection, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(timeout),
		})
		if err != nil {
			return nil, err
		}
		return amqpConnection{conn}, nil
	}
}

// AMQPBus owns one connection and confirm-mode channel to RabbitMQ. It declares a
// durable topic exchange, the notification queue and its dead letter queue. A
// closed connection or channel is redialed on the next Publish, Deliveries or Ping.
type AMQPBus struct {
	cfg     BusConfig
	dial    Dialer
	mu      sync.Mutex
	conn    Connection
	ch      Channel
	returns chan amqp.Return
	closed  bool
}

// NewAMQPBus dials RabbitMQ and declares the topology.
func NewAMQPBus(cfg BusConfig) (*AMQPBus, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return newAMQPBus(cfg, dialAMQP(timeout))
}

func newAMQPBus(cfg BusConfig, dial Dialer) (*AMQPBus, error) {
	bus := &AMQPBus{cfg: cfg, dial: dial}
	if err := bus.connect(); err != nil {
		return nil, err
	}
	return bus, nil
}

// connect replaces the current connection. Callers hold b.mu, except the constructor.
func (b *AMQPBus) connect() error {
	b.release()

	conn, err := b.dial(b.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("enable publisher confirms: %w", err)
	}
	if err := declare(ch, b.cfg); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	b.conn = conn
	b.ch = ch
	b.returns = ch.NotifyReturn(make(chan amqp.Return, returnBuffer))
	return nil
}

func (b *AMQPBus) release() {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.ch = nil
	b.conn = nil
	b.returns = nil
}

// channel returns an open channel, redialing when the previous one is gone.
func (b *AMQPBus) channel() (Channel, error) {
	if b.closed {
		return nil, notificationDomain.ErrBusUnavailable
	}
	if b.conn != nil && !b.conn.IsClosed() && b.ch != nil && !b.ch.IsClosed() {
		return b.ch, nil
	}
	if err := b.connect(); err != nil {
		return nil, fmt.Errorf("%w: %w", notificationDomain.ErrBusUnavailable, err)
	}
	return b.ch, nil
}

func declare(ch Channel, cfg BusConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.DeadLetterExchange(), "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlx: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.DeadLetterQueue(), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlq: %w", err)
	}
	if err := ch.QueueBind(cfg.DeadLetterQueue(), "#", cfg.DeadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("bind dlq: %w", err)
	}

	args := amqp.Table{"x-dead-letter-exchange": cfg.DeadLetterExchange()}
	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", cfg.RoutingKey, err)
	}
	return nil
}

// Publish sends msg as a persistent JSON message and waits for the broker to confirm
// it. A nack or an unroutable message is an error.
func (b *AMQPBus) Publish(ctx context.Context, msg notificationDomain.EnrollmentMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch, err := b.channel()
	if err != nil {
		return err
	}

	// Returns left over from publishings whose confirm wait was canceled.
	b.returned("")

	messageID := uuid.Must(uuid.NewV7()).String()
	confirmation, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		b.cfg.Exchange,
		b.cfg.RoutingKey,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for publish confirm: %w", err)
	}
	if !acked {
		return notificationDomain.ErrPublishNacked
	}
	// The broker sends basic.return before the ack of the same publishing.
	if b.returned(messageID) {
		return notificationDomain.ErrPublishUnroutable
	}
	return nil
}

// returned drains pending returns and reports whether one carried messageID.
func (b *AMQPBus) returned(messageID string) bool {
	found := false
	for {
		select {
		case r, ok := <-b.returns:
			if !ok {
				return found
			}
			if messageID != "" && r.MessageId == messageID {
				found = true
			}
		default:
			return found
		}
	}
}

// Deliveries starts consuming the notification queue with manual acknowledgements.
func (b *AMQPBus) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, err := b.channel()
	if err != nil {
		return nil, err
	}

	prefetch := b.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, b.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return msgs, nil
}

// Ping reports whether the bus is reachable, redialing a closed connection.
func (b *AMQPBus) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.channel()
	return err
}

// Close closes the channel and the connection. The bus does not redial afterwards.
func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	var err error
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		err = b.conn.Close()
	}
	b.ch = nil
	b.conn = nil
	b.returns = nil
	return err
}
