package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const BookingConfirmedQueue = "booking.confirmed"

type BookingConfirmed struct {
	BookingID   int             `json:"bookingId"`
	ShowID      int             `json:"showId"`
	ShowName    string          `json:"showName"`
	UserID      int             `json:"userId"`
	BuyerEmail  string          `json:"buyerEmail"`
	SeatNumbers []string        `json:"seatNumbers"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Offline     bool            `json:"offline"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, event BookingConfirmed) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to a durable queue on the
// default exchange. The connection is dialled lazily and re-dialled after it drops.
type AMQPPublisher struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:    url,
		logger: logger,
	}
}

func (p *AMQPPublisher) PublishBookingConfirmed(ctx context.Context, event BookingConfirmed) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.publish(ctx, BookingConfirmedQueue, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, queue string, body []byte) error {
	conn, err := p.connection()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}

	return nil
}

func (p *AMQPPublisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	p.conn = conn
	p.logger.Info("connected to rabbitmq")

	return conn, nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}

	return p.conn.Close()
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingConfirmed(context.Context, BookingConfirmed) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
