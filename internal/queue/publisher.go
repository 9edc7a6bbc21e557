package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/metrics"
)

// Publisher publishes order events to a durable topic exchange.  An AMQP
// channel is not safe for concurrent publishing, so calls are serialised.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishOrderEvent publishes ev with its Type as routing key.  Messages are
// persistent and carry the correlation id of the request.
func (p *Publisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	if ev.CorrelationID == "" {
		ev.CorrelationID = logging.CorrelationIDFromContext(ctx)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     ev.EventID,
		CorrelationId: ev.CorrelationID,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Type, "error").Inc()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	metrics.EventsPublished.WithLabelValues(ev.Type, "ok").Inc()
	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher stands in for the broker when RabbitMQ is not configured.
// Events are written to the request logger.
type LogPublisher struct{}

func (LogPublisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	logging.FromContext(ctx).
		WithField("routing_key", ev.Type).
		WithField("order_code", ev.OrderCode).
		Info("order event (broker disabled)")
	metrics.EventsPublished.WithLabelValues(ev.Type, "skipped").Inc()
	return nil
}
